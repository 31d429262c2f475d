package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	gram     = &Unit{ID: 1, Symbol: "gr", Name: "Gramo"}
	kilogram = &Unit{ID: 2, Symbol: "Kg ", Name: "Kilogramo"}
	liter    = &Unit{ID: 3, Symbol: "litro", Name: "Litro"}
	cc       = &Unit{ID: 4, Symbol: "CC", Name: "Centímetro cúbico"}
	unidad   = &Unit{ID: 5, Symbol: "unidad", Name: "Unidad"}
	box      = &Unit{ID: 6, Symbol: "caja", Name: "Caja"}
)

func TestNormalize_SameUnitIsIdentity(t *testing.T) {
	r := NewResolver([]Factor{{OriginID: 1, DestinationID: 1, Factor: 3}})

	for _, u := range []*Unit{gram, kilogram, liter, unidad} {
		for _, q := range []float64{0, 1, 2.5, 1e6} {
			got := r.Normalize(q, u, u)
			assert.Equal(t, q, got.Quantity)
			assert.Equal(t, MethodIdentity, got.Method)
		}
	}
}

func TestNormalize_MissingUnitPassesThroughAsReliable(t *testing.T) {
	r := NewResolver(nil)

	got := r.Normalize(7, nil, kilogram)
	assert.Equal(t, 7.0, got.Quantity)
	assert.Equal(t, MethodUnspecified, got.Method)
	assert.True(t, got.Reliable())

	got = r.Normalize(7, gram, nil)
	assert.Equal(t, 7.0, got.Quantity)
	assert.True(t, got.Reliable())
}

func TestNormalize_DirectFactorWinsOverHeuristic(t *testing.T) {
	r := NewResolver([]Factor{{OriginID: gram.ID, DestinationID: kilogram.ID, Factor: 0.002}})

	got := r.Normalize(500, gram, kilogram)
	assert.InDelta(t, 1.0, got.Quantity, 1e-9)
	assert.Equal(t, MethodDirect, got.Method)
}

func TestNormalize_InverseFactorDivides(t *testing.T) {
	r := NewResolver([]Factor{{OriginID: box.ID, DestinationID: unidad.ID, Factor: 12}})

	got := r.Normalize(24, unidad, box)
	assert.InDelta(t, 2.0, got.Quantity, 1e-9)
	assert.Equal(t, MethodInverse, got.Method)
}

func TestNormalize_RoundTripThroughFactor(t *testing.T) {
	r := NewResolver([]Factor{{OriginID: box.ID, DestinationID: unidad.ID, Factor: 12}})

	for _, q := range []float64{0, 1, 3.5, 1000} {
		there := r.Normalize(q, box, unidad)
		back := r.Normalize(there.Quantity, unidad, box)
		assert.InDelta(t, q, back.Quantity, 1e-9)
	}
}

func TestNormalize_SymbolHeuristicBothDirections(t *testing.T) {
	r := NewResolver(nil)

	got := r.Normalize(250, gram, kilogram)
	assert.InDelta(t, 0.25, got.Quantity, 1e-12)
	assert.Equal(t, MethodDimension, got.Method)

	got = r.Normalize(0.25, kilogram, gram)
	assert.InDelta(t, 250, got.Quantity, 1e-9)

	got = r.Normalize(330, cc, liter)
	assert.InDelta(t, 0.33, got.Quantity, 1e-12)

	got = r.Normalize(2, liter, cc)
	assert.InDelta(t, 2000, got.Quantity, 1e-9)
}

func TestNormalize_UnknownPairPassesThrough(t *testing.T) {
	r := NewResolver(nil)

	got := r.Normalize(5, unidad, liter)
	assert.Equal(t, 5.0, got.Quantity)
	assert.Equal(t, MethodPassthrough, got.Method)
	assert.False(t, got.Reliable())

	// mass and volume never convert into each other
	got = r.Normalize(5, gram, liter)
	assert.Equal(t, MethodPassthrough, got.Method)
}

func TestNormalize_ConfiguredDimensionBeatsSymbol(t *testing.T) {
	r := NewResolver(nil)
	dozen := &Unit{ID: 10, Symbol: "doc", Dimension: Count, BaseFactor: 12}
	piece := &Unit{ID: 11, Symbol: "pza", Dimension: Count, BaseFactor: 1}

	got := r.Normalize(2, dozen, piece)
	assert.InDelta(t, 24, got.Quantity, 1e-9)
	assert.Equal(t, MethodDimension, got.Method)
}

func TestNewResolver_SkipsInvalidFactors(t *testing.T) {
	r := NewResolver([]Factor{
		{OriginID: box.ID, DestinationID: unidad.ID, Factor: 0},
		{OriginID: box.ID, DestinationID: unidad.ID, Factor: -4},
		{OriginID: box.ID, DestinationID: unidad.ID, Factor: 6},
		{OriginID: box.ID, DestinationID: unidad.ID, Factor: 10},
	})

	got := r.Normalize(1, box, unidad)
	assert.Equal(t, 6.0, got.Quantity)
}

func TestNilResolver(t *testing.T) {
	var r *Resolver

	got := r.Normalize(1000, gram, kilogram)
	assert.InDelta(t, 1.0, got.Quantity, 1e-12)
}

func TestClassify(t *testing.T) {
	dim, base, ok := Classify("  KILOS ")
	assert.True(t, ok)
	assert.Equal(t, Mass, dim)
	assert.Equal(t, 1000.0, base)

	_, _, ok = Classify("onza")
	assert.False(t, ok)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "passthrough", MethodPassthrough.String())
	assert.Equal(t, "unknown", Method(99).String())
}
