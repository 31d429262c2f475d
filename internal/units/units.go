package units

import (
	"math"
	"strings"
)

// Dimension is the physical quantity a unit measures.
type Dimension string

const (
	Unclassified Dimension = ""
	Mass         Dimension = "mass"
	Volume       Dimension = "volume"
	Count        Dimension = "count"
)

// Unit is a unit of measure from the catalog. Dimension and BaseFactor are
// optional: BaseFactor is how many base units of the dimension (grams,
// milliliters, pieces) one of this unit holds.
type Unit struct {
	ID         int64     `db:"id" json:"id" yaml:"id"`
	Symbol     string    `db:"symbol" json:"symbol" yaml:"symbol"`
	Name       string    `db:"name" json:"name" yaml:"name"`
	Dimension  Dimension `db:"dimension" json:"dimension,omitempty" yaml:"dimension"`
	BaseFactor float64   `db:"base_factor" json:"base_factor,omitempty" yaml:"base_factor"`
}

// Factor is a directed conversion edge: destination = origin * Factor.
type Factor struct {
	OriginID      int64   `db:"origin_unit_id" json:"origin_unit_id" yaml:"origin"`
	DestinationID int64   `db:"destination_unit_id" json:"destination_unit_id" yaml:"destination"`
	Factor        float64 `db:"factor" json:"factor" yaml:"factor"`
}

// Method records which rule produced a conversion.
type Method int

const (
	MethodIdentity Method = iota
	MethodUnspecified
	MethodDirect
	MethodInverse
	MethodDimension
	MethodPassthrough
)

var methodNames = [...]string{
	MethodIdentity:    "identity",
	MethodUnspecified: "unspecified",
	MethodDirect:      "direct",
	MethodInverse:     "inverse",
	MethodDimension:   "dimension",
	MethodPassthrough: "passthrough",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// MarshalText renders the method name in JSON payloads.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Conversion is the outcome of Normalize.
type Conversion struct {
	Quantity float64 `json:"quantity"`
	Method   Method  `json:"method"`
}

// Reliable reports whether a real rule backed the conversion. A passthrough
// means no rule matched and the quantity was returned 1:1.
func (c Conversion) Reliable() bool {
	return c.Method != MethodPassthrough
}

type edge struct {
	from, to int64
}

// Resolver converts quantities using the configured factor graph, then the
// unit dimensions, then a 1:1 passthrough. The zero value and a nil
// *Resolver are usable and know no factors.
type Resolver struct {
	edges map[edge]float64
}

// NewResolver indexes factors by directed pair. Non-positive or non-finite
// factors are skipped; when a pair repeats the first factor wins.
func NewResolver(factors []Factor) *Resolver {
	r := &Resolver{edges: make(map[edge]float64, len(factors))}
	for _, f := range factors {
		if !validFactor(f.Factor) {
			continue
		}
		key := edge{from: f.OriginID, to: f.DestinationID}
		if _, ok := r.edges[key]; ok {
			continue
		}
		r.edges[key] = f.Factor
	}
	return r
}

// Normalize expresses quantity, given in unit from, in unit to. It never
// fails: a missing unit on either side returns the quantity as is, and an
// unknown pair falls back to a passthrough the caller can flag.
func (r *Resolver) Normalize(quantity float64, from, to *Unit) Conversion {
	if from == nil || to == nil {
		return Conversion{Quantity: quantity, Method: MethodUnspecified}
	}
	if from.ID == to.ID {
		return Conversion{Quantity: quantity, Method: MethodIdentity}
	}

	if f, ok := r.factor(from.ID, to.ID); ok {
		return Conversion{Quantity: quantity * f, Method: MethodDirect}
	}
	if f, ok := r.factor(to.ID, from.ID); ok {
		return Conversion{Quantity: quantity / f, Method: MethodInverse}
	}

	fromDim, fromBase := dimensionOf(from)
	toDim, toBase := dimensionOf(to)
	if fromDim != Unclassified && fromDim == toDim {
		return Conversion{Quantity: quantity * fromBase / toBase, Method: MethodDimension}
	}

	return Conversion{Quantity: quantity, Method: MethodPassthrough}
}

func (r *Resolver) factor(from, to int64) (float64, bool) {
	if r == nil || r.edges == nil {
		return 0, false
	}
	f, ok := r.edges[edge{from: from, to: to}]
	return f, ok
}

func dimensionOf(u *Unit) (Dimension, float64) {
	if u.Dimension != Unclassified && validFactor(u.BaseFactor) {
		return u.Dimension, u.BaseFactor
	}
	dim, base, _ := Classify(u.Symbol)
	return dim, base
}

type classification struct {
	dim  Dimension
	base float64
}

// Only these spellings are recognized; anything else stays unclassified.
var symbolTable = map[string]classification{
	"g":         {Mass, 1},
	"gr":        {Mass, 1},
	"gramo":     {Mass, 1},
	"gramos":    {Mass, 1},
	"kg":        {Mass, 1000},
	"kilo":      {Mass, 1000},
	"kgs":       {Mass, 1000},
	"kilos":     {Mass, 1000},
	"ml":        {Volume, 1},
	"cc":        {Volume, 1},
	"mililitro": {Volume, 1},
	"l":         {Volume, 1000},
	"lt":        {Volume, 1000},
	"litro":     {Volume, 1000},
	"litros":    {Volume, 1000},
}

// Classify maps a unit symbol (case-insensitive, trimmed) to its dimension
// and base factor.
func Classify(symbol string) (Dimension, float64, bool) {
	c, ok := symbolTable[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Unclassified, 0, false
	}
	return c.dim, c.base, true
}

func validFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
