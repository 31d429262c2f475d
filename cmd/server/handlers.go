package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/xiumachile/billpro/internal/logger"
	"github.com/xiumachile/billpro/internal/pricing"
	"github.com/xiumachile/billpro/internal/report"
	"github.com/xiumachile/billpro/internal/sales"
	"github.com/xiumachile/billpro/internal/store"
	"github.com/xiumachile/billpro/internal/units"
)

type server struct {
	auth  *authService
	store *store.Store
	log   *logger.Logger
	loc   *time.Location
	now   func() time.Time
}

// badRequest marks an error caused by the client's input.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.log.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.middleware)
		r.Get("/products/{id}/cost", s.handleProductCost)
		r.Get("/combos/{id}/cost", s.handleComboCost)
		r.Post("/units/convert", s.handleConvert)
		r.Get("/reports/sales", s.handleSalesReport)
		r.Get("/reports/sales/sellers", s.handleReportSellers)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email y password son obligatorios")
		return
	}

	valid, err := s.auth.validateCredentials(r.Context(), email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		respondError(w, http.StatusUnauthorized, "credenciales inválidas")
		return
	}

	token, expires, err := s.auth.generateToken(email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logger.FromContext(r.Context(), s.log).Info("login", "email", email)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

type productCostResponse struct {
	pricing.ProductCost
	SellingPrice decimal.Decimal `json:"selling_price"`
	Margin       pricing.Margin  `json:"margin"`
	Tier         string          `json:"tier"`
}

func (s *server) handleProductCost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cat, err := s.store.LoadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, ok := cat.Product(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("product %d not found", id))
		return
	}

	cost := pricing.NewCalculator(cat, pricing.NewMemo(cat.Version())).ProductCost(p)
	price := pricing.Money(p.SellingPrice)
	margin := pricing.MarginOf(price, cost.UnitCost)
	respondJSON(w, http.StatusOK, productCostResponse{
		ProductCost:  cost,
		SellingPrice: price,
		Margin:       margin,
		Tier:         pricing.Tier(margin.Percent),
	})
}

func (s *server) handleComboCost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cat, err := s.store.LoadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	combo, ok := cat.Combo(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("combo %d not found", id))
		return
	}
	summary := pricing.NewCalculator(cat, pricing.NewMemo(cat.Version())).ComboSummary(combo)
	respondJSON(w, http.StatusOK, summary)
}

type convertRequest struct {
	Quantity          float64 `json:"quantity"`
	OriginUnitID      *int64  `json:"origin_unit_id"`
	DestinationUnitID *int64  `json:"destination_unit_id"`
}

type convertResponse struct {
	units.Conversion
	Origin      *units.Unit `json:"origin,omitempty"`
	Destination *units.Unit `json:"destination,omitempty"`
	Reliable    bool        `json:"reliable"`
}

// handleConvert exposes the resolver as is: unknown unit IDs behave like
// missing ones and come back with the quantity unchanged.
func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity debe ser mayor o igual a 0")
		return
	}

	cat, err := s.store.LoadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, to := cat.Unit(req.OriginUnitID), cat.Unit(req.DestinationUnitID)
	conv := cat.Resolver().Normalize(req.Quantity, from, to)
	respondJSON(w, http.StatusOK, convertResponse{
		Conversion:  conv,
		Origin:      from,
		Destination: to,
		Reliable:    conv.Reliable(),
	})
}

func (s *server) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	rng, err := s.dateRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cat, err := s.store.LoadCatalog(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	orders, err := s.store.ListOrders(r.Context(), store.OrderQuery{
		From:     rng.From,
		To:       rng.To,
		Statuses: sales.ReportableStatuses,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res := report.Build(cat, orders, rng, filters)
	logger.FromContext(r.Context(), s.log).Debug("sales report built",
		"user", emailFromContext(r.Context()),
		"from", res.From, "to", res.To, "orders", res.OrderCount, "unreliable", res.UnreliableConversions)
	respondJSON(w, http.StatusOK, res)
}

func (s *server) handleReportSellers(w http.ResponseWriter, r *http.Request) {
	rng, err := s.dateRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	orders, err := s.store.ListOrders(r.Context(), store.OrderQuery{From: rng.From, To: rng.To})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	inRange := orders[:0]
	for _, o := range orders {
		if rng.Contains(o.Date) {
			inRange = append(inRange, o)
		}
	}
	respondJSON(w, http.StatusOK, report.Sellers(inRange))
}

// dateRange reads ?preset= or ?from=&to=. With neither it reports today.
func (s *server) dateRange(r *http.Request) (report.DateRange, error) {
	q := r.URL.Query()
	from, to, preset := q.Get("from"), q.Get("to"), q.Get("preset")

	switch {
	case preset != "":
		rng, err := report.Preset(preset, s.now(), s.loc)
		if errors.Is(err, report.ErrUnknownPreset) {
			return report.DateRange{}, invalid("preset %q no es válido", preset)
		}
		return rng, err
	case from == "" && to == "":
		return report.Preset("hoy", s.now(), s.loc)
	case from == "" || to == "":
		return report.DateRange{}, invalid("from y to son obligatorios")
	}

	rng, err := report.ParseRange(from, to, s.loc)
	if err != nil {
		return report.DateRange{}, invalid("%v", err)
	}
	return rng, nil
}

func parseFilters(r *http.Request) (report.Filters, error) {
	var f report.Filters
	q := r.URL.Query()
	if raw := q.Get("seller"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return f, invalid("seller debe ser numérico")
		}
		f.SellerID = &id
	}
	if raw := q.Get("category"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return f, invalid("category debe ser numérico")
		}
		f.CategoryID = &id
	}
	return f, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id %q no es válido", raw)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}

// fail maps err to a status code. Only unexpected errors are logged.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		respondError(w, http.StatusBadRequest, br.msg)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	default:
		logger.FromContext(r.Context(), s.log).Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
