package handlers

import (
	"context"
	"net/http"
	"net/url"
	"parcel-pricing-service/internal/api/dto"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/ports"
	"parcel-pricing-service/internal/services"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateReader answers the interactive exchange rate lookup.
type RateReader interface {
	Current(ctx context.Context) (decimal.Decimal, error)
}

// DefaultRateLookupTimeout bounds the rate lookup made while listing parcels.
const DefaultRateLookupTimeout = 2 * time.Second

// ParcelHandler exposes parcel registration and the session's parcel listing.
type ParcelHandler struct {
	Service      *services.ParcelService
	Rates        RateReader
	RateTimeout  time.Duration
	CookieName   string
	SecureCookie bool
	Log          *zap.Logger
}

// A cookie that cannot be stored as a session id counts as no session.
func (h *ParcelHandler) sessionID(r *http.Request) string {
	c, err := r.Cookie(h.CookieName)
	if err != nil || len(c.Value) > domain.MaxSessionIDLength {
		return ""
	}
	return c.Value
}

// Registration mints the session cookie when the client has none.
func (h *ParcelHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterParcelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	sessionID := h.sessionID(r)
	if sessionID == "" {
		sessionID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     h.CookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	p, err := h.Service.Register(r.Context(), callerFrom(r, sessionID), services.RegisterParcelInput{
		Name:     req.Name,
		Weight:   *req.Weight,
		TypeID:   req.TypeID,
		ValueUSD: *req.ValueUSD,
	})
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	writeJSON(h.Log, w, r, http.StatusCreated, parcelResponse(p))
}

func (h *ParcelHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		writeError(h.Log, w, r, http.StatusUnauthorized, "session cookie is required")
		return
	}

	q, err := parseListQuery(r.URL.Query())
	if err == nil {
		err = validateStruct(&q)
	}
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	filter := ports.ParcelFilter{TypeID: q.TypeID, HasPrice: q.HasPrice, OrderBy: q.OrderBy}
	if q.Limit != nil {
		filter.Limit = *q.Limit
	}
	if q.Offset != nil {
		filter.Offset = *q.Offset
	}

	parcels, err := h.Service.List(r.Context(), callerFrom(r, sessionID), filter)
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	res := dto.ListParcelsResponse{Parcels: make([]dto.ParcelResponse, 0, len(parcels))}
	for _, p := range parcels {
		res.Parcels = append(res.Parcels, parcelResponse(p))
	}

	if h.Rates != nil {
		timeout := h.RateTimeout
		if timeout <= 0 {
			timeout = DefaultRateLookupTimeout
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		rate, err := h.Rates.Current(ctx)
		cancel()
		if err != nil {
			requestLogger(h.Log, r).Warn("usd rate omitted from listing", zap.Error(err))
		} else {
			res.USDRate = &rate
		}
	}

	writeJSON(h.Log, w, r, http.StatusOK, res)
}

func (h *ParcelHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		writeError(h.Log, w, r, http.StatusUnauthorized, "session cookie is required")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeServiceError(h.Log, w, r, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return
	}

	p, err := h.Service.Get(r.Context(), callerFrom(r, sessionID), id)
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	writeJSON(h.Log, w, r, http.StatusOK, parcelResponse(p))
}

func (h *ParcelHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.ListTypes(r.Context(), callerFrom(r, h.sessionID(r)))
	if err != nil {
		writeServiceError(h.Log, w, r, err)
		return
	}

	res := dto.ListParcelTypesResponse{Types: make([]dto.ParcelTypeResponse, 0, len(types))}
	for _, t := range types {
		res.Types = append(res.Types, dto.ParcelTypeResponse{ID: t.ID, Name: t.Name})
	}
	writeJSON(h.Log, w, r, http.StatusOK, res)
}

func parcelResponse(p *domain.Parcel) dto.ParcelResponse {
	res := dto.ParcelResponse{
		ID:       p.ID,
		Name:     p.Name,
		Weight:   p.Weight,
		TypeID:   p.Type.ID,
		TypeName: p.Type.Name,
		ValueUSD: p.ValueUSD,
	}
	if p.IsPriced() {
		price := p.DeliveryPrice.Decimal
		res.DeliveryPrice = &price
	}
	return res
}

func parseListQuery(v url.Values) (dto.ListParcelsQuery, error) {
	var q dto.ListParcelsQuery
	q.OrderBy = v.Get("order_by")

	if s := v.Get("type_id"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return q, &domain.ValidationError{Field: "type_id", Reason: "must be an integer"}
		}
		q.TypeID = &n
	}
	if s := v.Get("has_price"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, &domain.ValidationError{Field: "has_price", Reason: "must be a boolean"}
		}
		q.HasPrice = &b
	}
	for _, f := range []struct {
		key string
		dst **int
	}{{"limit", &q.Limit}, {"offset", &q.Offset}} {
		s := v.Get(f.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, &domain.ValidationError{Field: f.key, Reason: "must be an integer"}
		}
		*f.dst = &n
	}
	return q, nil
}
