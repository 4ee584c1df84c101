package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/services"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

var validate = newValidator()

// Field names in validation errors follow the json tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func writeJSON(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encode failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeError(log *zap.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(log, w, r, status, map[string]string{"error": msg})
}

// Decode exactly one JSON object and validate it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "invalid json body"}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &domain.ValidationError{Field: "body", Reason: "body must contain only one JSON object"}
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &domain.ValidationError{Field: verrs[0].Field(), Reason: validationMessage(verrs[0])}
	}
	return err
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "invalid value"
	}
}

// Map service errors onto HTTP statuses. Unexpected errors are logged and
// reported without detail.
func writeServiceError(log *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(log, w, r, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeError(log, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUpstreamRate):
		writeError(log, w, r, http.StatusServiceUnavailable, "exchange rate temporarily unavailable")
	case errors.Is(err, domain.ErrDispatch):
		writeError(log, w, r, http.StatusServiceUnavailable, "task could not be queued")
	default:
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(log, w, r, http.StatusInternalServerError, "internal server error")
	}
}

func callerFrom(r *http.Request, sessionID string) services.Caller {
	return services.Caller{RequestID: r.Header.Get(RequestIDHeader), SessionID: sessionID}
}

func requestLogger(log *zap.Logger, r *http.Request) *zap.Logger {
	return log.With(zap.String("request_id", r.Header.Get(RequestIDHeader)))
}
