package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CapLedger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error category onto an HTTP status and writes the
// error envelope. Uncategorized errors come back as 500 INTERNAL.
func writeError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	})
}

// decodeJSON decodes the request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}

// pathUUID parses a URL path segment as a UUID.
func pathUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Validationf("invalid id %q", raw)
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps and bare dates; empty means now.
func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid date %q", raw)
	}
	return t, nil
}

// parseAmount parses a required decimal string.
func parseAmount(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, domain.Validationf("%s is required", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Validationf("invalid %s %q", field, raw)
	}
	return d, nil
}

// parseOptionalAmount parses a decimal string that may be absent.
func parseOptionalAmount(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q", field, raw)
	}
	return &d, nil
}

// parseOptionalUUID parses a UUID string that may be absent.
func parseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.Validationf("invalid %s %q", field, raw)
	}
	return &id, nil
}
