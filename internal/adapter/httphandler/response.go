package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
)

var errInvalidJSON = errors.New("invalid JSON data")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, log *slog.Logger) {
	writeJSON(w, status, ErrorResponse{Error: msg}, log)
}

// writeServiceError maps err to the response status.
func writeServiceError(w http.ResponseWriter, err error, log *slog.Logger) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found", log)
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, cart.ErrInvalidQuantity.Error(), log)
	case errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, port.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, "invalid product", log)
	case errors.Is(err, service.ErrEmptySession):
		writeError(w, http.StatusBadRequest, service.ErrEmptySession.Error(), log)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", log)
		log.Error("request failed", "err", err)
	}
}
