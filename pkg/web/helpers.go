package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/stitchnstyle/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ParseID extracts and validates the ID from the request path. Returns the ID and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	pathValueID := chi.URLParam(r, "id")
	id, err := uuid.Parse(pathValueID)
	if err != nil {
		RespondFail(w, logger, KindValidation, fmt.Sprintf("Invalid ID: %s", pathValueID), nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// GetPrincipal retrieves the authenticated caller from the request context. Returns the principal and a boolean indicating success.
func GetPrincipal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok || p.Subject == "" {
		RespondFail(w, logger, KindUnauthorized, "Unauthorized: missing or invalid user identity", nil)
		return auth.Principal{}, false
	}
	return p, true
}

// DecodeAndValidate decodes the JSON body into dst and runs struct validation. On failure it
// writes a validation envelope and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		RespondFail(w, logger, KindValidation, "Invalid request body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			RespondFail(w, logger, KindValidation, "Validation failed", ValidationFields(validationErrors))
			return false
		}
		logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		RespondFail(w, logger, KindValidation, "Invalid request body", nil)
		return false
	}
	return true
}

// ValidationFields converts validator errors into a field -> rule map.
func ValidationFields(validationErrors validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		// fieldErr.Tag() returns "required", "max", etc.
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return fields
}
