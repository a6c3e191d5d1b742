package rest

import (
	"errors"
	"log/slog"
	"net/http"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/abgdnv/stitchnstyle/pkg/web"
)

// kindOf classifies a service error for the response envelope.
func kindOf(err error) web.ErrorKind {
	switch {
	case errors.Is(err, sferrors.ErrValidation):
		return web.KindValidation
	case errors.Is(err, sferrors.ErrNotFound):
		return web.KindNotFound
	case errors.Is(err, sferrors.ErrStateConflict), errors.Is(err, sferrors.ErrOptimisticLock):
		return web.KindStateConflict
	case errors.Is(err, sferrors.ErrPaymentFailed):
		return web.KindPaymentFailed
	case errors.Is(err, sferrors.ErrAccessDenied):
		return web.KindForbidden
	case errors.Is(err, sferrors.ErrOwnerRequired):
		return web.KindUnauthorized
	default:
		return web.KindInternal
	}
}

// respondError writes the envelope for err. Internal errors are logged with their cause and
// reported with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action string) {
	kind := kindOf(err)
	if kind == web.KindInternal {
		logger.ErrorContext(r.Context(), "Error "+action, "error", err)
		web.RespondFail(w, logger, kind, "Failed "+action, nil)
		return
	}
	logger.WarnContext(r.Context(), "Rejected "+action, "kind", kind, "error", err)
	var fields map[string]string
	var ve *sferrors.ValidationError
	if errors.As(err, &ve) {
		fields = ve.Fields
	}
	web.RespondFail(w, logger, kind, err.Error(), fields)
}

