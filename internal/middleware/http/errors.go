package middleware_http

import (
	"errors"
	"log/slog"
	"net/http"

	"product-api/internal/apperror"
	"product-api/internal/logger"
)

const MsgInternal = "Something went wrong"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation: http.StatusBadRequest,
	apperror.KindNotFound:   http.StatusNotFound,
}

// TranslateError is the only place error responses are written. Validation and
// not-found errors expose their message; anything else is logged and hidden.
func TranslateError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	kind := apperror.KindOf(err)
	if status, ok := statusByKind[kind]; ok {
		var appErr *apperror.Error
		errors.As(err, &appErr)
		logger.Info(ctx, "Request rejected",
			slog.String("error", err.Error()),
			slog.Int("http.status", status),
		)
		WriteJSON(w, status, ErrorResponse{Error: string(kind), Message: appErr.Message})
		return
	}

	logger.Error(ctx, "Unhandled error",
		slog.String("error", err.Error()),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	)
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   string(apperror.KindInternal),
		Message: MsgInternal,
	})
}
