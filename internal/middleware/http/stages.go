package middleware_http

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"product-api/internal/apperror"
	"product-api/internal/logger"
	"product-api/internal/model"

	"github.com/google/uuid"
)

const (
	HeaderAPIKey    = "x-api-key"
	HeaderRequestID = "X-Request-ID"

	// MaxBodyBytes caps request bodies at 1 MiB.
	MaxBodyBytes = 1 << 20

	MsgInvalidAPIKey  = "Invalid or missing API key"
	MsgBodyTooLarge   = "Request body too large"
	MsgBodyUnreadable = "Request body could not be read"
)

type (
	bodyKey  struct{}
	inputKey struct{}
)

// RequestLogger assigns the request id and logs the inbound request. It never fails.
func RequestLogger() Stage {
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		r = r.WithContext(logger.WithRequestID(r.Context(), id))
		logger.Info(r.Context(), "HTTP", logger.LogHTTPRequest(r, "incoming::request", time.Now())...)
		return r, nil
	}
}

// Authenticate compares the x-api-key header with apiKey.
func Authenticate(apiKey string) Stage {
	expected := []byte(apiKey)
	return func(_ http.ResponseWriter, r *http.Request) (*http.Request, error) {
		got := []byte(r.Header.Get(HeaderAPIKey))
		if len(got) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			return nil, apperror.Validation(MsgInvalidAPIKey)
		}
		return r, nil
	}
}

// ParseBody reads the body once and keeps the raw JSON on the context. An empty
// body is allowed.
func ParseBody() Stage {
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
		if r.Body == nil || r.Body == http.NoBody {
			return r, nil
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, apperror.ValidationWrap(MsgBodyTooLarge, err)
			}
			return nil, apperror.ValidationWrap(MsgBodyUnreadable, err)
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))

		if len(bytes.TrimSpace(raw)) == 0 {
			return r, nil
		}
		if !json.Valid(raw) {
			return nil, apperror.Validation(model.MsgMalformedBody)
		}
		return r.WithContext(context.WithValue(r.Context(), bodyKey{}, raw)), nil
	}
}

// Body returns the JSON stored by ParseBody, nil when the request had none.
func Body(r *http.Request) []byte {
	raw, _ := r.Context().Value(bodyKey{}).([]byte)
	return raw
}

// ValidateProduct is the route stage of product create and update.
func ValidateProduct() Stage {
	return func(_ http.ResponseWriter, r *http.Request) (*http.Request, error) {
		in, err := model.DecodeProductInput(Body(r))
		if err != nil {
			return nil, err
		}
		return r.WithContext(context.WithValue(r.Context(), inputKey{}, in)), nil
	}
}

// ProductInput returns the payload accepted by ValidateProduct.
func ProductInput(r *http.Request) (*model.ProductInput, bool) {
	in, ok := r.Context().Value(inputKey{}).(*model.ProductInput)
	return in, ok
}
