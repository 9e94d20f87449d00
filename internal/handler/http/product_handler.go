package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"product-api/internal/logger"
	middleware_http "product-api/internal/middleware/http"
	"product-api/internal/model"
	"product-api/internal/service"

	"go.opentelemetry.io/otel"
)

const (
	WelcomeMessage       = "Welcome to the Product API! Go to /api/products to see all products."
	MsgProductDeleted    = "Product deleted successfully"
	MsgMissingValidation = "Product payload was not validated"
)

type ProductHandler struct {
	service *service.ProductService
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service *service.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

func (h *ProductHandler) Root(w http.ResponseWriter, r *http.Request) error {
	middleware_http.WriteText(w, http.StatusOK, WelcomeMessage)
	return nil
}

// queryInt64 reads the leading integer of a query parameter, so "1.5" is 1 and
// "2abc" is 2. Missing or non-numeric values are 0, which the service replaces
// with its default. Out-of-range values saturate.
func queryInt64(r *http.Request, key string) int64 {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(v[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()

	page, err := h.service.List(ctx, queryInt64(r, "page"), queryInt64(r, "limit"))
	if err != nil {
		return err
	}
	logger.Info(ctx, "Listed products",
		slog.Int64("page", page.Page),
		slog.Int64("limit", page.Limit),
		slog.Int("count", len(page.Products)),
	)
	middleware_http.WriteJSON(w, http.StatusOK, page)
	return nil
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Search")
	defer span.End()

	result, err := h.service.Search(ctx, r.URL.Query().Get("name"))
	if err != nil {
		return err
	}
	middleware_http.WriteJSON(w, http.StatusOK, result)
	return nil
}

func (h *ProductHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Stats")
	defer span.End()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		return err
	}
	middleware_http.WriteJSON(w, http.StatusOK, stats)
	return nil
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()

	product, err := h.service.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		return err
	}
	middleware_http.WriteJSON(w, http.StatusOK, product)
	return nil
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()

	in, err := input(r)
	if err != nil {
		return err
	}
	created, err := h.service.Create(ctx, in)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Product created", slog.String("id", created.ID.Hex()))
	middleware_http.WriteJSON(w, http.StatusCreated, created)
	return nil
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()

	in, err := input(r)
	if err != nil {
		return err
	}
	updated, err := h.service.Update(ctx, r.PathValue("id"), in)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Product updated", slog.String("id", updated.ID.Hex()))
	middleware_http.WriteJSON(w, http.StatusOK, updated)
	return nil
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()

	id := r.PathValue("id")
	if err := h.service.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "Product deleted", slog.String("id", id))
	middleware_http.WriteJSON(w, http.StatusOK, map[string]string{"message": MsgProductDeleted})
	return nil
}

// input returns the payload accepted by the ValidateProduct route stage.
func input(r *http.Request) (*model.ProductInput, error) {
	in, ok := middleware_http.ProductInput(r)
	if !ok {
		return nil, errors.New(MsgMissingValidation)
	}
	return in, nil
}
