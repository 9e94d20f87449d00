package http

import (
	"net/http"

	middleware_http "product-api/internal/middleware/http"
)

// NewRouter registers every route behind the request pipeline:
// request logger, API key check, body parser, then dispatch.
func NewRouter(apiKey string, products *ProductHandler, health *HealthHandler) http.Handler {
	mux := http.NewServeMux()
	route := middleware_http.Route
	validate := middleware_http.ValidateProduct()

	mux.Handle("GET /{$}", route(products.Root))
	mux.Handle("GET /healthz", route(health.Check))

	mux.Handle("GET /api/products", route(products.List))
	mux.Handle("GET /api/products/search", route(products.Search))
	mux.Handle("GET /api/products/stats", route(products.Stats))
	mux.Handle("GET /api/products/{id}", route(products.GetByID))
	mux.Handle("POST /api/products", route(products.Create, validate))
	mux.Handle("PUT /api/products/{id}", route(products.Update, validate))
	mux.Handle("DELETE /api/products/{id}", route(products.Delete))

	return middleware_http.NewPipeline(mux,
		middleware_http.RequestLogger(),
		middleware_http.Authenticate(apiKey),
		middleware_http.ParseBody(),
	)
}
