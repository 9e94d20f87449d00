package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"product-api/internal/model"
)

const apiKeyHeader = "x-api-key"

// APIError is an error response of the product API.
type APIError struct {
	StatusCode int    `json:"-"`
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Kind, e.Message)
}

// ProductClient calls the product API with an API key.
type ProductClient struct {
	http *HTTPClient
}

func NewProductClient(baseURL, apiKey string, timeout time.Duration) *ProductClient {
	c := NewHTTPClient(baseURL, timeout)
	c.SetDefaultHeader(apiKeyHeader, apiKey)
	return &ProductClient{http: c}
}

func (c *ProductClient) call(ctx context.Context, opts RequestOptions, out any) error {
	resp, err := c.http.Do(ctx, opts)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := resp.DecodeJSON(apiErr); err != nil {
			apiErr.Kind = http.StatusText(resp.StatusCode)
			apiErr.Message = string(resp.RawBody)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return resp.DecodeJSON(out)
}

func (c *ProductClient) List(ctx context.Context, page, limit int64) (*model.ProductPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.FormatInt(page, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.FormatInt(limit, 10))
	}
	var out model.ProductPage
	if err := c.call(ctx, RequestOptions{Method: http.MethodGet, Path: "/api/products", QueryParams: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Search(ctx context.Context, name string) (*model.SearchResult, error) {
	var out model.SearchResult
	opts := RequestOptions{Method: http.MethodGet, Path: "/api/products/search", QueryParams: url.Values{"name": {name}}}
	if err := c.call(ctx, opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Stats(ctx context.Context) (*model.Stats, error) {
	var out model.Stats
	if err := c.call(ctx, RequestOptions{Method: http.MethodGet, Path: "/api/products/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Get(ctx context.Context, id string) (*model.Product, error) {
	var out model.Product
	if err := c.call(ctx, RequestOptions{Method: http.MethodGet, Path: "/api/products/" + url.PathEscape(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var out model.Product
	if err := c.call(ctx, RequestOptions{Method: http.MethodPost, Path: "/api/products", Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Update(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	var out model.Product
	opts := RequestOptions{Method: http.MethodPut, Path: "/api/products/" + url.PathEscape(id), Body: in}
	if err := c.call(ctx, opts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Delete(ctx context.Context, id string) error {
	return c.call(ctx, RequestOptions{Method: http.MethodDelete, Path: "/api/products/" + url.PathEscape(id)}, nil)
}
