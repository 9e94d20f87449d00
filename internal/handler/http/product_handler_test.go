package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryInt64(t *testing.T) {
	cases := map[string]int64{
		"":                     0,
		"abc":                  0,
		"-":                    0,
		"7":                    7,
		" 7 ":                  7,
		"1.5":                  1,
		"2abc":                 2,
		"+3":                   3,
		"-4":                   -4,
		"99999999999999999999": math.MaxInt64,
	}
	for raw, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/products?limit="+url.QueryEscape(raw), nil)
		assert.Equal(t, want, queryInt64(req, "limit"), raw)
	}
}
