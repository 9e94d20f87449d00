package logger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrMap(attrs []slog.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value.String()
	}
	return out
}

func TestHeaderAttrs_MasksSecrets(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("X-Api-Key", "my-secret-api-key")
	hdr.Set("Authorization", "Bearer abc")
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Unlisted", "dropped")

	got := attrMap(HeaderAttrs(hdr))

	assert.Equal(t, "***", got["http.header.x-api-key"])
	assert.Equal(t, "***", got["http.header.authorization"])
	assert.Equal(t, "application/json", got["http.header.content-type"])
	assert.NotContains(t, got, "http.header.x-unlisted")
}

func TestLogHTTPRequest_KeepsBodyReadable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/products?page=2", strings.NewReader(`{"name":"Pen","price":1.5,"tags":["a","b","c"]}`))
	req.Header.Set("Content-Type", "application/json")

	got := attrMap(LogHTTPRequest(req, "incoming::request", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

	assert.Equal(t, "POST", got["http.method"])
	assert.Equal(t, "/api/products", got["http.path"])
	assert.Equal(t, "2", got["http.query.page"])
	assert.Equal(t, "Pen", got["http.body.name"])
	assert.Equal(t, "a", got["http.body.tags.0"])
	assert.Equal(t, "c", got["http.body.tags.2"])
	assert.NotContains(t, got, "http.body.tags.1")
	assert.Equal(t, "2024-01-02T03:04:05Z", got["http.timestamp"])

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"Pen"`)
}

func TestDecodeBody_NonJSONFallsBack(t *testing.T) {
	attrs, err := DecodeBody("application/json", []byte("{not json"))
	require.NoError(t, err)
	assert.Equal(t, "{not json", attrMap(attrs)["http.body"])

	attrs, err = DecodeBody("application/octet-stream", make([]byte, 300))
	require.NoError(t, err)
	assert.Equal(t, "300", attrMap(attrs)["http.body.size_bytes"])
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "rid-1")
	assert.Equal(t, "rid-1", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))

	got := attrMap(enrich(ctx))
	assert.Equal(t, "rid-1", got["request_id"])
}

func TestBuildLogEntry_LokiShape(t *testing.T) {
	t.Setenv("APP_NAME", "product-api-test")

	entry := buildLogEntry("warn", "hello", []slog.Attr{slog.String("k", "v")})
	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded struct {
		Streams []struct {
			Stream map[string]string `json:"stream"`
			Values [][]string        `json:"values"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Streams, 1)
	assert.Equal(t, "warn", decoded.Streams[0].Stream["level"])
	assert.Equal(t, "product-api-test", decoded.Streams[0].Stream["job"])
	require.Len(t, decoded.Streams[0].Values, 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(decoded.Streams[0].Values[0][1]), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "v", line["k"])
}

func TestInfo_PushesToRemote(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	t.Setenv("REMOTE_LOG_HTTP_URI", srv.URL)

	Info(context.Background(), "remote-check", slog.String("component", "test"))

	select {
	case body := <-received:
		assert.Contains(t, string(body), "remote-check")
	case <-time.After(3 * time.Second):
		t.Fatal("remote log was not pushed")
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
