package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTraversalBlocked(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(a.mediaDir), "secret.txt"), []byte("s3cr3t"), 0o600))

	for _, p := range []string{
		"/media/../secret.txt",
		"/media/%2e%2e/secret.txt",
		"/media/products/..%2f..%2fsecret.txt",
		"/media/",
	} {
		resp, body := a.do(t, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
		assert.NotContains(t, string(body), "s3cr3t", p)
	}
}

func TestMediaServesUploadedFile(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(a.mediaDir, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(a.mediaDir, "products", "1-a.txt"), []byte("hello"), 0o644))

	resp, body := a.do(t, httptest.NewRequest(http.MethodGet, "/media/products/1-a.txt", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))

	resp, body = a.do(t, httptest.NewRequest(http.MethodGet, "/media/products/missing.png", nil))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, string(body), a.mediaDir)
}

func TestMalformedBodies(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := a.do(t, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, errorResponse{Error: "validation_error", Message: "Malformed JSON body"}, decode[errorResponse](t, body))

	req = httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"a"} {"name":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body = a.do(t, req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Malformed JSON body", decode[errorResponse](t, body).Message)

	req = httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("<product/>"))
	req.Header.Set("Content-Type", "application/xml")
	resp, _ = a.do(t, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, body = a.json(t, http.MethodPost, "/api/products", map[string]any{"quantity": "many"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", decode[errorResponse](t, body).Error)
}

func TestCORSPreflight(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, _ := a.do(t, req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
