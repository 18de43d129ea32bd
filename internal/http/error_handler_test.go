package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blossoms/internal/domain"
	"blossoms/internal/objectstore"
	"blossoms/internal/repos"
)

// brokenProducts fails every call the way an unreachable database would.
type brokenProducts struct{ domain.ProductRepository }

var errSecret = errors.New("db timeout: dial tcp 10.0.0.7:5432: secret trace")

func (brokenProducts) List(context.Context, string) ([]domain.Product, error) { return nil, errSecret }
func (brokenProducts) Get(context.Context, string) (domain.Product, error) {
	return domain.Product{}, errSecret
}
func (brokenProducts) ListMaxQuantity(context.Context, int) ([]domain.Product, error) {
	return nil, errSecret
}

func newBrokenApp(t *testing.T) *testApp {
	t.Helper()
	cfg := testConfig(t.TempDir())
	db, err := repos.OpenDB(repos.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	images, err := objectstore.NewLocal(cfg.MediaDir, cfg.PublicBaseURL)
	require.NoError(t, err)
	return newTestAppWith(t, cfg, brokenProducts{}, repos.NewOrderRepo(db), images)
}

func TestStorageErrorsAreSanitized(t *testing.T) {
	a := newBrokenApp(t)

	cases := map[string]string{
		"/api/products":           "Error fetching products",
		"/api/products/low-stock": "Error fetching low stock products",
		"/api/products/abc":       "Error fetching product",
	}
	for path, msg := range cases {
		var body []byte
		entries := captureLogs(t, func() {
			var resp *http.Response
			resp, body = a.json(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		})
		assert.Equal(t, errorResponse{Error: "storage_error", Message: msg}, decode[errorResponse](t, body), path)
		assert.NotContains(t, string(body), "secret")
		assert.NotContains(t, string(body), "10.0.0.7")

		var logged bool
		for _, e := range entries {
			if strings.HasSuffix(e.Action, ".fail") && strings.Contains(e.Err, "secret trace") {
				logged = true
				assert.Equal(t, "ERROR", e.Level)
				assert.Equal(t, path, e.Path)
			}
		}
		assert.True(t, logged, "internal error not logged for %s", path)
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApp(t)
	resp, body := a.json(t, http.MethodGet, "/api/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errorResponse{Error: "not_found", Message: "Route not found"}, decode[errorResponse](t, body))
}
