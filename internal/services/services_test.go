package services_test

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"blossoms/internal/objectstore"
	"blossoms/internal/repos"
	"blossoms/internal/services"
)

var clock = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func productService(t *testing.T) (*services.ProductService, string) {
	t.Helper()
	dir := t.TempDir()
	images, err := objectstore.NewLocal(dir, "http://localhost:5000")
	require.NoError(t, err)
	svc := services.NewProductService(repos.NewProductRepo(memdb(t)), images)
	svc.Now = func() time.Time { return clock }
	return svc, dir
}

func orderService(t *testing.T) *services.OrderService {
	t.Helper()
	svc := services.NewOrderService(repos.NewOrderRepo(memdb(t)))
	svc.Now = func() time.Time { return clock }
	return svc
}
