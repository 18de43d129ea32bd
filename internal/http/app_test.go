package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"blossoms/internal/config"
	"blossoms/internal/domain"
	"blossoms/internal/http/handlers"
	applog "blossoms/internal/log"
	"blossoms/internal/objectstore"
	"blossoms/internal/repos"
)

const baseURL = "http://localhost:5000"

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

type testApp struct {
	app      *fiber.App
	mediaDir string
	access   *lockedBuf
}

func testConfig(mediaDir string) config.Config {
	return config.Config{
		StorageDriver: config.StorageLocal,
		MediaDir:      mediaDir,
		PublicBaseURL: baseURL,
		CORSOrigins:   []string{"http://localhost:3000"},
		BodyLimit:     1 << 20,
	}
}

// newTestApp builds the real app over an in-memory sqlite database and a
// temporary media directory.
func newTestApp(t *testing.T, tweak ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig(t.TempDir())
	for _, f := range tweak {
		f(&cfg)
	}
	db, err := repos.OpenDB(repos.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	images, err := objectstore.NewLocal(cfg.MediaDir, cfg.PublicBaseURL)
	require.NoError(t, err)
	return newTestAppWith(t, cfg, repos.NewProductRepo(db), repos.NewOrderRepo(db), images)
}

func newTestAppWith(t *testing.T, cfg config.Config, products domain.ProductRepository, orders domain.OrderRepository, images domain.ImageStore) *testApp {
	t.Helper()
	access := &lockedBuf{}
	deps := handlers.NewDeps(products, orders, images)
	return &testApp{app: handlers.NewApp(deps, cfg, access), mediaDir: cfg.MediaDir, access: access}
}

func (a *testApp) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

func (a *testApp) json(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(t, req)
}

type upload struct {
	name        string
	contentType string
	data        string
}

// multipartRequest encodes values (repeating keys with several values) and an
// optional image file.
func multipartRequest(t *testing.T, method, path string, values map[string][]string, img *upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+img.name+`"`)
		h.Set("Content-Type", img.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(part, img.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Path   string         `json:"path"`
	Status int            `json:"status"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// captureLogs points the application logger at a buffer for the duration
// of fn and returns the parsed entries.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.Init(buf, slog.LevelDebug)
	defer applog.Init(os.Stdout, slog.LevelInfo)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
