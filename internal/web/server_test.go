package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/config"
	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/sheet"
	"github.com/JonMunkholm/fundsheet/internal/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 10 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize:   10 << 20,
			Dir:           t.TempDir(),
			HeaderRows:    1,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
		},
		Export: config.ExportConfig{Dir: t.TempDir()},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *core.Service) {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, "sqlite3", filepath.Join(t.TempDir(), "funding.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := core.NewService(sqlstore.New(db, cfg.Database.Table), sheet.New(), cfg.ServiceOptions())
	require.NoError(t, svc.Init(ctx))
	return NewServer(svc, cfg), svc
}

func workbook(t *testing.T, records []core.Record) []byte {
	t.Helper()
	g, err := core.ExportGrid(records, core.Funding())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sheet.New().WriteGrid(&buf, g, "Sheet1"))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

var seedRecords = []core.Record{
	{"organization_name": "Acme", "website": "acme.com", "number_of_employees": "1500"},
	{"organization_name": "Globex", "website": "globex.com", "number_of_employees": "20000"},
	{"organization_name": "Initech", "contact_name": "Bill Lumbergh", "number_of_employees": "60"},
}

func seed(t *testing.T, svc *core.Service) {
	t.Helper()
	g, err := core.ExportGrid(seedRecords, core.Funding())
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), g)
	require.NoError(t, err)
}

func TestUpload(t *testing.T) {
	cfg := testConfig(t)
	s, _ := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "Funding.XLSX", workbook(t, seedRecords)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "File uploaded and data saved to database successfully", resp.Message)
	assert.Equal(t, "Funding.XLSX", resp.FileName)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, 3, resp.Inserted)
	assert.NotEmpty(t, resp.UploadID)

	entries, err := os.ReadDir(cfg.Upload.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "ingested upload should be removed")
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		status   int
		code     string
	}{
		{"wrong extension", "data.csv", []byte("a,b\n1,2\n"), http.StatusBadRequest, "FILE006"},
		{"not a workbook", "data.xlsx", []byte("garbage"), http.StatusBadRequest, "FILE002"},
		{"no file", "", nil, http.StatusBadRequest, "REQ001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			s, _ := newTestServer(t, cfg)

			rec := serve(s, uploadRequest(t, tt.filename, tt.content))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)

			entries, err := os.ReadDir(cfg.Upload.Dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 512
	s, _ := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "big.xlsx", bytes.Repeat([]byte("x"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_Retained(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.Retain = true
	s, _ := newTestServer(t, cfg)

	rec := serve(s, uploadRequest(t, "keep.xlsx", workbook(t, seedRecords[:1])))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	entries, err := os.ReadDir(cfg.Upload.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/uploads/"+entries[0].Name(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func searchRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSearch(t *testing.T) {
	s, svc := newTestServer(t, testConfig(t))
	seed(t, svc)

	tests := []struct {
		name      string
		body      string
		wantNames int
		wantMsg   string
	}{
		{"names", `{"organization_name":"Acme, Globex"}`, 2, ""},
		{"range", `{"number_of_employees":"10001+"}`, 1, ""},
		{"or across fields", `{"website":"acme.com","contact_name":"Bill Lumbergh"}`, 2, ""},
		{"no match", `{"organization_name":"Nobody"}`, 0, noDataMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, searchRequest(tt.body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp struct {
				Data    []map[string]any `json:"data"`
				Message string           `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotNil(t, resp.Data)
			assert.Len(t, resp.Data, tt.wantNames)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestSearch_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t))

	for _, body := range []string{`{}`, `not json`, `{"industries":"Fintech"}`, `{"website":{"a":1}}`} {
		rec := serve(s, searchRequest(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "QRY001", decodeError(t, rec).Code, body)
	}
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)
	s, svc := newTestServer(t, cfg)
	seed(t, svc)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export?organization_name=Acme&website=globex.com", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="exported_data.xlsx"`, rec.Header().Get("Content-Disposition"))

	path := filepath.Join(t.TempDir(), "got.xlsx")
	require.NoError(t, os.WriteFile(path, rec.Body.Bytes(), 0o600))
	g, err := sheet.New().ReadGrid(path)
	require.NoError(t, err)
	records, err := core.DecodeAll(g, core.Funding(), core.DecodeOptions{SkipRows: 1})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "Organization Name", g.Rows[0][0])

	entries, err := os.ReadDir(cfg.Export.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "export workbook should be removed")
}

func TestExport_Errors(t *testing.T) {
	s, svc := newTestServer(t, testConfig(t))
	seed(t, svc)

	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"no filter", "", http.StatusBadRequest, "QRY001"},
		{"no match", "?organization_name=Nobody", http.StatusNotFound, "QRY002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/export"+tt.query, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Ingests.MaxConcurrent)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t))
	serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fundsheet_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, UploadLimit: 1, Burst: 1}
	s, _ := newTestServer(t, cfg)

	first := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, second).Code)
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{&core.UnsupportedFileTypeError{Ext: ".csv"}, http.StatusBadRequest},
		{&core.FormatError{Reason: "x"}, http.StatusBadRequest},
		{&core.InvalidCriteriaError{Reason: "x"}, http.StatusBadRequest},
		{&core.EmptyResultError{Op: "export"}, http.StatusNotFound},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{&core.PersistenceError{Op: "ingest", Err: errors.New("boom")}, http.StatusInternalServerError},
		{&core.ExportIOError{Op: "create", Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("anything"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), "%v", tt.err)
	}
}

func TestRespondError_PersistenceCounts(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)

	respondError(rec, req, &core.PersistenceError{Op: "ingest", Row: 7, Inserted: 5, Err: errors.New("connection refused")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, 7, resp.Row)
	require.NotNil(t, resp.Inserted)
	assert.Equal(t, 5, *resp.Inserted)
	assert.NotContains(t, resp.Error, "connection refused", "driver text stays server-side")
}
