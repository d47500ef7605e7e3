package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	assetsapp "pipeline-dashboard/internal/assets/application"
	"pipeline-dashboard/internal/assets/infrastructure/memory"
	"pipeline-dashboard/internal/auth"
	importapp "pipeline-dashboard/internal/importing/application"
)

const uploadCSV = "Project Name,ISO,Infra\nKeystone,PJM,3\nBayou,ERCOT,2\n"

func newImportService(t *testing.T) (*importapp.Service, *memory.AssetRepository) {
	t.Helper()
	repo := memory.NewAssetRepository()
	assets, err := assetsapp.NewService(repo)
	if err != nil {
		t.Fatalf("asset service: %v", err)
	}
	svc, err := importapp.NewService(assets, nil)
	if err != nil {
		t.Fatalf("import service: %v", err)
	}
	return svc, repo
}

func multipartBody(t *testing.T, filename, content string, dryRun bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	_ = writer.WriteField("dry_run", strconv.FormatBool(dryRun))
	_ = writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestUploadImportsRows(t *testing.T) {
	svc, repo := newImportService(t)
	h, err := NewHandler(svc, 1<<20, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	body, contentType := multipartBody(t, "pipeline.csv", uploadCSV, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || repo.Len() != 0 {
		t.Fatalf("dry run: expected 200 and no writes, got %d / %d", rec.Code, repo.Len())
	}

	body, contentType = multipartBody(t, "pipeline.csv", uploadCSV, false)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleOperator, "ops"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report importapp.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Inserted) != 2 || repo.Len() != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestUploadErrors(t *testing.T) {
	svc, _ := newImportService(t)
	h, _ := NewHandler(svc, 1<<20, nil)

	body, contentType := multipartBody(t, "notes.txt", "hello", false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported file, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without multipart, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestTemplateDownload(t *testing.T) {
	svc, _ := newImportService(t)
	h, _ := NewHandler(svc, 0, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports/template.xlsx", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != contentXLSX {
		t.Fatalf("unexpected template response: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected zip payload")
	}
}

func TestSignedIngest(t *testing.T) {
	svc, repo := newImportService(t)
	ingest, err := NewIngestHandler(svc)
	if err != nil {
		t.Fatalf("new ingest handler: %v", err)
	}
	secret := []byte("ingest-secret")
	handler := auth.NewIngestAuthMiddleware(secret, time.Minute, 1<<20).Wrap(ingest)

	body := []byte(uploadCSV)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/ingest/assets", bytes.NewReader(body))
	req.Header.Set(auth.HeaderIngestTimestamp, ts)
	req.Header.Set(auth.HeaderIngestSignature, auth.SignIngest(secret, ts, body))
	req.Header.Set(HeaderImportFilename, "feed.csv")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || repo.Len() != 2 {
		t.Fatalf("expected import, got %d (%d stored): %s", rec.Code, repo.Len(), rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest/assets", bytes.NewReader(body))
	req.Header.Set(auth.HeaderIngestTimestamp, ts)
	req.Header.Set(auth.HeaderIngestSignature, auth.SignIngest(secret, ts, body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without filename, got %d", rec.Code)
	}
}
