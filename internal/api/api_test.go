package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/auth"
	"github.com/sitrack/sitrack-gin/internal/config"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/notify"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/service"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryStorage is an in-memory ObjectStorage for handler tests.
type memoryStorage struct {
	objects map[string][]byte
	fail    bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if m.fail {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return "https://files.example.test/" + key, nil
}

func (m *memoryStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example.test/" + key, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type testServer struct {
	router  http.Handler
	issuer  *auth.TokenIssuer
	reports *service.ReportService
	users   repository.UserRepository
	storage *memoryStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Report{},
		&model.TaskAssignment{},
		&model.WorkflowEntry{},
		&model.FileAttachment{},
		&model.Snapshot{},
	))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	SetLogger(log)

	users := repository.NewUserRepository(db)
	reports := repository.NewReportRepository(db)
	st := store.New(nil, log)
	notifier := notify.New(log)
	objects := newMemoryStorage()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	reportSvc := service.NewReportService(reports, st, nil, notifier)

	cfg := config.Default()
	svcs := Services{
		Auth:     service.NewAuthService(users, issuer, st),
		Users:    service.NewUserService(users, st, 4),
		Reports:  reportSvc,
		Tracking: service.NewTrackingService(reports),
		Uploads:  service.NewUploadService(objects, reportSvc, "sitrack-reports"),
		Backups:  service.NewBackupService(users, reports, t.TempDir(), log),
	}

	return &testServer{
		router:  SetupRoutes(cfg, svcs, issuer, nil, nil, db, log),
		issuer:  issuer,
		reports: reportSvc,
		users:   users,
		storage: objects,
	}
}

func (ts *testServer) tokenFor(t *testing.T, role model.Role) string {
	t.Helper()
	token, err := ts.issuer.Issue(&model.User{ID: "u-" + string(role), Name: "Tester", Role: role})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path, token string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, token string, fields map[string]string, fileName string, fileSize int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("a"), fileSize))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func createReportViaAPI(t *testing.T, ts *testServer) model.Report {
	t.Helper()
	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/reports", ts.tokenFor(t, model.RoleTU), gin.H{
		"noSurat":     "001/SDM/2025",
		"hal":         "Perpanjangan Kontrak PPPK",
		"dari":        "Bagian Kepegawaian",
		"koordinator": "Suwarti, S.H",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data model.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
}

func TestReportEndpointsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Staff cannot register letters.
	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/reports", ts.tokenFor(t, model.RoleStaff), gin.H{
		"noSurat": "x", "hal": "y",
	}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportLifecycleViaAPI(t *testing.T) {
	ts := newTestServer(t)

	report := createReportViaAPI(t, ts)
	assert.Equal(t, "Dalam Proses", string(report.Status))

	// Koordinator delegates.
	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/reports/"+report.ID+"/assignments",
		ts.tokenFor(t, model.RoleKoordinator), gin.H{
			"staffName": "Roza Erlinda",
			"todoList":  []string{"Jadwalkan/Agendakan"},
		}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var assigned struct {
		Data model.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assigned))
	require.Len(t, assigned.Data.Assignments, 1)

	// Staff completes.
	rec = ts.do(jsonRequest(t, http.MethodPut,
		"/api/v1/reports/"+report.ID+"/assignments/"+assigned.Data.Assignments[0].ID,
		ts.tokenFor(t, model.RoleStaff), gin.H{"completed": true}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var completed struct {
		Data model.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, 100, completed.Data.Progress)
	assert.Equal(t, "Selesai", string(completed.Data.Status))

	// Unknown report 404s.
	rec = ts.do(jsonRequest(t, http.MethodGet, "/api/v1/reports/RPT404", ts.tokenFor(t, model.RoleTU), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicTrackingEndpoint(t *testing.T) {
	ts := newTestServer(t)
	report := createReportViaAPI(t, ts)

	// No auth required; lookup matches the letter number partially.
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/tracking/001", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data service.TrackingResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, report.ID, envelope.Data.ID)
	assert.Len(t, envelope.Data.Timeline, 5)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/v1/tracking/999-tidak-ada", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadScenarios(t *testing.T) {
	ts := newTestServer(t)
	report := createReportViaAPI(t, ts)
	token := ts.tokenFor(t, model.RoleTU)

	t.Run("success", func(t *testing.T) {
		rec := ts.do(multipartRequest(t, token, map[string]string{
			"reportId":   report.ID,
			"uploadedBy": "TU Staff",
		}, "surat.pdf", 1024))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var attachment model.FileAttachment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &attachment))
		assert.Equal(t, "surat.pdf", attachment.FileName)
		assert.Equal(t, "original", attachment.Type)
		assert.Equal(t, "TU Staff", attachment.UploadedBy)
		assert.NotEmpty(t, attachment.FileURL)
		assert.Len(t, ts.storage.objects, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := ts.do(multipartRequest(t, token, map[string]string{
			"reportId":   report.ID,
			"uploadedBy": "TU Staff",
		}, "", 0))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body uploadError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "No file provided", body.Error)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		rec := ts.do(multipartRequest(t, token, map[string]string{
			"reportId": report.ID,
		}, "surat.pdf", 1024))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body uploadError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Report ID and uploader information required", body.Error)
	})

	t.Run("oversize file", func(t *testing.T) {
		rec := ts.do(multipartRequest(t, token, map[string]string{
			"reportId":   report.ID,
			"uploadedBy": "TU Staff",
		}, "besar.pdf", 12<<20))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body uploadError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "File size exceeds 10MB limit", body.Error)
	})

	t.Run("storage failure", func(t *testing.T) {
		ts.storage.fail = true
		defer func() { ts.storage.fail = false }()

		rec := ts.do(multipartRequest(t, token, map[string]string{
			"reportId":   report.ID,
			"uploadedBy": "TU Staff",
		}, "surat.pdf", 1024))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body uploadError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Upload failed", body.Error)
	})
}

func TestUserEndpointsAdminOnly(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(jsonRequest(t, http.MethodGet, "/api/v1/users", ts.tokenFor(t, model.RoleStaff), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := ts.tokenFor(t, model.RoleAdmin)
	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/users", admin, gin.H{
		"name":     "Roza Erlinda",
		"role":     "Staff",
		"password": "rahasia",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "rahasia")

	rec = ts.do(jsonRequest(t, http.MethodGet, "/api/v1/users", admin, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Roza Erlinda")
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)

	hash, err := auth.HashPassword("admin123", 4)
	require.NoError(t, err)
	require.NoError(t, ts.users.Save(&model.User{
		ID: "admin1", Name: "Administrator", Role: model.RoleAdmin, Password: hash,
	}))

	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name": "Administrator", "password": "admin123",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data service.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)

	// Issued token works against a protected route.
	rec = ts.do(jsonRequest(t, http.MethodGet, "/api/v1/users", envelope.Data.Token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name": "Administrator", "password": "salah",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBackupEndpoints(t *testing.T) {
	ts := newTestServer(t)
	createReportViaAPI(t, ts)
	admin := ts.tokenFor(t, model.RoleAdmin)

	rec := ts.do(jsonRequest(t, http.MethodPost, "/api/v1/backups", admin, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		Data service.BackupInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Filename)

	rec = ts.do(jsonRequest(t, http.MethodPost,
		fmt.Sprintf("/api/v1/backups/%s/restore", created.Data.Filename), admin, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(jsonRequest(t, http.MethodDelete, "/api/v1/backups/"+created.Data.Filename, admin, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(jsonRequest(t, http.MethodPost, "/api/v1/backups", ts.tokenFor(t, model.RoleTU), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
