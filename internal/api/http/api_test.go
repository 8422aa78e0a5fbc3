package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/repair-report-service/internal/api/http"
	"github.com/spec-kit/repair-report-service/internal/api/http/handlers"
	"github.com/spec-kit/repair-report-service/internal/auth"
	"github.com/spec-kit/repair-report-service/internal/config"
	"github.com/spec-kit/repair-report-service/internal/domain"
	"github.com/spec-kit/repair-report-service/internal/events"
	"github.com/spec-kit/repair-report-service/internal/observability"
	"github.com/spec-kit/repair-report-service/internal/repository"
	"github.com/spec-kit/repair-report-service/internal/service"
	"github.com/spec-kit/repair-report-service/internal/storage"
)

// in-memory repositories mirroring the store contract

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
	seq     int
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*domain.Report)}
}

func (r *memReportRepo) Create(_ context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	report.ID = fmt.Sprintf("report-%d", r.seq)
	now := time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	report.ReportDate = now
	report.Status = domain.StatusPending
	report.CreatedAt = now
	report.UpdatedAt = now
	stored := *report
	r.reports[report.ID] = &stored
	return nil
}

func (r *memReportRepo) List(_ context.Context) ([]domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Report, 0, len(r.reports))
	for _, report := range r.reports {
		result = append(result, *report)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *memReportRepo) GetByID(_ context.Context, id string) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *report
	return &copied, nil
}

func (r *memReportRepo) UpdateStatus(_ context.Context, id string, status domain.ReportStatus, note *string) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	report.Status = status
	if note != nil {
		report.Note = *note
	}
	report.UpdatedAt = report.UpdatedAt.Add(time.Millisecond)
	copied := *report
	return &copied, nil
}

func (r *memReportRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.reports, id)
	return nil
}

var (
	_ repository.UserRepository   = (*memUserRepo)(nil)
	_ repository.ReportRepository = (*memReportRepo)(nil)
)

// slowReportRepo stalls List until the request context is done, reporting
// the cancellation cause on a channel.
type slowReportRepo struct {
	*memReportRepo
	canceled chan error
}

func (r *slowReportRepo) List(ctx context.Context) ([]domain.Report, error) {
	select {
	case <-ctx.Done():
		r.canceled <- ctx.Err()
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
		return []domain.Report{}, nil
	}
}

type testEnv struct {
	app      *fiber.App
	users    *memUserRepo
	authSvc  *service.AuthService
	hub      *events.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	users := newMemUserRepo()
	reports := newMemReportRepo()
	hub := events.NewHub()

	authCfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		EmailDomain:           "up.ac.th",
		PasswordMinLength:     6,
	}

	blobStore, err := storage.NewDiskStore(config.UploadConfig{
		Dir:           t.TempDir(),
		MaxSizeBytes:  1 << 20,
		PublicBaseURL: "/uploads",
	}, logger)
	require.NoError(t, err)

	authSvc := service.NewAuthService(authCfg, users)
	reportSvc := service.NewReportService(service.ReportDependencies{
		ReportRepo:  reports,
		BlobStore:   blobStore,
		Broadcaster: hub,
		Logger:      logger,
	})

	app := fiber.New(fiber.Config{DisablePreParseMultipartForm: true})
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authSvc),
		Reports:        handlers.NewReportsHandler(reportSvc),
		WS:             handlers.NewWSHandler(hub, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), users),
		UploadDir:      t.TempDir(),
	})

	return &testEnv{app: app, users: users, authSvc: authSvc, hub: hub}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func (e *testEnv) listReports(t *testing.T) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reports []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reports))
	return reports
}

// seedAdmin registers an account then promotes it directly in the store,
// since roles are never client-settable.
func (e *testEnv) seedAdmin(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()

	user, err := e.authSvc.Register(ctx, email, password)
	require.NoError(t, err)

	e.users.mu.Lock()
	e.users.users[user.ID].Role = domain.RoleAdmin
	e.users.mu.Unlock()

	_, token, _, err := e.authSvc.Login(ctx, email, password)
	require.NoError(t, err)
	return token
}

func TestReportLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	// register + login
	resp, _ := env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	userToken, _ := body["token"].(string)
	require.NotEmpty(t, userToken)
	user := body["user"].(map[string]any)
	assert.Equal(t, "u1@up.ac.th", user["email"])
	assert.Equal(t, "user", user["role"])

	// submit a report
	resp, report := env.request(t, http.MethodPost, "/api/reports/", userToken, fiber.Map{
		"name":       "Somchai",
		"building":   "UB",
		"roomNumber": "UB-101",
		"details":    "เน็ตใช้ไม่ได้",
		"category":   "อินเตอร์เน็ต",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "รอดำเนินการ", report["status"])
	assert.Equal(t, user["id"], report["createdBy"])
	reportID := report["id"].(string)

	// the list includes it, unauthenticated
	reports := env.listReports(t)
	require.Len(t, reports, 1)
	assert.Equal(t, reportID, reports[0]["id"])

	// non-admin transition is forbidden
	resp, _ = env.request(t, http.MethodPatch, "/api/reports/"+reportID, userToken, fiber.Map{
		"status": "กำลังดำเนินการ",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// admin transition succeeds and refreshes updatedAt
	adminToken := env.seedAdmin(t, "admin@up.ac.th", "secret1")
	resp, updated := env.request(t, http.MethodPatch, "/api/reports/"+reportID, adminToken, fiber.Map{
		"status": "กำลังดำเนินการ",
		"note":   "ติดต่อช่างแล้ว",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "กำลังดำเนินการ", updated["status"])
	assert.Equal(t, "ติดต่อช่างแล้ว", updated["note"])
	assert.NotEqual(t, report["updatedAt"], updated["updatedAt"])

	// admin delete
	resp, _ = env.request(t, http.MethodDelete, "/api/reports/"+reportID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.listReports(t))
}

func TestTransitionKeepsNoteWhenOmitted(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t, "admin@up.ac.th", "secret1")

	resp, report := env.request(t, http.MethodPost, "/api/reports/", adminToken, fiber.Map{
		"name":       "Somchai",
		"building":   "CE",
		"roomNumber": "CE-210",
		"details":    "โปรเจคเตอร์ไม่ติด",
		"category":   "โปรเจคเตอร์",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reportID := report["id"].(string)

	resp, updated := env.request(t, http.MethodPatch, "/api/reports/"+reportID, adminToken, fiber.Map{
		"status": "กำลังดำเนินการ",
		"note":   "รออะไหล่",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "รออะไหล่", updated["note"])

	resp, updated = env.request(t, http.MethodPatch, "/api/reports/"+reportID, adminToken, fiber.Map{
		"status": "เสร็จสิ้น",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "เสร็จสิ้น", updated["status"])
	assert.Equal(t, "รออะไหล่", updated["note"], "status-only update must keep the note")

	resp, updated = env.request(t, http.MethodPatch, "/api/reports/"+reportID, adminToken, fiber.Map{
		"status": "เสร็จสิ้น",
		"note":   "",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, updated["note"], "an explicit empty note clears it")
}

func TestRequestTimeoutReachesHandlers(t *testing.T) {
	logger := zap.NewNop()
	repo := &slowReportRepo{memReportRepo: newMemReportRepo(), canceled: make(chan error, 1)}
	reportSvc := service.NewReportService(service.ReportDependencies{
		ReportRepo: repo,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 50*time.Millisecond)
	app.Get("/api/reports", handlers.NewReportsHandler(reportSvc).List)

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	select {
	case cause := <-repo.canceled:
		assert.ErrorIs(t, cause, context.DeadlineExceeded)
	default:
		t.Fatal("repository never observed the request deadline")
	}
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("register rejects foreign domains", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "u1@gmail.com", "password": "secret1",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("check-email reports availability", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/auth/check-email", "", fiber.Map{
			"email": "fresh@up.ac.th",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["available"])

		env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "fresh@up.ac.th", "password": "secret1",
		})

		resp, body = env.request(t, http.MethodPost, "/api/auth/check-email", "", fiber.Map{
			"email": "Fresh@up.ac.th",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["available"], "availability check is case-insensitive")
	})

	t.Run("check-email keeps its shape on bad format", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/auth/check-email", "", fiber.Map{
			"email": "someone@gmail.com",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["available"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("login failures are uniform", func(t *testing.T) {
		env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "known@up.ac.th", "password": "secret1",
		})

		respUnknown, bodyUnknown := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "ghost@up.ac.th", "password": "secret1",
		})
		respWrong, bodyWrong := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "known@up.ac.th", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusBadRequest, respUnknown.StatusCode)
		assert.Equal(t, respUnknown.StatusCode, respWrong.StatusCode)
		assert.Equal(t, bodyUnknown["error"], bodyWrong["error"])
	})

	t.Run("verify round-trips the account", func(t *testing.T) {
		env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "verify@up.ac.th", "password": "secret1",
		})
		_, body := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "verify@up.ac.th", "password": "secret1",
		})
		token := body["token"].(string)

		resp, body := env.request(t, http.MethodGet, "/api/auth/verify", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "verify@up.ac.th", body["user"].(map[string]any)["email"])

		resp, _ = env.request(t, http.MethodGet, "/api/auth/verify", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestReportEndpointAuth(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t, "admin@up.ac.th", "secret1")

	t.Run("create without a token is unauthenticated", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/reports/", "", fiber.Map{
			"name": "x", "building": "UB", "roomNumber": "1", "details": "d", "category": "อื่นๆ",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("transition and delete on unknown id are 404 for an admin", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPatch, "/api/reports/missing", adminToken, fiber.Map{
			"status": "เสร็จสิ้น",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = env.request(t, http.MethodDelete, "/api/reports/missing", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("expired or malformed bearer headers are 401", func(t *testing.T) {
		for _, header := range []string{"Bearer", "Token abc", "Bearer bad.token"} {
			req := httptest.NewRequest(http.MethodDelete, "/api/reports/some-id", nil)
			req.Header.Set("Authorization", header)
			resp, err := env.app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
		}
	})

	t.Run("invalid payloads are 400 before any mutation", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPatch, "/api/reports/some-id", adminToken, fiber.Map{
			"status": "done",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCreateReportMultipart(t *testing.T) {
	env := newTestEnv(t)

	env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	_, body := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	token := body["token"].(string)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"name":       "Somchai",
		"building":   "ICT",
		"roomNumber": "ICT-1204",
		"details":    "ลำโพงไม่มีเสียง",
		"category":   "ลำโพง",
	} {
		require.NoError(t, writer.WriteField(field, value))
	}
	part, err := writer.CreateFormFile("image", "speaker.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var report map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "ICT", report["building"])
	assert.Equal(t, "ลำโพง", report["category"])
	assert.Regexp(t, `^/uploads/\d+\.png$`, report["imagePath"])
}

func TestCreateReportRejectsBrokenImagePart(t *testing.T) {
	env := newTestEnv(t)

	env.request(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	_, body := env.request(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email": "u1@up.ac.th", "password": "secret1",
	})
	token := body["token"].(string)

	// an image part with no closing boundary fails multipart parsing
	raw := "--frontier\r\n" +
		"Content-Disposition: form-data; name=\"image\"; filename=\"speaker.png\"\r\n" +
		"Content-Type: image/png\r\n\r\n" +
		"truncated"
	req := httptest.NewRequest(http.MethodPost, "/api/reports/", strings.NewReader(raw))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=frontier")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	errBody := decoded["error"].(map[string]any)
	assert.Equal(t, "unreadable image upload", errBody["message"])
	assert.Empty(t, env.listReports(t), "nothing persisted from a broken upload")
}
