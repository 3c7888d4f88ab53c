package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/jobhubhq/jobhub/internal/auth"
	"github.com/jobhubhq/jobhub/internal/cache"
	"github.com/jobhubhq/jobhub/internal/config"
	"github.com/jobhubhq/jobhub/internal/domain/job"
	"github.com/jobhubhq/jobhub/internal/domain/user"
	"github.com/jobhubhq/jobhub/internal/http/handlers"
	"github.com/jobhubhq/jobhub/internal/http/middlewares"
	"github.com/jobhubhq/jobhub/internal/jobs"
	"github.com/jobhubhq/jobhub/internal/repo/memory"
	"github.com/jobhubhq/jobhub/internal/upload"
	"github.com/gin-gonic/gin"
)

type fakeQueue struct {
	created []job.Job
}

func (q *fakeQueue) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	q.created = append(q.created, j)
	return j, nil
}

func (q *fakeQueue) types() []string {
	out := make([]string, 0, len(q.created))
	for _, j := range q.created {
		out = append(out, j.Type)
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	users     *memory.UsersRepo
	queue     *fakeQueue
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:             "test",
		UploadDir:       t.TempDir(),
		RateLimit:       1000,
		RateLimitWindow: time.Minute,
	}

	usersRepo := memory.NewUsersRepo()
	queue := &fakeQueue{}
	mgr := auth.NewManager("test-secret", time.Hour)

	store, err := upload.NewDiskStore(cfg.UploadDir)
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	h := handlers.NewUsersHandler(
		usersRepo,
		queue,
		mgr,
		nil,
		cache.New[user.User](5*time.Second),
		false,
	)

	router := NewRouter(cfg, RouterDeps{
		Users:     h,
		AdminJobs: handlers.NewAdminJobsHandler(nil),
		Auth:      middlewares.NewAuthMiddleware(mgr),
		Uploads:   store,
	})

	return &testServer{router: router, users: usersRepo, queue: queue, uploadDir: cfg.UploadDir}
}

type envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    map[string]any     `json:"user"`
	Error   *handlers.APIError `json:"error"`
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	body := rec.Body.Bytes()

	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatalf("bad response body %q: %v", body, err)
		}
	}

	return rec, env
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(t *testing.T, method, path string, fields map[string]string, fileName, fileContent string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(fw, strings.NewReader(fileContent)); err != nil {
			t.Fatalf("copy file: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *testServer) register(t *testing.T, fullName, email, password, role string) envelope {
	t.Helper()

	req := formRequest(t, http.MethodPost, "/api/v1/user/register", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
		"role":     role,
	}, "", "")

	rec, env := s.do(t, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}

	return env
}

func (s *testServer) login(t *testing.T, email, password, role string) *http.Cookie {
	t.Helper()

	rec, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/user/login", gin.H{
		"email":    email,
		"password": password,
		"role":     role,
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookieName && c.Value != "" {
			return c
		}
	}

	t.Fatal("login did not set a session cookie")
	return nil
}

func TestRegisterCreatesAccountAndEnqueuesJobs(t *testing.T) {
	s := newTestServer(t)

	req := formRequest(t, http.MethodPost, "/api/v1/user/register", map[string]string{
		"fullName": "Alice Doe",
		"email":    "Alice@Example.com",
		"password": "sup3rsecret",
		"role":     "student",
	}, "resume.txt", "Go and MongoDB experience")

	rec, env := s.do(t, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	// email is normalized on the way in
	if env.User["email"] != "alice@example.com" {
		t.Fatalf("email = %v", env.User["email"])
	}
	if _, leaked := env.User["passwordHash"]; leaked {
		t.Fatal("password hash leaked in response")
	}

	if strings.Contains(rec.Body.String(), "sup3rsecret") {
		t.Fatal("plaintext password leaked in response")
	}

	got := s.queue.types()

	want := map[string]bool{
		string(jobs.JobSendWelcomeEmail): false,
		string(jobs.JobParseResume):      false,
	}
	for _, typ := range got {
		want[typ] = true
	}
	for typ, seen := range want {
		if !seen {
			t.Fatalf("job %s not enqueued, got %v", typ, got)
		}
	}

	// the stored reference round-trips through the static file route
	profile, _ := env.User["profile"].(map[string]any)
	resumeRef, _ := profile["resume"].(string)

	if resumeRef == "" {
		t.Fatalf("resume reference missing in %v", profile)
	}

	// the body is raw file content, not a JSON envelope
	fileURL := "/uploads/" + path.Base(resumeRef)
	fileRec := httptest.NewRecorder()
	s.router.ServeHTTP(fileRec, httptest.NewRequest(http.MethodGet, fileURL, nil))

	if fileRec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d", fileURL, fileRec.Code)
	}
	if fileRec.Body.String() != "Go and MongoDB experience" {
		t.Fatalf("stored file content = %q", fileRec.Body.String())
	}
}

func TestRegisterValidationFailureWritesNoFile(t *testing.T) {
	s := newTestServer(t)

	req := formRequest(t, http.MethodPost, "/api/v1/user/register", map[string]string{
		"fullName": "Alice Doe",
		"email":    "not-an-email",
		"password": "sup3rsecret",
		"role":     "student",
	}, "resume.txt", "should never hit the disk")

	rec, env := s.do(t, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("error = %+v", env.Error)
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected request left files behind: %v", entries)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")

	req := formRequest(t, http.MethodPost, "/api/v1/user/register", map[string]string{
		"fullName": "Alice Again",
		"email":    "alice@example.com",
		"password": "otherpassword",
		"role":     "recruiter",
	}, "", "")

	rec, env := s.do(t, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "account_exists" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		fields map[string]string
		field  string
	}{
		{
			name: "short password",
			fields: map[string]string{
				"fullName": "Alice Doe",
				"email":    "alice@example.com",
				"password": "nope",
				"role":     "student",
			},
			field: "password",
		},
		{
			name: "bad email",
			fields: map[string]string{
				"fullName": "Alice Doe",
				"email":    "not-an-email",
				"password": "sup3rsecret",
				"role":     "student",
			},
			field: "email",
		},
		{
			name: "unknown role",
			fields: map[string]string{
				"fullName": "Alice Doe",
				"email":    "alice@example.com",
				"password": "sup3rsecret",
				"role":     "admin",
			},
			field: "role",
		},
		{
			name: "missing fullName",
			fields: map[string]string{
				"email":    "alice@example.com",
				"password": "sup3rsecret",
				"role":     "student",
			},
			field: "fullName",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := formRequest(t, http.MethodPost, "/api/v1/user/register", tc.fields, "", "")
			rec, env := s.do(t, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != "validation_error" {
				t.Fatalf("error = %+v", env.Error)
			}
			if !strings.Contains(rec.Body.String(), tc.field) {
				t.Fatalf("details do not mention %q: %s", tc.field, rec.Body.String())
			}
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")

	attempts := []gin.H{
		{"email": "nobody@example.com", "password": "sup3rsecret", "role": "student"},
		{"email": "alice@example.com", "password": "wrongpassword", "role": "student"},
		{"email": "alice@example.com", "password": "sup3rsecret", "role": "recruiter"},
	}

	var bodies []string

	for i, payload := range attempts {
		rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/user/login", payload))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d body=%s", i, rec.Code, rec.Body.String())
		}
		if env.Error == nil || env.Error.Code != "invalid_credentials" {
			t.Fatalf("attempt %d: error = %+v", i, env.Error)
		}

		bodies = append(bodies, env.Error.Message)
	}

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Fatalf("failure messages differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestLoginSuccessSetsCookie(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/user/login", gin.H{
		"email":    "alice@example.com",
		"password": "sup3rsecret",
		"role":     "student",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(env.Message, "Alice Doe") {
		t.Fatalf("message = %q", env.Message)
	}

	var session *http.Cookie

	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookieName {
			session = c
		}
	}

	if session == nil || session.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !session.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "unauthorized" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	// read
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.AddCookie(cookie)
	rec, env := s.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.User["fullName"] != "Alice Doe" {
		t.Fatalf("fullName = %v", env.User["fullName"])
	}

	// update bio + skills
	upd := formRequest(t, http.MethodPut, "/api/v1/user/profile", map[string]string{
		"bio":    "Backend developer",
		"skills": "Go, MongoDB",
	}, "", "")
	upd.AddCookie(cookie)
	rec, env = s.do(t, upd)

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}

	profile, ok := env.User["profile"].(map[string]any)

	if !ok {
		t.Fatalf("profile missing in %v", env.User)
	}
	if profile["bio"] != "Backend developer" {
		t.Fatalf("bio = %v", profile["bio"])
	}

	// identity fields stay put across profile updates
	if env.User["email"] != "alice@example.com" {
		t.Fatalf("email changed: %v", env.User["email"])
	}
	if env.User["role"] != "student" {
		t.Fatalf("role changed: %v", env.User["role"])
	}
	if profile["resume"] != "" {
		t.Fatalf("resume changed: %v", profile["resume"])
	}

	// fresh read reflects the update (cache invalidated on write)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.AddCookie(cookie)
	rec, env = s.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("reread status = %d", rec.Code)
	}

	profile, _ = env.User["profile"].(map[string]any)

	skills, _ := profile["skills"].([]any)

	if len(skills) != 2 {
		t.Fatalf("skills = %v", profile["skills"])
	}
}

func TestUpdateProfileWithResumeEnqueuesParse(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	before := len(s.queue.created)

	upd := formRequest(t, http.MethodPut, "/api/v1/user/profile", nil,
		"resume.txt", "Python and Kubernetes")
	upd.AddCookie(cookie)
	rec, env := s.do(t, upd)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	profile, _ := env.User["profile"].(map[string]any)
	resumeRef, _ := profile["resume"].(string)

	if resumeRef == "" || !strings.HasSuffix(resumeRef, "-resume.txt") {
		t.Fatalf("resume ref = %q", resumeRef)
	}
	if profile["resumeOriginalName"] != "resume.txt" {
		t.Fatalf("original name = %v", profile["resumeOriginalName"])
	}

	if len(s.queue.created) != before+1 {
		t.Fatalf("expected one new job, queue=%v", s.queue.types())
	}
	if s.queue.created[before].Type != string(jobs.JobParseResume) {
		t.Fatalf("job type = %s", s.queue.created[before].Type)
	}
}

func TestUpdateProfileNothingToUpdate(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	upd := formRequest(t, http.MethodPut, "/api/v1/user/profile", nil, "", "")
	upd.AddCookie(cookie)
	rec, env := s.do(t, upd)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "invalid_request" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestProfileGoneReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	env := s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	id, _ := env.User["id"].(string)
	s.users.Delete(id)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.AddCookie(cookie)
	rec, _ := s.do(t, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/logout", nil)
	req.AddCookie(cookie)
	rec, env := s.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	var cleared bool

	for _, c := range rec.Result().Cookies() {
		if c.Name == middlewares.SessionCookieName && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}

	if !cleared {
		t.Fatal("session cookie was not cleared")
	}
}

func TestLogoutRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/user/logout", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "unauthorized" {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestAdminSurfaceRequiresAdminRole(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	req := httptest.NewRequest(http.MethodGet, "/admin/jobs", nil)
	req.AddCookie(cookie)
	rec, env := s.do(t, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || env.Error.Code != "forbidden" {
		t.Fatalf("error = %+v", env.Error)
	}

	// no session at all
	rec, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/admin/jobs", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStudentJourney(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")

	// wrong role is rejected like any other bad credential
	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/user/login", gin.H{
		"email":    "alice@example.com",
		"password": "sup3rsecret",
		"role":     "recruiter",
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong-role login status = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "invalid_credentials" {
		t.Fatalf("error = %+v", env.Error)
	}

	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	upd := formRequest(t, http.MethodPut, "/api/v1/user/profile", map[string]string{
		"bio": "hi",
	}, "", "")
	upd.AddCookie(cookie)
	rec, _ = s.do(t, upd)

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.AddCookie(cookie)
	rec, env = s.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}

	profile, _ := env.User["profile"].(map[string]any)

	if profile["bio"] != "hi" {
		t.Fatalf("bio = %v", profile["bio"])
	}
	if env.User["email"] != "alice@example.com" || env.User["role"] != "student" {
		t.Fatalf("identity drifted: %v / %v", env.User["email"], env.User["role"])
	}
}

func TestBearerFallback(t *testing.T) {
	s := newTestServer(t)

	s.register(t, "Alice Doe", "alice@example.com", "sup3rsecret", "student")
	cookie := s.login(t, "alice@example.com", "sup3rsecret", "student")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec, _ := s.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}
