package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/api/handler"
	"github.com/jomadlcrz/Class-Schedule-System/internal/dto"
	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/internal/service"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterBindings(validation.Rules{}); err != nil {
		panic(err)
	}
}

// ── 桩实现 ──

type stubAuth struct{}

func (stubAuth) BeginLogin() (string, string, error) { return "https://example.com", "n", nil }
func (stubAuth) CompleteLogin(context.Context, string, string, string) (*service.LoginResult, error) {
	return nil, service.ErrOAuthStateInvalid
}
func (stubAuth) Authenticate(_ context.Context, token string) (*dto.SessionResponse, error) {
	switch token {
	case "good-token":
		return &dto.SessionResponse{
			User:    dto.SessionUser{ID: "user-001", Email: "a@x.com"},
			Expires: time.Now().Add(time.Hour),
		}, nil
	case "refresh-token":
		return &dto.SessionResponse{
			User:      dto.SessionUser{ID: "user-001", Email: "a@x.com"},
			Expires:   time.Now().Add(30 * 24 * time.Hour),
			Refreshed: true,
		}, nil
	}
	return nil, service.ErrSessionInvalid
}
func (stubAuth) Logout(context.Context, string) error { return nil }

type stubSchedule struct{ owner string }

func (s *stubSchedule) ListMine(_ context.Context, owner string) ([]model.Schedule, error) {
	s.owner = owner
	return []model.Schedule{}, nil
}
func (s *stubSchedule) ListByEmail(context.Context, string) ([]model.Schedule, error) {
	return []model.Schedule{}, nil
}
func (s *stubSchedule) Create(_ context.Context, _ *dto.CreateScheduleRequest, owner string) (*model.Schedule, error) {
	s.owner = owner
	return &model.Schedule{Owner: owner}, nil
}
func (s *stubSchedule) Update(context.Context, string, *dto.UpdateScheduleRequest, string) (*model.Schedule, error) {
	return nil, service.ErrScheduleNotFound
}
func (s *stubSchedule) Delete(context.Context, string, string) error {
	return service.ErrScheduleNotFound
}
func (s *stubSchedule) CheckDuplicates(context.Context, *dto.CheckDuplicatesRequest, string) (*dto.DuplicateResult, error) {
	return &dto.DuplicateResult{}, nil
}

type stubProfile struct{}

func (stubProfile) Save(context.Context, string, *dto.ProfileRequest) error { return nil }
func (stubProfile) Get(context.Context, string) (*dto.ProfileResponse, error) {
	return &dto.ProfileResponse{}, nil
}

type stubExport struct{}

func (stubExport) ExportSchedules(context.Context, string) (*bytes.Buffer, string, error) {
	return bytes.NewBufferString("x"), "a_schedule.xlsx", nil
}

func (stubExport) ExportCalendar(context.Context, string) (*bytes.Buffer, string, error) {
	return bytes.NewBufferString("BEGIN:VCALENDAR"), "a_schedule.ics", nil
}

func setupRouter() (*gin.Engine, *stubSchedule) {
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "development", BodyLimit: 1 << 20, BaseURL: "http://localhost:3000"},
		Auth:   config.AuthConfig{Cookie: config.CookieConfig{Name: "schedule_session"}},
	}
	sched := &stubSchedule{}
	svc := &service.Service{
		Auth:     stubAuth{},
		Schedule: sched,
		Profile:  stubProfile{},
		Export:   stubExport{},
	}
	h := handler.NewHandler(cfg, svc)
	return Setup(cfg, h, svc.Auth, nil, nil, zap.NewNop()), sched
}

const createBody = `{"courseCode":"CS101","descriptiveTitle":"Intro","units":"3","days":"MWF","time":"9:00 AM-10:00 AM","room":"101","instructor":"Lee"}`

func TestHealth(t *testing.T) {
	r, _ := setupRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("应生成 X-Request-ID")
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _ := setupRouter()
	routes := []struct{ method, path string }{
		{http.MethodGet, "/schedule"},
		{http.MethodPost, "/schedule"},
		{http.MethodPut, "/schedule/some-id"},
		{http.MethodDelete, "/schedule/some-id"},
		{http.MethodGet, "/schedule/export"},
		{http.MethodGet, "/schedule/export.ics"},
		{http.MethodGet, "/user/profile"},
		{http.MethodPost, "/user/profile"},
		{http.MethodGet, "/auth/session"},
		{http.MethodPost, "/auth/logout"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}")))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s 未登录期望 401，实际 %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestBearerTokenAccepted(t *testing.T) {
	r, sched := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/schedule", strings.NewReader(createBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
	if sched.owner != "a@x.com" {
		t.Errorf("owner 应取自会话，实际 %q", sched.owner)
	}
}

func TestSessionCookieAccepted(t *testing.T) {
	r, sched := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	req.AddCookie(&http.Cookie{Name: "schedule_session", Value: "good-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if sched.owner != "a@x.com" {
		t.Errorf("应查询会话用户的课表，实际 %q", sched.owner)
	}
}

func TestRollingRefreshReissuesCookie(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: "schedule_session", Value: "refresh-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var renewed *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "schedule_session" {
			renewed = ck
		}
	}
	if renewed == nil {
		t.Fatal("续期后应重新下发会话 Cookie")
	}
	if renewed.Value != "refresh-token" || renewed.MaxAge < 29*24*3600 {
		t.Errorf("Cookie 应沿用原令牌并延长有效期，实际 value=%q max-age=%d", renewed.Value, renewed.MaxAge)
	}
}

func TestStaleCookieWithValidBearer(t *testing.T) {
	r, sched := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	req.AddCookie(&http.Cookie{Name: "schedule_session", Value: "expired-token"})
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("有效的 Bearer 令牌应通过认证，实际 %d", w.Code)
	}
	if sched.owner != "a@x.com" {
		t.Errorf("应使用 Bearer 会话用户，实际 %q", sched.owner)
	}
}

func TestCheckDuplicatesWithoutSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/schedule/check-duplicates", strings.NewReader(`{"courseCode":"CS101"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("查重无需登录，期望 200，实际 %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	r, _ := setupRouter()

	big := strings.Repeat("a", 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/schedule/check-duplicates", strings.NewReader(`{"courseCode":"`+big+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("期望 413，实际 %d", w.Code)
	}
}
