package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/yungbote/wealthquest-backend/internal/config"
	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

func testApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.GinMode = "test"
	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(dir, "wealthquest.db")
	cfg.Cache.Driver = "sqlite"
	cfg.Cache.Path = filepath.Join(dir, "cache.db")
	cfg.Mentor.Provider = "disabled"
	cfg.Scheduler.Enabled = false
	cfg.Auth.JWTSecret = "test-secret"

	a, err := New(cfg, logger.Nop())
	if err != nil {
		t.Skipf("sqlite store unavailable: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

type client struct {
	t     *testing.T
	app   *App
	token string
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.app.Router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (c *client) expect(method, path string, body any, status int) map[string]any {
	c.t.Helper()
	got, out := c.do(method, path, body)
	if got != status {
		c.t.Fatalf("%s %s: status=%d want %d body=%v", method, path, got, status, out)
	}
	return out
}

func errorCode(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func num(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func obj(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func TestHealthAndAuthGate(t *testing.T) {
	a := testApp(t)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck=%d %q", rec.Code, rec.Body.String())
	}

	c := &client{t: t, app: a}
	out := c.expect(http.MethodGet, "/api/me", nil, http.StatusUnauthorized)
	if errorCode(out) != "unauthorized" {
		t.Fatalf("envelope %v", out)
	}
	c.token = "not-a-jwt"
	c.expect(http.MethodGet, "/api/profile", nil, http.StatusUnauthorized)
}

func TestRegisterValidationOverHTTP(t *testing.T) {
	c := &client{t: t, app: testApp(t)}
	out := c.expect(http.MethodPost, "/api/register", map[string]any{"email": "nope", "password": "longenough"}, http.StatusBadRequest)
	if errorCode(out) != "invalid_email" {
		t.Fatalf("code=%q", errorCode(out))
	}
}

func TestUserJourney(t *testing.T) {
	c := &client{t: t, app: testApp(t)}

	reg := c.expect(http.MethodPost, "/api/register", map[string]any{
		"email": "saver@example.com", "password": "correct horse", "display_name": "Saver",
	}, http.StatusCreated)
	c.token, _ = reg["access_token"].(string)
	if c.token == "" || num(reg, "expires_in") != 3600 {
		t.Fatalf("register response %v", reg)
	}
	login := c.expect(http.MethodPost, "/api/login", map[string]any{"email": "SAVER@example.com", "password": "correct horse"}, http.StatusOK)
	if login["access_token"] == "" {
		t.Fatalf("login response %v", login)
	}
	me := c.expect(http.MethodGet, "/api/me", nil, http.StatusOK)
	if obj(me, "user")["email"] != "saver@example.com" {
		t.Fatalf("me %v", me)
	}

	if prof := c.expect(http.MethodGet, "/api/profile", nil, http.StatusOK); prof["data"] != nil {
		t.Fatalf("profile before onboarding %v", prof)
	}
	saved := c.expect(http.MethodPut, "/api/profile", map[string]any{
		"age": 27, "income": 5000, "expenses": 3000, "savings": 1000, "debt": 200,
	}, http.StatusOK)
	if saved["onboarded"] != true || num(obj(saved, "state"), "xp") != 50 {
		t.Fatalf("save profile %v", saved)
	}
	plan := obj(obj(saved, "plan"), "plan")
	if num(plan, "budget_needs") != 2500 {
		t.Fatalf("plan %v", plan)
	}

	c.expect(http.MethodPost, "/api/goals", map[string]any{"goal_name": "Trip", "target_amount": 1000, "target_date": "someday"}, http.StatusBadRequest)
	created := c.expect(http.MethodPost, "/api/goals", map[string]any{
		"goal_name": "Emergency fund", "target_amount": 1000, "target_date": "2030-12-31",
	}, http.StatusCreated)
	goalID, _ := obj(created, "goal")["id"].(string)
	if goalID == "" {
		t.Fatalf("created goal %v", created)
	}
	if badges, _ := obj(created, "state")["badges"].([]any); len(badges) == 0 {
		t.Fatalf("first goal earned no badge: %v", created)
	}
	funded := c.expect(http.MethodPost, "/api/goals/"+goalID+"/funds", map[string]any{"amount": 250}, http.StatusOK)
	if num(obj(funded, "goal"), "current_amount") != 250 {
		t.Fatalf("funded %v", funded)
	}
	c.expect(http.MethodPost, "/api/goals/not-a-uuid/funds", map[string]any{"amount": 1}, http.StatusBadRequest)
	goals := c.expect(http.MethodGet, "/api/goals", nil, http.StatusOK)
	if list, _ := goals["data"].([]any); len(list) != 1 {
		t.Fatalf("goals %v", goals)
	}

	daily := c.expect(http.MethodGet, "/api/challenges?type=daily", nil, http.StatusOK)
	if list, _ := daily["data"].([]any); len(list) != 3 {
		t.Fatalf("daily challenges %v", daily)
	}
	if out := c.expect(http.MethodGet, "/api/challenges?type=monthly", nil, http.StatusBadRequest); errorCode(out) != "invalid_argument" {
		t.Fatalf("monthly %v", out)
	}
	done := c.expect(http.MethodPost, "/api/challenges/weekly-saver/progress", map[string]any{"delta": 3}, http.StatusOK)
	if done["completed"] != true || num(done, "xp_awarded") != 100 {
		t.Fatalf("challenge progress %v", done)
	}
	if lvl := obj(done, "level_up"); num(lvl, "from") != 1 || num(lvl, "to") != 2 {
		t.Fatalf("challenge level up %v", done)
	}
	again := c.expect(http.MethodPost, "/api/challenges/weekly-saver/progress", map[string]any{"delta": 1}, http.StatusOK)
	if again["completed"] == true || num(again, "xp_awarded") != 0 {
		t.Fatalf("completed challenge paid twice %v", again)
	}

	quiz := c.expect(http.MethodGet, "/api/lessons/1/quiz", nil, http.StatusOK)
	if list, _ := quiz["data"].([]any); len(list) != 2 {
		t.Fatalf("quiz %v", quiz)
	}
	lesson := c.expect(http.MethodPost, "/api/lessons/1/complete", map[string]any{
		"answers": map[string]string{"q1": "50%", "q2": "netflix subscription"},
	}, http.StatusOK)
	if lesson["passed"] != true || num(lesson, "xp_awarded") != 150 {
		t.Fatalf("lesson %v", lesson)
	}
	lessons := c.expect(http.MethodGet, "/api/lessons", nil, http.StatusOK)
	if list, _ := lessons["data"].([]any); len(list) != 4 {
		t.Fatalf("lessons %v", lessons)
	}

	view := c.expect(http.MethodGet, "/api/gamification", nil, http.StatusOK)
	st := obj(obj(view, "data"), "state")
	if num(st, "xp") < 300 || num(st, "level") < 2 {
		t.Fatalf("gamification %v", view)
	}
	streak := c.expect(http.MethodPost, "/api/gamification/streak/check", nil, http.StatusOK)
	if _, ok := streak["streak"]; !ok {
		t.Fatalf("streak %v", streak)
	}

	if out := c.expect(http.MethodPost, "/api/mentor/advice", nil, http.StatusServiceUnavailable); errorCode(out) != "mentor_unavailable" {
		t.Fatalf("advice %v", out)
	}
	if out := c.expect(http.MethodGet, "/api/mentor/advice/latest", nil, http.StatusNotFound); errorCode(out) != "advice_not_found" {
		t.Fatalf("latest advice %v", out)
	}
	c.expect(http.MethodPost, "/api/mentor/chat", map[string]any{"message": "Can I afford a bike?"}, http.StatusServiceUnavailable)
	history := c.expect(http.MethodGet, "/api/mentor/chat", nil, http.StatusOK)
	if msgs, _ := history["messages"].([]any); len(msgs) != 1 {
		t.Fatalf("chat history %v", history)
	}
	if cleared := c.expect(http.MethodDelete, "/api/mentor/chat", nil, http.StatusOK); num(cleared, "deleted") != 1 {
		t.Fatalf("clear chat %v", cleared)
	}
	history = c.expect(http.MethodGet, "/api/mentor/chat", nil, http.StatusOK)
	if msgs, _ := history["messages"].([]any); len(msgs) != 0 {
		t.Fatalf("chat history after clear %v", history)
	}
}
