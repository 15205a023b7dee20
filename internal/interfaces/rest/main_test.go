package rest

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/wellbeing/internal/achievement"
	"github.com/pot-code/wellbeing/internal/appusage"
	"github.com/pot-code/wellbeing/internal/experience"
	"github.com/pot-code/wellbeing/internal/habit"
	infra "github.com/pot-code/wellbeing/internal/infrastructure"
	"github.com/pot-code/wellbeing/internal/infrastructure/clock"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver"
	"github.com/pot-code/wellbeing/internal/infrastructure/driver/drivertest"
	"github.com/pot-code/wellbeing/internal/infrastructure/uuid"
	"github.com/pot-code/wellbeing/internal/note"
	"github.com/pot-code/wellbeing/internal/timeline"
	"github.com/pot-code/wellbeing/internal/user"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	conn := drivertest.NewSQLite(t)
	kv := driver.NewMemoryKV()
	c := clock.NewFixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	gen := uuid.NewNanoIDGenerator(21)

	userUseCase := user.NewUserUseCase(user.NewUserRepository(conn, gen), kv, c, 3, time.Minute)
	userUseCase.HashCost = bcrypt.MinCost

	option := &infra.AppConfig{
		AppID:          "wellbeing-test",
		Env:            infra.EnvProduction,
		Locale:         "en",
		SessionTimeout: time.Hour,
		SessionRefresh: time.Minute,
		RequestTimeout: 5 * time.Second,
	}
	option.Security.JWTMethod = "HS256"
	option.Security.JWTSecret = "test-secret"
	option.Security.TokenName = "wellbeing_token"

	return NewServer(option, &Dependencies{
		Conn:               conn,
		KVStore:            kv,
		UserUseCase:        userUseCase,
		ExperienceUseCase:  experience.NewExperienceUseCase(experience.NewExperienceRepository(conn), c),
		TimelineUseCase:    timeline.NewTimelineUseCase(timeline.NewTimelineRepository(conn), c),
		HabitUseCase:       habit.NewHabitUseCase(habit.NewHabitRepository(conn, gen), c),
		NoteUseCase:        note.NewNoteUseCase(note.NewNoteRepository(conn, gen), c),
		AppUsageUseCase:    appusage.NewAppUsageUseCase(appusage.NewAppUsageRepository(conn, gen), c),
		AchievementUseCase: achievement.NewAchievementUseCase(achievement.NewAchievementRepository(conn, gen), c),
	}, zap.NewNop())
}

func do(app *echo.Echo, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		b, _ := json.Marshal(v)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := map[string]interface{}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return result
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, code, rec.Body.String())
	}
}

func signUpAndLogin(t *testing.T, app *echo.Echo, username string) string {
	t.Helper()
	rec := do(app, http.MethodPost, "/api/v1/user/sign-up", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	}, "")
	expectStatus(t, rec, http.StatusCreated)

	rec = do(app, http.MethodPost, "/api/v1/user/login", map[string]string{
		"username": username,
		"password": testPassword,
	}, "")
	expectStatus(t, rec, http.StatusOK)
	token, _ := decode(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %s", rec.Body.String())
	}
	return token
}

func TestAuthFlow(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "alice")

	rec := do(app, http.MethodPost, "/api/v1/user/sign-up", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": testPassword,
	}, "")
	expectStatus(t, rec, http.StatusConflict)

	rec = do(app, http.MethodGet, "/api/v1/user/exists?username=alice", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "true" {
		t.Fatalf("exists = %s", rec.Body.String())
	}
	expectStatus(t, do(app, http.MethodGet, "/api/v1/user/exists", nil, ""), http.StatusBadRequest)

	expectStatus(t, do(app, http.MethodGet, "/api/v1/user/me", nil, ""), http.StatusUnauthorized)
	rec = do(app, http.MethodGet, "/api/v1/user/me", nil, token)
	expectStatus(t, rec, http.StatusOK)
	me := decode(t, rec)
	if me["username"] != "alice" || me["level"] != float64(1) {
		t.Fatalf("me = %v", me)
	}
	if _, ok := me["password"]; ok {
		t.Fatal("me must not expose the password hash")
	}

	expectStatus(t, do(app, http.MethodPut, "/api/v1/user/sign-out", nil, token), http.StatusOK)
	expectStatus(t, do(app, http.MethodGet, "/api/v1/user/me", nil, token), http.StatusUnauthorized)
}

func TestLoginLockout(t *testing.T) {
	app := newTestServer(t)
	signUpAndLogin(t, app, "bob")

	for i := 0; i < 3; i++ {
		rec := do(app, http.MethodPost, "/api/v1/user/login", map[string]string{"username": "bob", "password": "wrong-password"}, "")
		expectStatus(t, rec, http.StatusUnauthorized)
	}
	rec := do(app, http.MethodPost, "/api/v1/user/login", map[string]string{"username": "bob", "password": testPassword}, "")
	expectStatus(t, rec, http.StatusForbidden)
}

func TestExperience(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "carol")

	rec := do(app, http.MethodGet, "/api/v1/experience", nil, token)
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	if body["level"] != float64(1) || body["experience_to_next_level"] != float64(1500) {
		t.Fatalf("experience = %v", body)
	}

	rec = do(app, http.MethodPost, "/api/v1/experience", map[string]interface{}{
		"segment_index":     2,
		"useful_seconds":    600,
		"harmful_seconds":   30,
		"experience_earned": 1500,
	}, token)
	expectStatus(t, rec, http.StatusOK)
	body = decode(t, rec)
	if body["success"] != true || body["total_experience"] != float64(1500) || body["level"] != float64(2) ||
		body["experience_in_current_level"] != float64(0) || body["experience_to_next_level"] != float64(2250) ||
		body["segments_completed"] != float64(1) {
		t.Fatalf("award = %v", body)
	}

	rec = do(app, http.MethodPost, "/api/v1/experience", map[string]interface{}{"experience_earned": -5}, token)
	expectStatus(t, rec, http.StatusOK)
	body = decode(t, rec)
	if body["total_experience"] != float64(1495) || body["level"] != float64(1) || body["experience_earned"] != float64(-5) {
		t.Fatalf("negative award = %v", body)
	}
}

func TestTimeline(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "dave")

	post := map[string]interface{}{
		"date": "2024-03-09",
		"segments": []map[string]interface{}{
			{"index": 3, "useful_seconds": 100, "harmful_seconds": 50},
			{"index": 15, "useful_seconds": 999, "harmful_seconds": 999},
		},
		"sessions_count": 2,
	}
	rec := do(app, http.MethodPost, "/api/v1/timeline", post, token)
	expectStatus(t, rec, http.StatusCreated)
	body := decode(t, rec)
	if body["total_screen_time_seconds"] != float64(150) || body["segment_seconds"] != float64(5760) {
		t.Fatalf("timeline = %v", body)
	}
	if segments, _ := body["segments"].([]interface{}); len(segments) != 15 {
		t.Fatalf("segments = %v", body["segments"])
	}

	post["segments"] = []map[string]interface{}{{"index": 0, "useful_seconds": 10, "harmful_seconds": 0}}
	rec = do(app, http.MethodPost, "/api/v1/timeline", post, token)
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["total_screen_time_seconds"] != float64(160) {
		t.Fatalf("merge = %s", rec.Body.String())
	}

	delete(post, "sessions_count")
	rec = do(app, http.MethodPut, "/api/v1/timeline", post, token)
	expectStatus(t, rec, http.StatusOK)
	body = decode(t, rec)
	if body["total_screen_time_seconds"] != float64(10) || body["sessions_count"] != float64(0) {
		t.Fatalf("replace = %v", body)
	}

	rec = do(app, http.MethodGet, "/api/v1/timeline?date=2024-03-09", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["total_useful_seconds"] != float64(10) {
		t.Fatalf("get = %s", rec.Body.String())
	}

	rec = do(app, http.MethodGet, "/api/v1/timeline?date=09-03-2024", nil, token)
	expectStatus(t, rec, http.StatusBadRequest)
	if params, _ := decode(t, rec)["invalid_params"].([]interface{}); len(params) != 1 {
		t.Fatalf("invalid_params = %s", rec.Body.String())
	}

	rec = do(app, http.MethodPost, "/api/v1/timeline", map[string]interface{}{
		"date":     "2024-03-09",
		"segments": []map[string]interface{}{{"useful_seconds": 1}},
	}, token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(app, http.MethodPost, "/api/v1/timeline", map[string]interface{}{
		"date":     "2024-03-09",
		"segments": []map[string]interface{}{{"index": 0, "useful_seconds": int64(math.MaxInt64)}, {"index": 1, "useful_seconds": 1}},
	}, token)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = do(app, http.MethodPost, "/api/v1/timeline", map[string]interface{}{
		"date":     "2024-03-09",
		"segments": []map[string]interface{}{{"index": 0, "harmful_seconds": 5761}},
	}, token)
	expectStatus(t, rec, http.StatusBadRequest)

	expectStatus(t, do(app, http.MethodPost, "/api/v1/timeline", `{"date":`, token), http.StatusUnprocessableEntity)
}

func TestHabitsAndNotes(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "erin")
	other := signUpAndLogin(t, app, "frank")

	expectStatus(t, do(app, http.MethodPost, "/api/v1/habits", map[string]string{"name": "Run", "habit_type": "neutral"}, token),
		http.StatusBadRequest)
	rec := do(app, http.MethodPost, "/api/v1/habits", map[string]string{"name": "Run", "habit_type": "good"}, token)
	expectStatus(t, rec, http.StatusCreated)
	habitID, _ := decode(t, rec)["id"].(string)

	expectStatus(t, do(app, http.MethodGet, "/api/v1/habits/"+habitID, nil, other), http.StatusNotFound)
	expectStatus(t, do(app, http.MethodPost, "/api/v1/habits/"+habitID+"/reset", nil, token), http.StatusOK)
	rec = do(app, http.MethodGet, "/api/v1/habits?habit_type=good", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), habitID) {
		t.Fatalf("habit list = %s", rec.Body.String())
	}
	expectStatus(t, do(app, http.MethodDelete, "/api/v1/habits/"+habitID, nil, token), http.StatusNoContent)

	notePost := map[string]interface{}{"date": "2024-03-10", "mood": 4, "note": "calm day"}
	rec = do(app, http.MethodPost, "/api/v1/daily-notes", notePost, token)
	expectStatus(t, rec, http.StatusCreated)
	noteID, _ := decode(t, rec)["id"].(string)
	expectStatus(t, do(app, http.MethodPost, "/api/v1/daily-notes", notePost, token), http.StatusConflict)
	expectStatus(t, do(app, http.MethodPost, "/api/v1/daily-notes", map[string]interface{}{"date": "2024-03-11", "mood": 6}, token),
		http.StatusBadRequest)

	rec = do(app, http.MethodGet, "/api/v1/daily-notes/date/2024-03-10", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["id"] != noteID {
		t.Fatalf("note by date = %s", rec.Body.String())
	}
	expectStatus(t, do(app, http.MethodGet, "/api/v1/daily-notes/date/2024-03-10", nil, other), http.StatusNotFound)
}

func TestApps(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "grace")

	appPost := map[string]string{"package_name": "com.example.chat", "app_name": "Chat"}
	rec := do(app, http.MethodPost, "/api/v1/apps", appPost, token)
	expectStatus(t, rec, http.StatusCreated)
	body := decode(t, rec)
	appID, _ := body["id"].(string)
	if body["category"] != "useless" {
		t.Fatalf("new app = %v", body)
	}
	expectStatus(t, do(app, http.MethodPost, "/api/v1/apps", appPost, token), http.StatusOK)

	expectStatus(t, do(app, http.MethodPut, "/api/v1/apps/"+appID+"/category", map[string]string{"category": "fun"}, token),
		http.StatusBadRequest)
	rec = do(app, http.MethodPut, "/api/v1/apps/"+appID+"/category", map[string]string{"category": "harmful"}, token)
	expectStatus(t, rec, http.StatusOK)

	rec = do(app, http.MethodPost, "/api/v1/apps/"+appID+"/usage", map[string]interface{}{"usage_seconds": 120}, token)
	expectStatus(t, rec, http.StatusOK)
	body = decode(t, rec)
	if body["usage_today"] != float64(120) || body["total_usage_seconds"] != float64(120) || body["category"] != "harmful" {
		t.Fatalf("usage = %v", body)
	}
	expectStatus(t, do(app, http.MethodPost, "/api/v1/apps/"+appID+"/usage", map[string]interface{}{"usage_seconds": -1}, token),
		http.StatusBadRequest)
	expectStatus(t, do(app, http.MethodGet, "/api/v1/apps/missing", nil, token), http.StatusNotFound)
}

func TestAchievements(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "heidi")

	rec := do(app, http.MethodPost, "/api/v1/achievements/sync", map[string]interface{}{
		"achievements": []map[string]interface{}{
			{"id": "first_day", "title": "First day", "description": "Open the app", "icon_code_point": 57344, "type": "days", "required_value": 1},
		},
	}, token)
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, do(app, http.MethodPost, "/api/v1/achievements/sync", map[string]interface{}{
		"achievements": []map[string]interface{}{{"title": "no id", "type": "days"}},
	}, token), http.StatusBadRequest)

	rec = do(app, http.MethodGet, "/api/v1/achievements", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"achievement_id":"first_day"`) {
		t.Fatalf("achievements = %s", rec.Body.String())
	}

	rec = do(app, http.MethodGet, "/api/v1/achievements/stats", nil, token)
	expectStatus(t, rec, http.StatusOK)
	rec = do(app, http.MethodPost, "/api/v1/achievements/stats", map[string]interface{}{"consecutive_days": 3}, token)
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	if body["consecutive_days"] != float64(3) || body["last_sync_date"] == nil {
		t.Fatalf("stats = %v", body)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestServer(t)

	expectStatus(t, do(app, http.MethodGet, "/healthz", nil, ""), http.StatusOK)

	rec := do(app, http.MethodGet, "/api/v1/nowhere", nil, "")
	expectStatus(t, rec, http.StatusNotFound)
	body := decode(t, rec)
	if body["code"] != float64(http.StatusNotFound) || body["trace_id"] == "" || body["trace_id"] == nil {
		t.Fatalf("404 body = %v", body)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestProgressFeed(t *testing.T) {
	app := newTestServer(t)
	token := signUpAndLogin(t, app, "ivan")
	server := httptest.NewServer(app)
	defer server.Close()

	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/v1/ws/progress", header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	exchange := func(msg interface{}) map[string]interface{} {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write: %v", err)
		}
		reply := map[string]interface{}{}
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read: %v", err)
		}
		return reply
	}

	if reply := exchange(map[string]string{"type": "experience"}); reply["type"] != "experience" || reply["level"] != float64(1) {
		t.Fatalf("experience reply = %v", reply)
	}
	if reply := exchange(map[string]string{"type": "timeline", "date": "2024-03-10"}); reply["type"] != "timeline" || reply["date"] != "2024-03-10" {
		t.Fatalf("timeline reply = %v", reply)
	}
	if reply := exchange(map[string]string{"type": "timeline", "date": "yesterday"}); reply["type"] != "error" {
		t.Fatalf("bad date reply = %v", reply)
	}
	if reply := exchange(map[string]string{"type": "weather"}); reply["type"] != "error" {
		t.Fatalf("unknown type reply = %v", reply)
	}

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/v1/ws/progress", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous dial err = %v", err)
	}
}
