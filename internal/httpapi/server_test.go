package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/auth"
	"github.com/Spok95/tutor-platform/internal/discount"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/schedule"
	"github.com/Spok95/tutor-platform/internal/users"
	"github.com/Spok95/tutor-platform/internal/wallet"
)

var msk = time.FixedZone("MSK", 3*60*60)

type testEnv struct {
	h      http.Handler
	tokens *auth.Manager
	// id пользователей по ролям
	admin, coord, teacher, student, stranger int64
}

func newTestEnv(t *testing.T, ping func(context.Context) error) *testEnv {
	t.Helper()
	log := zap.NewNop()
	ctx := context.Background()

	us := users.NewService(users.NewMemStore(), log)
	mustCreate := func(nu users.NewUser) int64 {
		u, err := us.Create(ctx, nu)
		if err != nil {
			t.Fatal(err)
		}
		return u.ID
	}
	env := &testEnv{tokens: auth.NewManager("test-secret", time.Hour)}
	env.admin = mustCreate(users.NewUser{Name: "Админ", Role: models.Admin})
	env.coord = mustCreate(users.NewUser{Name: "Координатор", Role: models.Coordinator})
	capHours := 2.0
	env.teacher = mustCreate(users.NewUser{Name: "Учитель", Role: models.Teacher, MaxHoursPerWeek: &capHours, CoordinatorID: &env.coord})
	env.student = mustCreate(users.NewUser{Name: "Ученик", Role: models.Student, CoordinatorID: &env.coord})
	env.stranger = mustCreate(users.NewUser{Name: "Чужой", Role: models.Student})

	env.h = NewRouter(Deps{
		Users:     us,
		Wallet:    wallet.NewService(wallet.NewMemStore(), us, log),
		Discounts: discount.NewService(discount.NewMemStore(), us, log),
		Schedule:  schedule.NewService(schedule.NewMemStore(), us, nil, msk, log),
		Tokens:    env.tokens,
		Ping:      ping,
		Location:  msk,
		Log:       log,
	})
	return env
}

func (e *testEnv) token(t *testing.T, id int64, role models.Role) string {
	t.Helper()
	tok, err := e.tokens.Issue(id, role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("тело не JSON: %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("статус %d, ожидали %d: %s", w.Code, want, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/healthz", "", "")
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "ok" {
		t.Fatalf("тело %q", w.Body.String())
	}

	down := newTestEnv(t, func(context.Context) error { return errors.New("connection refused") })
	expectStatus(t, down.do(http.MethodGet, "/healthz", "", ""), http.StatusServiceUnavailable)
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, nil)
	other := auth.NewManager("other-secret", time.Hour)
	forged, err := other.Issue(env.admin, models.Admin)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"no_token", ""},
		{"garbage", "not-a-jwt"},
		{"foreign_secret", forged},
		{"unknown_user", env.token(t, 999, models.Admin)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectStatus(t, env.do(http.MethodGet, "/wallet/4", c.token, ""), http.StatusUnauthorized)
		})
	}
}

func TestWalletFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.token(t, env.admin, models.Admin)
	coord := env.token(t, env.coord, models.Coordinator)
	student := env.token(t, env.student, models.Student)

	w := env.do(http.MethodPatch, "/wallet/add-points", coord, `{"id":4,"amount":100,"category":"topup","reason":"оплата"}`)
	expectStatus(t, w, http.StatusOK)
	w = env.do(http.MethodPatch, "/wallet/add-points", admin, `{"id":4,"amount":-30,"category":"addClass"}`)
	expectStatus(t, w, http.StatusOK)
	body := decodeBody(t, w)
	totals := body["totals"].(map[string]any)
	if body["balance"] != 70.0 || totals["topup"] != 100.0 || totals["addClass"] != 30.0 {
		t.Fatalf("кошелёк после двух операций: %v", body)
	}

	w = env.do(http.MethodPatch, "/wallet/set-minimum", coord, `{"id":4,"minBalance":80}`)
	expectStatus(t, w, http.StatusOK)
	if decodeBody(t, w)["belowMinimum"] != true {
		t.Fatalf("баланс 70 ниже порога 80: %s", w.Body.String())
	}

	// ученик видит свой кошелёк и историю, но не меняет их
	expectStatus(t, env.do(http.MethodGet, "/wallet/4", student, ""), http.StatusOK)
	w = env.do(http.MethodGet, "/wallet/4/transactions?limit=10", student, "")
	expectStatus(t, w, http.StatusOK)
	var txs []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &txs); err != nil || len(txs) != 2 {
		t.Fatalf("история: %s (%v)", w.Body.String(), err)
	}
	expectStatus(t, env.do(http.MethodPatch, "/wallet/add-points", student, `{"id":4,"amount":1000}`), http.StatusForbidden)

	w = env.do(http.MethodGet, "/wallet/4/statement.xlsx", coord, "")
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content-type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("content-disposition %q", cd)
	}
}

func TestWalletErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	coord := env.token(t, env.coord, models.Coordinator)
	admin := env.token(t, env.admin, models.Admin)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zero_amount", http.MethodPatch, "/wallet/add-points", `{"id":4,"amount":0}`, http.StatusBadRequest},
		{"negative_minimum", http.MethodPatch, "/wallet/set-minimum", `{"id":4,"minBalance":-1}`, http.StatusBadRequest},
		{"unknown_field", http.MethodPatch, "/wallet/add-points", `{"id":4,"amount":1,"bogus":true}`, http.StatusBadRequest},
		{"empty_body", http.MethodPatch, "/wallet/add-points", ``, http.StatusBadRequest},
		{"not_my_student", http.MethodPatch, "/wallet/add-points", `{"id":5,"amount":10}`, http.StatusForbidden},
		{"unknown_owner", http.MethodPatch, "/wallet/add-points", `{"id":999,"amount":10}`, http.StatusNotFound},
		{"bad_path_id", http.MethodGet, "/wallet/abc", ``, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectStatus(t, env.do(c.method, c.path, coord, c.body), c.want)
		})
	}

	t.Run("missing_amount_fields", func(t *testing.T) {
		w := env.do(http.MethodPatch, "/wallet/add-points", admin, `{"id":4}`)
		expectStatus(t, w, http.StatusBadRequest)
		fields, _ := decodeBody(t, w)["fields"].(map[string]any)
		if _, ok := fields["amount"]; !ok {
			t.Fatalf("ожидали ошибку по полю amount: %s", w.Body.String())
		}
	})
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.token(t, env.admin, models.Admin)

	w := env.do(http.MethodPost, "/users/", admin, `{"name":"  ","role":"boss"}`)
	expectStatus(t, w, http.StatusBadRequest)
	fields, _ := decodeBody(t, w)["fields"].(map[string]any)
	if fields["name"] == nil || fields["role"] == nil {
		t.Fatalf("ожидали ошибки по name и role: %s", w.Body.String())
	}

	w = env.do(http.MethodPost, "/users/", admin, `{"name":"Новый учитель","role":"teacher","maxHoursPerWeek":10,"coordinatorId":2}`)
	expectStatus(t, w, http.StatusCreated)
	if decodeBody(t, w)["maxHoursPerWeek"] != 10.0 {
		t.Fatalf("лимит не сохранился: %s", w.Body.String())
	}

	coord := env.token(t, env.coord, models.Coordinator)
	expectStatus(t, env.do(http.MethodPost, "/users/", coord, `{"name":"X","role":"student"}`), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodPatch, "/users/3/max-hours", coord, `{"maxHoursPerWeek":null}`), http.StatusOK)
}

func TestScheduleWeeklyCap(t *testing.T) {
	env := newTestEnv(t, nil)
	coord := env.token(t, env.coord, models.Coordinator)
	teacher := env.token(t, env.teacher, models.Teacher)

	w := env.do(http.MethodPost, "/classes/", coord, `{"teacherId":3,"studentId":4,"title":"Физика","startsAt":"2025-03-10T10:00:00+03:00","durationMinutes":120}`)
	expectStatus(t, w, http.StatusCreated)
	week := decodeBody(t, w)["week"].(map[string]any)
	if week["allowed"] != true || week["projectedHours"] != 2.0 {
		t.Fatalf("первое занятие: %s", w.Body.String())
	}

	w = env.do(http.MethodPost, "/classes/", coord, `{"teacherId":3,"startsAt":"2025-03-12T10:00:00+03:00","durationMinutes":30}`)
	expectStatus(t, w, http.StatusUnprocessableEntity)
	body := decodeBody(t, w)
	if body["currentHours"] != 2.0 || body["projectedHours"] != 2.5 || body["maxHoursPerWeek"] != 2.0 {
		t.Fatalf("тело отказа: %v", body)
	}

	// следующая неделя свободна
	expectStatus(t, env.do(http.MethodPost, "/classes/", coord, `{"teacherId":3,"startsAt":"2025-03-17T00:00:00+03:00","durationMinutes":30}`), http.StatusCreated)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"zero_duration", `{"teacherId":3,"startsAt":"2025-03-20T10:00:00+03:00","durationMinutes":0}`, http.StatusBadRequest},
		{"bad_time", `{"teacherId":3,"startsAt":"завтра","durationMinutes":60}`, http.StatusBadRequest},
		{"student_as_teacher", `{"teacherId":4,"startsAt":"2025-03-20T10:00:00+03:00","durationMinutes":60}`, http.StatusBadRequest},
		{"unknown_teacher", `{"teacherId":999,"startsAt":"2025-03-20T10:00:00+03:00","durationMinutes":60}`, http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expectStatus(t, env.do(http.MethodPost, "/classes/", coord, c.body), c.want)
		})
	}

	expectStatus(t, env.do(http.MethodPost, "/classes/", teacher, `{"teacherId":3,"startsAt":"2025-03-20T10:00:00+03:00","durationMinutes":10}`), http.StatusForbidden)

	w = env.do(http.MethodGet, "/classes/weekly-load?teacherId=3&at=2025-03-14", teacher, "")
	expectStatus(t, w, http.StatusOK)
	if load := decodeBody(t, w); load["currentHours"] != 2.0 || load["classes"] != 1.0 {
		t.Fatalf("нагрузка: %v", load)
	}
	expectStatus(t, env.do(http.MethodGet, "/classes/weekly-load", teacher, ""), http.StatusBadRequest)

	w = env.do(http.MethodGet, "/classes/?teacherId=3&from=2025-03-10&to=2025-03-24", teacher, "")
	expectStatus(t, w, http.StatusOK)
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("список: %s (%v)", w.Body.String(), err)
	}
	expectStatus(t, env.do(http.MethodGet, "/classes/?from=2025-03-24&to=2025-03-10&teacherId=3", teacher, ""), http.StatusBadRequest)

	w = env.do(http.MethodGet, "/classes/weekly-load.xlsx?at=2025-03-10", coord, "")
	expectStatus(t, w, http.StatusOK)
	expectStatus(t, env.do(http.MethodGet, "/classes/weekly-load.xlsx", teacher, ""), http.StatusForbidden)

	id := int64(list[0]["id"].(float64))
	path := "/classes/" + strconv.FormatInt(id, 10)
	expectStatus(t, env.do(http.MethodDelete, path, coord, ""), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodDelete, path, coord, ""), http.StatusNotFound)
}

func TestDiscounts(t *testing.T) {
	env := newTestEnv(t, nil)
	coord := env.token(t, env.coord, models.Coordinator)
	student := env.token(t, env.student, models.Student)

	expectStatus(t, env.do(http.MethodPost, "/discount/create", coord, `{"userId":4,"percent":150,"maxUsage":3}`), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/discount/create", coord, `{"userId":4,"percent":10,"maxUsage":0}`), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/discount/create", coord, `{"userId":5,"percent":10,"maxUsage":1}`), http.StatusForbidden)

	w := env.do(http.MethodPost, "/discount/create", coord, `{"userId":4,"percent":15,"maxUsage":3}`)
	expectStatus(t, w, http.StatusCreated)
	d := decodeBody(t, w)
	if d["usageCount"] != 0.0 || d["percent"] != 15.0 {
		t.Fatalf("скидка: %v", d)
	}
	id := strconv.FormatInt(int64(d["id"].(float64)), 10)
	path := "/discount/" + id

	expectStatus(t, env.do(http.MethodPatch, "/discount/edit/"+id, coord, `{}`), http.StatusBadRequest)
	w = env.do(http.MethodPatch, "/discount/edit/"+id, coord, `{"percent":20}`)
	expectStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w); got["percent"] != 20.0 || got["maxUsage"] != 3.0 {
		t.Fatalf("после правки: %v", got)
	}

	w = env.do(http.MethodGet, "/discount/user/4", student, "")
	expectStatus(t, w, http.StatusOK)
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("скидки ученика: %s (%v)", w.Body.String(), err)
	}

	expectStatus(t, env.do(http.MethodDelete, path, student, ""), http.StatusForbidden)
	expectStatus(t, env.do(http.MethodDelete, path, coord, ""), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodGet, path, coord, ""), http.StatusNotFound)
}

func TestStart_ReportsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = busy.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	srv := Start(ctx, busy.Addr().String(), http.NotFoundHandler(), zap.NewNop())
	select {
	case err := <-srv.Err():
		if err == nil {
			t.Fatal("ожидали ошибку занятого порта")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("сервер на занятом порту не сообщил об ошибке")
	}
	cancel()
	srv.Wait()
}
