package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/diewo77/go-questions/auth"
	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/models"
	"github.com/diewo77/go-questions/internal/testutil"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret")

type testApp struct {
	t   *testing.T
	srv *httptest.Server
	db  *gorm.DB
}

func newTestApp(t *testing.T, pol config.PolicyConfig) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := &config.Config{Policy: pol}
	srv := httptest.NewServer(New(db, cfg, auth.NewCookieSessions(testSecret, 0, false)))
	t.Cleanup(srv.Close)
	return &testApp{t: t, srv: srv, db: db}
}

func defaultPolicy() config.PolicyConfig {
	return config.PolicyConfig{LoginErrorOnGet: true}
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	app    *testApp
	client *http.Client
}

func (a *testApp) browser() *browser {
	jar, err := cookiejar.New(nil)
	if err != nil {
		a.t.Fatal(err)
	}
	return &browser{app: a, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type result struct {
	code     int
	location string
	body     string
}

func (b *browser) do(req *http.Request) result {
	b.app.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.app.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return result{code: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) result {
	b.app.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, b.app.srv.URL+path, nil)
	return b.do(req)
}

func (b *browser) getJSON(path string, v any) result {
	b.app.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, b.app.srv.URL+path, nil)
	req.Header.Set("Accept", "application/json")
	res := b.do(req)
	if v != nil && res.code == http.StatusOK {
		if err := json.Unmarshal([]byte(res.body), v); err != nil {
			b.app.t.Fatalf("decode %s: %v\n%s", path, err, res.body)
		}
	}
	return res
}

func (b *browser) post(path string, form url.Values) result {
	b.app.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, b.app.srv.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(name, password string) {
	b.app.t.Helper()
	res := b.post("/login", url.Values{"name": {name}, "password": {password}})
	if res.code != http.StatusSeeOther || res.location != "/" {
		b.app.t.Fatalf("login %s: got %d %q", name, res.code, res.location)
	}
}

func expectRedirect(t *testing.T, res result, location string) {
	t.Helper()
	if res.code != http.StatusSeeOther || res.location != location {
		t.Fatalf("expected 303 -> %s, got %d %q", location, res.code, res.location)
	}
}

func idPath(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func TestRegister_DuplicateName(t *testing.T) {
	app := newTestApp(t, defaultPolicy())

	expectRedirect(t, app.browser().post("/register", url.Values{"name": {"alice"}, "password": {"pw1"}}), "/")

	res := app.browser().post("/register", url.Values{"name": {"alice"}, "password": {"other"}})
	if res.code != http.StatusOK || !strings.Contains(res.body, "Username already taken, Try different username.") {
		t.Fatalf("expected duplicate message, got %d\n%s", res.code, res.body)
	}

	var count int64
	app.db.Model(&models.User{}).Where("name = ?", "alice").Count(&count)
	if count != 1 {
		t.Fatalf("expected one alice, got %d", count)
	}
}

func TestRegister_RequiredFields(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	res := app.browser().post("/register", url.Values{"name": {""}, "password": {""}})
	if res.code != http.StatusOK || !strings.Contains(res.body, "Required") {
		t.Fatalf("expected required violations, got %d", res.code)
	}
	var count int64
	app.db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no users, got %d", count)
	}
}

func TestRegister_SessionGrantsAsk(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	b := app.browser()
	expectRedirect(t, b.post("/register", url.Values{"name": {"alice"}, "password": {"pw1"}}), "/")

	res := b.get("/ask")
	if res.code != http.StatusOK {
		t.Fatalf("GET /ask after register: %d %q", res.code, res.location)
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)

	good := app.browser()
	good.login("alice", "pw1")
	if res := good.get("/ask"); res.code != http.StatusOK {
		t.Fatalf("GET /ask after login: %d", res.code)
	}

	for _, tc := range []struct{ name, password string }{{"alice", "wrong"}, {"nobody", "pw1"}} {
		bad := app.browser()
		res := bad.post("/login", url.Values{"name": {tc.name}, "password": {tc.password}})
		if res.code != http.StatusOK || !strings.Contains(res.body, "Username or password did not match. Try again.") {
			t.Fatalf("login %s/%s: got %d", tc.name, tc.password, res.code)
		}
		expectRedirect(t, bad.get("/ask"), "/login")
	}
}

func TestLogin_MessageOnGet(t *testing.T) {
	const msg = "Username or password did not match. Try again."

	t.Run("default", func(t *testing.T) {
		app := newTestApp(t, defaultPolicy())
		if res := app.browser().get("/login"); !strings.Contains(res.body, msg) {
			t.Fatal("login form should carry the mismatch message by default")
		}
	})
	t.Run("disabled", func(t *testing.T) {
		app := newTestApp(t, config.PolicyConfig{})
		if res := app.browser().get("/login"); strings.Contains(res.body, msg) {
			t.Fatal("login form should not carry the message when disabled")
		}
	})
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	b := app.browser()
	b.login("alice", "pw1")

	expectRedirect(t, b.get("/logout"), "/")
	expectRedirect(t, b.get("/ask"), "/login")
}

func TestStaleSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	b := app.browser()

	rec := httptest.NewRecorder()
	if err := auth.NewCookieSessions(testSecret, 0, false).Create(context.Background(), rec, "ghost"); err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(app.srv.URL)
	b.client.Jar.SetCookies(u, rec.Result().Cookies())

	expectRedirect(t, b.get("/ask"), "/login")
}

func TestAsk(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)

	expectRedirect(t, app.browser().get("/ask"), "/login")

	b := app.browser()
	b.login("alice", "pw1")
	if res := b.get("/ask"); !strings.Contains(res.body, "erin</option>") {
		t.Fatalf("ask form should list erin:\n%s", res.body)
	}

	res := b.post("/ask", url.Values{"question": {"Why?"}, "expert": {strconv.Itoa(int(erin.ID))}})
	expectRedirect(t, res, "/")

	var q models.Question
	if err := app.db.First(&q).Error; err != nil {
		t.Fatalf("question not stored: %v", err)
	}
	if q.QuestionText != "Why?" || q.AskedByID != alice.ID || q.ExpertID != erin.ID || q.AnswerText != nil {
		t.Fatalf("stored question = %+v", q)
	}
}

func TestAsk_Validation(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	b := app.browser()
	b.login("alice", "pw1")

	for _, form := range []url.Values{
		{"question": {""}, "expert": {strconv.Itoa(int(erin.ID))}},
		{"question": {"Why?"}, "expert": {"abc"}},
		{"question": {"Why?"}},
	} {
		if res := b.post("/ask", form); res.code != http.StatusOK {
			t.Fatalf("POST /ask %v: expected re-rendered form, got %d", form, res.code)
		}
	}
	var count int64
	app.db.Model(&models.Question{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no questions, got %d", count)
	}
}

func TestAsk_ExpertCheckToggle(t *testing.T) {
	for _, strict := range []bool{false, true} {
		t.Run("strict="+strconv.FormatBool(strict), func(t *testing.T) {
			app := newTestApp(t, config.PolicyConfig{AskRequiresExpert: strict})
			testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
			bob := testutil.CreateUser(t, app.db, "bob", "pw", false, false)
			b := app.browser()
			b.login("alice", "pw1")

			res := b.post("/ask", url.Values{"question": {"Why?"}, "expert": {strconv.Itoa(int(bob.ID))}})
			var count int64
			app.db.Model(&models.Question{}).Count(&count)
			if !strict {
				expectRedirect(t, res, "/")
				if count != 1 {
					t.Fatalf("expected the question stored, got %d", count)
				}
				return
			}
			if res.code != http.StatusOK || count != 0 {
				t.Fatalf("expected rejection, got %d with %d rows", res.code, count)
			}
			if !strings.Contains(res.body, "Choose an expert from the list.") {
				t.Fatal("expected expert error message")
			}
		})
	}
}

func TestAnswer_NonExpertRedirected(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	q := testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "Why?", nil)

	expectRedirect(t, app.browser().get(idPath("/answer/", q.ID)), "/login")

	b := app.browser()
	b.login("alice", "pw1")
	expectRedirect(t, b.get(idPath("/answer/", q.ID)), "/")
	expectRedirect(t, b.post(idPath("/answer/", q.ID), url.Values{"answer": {"hijack"}}), "/")
	// Redirected before the question is looked up.
	expectRedirect(t, b.get("/answer/9999"), "/")

	var stored models.Question
	app.db.First(&stored, q.ID)
	if stored.AnswerText != nil {
		t.Fatalf("question should be untouched, got %q", *stored.AnswerText)
	}
}

func TestAnswer_Flow(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	q := testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "Why is the sky blue?", nil)

	b := app.browser()
	b.login("erin", "pw")

	if res := b.get("/unanswered"); !strings.Contains(res.body, "Why is the sky blue?") {
		t.Fatalf("unanswered should list the question:\n%s", res.body)
	}
	if res := b.get("/"); strings.Contains(res.body, "Why is the sky blue?") {
		t.Fatal("home must not list unanswered questions")
	}
	if res := b.get(idPath("/answer/", q.ID)); res.code != http.StatusOK || !strings.Contains(res.body, "Why is the sky blue?") {
		t.Fatalf("answer form: %d", res.code)
	}
	if res := b.post(idPath("/answer/", q.ID), url.Values{"answer": {""}}); res.code != http.StatusOK {
		t.Fatalf("empty answer should re-render, got %d", res.code)
	}

	expectRedirect(t, b.post(idPath("/answer/", q.ID), url.Values{"answer": {"Rayleigh scattering."}}), "/unanswered")

	if res := b.get("/unanswered"); strings.Contains(res.body, "Why is the sky blue?") {
		t.Fatal("answered question should leave the inbox")
	}
	home := app.browser().get("/")
	if !strings.Contains(home.body, "Why is the sky blue?") || !strings.Contains(home.body, idPath("/question/", q.ID)) {
		t.Fatalf("home should list the answered question:\n%s", home.body)
	}
	detail := app.browser().get(idPath("/question/", q.ID))
	if detail.code != http.StatusOK || !strings.Contains(detail.body, "Rayleigh scattering.") {
		t.Fatalf("detail: %d", detail.code)
	}
}

func TestAnswer_UnknownQuestion(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	b := app.browser()
	b.login("erin", "pw")

	for _, path := range []string{"/answer/9999", "/answer/abc"} {
		if res := b.get(path); res.code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, res.code)
		}
	}
	if res := b.post("/answer/9999", url.Values{"answer": {"x"}}); res.code != http.StatusNotFound {
		t.Errorf("POST unknown: expected 404, got %d", res.code)
	}
}

func TestAnswer_AddresseeToggle(t *testing.T) {
	app := newTestApp(t, config.PolicyConfig{AnswerRequiresAddressee: true})
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	testutil.CreateUser(t, app.db, "frank", "pw", true, false)
	q := testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "Why?", nil)

	frank := app.browser()
	frank.login("frank", "pw")
	expectRedirect(t, frank.post(idPath("/answer/", q.ID), url.Values{"answer": {"not mine"}}), "/")

	e := app.browser()
	e.login("erin", "pw")
	expectRedirect(t, e.post(idPath("/answer/", q.ID), url.Values{"answer": {"mine"}}), "/unanswered")

	var stored models.Question
	app.db.First(&stored, q.ID)
	if stored.AnswerText == nil || *stored.AnswerText != "mine" {
		t.Fatalf("answer = %v", stored.AnswerText)
	}
}

func TestAnswer_AnyExpertByDefault(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	testutil.CreateUser(t, app.db, "frank", "pw", true, false)
	q := testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "Why?", nil)

	b := app.browser()
	b.login("frank", "pw")
	expectRedirect(t, b.post(idPath("/answer/", q.ID), url.Values{"answer": {"anyone"}}), "/unanswered")
}

func TestUnanswered_RequiresExpert(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)

	expectRedirect(t, app.browser().get("/unanswered"), "/login")
	b := app.browser()
	b.login("alice", "pw1")
	expectRedirect(t, b.get("/unanswered"), "/")
}

func TestUsers_RequiresAdmin(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	testutil.CreateUser(t, app.db, "root", "secret", false, true)

	expectRedirect(t, app.browser().get("/users"), "/login")
	for _, name := range []string{"alice", "erin"} {
		b := app.browser()
		b.login(name, map[string]string{"alice": "pw1", "erin": "pw"}[name])
		expectRedirect(t, b.get("/users"), "/")
	}

	admin := app.browser()
	admin.login("root", "secret")
	var payload struct {
		Users []models.User `json:"users"`
	}
	res := admin.getJSON("/users", &payload)
	if res.code != http.StatusOK || len(payload.Users) != 3 {
		t.Fatalf("users: %d %+v", res.code, payload)
	}
	if strings.Contains(res.body, "password") {
		t.Fatal("password hashes must not be exposed")
	}
}

func TestPromote_Scenario(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "root", "secret", false, true)

	alice := app.browser()
	expectRedirect(t, alice.post("/register", url.Values{"name": {"alice"}, "password": {"pw1"}}), "/")
	if res := alice.get("/ask"); !strings.Contains(res.body, "No experts available yet.") {
		t.Fatalf("expected empty expert list:\n%s", res.body)
	}

	var stored models.User
	app.db.Where("name = ?", "alice").First(&stored)

	admin := app.browser()
	admin.login("root", "secret")
	expectRedirect(t, admin.get(idPath("/promote/", stored.ID)), "/users")
	// Idempotent.
	expectRedirect(t, admin.get(idPath("/promote/", stored.ID)), "/users")

	app.db.First(&stored, stored.ID)
	if !stored.Expert {
		t.Fatal("alice should be an expert")
	}
	if res := alice.get("/ask"); !strings.Contains(res.body, "alice</option>") {
		t.Fatalf("alice should be listed as an expert:\n%s", res.body)
	}
	// The new flag is picked up on the next request without logging in again.
	if res := alice.get("/unanswered"); res.code != http.StatusOK {
		t.Fatalf("promoted user should reach /unanswered, got %d", res.code)
	}
}

func TestPromote_Errors(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	testutil.CreateUser(t, app.db, "root", "secret", false, true)
	testutil.CreateUser(t, app.db, "alice", "pw1", false, false)

	alice := app.browser()
	alice.login("alice", "pw1")
	expectRedirect(t, alice.get("/promote/1"), "/")

	admin := app.browser()
	admin.login("root", "secret")
	for _, path := range []string{"/promote/9999", "/promote/abc", "/promote/0"} {
		if res := admin.get(path); res.code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, res.code)
		}
	}
}

func TestQuestionDetail_NotFound(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	open := testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "open", nil)

	b := app.browser()
	for _, path := range []string{idPath("/question/", open.ID), "/question/9999", "/question/abc"} {
		if res := b.get(path); res.code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, res.code)
		}
	}
	if res := b.getJSON("/question/9999", nil); !strings.Contains(res.body, `"not_found"`) {
		t.Errorf("JSON 404 body = %s", res.body)
	}
}

func TestHome_JSON(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	alice := testutil.CreateUser(t, app.db, "alice", "pw1", false, false)
	erin := testutil.CreateUser(t, app.db, "erin", "pw", true, false)
	testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "first", testutil.Ptr("a1"))
	testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "open", nil)
	testutil.CreateQuestion(t, app.db, alice.ID, erin.ID, "second", testutil.Ptr("a2"))

	var payload struct {
		Questions []models.AnsweredQuestion `json:"questions"`
	}
	res := app.browser().getJSON("/", &payload)
	if res.code != http.StatusOK {
		t.Fatalf("status = %d", res.code)
	}
	if len(payload.Questions) != 2 || payload.Questions[0].QuestionText != "first" || payload.Questions[1].QuestionText != "second" {
		t.Fatalf("questions = %+v", payload.Questions)
	}
	if payload.Questions[0].AskerName != "alice" || payload.Questions[0].ExpertName != "erin" {
		t.Fatalf("names = %+v", payload.Questions[0])
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	res := app.browser().get("/healthz")
	if res.code != http.StatusOK || !strings.Contains(res.body, `"ok"`) {
		t.Fatalf("healthz: %d %s", res.code, res.body)
	}
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, defaultPolicy())
	if res := app.browser().get("/nope"); res.code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.code)
	}
}
