package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	answerRepo "github.com/reshetovitsme/askanon/internal/modules/answer/repository"
	answerService "github.com/reshetovitsme/askanon/internal/modules/answer/service"
	authService "github.com/reshetovitsme/askanon/internal/modules/auth/service"
	feedService "github.com/reshetovitsme/askanon/internal/modules/feed/service"
	questionDomain "github.com/reshetovitsme/askanon/internal/modules/question/domain"
	questionRepo "github.com/reshetovitsme/askanon/internal/modules/question/repository"
	questionService "github.com/reshetovitsme/askanon/internal/modules/question/service"
	"github.com/reshetovitsme/askanon/internal/shared/config"
	"github.com/reshetovitsme/askanon/internal/shared/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler   http.Handler
	questions *questionService.Service
	answers   *answerService.Service
	minter    *authService.Minter
}

func newTestEnv(t *testing.T, csrfEnabled bool) *testEnv {
	t.Helper()

	cfg := &config.Config{
		SiteTitle:      "Ask me anything",
		SiteIntro:      "Ask **anything** you like.",
		BaseURL:        "https://ask.example",
		AuthHMACSecret: "test-secret",
		CSRFEnabled:    csrfEnabled,
		CSRFKey:        "0123456789abcdef0123456789abcdef",
	}

	store, err := docstore.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	questions := questionService.New(questionRepo.NewDocStore(store), questionService.NopNotifier{})
	answers := answerService.New(answerRepo.NewDocStore(store), questions)
	feeds := feedService.New(questions, cfg.SiteTitle)

	verifier, err := authService.NewVerifier(cfg)
	require.NoError(t, err)
	minter, err := authService.NewMinter(cfg)
	require.NoError(t, err)

	server, err := New(cfg, questions, answers, feeds, verifier)
	require.NoError(t, err)

	return &testEnv{
		handler:   server.Handler(),
		questions: questions,
		answers:   answers,
		minter:    minter,
	}
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) token(t *testing.T, admin bool) string {
	t.Helper()
	token, err := e.minter.Mint("user-1", "mod@example.com", admin, time.Hour)
	require.NoError(t, err)
	return token
}

// approved submits and approves a question
func (e *testEnv) approved(t *testing.T, text string) *questionDomain.Question {
	t.Helper()
	ctx := context.Background()
	q, err := e.questions.Submit(ctx, text)
	require.NoError(t, err)
	require.NoError(t, e.questions.Approve(ctx, q.ID))
	return q
}

func postForm(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func postJSON(target, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, false)
	env.approved(t, "What is your favourite colour?")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<strong>anything</strong>")
	assert.Contains(t, body, "What is your favourite colour?")
	assert.Contains(t, body, "<body>")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestSubmitQuestion(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postForm("/questions", url.Values{"question": {"Do you like tea?"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?notice=submitted", rec.Header().Get("Location"))

	pending, err := env.questions.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Do you like tea?", pending[0].Text)

	// Pending questions are not public
	rec = env.do(httptest.NewRequest(http.MethodGet, "/?notice=submitted", nil))
	assert.Contains(t, rec.Body.String(), "Question submitted for approval!")
	assert.NotContains(t, rec.Body.String(), "Do you like tea?")
}

func TestSubmitQuestion_Empty(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postForm("/questions", url.Values{"question": {"   "}}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a question!")
}

func TestQuestionPage(t *testing.T) {
	env := newTestEnv(t, false)
	q := env.approved(t, "Cats or dogs?")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/questions/"+q.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No answers yet.")
	assert.Contains(t, rec.Body.String(), "In not more than 10 words, sweetie")

	rec = env.do(postForm("/questions/"+q.ID+"/answers", url.Values{"answer": {"cats"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/questions/"+q.ID+"?notice=answered", rec.Header().Get("Location"))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/questions/"+q.ID, nil))
	assert.Contains(t, rec.Body.String(), "1. cats")
	assert.NotContains(t, rec.Body.String(), "No answers yet.")
	// Answers are numbered in the text, not by the list element
	assert.NotContains(t, rec.Body.String(), "<ol")
}

func TestSubmitAnswer_Validation(t *testing.T) {
	env := newTestEnv(t, false)
	q := env.approved(t, "Cats or dogs?")

	tests := []struct {
		name   string
		answer string
		status int
		want   string
	}{
		{"empty", "  ", http.StatusUnprocessableEntity, "Please write something."},
		{"too many words", "one two three four five six seven eight nine ten eleven", http.StatusUnprocessableEntity, "Max 10 words allowed!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(postForm("/questions/"+q.ID+"/answers", url.Values{"answer": {tt.answer}}))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	answers, err := env.answers.List(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestQuestionPage_NotFound(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/questions/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleDarkMode(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postForm("/preferences/dark-mode", url.Values{"return_to": {"/questions/abc"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/questions/abc", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, darkModeCookie, cookies[0].Name)
	assert.Equal(t, "enabled", cookies[0].Value)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	rec = env.do(r)
	assert.Contains(t, rec.Body.String(), `<body class="dark">`)

	// Toggling again turns it off
	r = postForm("/preferences/dark-mode", url.Values{"return_to": {"//evil.example"}})
	r.AddCookie(cookies[0])
	rec = env.do(r)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "disabled", rec.Result().Cookies()[0].Value)
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name   string
		cookie string
		status int
		want   string
	}{
		{"no token", "", http.StatusSeeOther, ""},
		{"invalid token", "not-a-token", http.StatusUnauthorized, "Error checking admin status."},
		{"not admin", env.token(t, false), http.StatusForbidden, "Access denied: not an admin."},
		{"admin", env.token(t, true), http.StatusOK, "Moderation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: sessionCookie, Value: tt.cookie})
			}
			rec := env.do(r)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAdminGate_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postForm("/admin/login", url.Values{"token": {env.token(t, false)}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = env.do(postForm("/admin/login", url.Values{"token": {env.token(t, true)}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.do(postForm("/admin/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestAdminModeration(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	session := &http.Cookie{Name: sessionCookie, Value: env.token(t, true)}

	q, err := env.questions.Submit(ctx, "Is pineapple on pizza fine?")
	require.NoError(t, err)
	doomed, err := env.questions.Submit(ctx, "spam spam spam")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(session)
	rec := env.do(r)
	assert.Contains(t, rec.Body.String(), "Is pineapple on pizza fine?")
	assert.Contains(t, rec.Body.String(), "mod@example.com")

	r = postForm("/admin/pending/"+q.ID+"/approve", nil)
	r.AddCookie(session)
	rec = env.do(r)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	r = postForm("/admin/pending/"+doomed.ID+"/delete", nil)
	r.AddCookie(session)
	rec = env.do(r)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	pending, err := env.questions.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := env.questions.GetApproved(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Is pineapple on pizza fine?", got.Text)

	// Approving twice finds nothing to move
	r = postForm("/admin/pending/"+q.ID+"/approve", nil)
	r.AddCookie(session)
	rec = env.do(r)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminAnswers(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	session := &http.Cookie{Name: sessionCookie, Value: env.token(t, true)}

	q := env.approved(t, "Best season?")
	a, err := env.answers.Submit(ctx, q.ID, "autumn obviously")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/admin/questions/"+q.ID+"/answers", nil)
	r.AddCookie(session)
	rec := env.do(r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1. autumn obviously")

	r = postForm("/admin/answers/"+a.ID+"/delete", url.Values{"question_id": {q.ID}})
	r.AddCookie(session)
	rec = env.do(r)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/questions/"+q.ID+"/answers", rec.Header().Get("Location"))

	answers, err := env.answers.List(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestAPI_Questions(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postJSON("/api/questions", `{"question":"Why is the sky blue?"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created createdResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, env.questions.Approve(context.Background(), created.ID))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	var listed []questionDomain.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Why is the sky blue?", listed[0].Text)
}

func TestAPI_Errors(t *testing.T) {
	env := newTestEnv(t, false)
	q := env.approved(t, "Cats or dogs?")

	tests := []struct {
		name   string
		req    *http.Request
		status int
		want   string
	}{
		{"empty question", postJSON("/api/questions", `{"question":""}`), http.StatusBadRequest, `{"error":"Enter a question!"}`},
		{"bad json", postJSON("/api/questions", `{"question":`), http.StatusBadRequest, `{"error":"Invalid JSON body."}`},
		{"unknown field", postJSON("/api/questions", `{"text":"hi"}`), http.StatusBadRequest, `{"error":"Invalid JSON body."}`},
		{"too many words", postJSON("/api/questions/"+q.ID+"/answers", `{"answer":"a b c d e f g h i j k"}`), http.StatusBadRequest, `{"error":"Max 10 words allowed!"}`},
		{"unknown question", postJSON("/api/questions/missing/answers", `{"answer":"hi"}`), http.StatusNotFound, `{"error":"That question does not exist."}`},
		{"list unknown question", httptest.NewRequest(http.MethodGet, "/api/questions/missing/answers", nil), http.StatusNotFound, `{"error":"That question does not exist."}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestAPI_Answers(t *testing.T) {
	env := newTestEnv(t, false)
	q := env.approved(t, "Cats or dogs?")

	rec := env.do(postJSON("/api/questions/"+q.ID+"/answers", `{"answer":"dogs all day"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/questions/"+q.ID+"/answers", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var answers []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answers))
	require.Len(t, answers, 1)
	assert.Equal(t, "dogs all day", answers[0]["answer"])
	assert.Equal(t, q.ID, answers[0]["questionId"])
}

func TestAPI_Admin(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	q, err := env.questions.Submit(ctx, "Pending one")
	require.NoError(t, err)

	withToken := func(r *http.Request, token string) *http.Request {
		r.Header.Set("Authorization", "Bearer "+token)
		return r
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The session cookie is not accepted by the API
	r := httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: env.token(t, true)})
	rec = env.do(r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(withToken(httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil), env.token(t, false)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Access denied: not an admin."}`, rec.Body.String())

	admin := env.token(t, true)
	rec = env.do(withToken(httptest.NewRequest(http.MethodGet, "/api/admin/pending", nil), admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pending one")

	rec = env.do(withToken(httptest.NewRequest(http.MethodPost, "/api/admin/pending/"+q.ID+"/approve", nil), admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(withToken(httptest.NewRequest(http.MethodGet, "/api/admin/approved", nil), admin))
	assert.Contains(t, rec.Body.String(), "Pending one")

	rec = env.do(withToken(httptest.NewRequest(http.MethodDelete, "/api/admin/approved/"+q.ID, nil), admin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = env.questions.GetApproved(ctx, q.ID)
	assert.Error(t, err)
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t, false)
	q := env.approved(t, "Will it rain tomorrow?")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/feed.rss", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "Will it rain tomorrow?")
	assert.Contains(t, rec.Body.String(), "https://ask.example/questions/"+q.ID)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/feed.atom", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/atom+xml")
}

func TestHealthAndStatic(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "body.dark")
}

func TestCSRF(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="gorilla.csrf.Token"`)

	rec = env.do(postForm("/questions", url.Values{"question": {"no token"}}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// JSON clients are exempt
	rec = env.do(postJSON("/api/questions", `{"question":"from a script"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCSRF_AdminAPIExempt(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.token(t, true)

	q, err := env.questions.Submit(ctx, "Approve me without a body")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/pending/"+q.ID+"/approve", nil)
	r.Header.Set("Authorization", "Bearer "+admin)
	rec := env.do(r)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	r = httptest.NewRequest(http.MethodDelete, "/api/admin/approved/"+q.ID, nil)
	r.Header.Set("Authorization", "Bearer "+admin)
	rec = env.do(r)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = env.questions.GetApproved(ctx, q.ID)
	assert.Error(t, err)

	// API errors stay JSON even with CSRF on
	r = httptest.NewRequest(http.MethodDelete, "/api/admin/approved/"+q.ID, nil)
	rec = env.do(r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "/", localPath(""))
	assert.Equal(t, "/", localPath("https://evil.example"))
	assert.Equal(t, "/", localPath("//evil.example"))
	assert.Equal(t, "/questions/1", localPath("/questions/1"))
}
