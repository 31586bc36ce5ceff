// ABOUTME: Tests for the dashboard UI handlers
// ABOUTME: Covers login, sign-up, logout, the session gate, CSRF, throttling, and page rendering

package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/salesboard/internal/auth"
	"github.com/2389/salesboard/internal/sales"
	"github.com/2389/salesboard/internal/store"
)

const testCSRF = "test-csrf-token"

type fakeData struct {
	ds  *sales.Dataset
	err error
}

func (f *fakeData) Dataset(ctx context.Context) (*sales.Dataset, error) {
	return f.ds, f.err
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func testDataset() *sales.Dataset {
	rows := []sales.Sale{
		{Date: day("2024-01-01"), Product: "Laptop", Category: "Electronics", Region: "North", UnitPrice: 1000, Quantity: 2, CustomerAge: 30, CustomerGender: "F", TotalPrice: 2000},
		{Date: day("2024-01-02"), Product: "Mouse", Category: "Electronics", Region: "South", UnitPrice: 20, Quantity: 5, CustomerAge: 30, CustomerGender: "M", TotalPrice: 100},
		{Date: day("2024-01-02"), Product: "Chair", Category: "Furniture", Region: "North", UnitPrice: 150, Quantity: 1, CustomerAge: 45, CustomerGender: "F", TotalPrice: 150},
	}
	return &sales.Dataset{Sales: rows, Source: "test.csv", LoadedAt: time.Now()}
}

type testEnv struct {
	ui      *UI
	handler http.Handler
	store   *store.MockStore
	svc     *auth.Service
	data    *fakeData
	now     time.Time
}

func newTestEnv(t *testing.T, opts auth.Options, cfg Config) *testEnv {
	t.Helper()
	env := &testEnv{
		store: store.NewMockStore(),
		data:  &fakeData{ds: testDataset()},
		now:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	opts.Iterations = 1000
	opts.Now = func() time.Time { return env.now }
	env.svc = auth.NewService(env.store, env.store, opts)

	ui, err := New(env.svc, env.data, cfg)
	require.NoError(t, err)
	t.Cleanup(ui.Close)
	env.ui = ui

	mux := http.NewServeMux()
	ui.RegisterRoutes(mux)
	env.handler = mux
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

// post submits a form with a matching CSRF cookie and field.
func (e *testEnv) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", testCSRF)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.10:4444"
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testCSRF})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) signUp(t *testing.T, email, password string) *store.User {
	t.Helper()
	user, err := e.svc.SignUp(context.Background(), email, "tester", password)
	require.NoError(t, err)
	return user
}

// login logs in through the form and returns the session cookie.
func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := e.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	c := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, c, "session cookie not set")
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestProtectedPage_RedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})

	for _, path := range []string{"/", "/ventes", "/analyses", "/clients"} {
		rec := env.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login?next="+url.QueryEscape(path), rec.Header().Get("Location"), path)
	}
}

func TestLoginPage_ShowsNoticeWhenRedirected(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})

	rec := env.get("/login?next=%2Fventes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tu dois te connecter")
	assert.Contains(t, rec.Body.String(), `value="/ventes"`)
	assert.NotNil(t, findCookie(rec, CSRFCookieName), "csrf cookie should be issued")
}

func TestLoginPage_RedirectsWhenLoggedIn(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	rec := env.get("/login", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})

	rec := env.post("/signup", url.Values{
		"email":            {"New@Example.com"},
		"username":         {"newbie"},
		"password":         {"secret"},
		"password_confirm": {"secret"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Compte créé")
	assert.Nil(t, findCookie(rec, auth.SessionCookieName), "sign-up must not log in")

	_, err := env.store.FindUserByEmail(context.Background(), "new@example.com")
	assert.NoError(t, err)
}

func TestSignup_Errors(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantMsg  string
	}{
		{
			name:     "missing username",
			form:     url.Values{"email": {"x@example.com"}, "password": {"pw"}, "password_confirm": {"pw"}},
			wantCode: http.StatusBadRequest,
			wantMsg:  msgMissingFields,
		},
		{
			name:     "whitespace only email",
			form:     url.Values{"email": {"   "}, "username": {"u"}, "password": {"pw"}, "password_confirm": {"pw"}},
			wantCode: http.StatusBadRequest,
			wantMsg:  msgMissingFields,
		},
		{
			name:     "confirmation differs",
			form:     url.Values{"email": {"x@example.com"}, "username": {"u"}, "password": {"pw"}, "password_confirm": {"other"}},
			wantCode: http.StatusBadRequest,
			wantMsg:  msgPasswordsDiffer,
		},
		{
			name:     "email taken",
			form:     url.Values{"email": {"TAKEN@example.com "}, "username": {"u"}, "password": {"pw"}, "password_confirm": {"pw"}},
			wantCode: http.StatusConflict,
			wantMsg:  msgEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, auth.Options{}, Config{})
			env.signUp(t, "taken@example.com", "pw")

			rec := env.post("/signup", tt.form)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestSignup_StoreFailure(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.store.FailWith(errors.New("disk on fire"))

	rec := env.post("/signup", url.Values{
		"email": {"x@example.com"}, "username": {"u"}, "password": {"pw"}, "password_confirm": {"pw"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Erreur lors de la création du compte.")
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	user := env.signUp(t, "a@example.com", "pw")

	rec := env.post("/login", url.Values{"email": {" A@example.com"}, "password": {"pw"}, "next": {"/ventes"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ventes", rec.Header().Get("Location"))

	cookie := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.WithinDuration(t, env.now.Add(auth.DefaultSessionTTL), cookie.Expires, time.Second)
	assert.Equal(t, 1, env.store.SessionCount())

	page := env.get("/", cookie)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), fmt.Sprintf("Connecté : user_id = %d", user.ID))
}

func TestLogin_RejectsOpenRedirect(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")

	rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}, "next": {"//evil.example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_UniformFailure(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")

	wrongPassword := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"nope"}})
	unknownEmail := env.post("/login", url.Values{"email": {"ghost@example.com"}, "password": {"pw"}})

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), msgBadCredentials)
		assert.Nil(t, findCookie(rec, auth.SessionCookieName))
	}
	assert.Equal(t, 0, env.store.SessionCount())
}

func TestLogin_RequiresCSRF(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")

	rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}, "csrf_token": {"forged"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.store.SessionCount())
}

func TestLogin_Throttled(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{MaxLoginFailures: 2})
	env.signUp(t, "a@example.com", "pw")

	for i := 0; i < 2; i++ {
		rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"wrong"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Even the right password is refused while throttled
	rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 0, env.store.SessionCount())
}

func TestLogin_ThrottleHoldsUnderConcurrentBurst(t *testing.T) {
	const limit = 5
	env := newTestEnv(t, auth.Options{}, Config{MaxLoginFailures: limit})
	env.signUp(t, "a@example.com", "pw")

	var wg sync.WaitGroup
	var mu sync.Mutex
	codes := map[int]int{}
	start := make(chan struct{})
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"wrong"}})
			mu.Lock()
			codes[rec.Code]++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, limit, codes[http.StatusUnauthorized], "password checks")
	assert.Equal(t, 40-limit, codes[http.StatusTooManyRequests], "throttled")
}

func TestLogin_StoreFailureDoesNotCountAgainstThrottle(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{MaxLoginFailures: 1})
	env.signUp(t, "a@example.com", "pw")

	env.store.FailWith(errors.New("connection refused"))
	for i := 0; i < 3; i++ {
		rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}})
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	}
	env.store.FailWith(nil)

	env.login(t, "a@example.com", "pw")
}

func TestLogin_StoreFailure(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.store.FailWith(errors.New("connection refused"))

	rec := env.post("/login", url.Values{"email": {"a@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), msgBadCredentials)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	rec := env.post("/logout", nil, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 0, env.store.SessionCount())

	cleared := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	// The old token no longer opens a page
	assert.Equal(t, http.StatusSeeOther, env.get("/", cookie).Code)
}

func TestLogout_StoreFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	env.store.FailWith(errors.New("connection refused"))
	rec := env.post("/logout", nil, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), msgUnavailable)
	assert.Nil(t, findCookie(rec, auth.SessionCookieName), "cookie must not be cleared")

	// The session survived, and a retry once the store is back ends it
	env.store.FailWith(nil)
	assert.Equal(t, http.StatusOK, env.get("/ventes", cookie).Code)

	rec = env.post("/logout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, env.store.SessionCount())
}

func TestLogout_WithoutSession(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})

	rec := env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionGate_ExpiredSession(t *testing.T) {
	env := newTestEnv(t, auth.Options{SessionTTL: time.Hour}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	env.now = env.now.Add(time.Hour)

	rec := env.get("/ventes", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, env.store.SessionCount(), "expired session should be removed")
}

func TestSessionGate_StoreFailure(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	env.store.FailWith(errors.New("connection reset"))

	rec := env.get("/", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionGate_RestoresLatestSession(t *testing.T) {
	env := newTestEnv(t, auth.Options{RestoreLatestSession: true}, Config{})
	user := env.signUp(t, "a@example.com", "pw")
	state, err := env.svc.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)

	rec := env.get("/")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, auth.SessionCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, state.Token, cookie.Value)
}

func TestSessionGate_NoRestoreByDefault(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	user := env.signUp(t, "a@example.com", "pw")
	_, err := env.svc.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)

	rec := env.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPages_Render(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	overview := env.get("/", cookie)
	require.Equal(t, http.StatusOK, overview.Code)
	assert.Contains(t, overview.Body.String(), "Aperçu des données")
	assert.Contains(t, overview.Body.String(), "Laptop")
	assert.Contains(t, overview.Body.String(), "Bienvenue", "markdown intro should be rendered")

	ventes := env.get("/ventes", cookie)
	require.Equal(t, http.StatusOK, ventes.Code)
	body := ventes.Body.String()
	assert.Contains(t, body, env.ui.format.Euros(2250))
	assert.Contains(t, body, env.ui.format.EurosCents(750))
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, `data-chart="category"`)

	clients := env.get("/clients", cookie)
	require.Equal(t, http.StatusOK, clients.Code)
	assert.Contains(t, clients.Body.String(), `data-chart="genders"`)
}

func TestAnalyses_RegionSelection(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")

	// Defaults to the first region in sorted order
	rec := env.get("/analyses", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Analyse pour la région : North")
	assert.Contains(t, rec.Body.String(), env.ui.format.Euros(2150))

	rec = env.get("/analyses?region=South", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Analyse pour la région : South")

	// Unknown regions fall back to the default
	rec = env.get("/analyses?region=Atlantis", cookie)
	assert.Contains(t, rec.Body.String(), "Analyse pour la région : North")
}

func TestPages_DatasetUnavailable(t *testing.T) {
	env := newTestEnv(t, auth.Options{}, Config{})
	env.signUp(t, "a@example.com", "pw")
	cookie := env.login(t, "a@example.com", "pw")
	env.data.err = errors.New("no such file")

	rec := env.get("/ventes", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "pu être chargées")
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                    "/",
		"/ventes":             "/ventes",
		"/analyses?region=X":  "/analyses?region=X",
		"//evil.example.com":  "/",
		"/\\evil.example.com": "/",
		"https://evil.com/":   "/",
		"ventes":              "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), "safeNext(%q)", in)
	}
}
