// ABOUTME: Browser UI for the sales dashboard: login, sign-up, logout, and the protected pages
// ABOUTME: Carries the session token in a cookie and validates it on every protected request

package webui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/2389/salesboard/internal/auth"
	"github.com/2389/salesboard/internal/sales"
	"github.com/2389/salesboard/internal/throttle"
)

const (
	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "salesboard_csrf"

	// maxTrackedLoginKeys bounds the login throttle's memory.
	maxTrackedLoginKeys = 10_000
)

// User-facing messages.
const (
	msgBadCredentials  = "Email ou mot de passe incorrect."
	msgMissingFields   = "Remplis tous les champs."
	msgPasswordsDiffer = "Les mots de passe ne correspondent pas."
	msgEmailTaken      = "Un compte existe déjà pour cet email."
	msgSignupFailed    = "Erreur lors de la création du compte."
	msgSignupDone      = "Compte créé ! Connecte-toi maintenant."
	msgLoginRequired   = "Tu dois te connecter pour accéder à cette page."
	msgTooManyAttempts = "Trop de tentatives. Réessaie dans quelques minutes."
	msgUnavailable     = "Service momentanément indisponible. Réessaie plus tard."
	msgBadRequest      = "Requête invalide, réessaie."
	msgNoData          = "Les données n'ont pas pu être chargées."
)

// DatasetProvider supplies the sales dataset shown on the pages.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*sales.Dataset, error)
}

// Config holds UI settings. Zero values select the defaults.
type Config struct {
	// PreviewRows is the number of dataset rows on the overview page.
	PreviewRows int

	// TopProducts is the number of products in the top products chart.
	TopProducts int

	// MaxLoginFailures and FailureWindow throttle password guessing per
	// email and client address.
	MaxLoginFailures int
	FailureWindow    time.Duration

	// Locale drives number formatting.
	Locale language.Tag
}

func (c Config) withDefaults() Config {
	if c.PreviewRows <= 0 {
		c.PreviewRows = 5
	}
	if c.TopProducts <= 0 {
		c.TopProducts = 5
	}
	if c.MaxLoginFailures <= 0 {
		c.MaxLoginFailures = 5
	}
	if c.FailureWindow <= 0 {
		c.FailureWindow = 15 * time.Minute
	}
	if c.Locale == language.Und {
		c.Locale = language.French
	}
	return c
}

// UI serves the dashboard pages.
type UI struct {
	auth     *auth.Service
	data     DatasetProvider
	config   Config
	format   *sales.Formatter
	throttle *throttle.Limiter
	pages    *pageSet
	logger   *slog.Logger
}

// New creates the UI. It fails only if the embedded templates or page copy
// cannot be parsed.
func New(svc *auth.Service, data DatasetProvider, cfg Config) (*UI, error) {
	cfg = cfg.withDefaults()
	logger := slog.Default().With("component", "webui")

	pages, err := loadPages(logger)
	if err != nil {
		return nil, err
	}

	return &UI{
		auth:     svc,
		data:     data,
		config:   cfg,
		format:   sales.NewFormatter(cfg.Locale),
		throttle: throttle.New(cfg.FailureWindow, cfg.MaxLoginFailures, maxTrackedLoginKeys),
		pages:    pages,
		logger:   logger,
	}, nil
}

// Close stops background work.
func (u *UI) Close() {
	u.throttle.Close()
}

// RegisterRoutes registers all UI routes on the given mux
func (u *UI) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", u.handleLoginPage)
	mux.HandleFunc("POST /login", u.handleLogin)
	mux.HandleFunc("POST /signup", u.handleSignup)
	mux.HandleFunc("POST /logout", u.handleLogout)

	// Protected pages
	mux.HandleFunc("GET /{$}", u.requireAuth(u.handleOverview))
	mux.HandleFunc("GET /ventes", u.requireAuth(u.handleVentes))
	mux.HandleFunc("GET /analyses", u.requireAuth(u.handleAnalyses))
	mux.HandleFunc("GET /clients", u.requireAuth(u.handleClients))

	// Chart data for the client-side charts
	mux.Handle("GET /api/charts/{name}", auth.HTTPSessionMiddleware(u.auth)(http.HandlerFunc(u.handleChart)))

	u.logger.Info("ui routes registered")
}

// requireAuth wraps a handler to require a live session. Anonymous browsers
// are redirected to the login page.
func (u *UI) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := auth.StateFromRequest(r)

		state, restored, err := u.auth.RestoreMostRecentSession(r.Context(), state)
		if err != nil {
			u.log(r).Error("session restore failed", "error", err)
		}

		session, err := u.auth.RequireActiveSession(r.Context(), state)
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			u.clearSessionCookie(w)
			redirectToLogin(w, r)
			return
		case err != nil:
			u.log(r).Error("session check failed", "path", r.URL.Path, "error", err)
			u.renderError(w, http.StatusServiceUnavailable, msgUnavailable)
			return
		}

		if restored {
			u.setSessionCookie(w, r, state)
		}

		next(w, r.WithContext(auth.WithSession(r.Context(), session)))
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeNext returns next if it is a local path, and "/" otherwise.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// setSessionCookie stores state in the browser until the session expires.
func (u *UI) setSessionCookie(w http.ResponseWriter, r *http.Request, state auth.ClientState) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    state.Token,
		Path:     "/",
		Expires:  state.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (u *UI) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// ensureCSRFToken returns the browser's CSRF token, issuing a new cookie
// when there is none.
func (u *UI) ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		u.log(r).Error("failed to generate CSRF token", "error", err)
		token = "" // fails validation
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// validateCSRF checks the CSRF token from form against cookie
func validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// loginKey identifies a login attempt source for throttling.
func loginKey(r *http.Request, email string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return auth.NormalizeEmail(email) + "|" + host
}

// handleLoginPage renders the login and sign-up forms
func (u *UI) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// Already logged in: go straight to the dashboard
	if _, err := u.auth.RequireActiveSession(r.Context(), auth.StateFromRequest(r)); err == nil {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}

	csrfToken := u.ensureCSRFToken(w, r)
	data := loginData{
		Page: Page{Title: "Connexion", CSRFToken: csrfToken},
		Tab:  "login",
		Next: r.URL.Query().Get("next"),
	}
	if data.Next != "" {
		data.Notice = msgLoginRequired
	}
	u.renderLogin(w, http.StatusOK, data)
}

// handleLogin processes login form submission
func (u *UI) handleLogin(w http.ResponseWriter, r *http.Request) {
	csrfToken := u.ensureCSRFToken(w, r)
	data := loginData{Page: Page{Title: "Connexion", CSRFToken: csrfToken}, Tab: "login"}

	if err := r.ParseForm(); err != nil || !validateCSRF(r) {
		data.Error = msgBadRequest
		u.renderLogin(w, http.StatusBadRequest, data)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	data.Email = email
	data.Next = r.FormValue("next")

	key := loginKey(r, email)
	if !u.throttle.Acquire(key) {
		u.log(r).Warn("login throttled", "remote", r.RemoteAddr)
		data.Error = msgTooManyAttempts
		u.renderLogin(w, http.StatusTooManyRequests, data)
		return
	}

	user, err := u.auth.Authenticate(r.Context(), email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		data.Error = msgBadCredentials
		u.renderLogin(w, http.StatusUnauthorized, data)
		return
	case err != nil:
		u.throttle.Release(key)
		u.log(r).Error("login failed", "error", err)
		data.Error = msgUnavailable
		u.renderLogin(w, http.StatusServiceUnavailable, data)
		return
	}
	u.throttle.Reset(key)

	state, err := u.auth.CreateSession(r.Context(), user.ID)
	if err != nil {
		u.log(r).Error("failed to create session", "user_id", user.ID, "error", err)
		data.Error = msgUnavailable
		u.renderLogin(w, http.StatusServiceUnavailable, data)
		return
	}

	u.setSessionCookie(w, r, state)
	u.log(r).Info("login successful", "user_id", user.ID)
	http.Redirect(w, r, safeNext(data.Next), http.StatusSeeOther)
}

// handleSignup processes the sign-up form. A new account must log in
// afterwards; sign-up does not open a session.
func (u *UI) handleSignup(w http.ResponseWriter, r *http.Request) {
	csrfToken := u.ensureCSRFToken(w, r)
	data := loginData{Page: Page{Title: "Créer un compte", CSRFToken: csrfToken}, Tab: "signup"}

	if err := r.ParseForm(); err != nil || !validateCSRF(r) {
		data.Error = msgBadRequest
		u.renderLogin(w, http.StatusBadRequest, data)
		return
	}

	email := r.FormValue("email")
	username := r.FormValue("username")
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")
	data.Email = email
	data.Username = username

	switch {
	case email == "" || username == "" || password == "":
		data.Error = msgMissingFields
		u.renderLogin(w, http.StatusBadRequest, data)
		return
	case password != confirm:
		data.Error = msgPasswordsDiffer
		u.renderLogin(w, http.StatusBadRequest, data)
		return
	}

	_, err := u.auth.SignUp(r.Context(), email, username, password)
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		data.Error = msgEmailTaken
		u.renderLogin(w, http.StatusConflict, data)
		return
	case errors.Is(err, auth.ErrMissingField):
		data.Error = msgMissingFields
		u.renderLogin(w, http.StatusBadRequest, data)
		return
	case err != nil:
		u.log(r).Error("sign-up failed", "error", err)
		data.Error = msgSignupFailed
		u.renderLogin(w, http.StatusServiceUnavailable, data)
		return
	}

	u.renderLogin(w, http.StatusOK, loginData{
		Page:   Page{Title: "Connexion", CSRFToken: csrfToken},
		Tab:    "login",
		Email:  email,
		Notice: msgSignupDone,
	})
}

// handleLogout ends the session and clears the cookie
func (u *UI) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil && !validateCSRF(r) {
		// A bad token does not block logout; a forged logout only ends a session.
		u.log(r).Warn("logout request with invalid CSRF token")
	}

	state := auth.StateFromRequest(r)
	if _, err := u.auth.EndSession(r.Context(), state); err != nil {
		// The session is still live server-side, so the cookie stays too.
		u.log(r).Error("failed to end session", "error", err)
		u.renderError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}

	u.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// sessionUser returns the user ID of the session on r.
func sessionUser(r *http.Request) int64 {
	if s := auth.SessionFromContext(r.Context()); s != nil {
		return s.UserID
	}
	return 0
}

// dataset loads the dataset, rendering an error page on failure.
func (u *UI) dataset(w http.ResponseWriter, r *http.Request) (*sales.Dataset, bool) {
	ds, err := u.data.Dataset(r.Context())
	if err != nil {
		u.log(r).Error("failed to load dataset", "error", err)
		u.renderError(w, http.StatusServiceUnavailable, msgNoData)
		return nil, false
	}
	if ds.Len() == 0 {
		u.renderError(w, http.StatusServiceUnavailable, msgNoData)
		return nil, false
	}
	return ds, true
}

// handleOverview renders the home page: login banner and data preview
func (u *UI) handleOverview(w http.ResponseWriter, r *http.Request) {
	ds, ok := u.dataset(w, r)
	if !ok {
		return
	}
	csrfToken := u.ensureCSRFToken(w, r)

	rows := make([]previewRow, 0, u.config.PreviewRows)
	for _, s := range ds.Head(u.config.PreviewRows) {
		rows = append(rows, previewRow{
			Date:      s.Date.Format("2006-01-02"),
			Product:   s.Product,
			Category:  s.Category,
			Region:    s.Region,
			UnitPrice: u.format.EurosCents(s.UnitPrice),
			Quantity:  u.format.Integer(s.Quantity),
			Age:       s.CustomerAge,
			Gender:    s.CustomerGender,
			Total:     u.format.EurosCents(s.TotalPrice),
		})
	}

	u.render(w, "overview", overviewData{
		Page:   u.page(r, "Dashboard E-commerce", "overview", csrfToken),
		Rows:   rows,
		Total:  u.format.Integer(ds.Len()),
		Source: ds.Source,
	})
}

// handleVentes renders the KPI page
func (u *UI) handleVentes(w http.ResponseWriter, r *http.Request) {
	ds, ok := u.dataset(w, r)
	if !ok {
		return
	}
	csrfToken := u.ensureCSRFToken(w, r)

	top := sales.TopProducts(ds.Sales, 1)
	best := ""
	if len(top) > 0 {
		best = sales.Label(top[0].Key)
	}

	u.render(w, "ventes", ventesData{
		Page:       u.page(r, "Ventes", "ventes", csrfToken),
		Revenue:    u.format.Euros(sales.TotalRevenue(ds.Sales)),
		AOV:        u.format.EurosCents(sales.AverageOrderValue(ds.Sales)),
		Orders:     u.format.Integer(ds.Len()),
		TopProduct: best,
	})
}

// handleAnalyses renders the per-region analysis page
func (u *UI) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	ds, ok := u.dataset(w, r)
	if !ok {
		return
	}
	csrfToken := u.ensureCSRFToken(w, r)

	regions := sales.Regions(ds.Sales)
	selected := r.URL.Query().Get("region")
	if !contains(regions, selected) && len(regions) > 0 {
		selected = regions[0]
	}
	subset := sales.FilterRegion(ds.Sales, selected)

	u.render(w, "analyses", analysesData{
		Page:     u.page(r, "Analyses", "analyses", csrfToken),
		Regions:  regions,
		Selected: selected,
		Revenue:  u.format.Euros(sales.TotalRevenue(subset)),
		Orders:   u.format.Integer(len(subset)),
	})
}

// handleClients renders the customer demographics page
func (u *UI) handleClients(w http.ResponseWriter, r *http.Request) {
	ds, ok := u.dataset(w, r)
	if !ok {
		return
	}
	csrfToken := u.ensureCSRFToken(w, r)

	u.render(w, "clients", clientsData{
		Page:      u.page(r, "Clients", "clients", csrfToken),
		Customers: u.format.Integer(ds.Len()),
	})
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
