// Package webui serves the browser dashboard.
//
// # Routes
//
// Public:
//
//   - GET /login, POST /login: login form
//   - POST /signup: account creation (does not log in)
//   - POST /logout: ends the session and clears the cookie
//
// Behind the session gate (anonymous browsers are redirected to /login):
//
//   - GET /: logged-in banner and a preview of the dataset
//   - GET /ventes: revenue, average order value, top product, charts
//   - GET /analyses?region=: sales by category for one region
//   - GET /clients: age and gender distributions
//   - GET /api/charts/{name}: chart series as JSON (401 JSON without a session)
//
// # Sessions
//
// The session token travels in an HttpOnly, SameSite=Lax cookie that expires
// with the session. Every protected request validates it against the session
// store, so an expired or deleted session is refused immediately.
//
// # CSRF Protection
//
// Forms carry a double-submit token:
//
//	<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
//
// Login and sign-up reject a missing or mismatched token. Logout logs a
// warning but proceeds.
//
// # Templates
//
// Pages are html/template files under templates/, each defining "content"
// inside base.html. Short page intros are Markdown files under content/,
// converted with goldmark at startup.
package webui
