// ABOUTME: HTTP middleware for session authentication on JSON endpoints
// ABOUTME: Reads the session token from a bearer header or the session cookie

package auth

import (
	"errors"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie that carries the session token in browsers.
const SessionCookieName = "salesboard_session"

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// StateFromRequest returns the client state presented by r. A bearer token
// takes precedence over the session cookie. The state is not validated.
func StateFromRequest(r *http.Request) ClientState {
	if token, errMsg := extractBearerToken(r.Header.Get("Authorization")); errMsg == "" {
		return ClientState{Token: token}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return ClientState{Token: cookie.Value}
	}
	return ClientState{}
}

// HTTPSessionMiddleware rejects requests without a live session with a JSON
// 401, and adds the session to the request context otherwise.
func HTTPSessionMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := svc.RequireActiveSession(r.Context(), StateFromRequest(r))
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			case err != nil:
				svc.logger.Error("session check failed", "path", r.URL.Path, "error", err)
				writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
