package middleware

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/oauth2-strategy/userctx"
)

// Session keys shared with the auth controller
const (
	SessionAccountID          = "account_id"
	SessionDisplayName        = "display_name"
	SessionState              = "state"
	SessionRedirectAfterLogin = "redirect_after_login"
)

// LoginPath is where unauthenticated requests are sent
const LoginPath = "/auth/login"

// RequireAuth ensures the account is authenticated
// If not authenticated, redirects to the login path and stores the intended destination
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		accountID, _ := sess.Get(SessionAccountID).(string)

		if accountID == "" {
			// Store the intended destination for redirect after login
			sess.Set(SessionRedirectAfterLogin, r.URL.RequestURI())
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		// Add account to request context for use in handlers
		ctx := userctx.SetAccountID(r.Context(), accountID)
		if name, ok := sess.Get(SessionDisplayName).(string); ok {
			ctx = userctx.SetDisplayName(ctx, name)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
