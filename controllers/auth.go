package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gitea.com/go-chi/session"

	"github.com/blogem/oauth2-strategy/middleware"
	"github.com/blogem/oauth2-strategy/models"
	"github.com/blogem/oauth2-strategy/repositories"
	"github.com/blogem/oauth2-strategy/services"
	"github.com/blogem/oauth2-strategy/strategy"
	"github.com/blogem/oauth2-strategy/userctx"
)

// AuthController runs the OAuth 2.0 strategy for the host application
type AuthController struct {
	strategy  *strategy.Strategy
	services  *services.Services
	auditRepo repositories.AuditRepository
}

// NewAuthController creates a new auth controller
func NewAuthController(auth *strategy.Strategy, services *services.Services, auditRepo repositories.AuditRepository) *AuthController {
	return &AuthController{
		strategy:  auth,
		services:  services,
		auditRepo: auditRepo,
	}
}

// Authenticate handles GET /auth/login and GET /auth/callback
// Without a code or error parameter the browser is sent to the provider,
// otherwise the callback is completed.
func (ac *AuthController) Authenticate(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	logger := middleware.RequestLogger(r)

	var opts strategy.AuthenticateOptions
	if r.FormValue("code") == "" && r.FormValue("error") == "" {
		// Generate random state
		state, err := generateRandomState()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// Save the state in the session to validate in callback
		sess.Set(middleware.SessionState, state)
		opts.State = state
	} else {
		// Verify state
		storedState, _ := sess.Get(middleware.SessionState).(string)
		if storedState == "" {
			writeError(w, http.StatusBadRequest, "State not found in session")
			return
		}
		if r.FormValue("state") != storedState {
			writeError(w, http.StatusBadRequest, "Invalid state parameter")
			return
		}

		// Clear the state from session
		sess.Delete(middleware.SessionState)
	}

	sink := &sessionSink{w: w, r: r, sess: sess, logger: logger}
	ac.strategy.Run(r.Context(), strategy.FromHTTPRequest(r), opts,
		middleware.AuditOutcomes(ac.auditRepo, ac.strategy.Name(), r, sink))
}

// Logout handles GET /auth/logout
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	sess.Delete(middleware.SessionAccountID)
	sess.Delete(middleware.SessionDisplayName)
	sess.Delete(middleware.SessionRedirectAfterLogin)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Me handles GET /me
func (ac *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	account, err := ac.services.Accounts.GetAccount(r.Context(), userctx.GetAccountID(r.Context()))
	if errors.Is(err, repositories.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "Account not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load account: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// sessionSink turns a strategy outcome into a session write and an HTTP response
type sessionSink struct {
	w      http.ResponseWriter
	r      *http.Request
	sess   session.Store
	logger *slog.Logger
}

func (s *sessionSink) Success(identity, info any) {
	account, ok := identity.(*models.Account)
	if !ok {
		s.Error(fmt.Errorf("unexpected identity type %T", identity))
		return
	}

	// Store the account in the session
	s.sess.Set(middleware.SessionAccountID, account.ID)
	s.sess.Set(middleware.SessionDisplayName, account.DisplayName)
	s.logger.Info("account signed in", "account_id", account.ID, "provider", account.Provider)

	target := "/"
	if stored, ok := s.sess.Get(middleware.SessionRedirectAfterLogin).(string); ok && isLocalPath(stored) {
		target = stored
	}
	s.sess.Delete(middleware.SessionRedirectAfterLogin)

	http.Redirect(s.w, s.r, target, http.StatusSeeOther)
}

func (s *sessionSink) Fail(info any) {
	message := "Authentication failed"
	switch v := info.(type) {
	case strategy.Info:
		if v.Message != "" {
			message = v.Message
		}
	case string:
		if v != "" {
			message = v
		}
	}
	s.logger.Info("authentication rejected", "reason", message)
	writeError(s.w, http.StatusUnauthorized, message)
}

func (s *sessionSink) Redirect(url string) {
	http.Redirect(s.w, s.r, url, http.StatusFound)
}

func (s *sessionSink) Error(err error) {
	status := http.StatusInternalServerError
	if strategy.IsExchange(err) {
		status = http.StatusBadGateway
	}
	s.logger.Error("authentication error", "status", status, "error", err)
	writeError(s.w, status, err.Error())
}

// isLocalPath reports whether target stays on this host
func isLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
