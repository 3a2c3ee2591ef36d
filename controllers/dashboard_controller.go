package controllers

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/oauth2-strategy/middleware"
	"github.com/blogem/oauth2-strategy/models"
	"github.com/blogem/oauth2-strategy/services"
)

// DashboardController handles the landing page
type DashboardController struct {
	services *services.Services
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services) *DashboardController {
	return &DashboardController{
		services: services,
	}
}

// DashboardData is the landing page payload
type DashboardData struct {
	Authenticated bool               `json:"authenticated"`
	DisplayName   string             `json:"display_name,omitempty"`
	LoginURL      string             `json:"login_url,omitempty"`
	RecentEvents  []models.AuthEvent `json:"recent_events,omitempty"`
}

// Index handles GET /
// It shows the login link to anonymous visitors and the recent sign-in
// history to authenticated accounts.
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	accountID, _ := sess.Get(middleware.SessionAccountID).(string)
	if accountID == "" {
		writeJSON(w, http.StatusOK, DashboardData{LoginURL: middleware.LoginPath})
		return
	}

	events, err := c.services.Accounts.GetRecentEvents(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard data: "+err.Error())
		return
	}

	displayName, _ := sess.Get(middleware.SessionDisplayName).(string)
	writeJSON(w, http.StatusOK, DashboardData{
		Authenticated: true,
		DisplayName:   displayName,
		RecentEvents:  events,
	})
}
