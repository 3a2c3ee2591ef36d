package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/blogem/oauth2-strategy/repositories"
	"github.com/blogem/oauth2-strategy/services"
	"github.com/blogem/oauth2-strategy/strategy"
)

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes data as the JSON response body with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}

// writeError writes a JSON error body with the given status code
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Message: message})
}

// Controllers holds all controller instances
type Controllers struct {
	Auth      *AuthController
	Dashboard *DashboardController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, repos *repositories.Repositories, auth *strategy.Strategy) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(auth, services, repos.Audit),
		Dashboard: NewDashboardController(services),
	}
}
