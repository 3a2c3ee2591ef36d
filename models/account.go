package models

import (
	"strings"
	"time"
)

// Account is a local account linked to an identity at an OAuth provider
type Account struct {
	ID          string    `json:"id" db:"id"`
	Provider    string    `json:"provider" db:"provider"`
	Subject     string    `json:"subject" db:"subject"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Email       string    `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}

// Validate validates the account before it is stored
func (a *Account) Validate() []string {
	var errors []string

	if a.Provider == "" {
		errors = append(errors, "Provider is required")
	}

	if a.Subject == "" {
		errors = append(errors, "Subject is required")
	}

	if len(a.DisplayName) > 255 {
		errors = append(errors, "Display name must be less than 255 characters")
	}

	if a.Email != "" && len(a.Email) > 255 {
		errors = append(errors, "Email must be less than 255 characters")
	}

	if a.Email != "" && !isValidEmail(a.Email) {
		errors = append(errors, "Email format is invalid")
	}

	return errors
}

// Normalize trims whitespace and drops an email that does not look like one,
// since provider profiles are not always well formed.
func (a *Account) Normalize() {
	a.DisplayName = strings.TrimSpace(a.DisplayName)
	a.Email = strings.TrimSpace(a.Email)
	if a.Email != "" && !isValidEmail(a.Email) {
		a.Email = ""
	}
	if a.DisplayName == "" {
		a.DisplayName = a.Subject
	}
}

// isValidEmail performs basic email validation
func isValidEmail(email string) bool {
	// Simple validation: must contain @ and at least one dot after @
	atIndex := -1
	for i, char := range email {
		if char == '@' {
			if atIndex != -1 {
				return false // Multiple @ symbols
			}
			atIndex = i
		}
	}

	if atIndex == -1 || atIndex == 0 || atIndex == len(email)-1 {
		return false // No @, or @ at start/end
	}

	// Check for dot after @
	for i := atIndex + 1; i < len(email); i++ {
		if email[i] == '.' && i < len(email)-1 {
			return true
		}
	}

	return false
}
