package models

import "time"

// AuthEvent records the outcome of a single authentication attempt
type AuthEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Strategy  string    `json:"strategy"`
	Outcome   string    `json:"outcome"` // "success", "failure", "redirect", "error"
	AccountID string    `json:"account_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
}
