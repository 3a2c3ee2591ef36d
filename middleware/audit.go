package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/blogem/oauth2-strategy/models"
	"github.com/blogem/oauth2-strategy/repositories"
	"github.com/blogem/oauth2-strategy/strategy"
)

// auditTimeout bounds a single audit write once the request is gone
const auditTimeout = 5 * time.Second

// auditSink records every outcome it forwards
type auditSink struct {
	next      strategy.Sink
	auditRepo repositories.AuditRepository
	ctx       context.Context
	logger    *slog.Logger
	event     models.AuthEvent
}

// AuditOutcomes wraps sink so the outcome of the attempt carried by r is
// written to the audit log before being forwarded.
func AuditOutcomes(auditRepo repositories.AuditRepository, strategyName string, r *http.Request, sink strategy.Sink) strategy.Sink {
	return &auditSink{
		next:      sink,
		auditRepo: auditRepo,
		ctx:       context.WithoutCancel(r.Context()),
		logger:    RequestLogger(r),
		event: models.AuthEvent{
			Strategy:  strategyName,
			UserAgent: r.UserAgent(),
			IPAddress: getIPAddress(r),
		},
	}
}

func (s *auditSink) Success(identity, info any) {
	event := s.event
	event.Outcome = strategy.OutcomeSuccess.String()
	if account, ok := identity.(*models.Account); ok {
		event.AccountID = account.ID
	}
	event.Message = infoMessage(info)
	s.record(event)
	s.next.Success(identity, info)
}

func (s *auditSink) Fail(info any) {
	event := s.event
	event.Outcome = strategy.OutcomeFailure.String()
	event.Message = infoMessage(info)
	s.record(event)
	s.next.Fail(info)
}

func (s *auditSink) Redirect(url string) {
	event := s.event
	event.Outcome = strategy.OutcomeRedirect.String()
	s.record(event)
	s.next.Redirect(url)
}

func (s *auditSink) Error(err error) {
	event := s.event
	event.Outcome = "error"
	event.Message = err.Error()
	s.record(event)
	s.next.Error(err)
}

// record writes the event asynchronously to avoid blocking the response
func (s *auditSink) record(event models.AuthEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, auditTimeout)
		defer cancel()
		if err := s.auditRepo.Create(ctx, &event); err != nil {
			s.logger.Error("failed to create auth event", "outcome", event.Outcome, "error", err)
		}
	}()
}

// infoMessage extracts a human readable message from outcome info
func infoMessage(info any) string {
	switch v := info.(type) {
	case strategy.Info:
		return v.Message
	case *strategy.Info:
		if v != nil {
			return v.Message
		}
	case string:
		return v
	case error:
		return v.Error()
	}
	return ""
}

// RequestLogger returns the default logger annotated with request attributes
func RequestLogger(r *http.Request) *slog.Logger {
	return slog.Default().With(
		"ip", getIPAddress(r),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// getIPAddress extracts IP address from request, checking X-Forwarded-For first
func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take first IP if multiple
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
