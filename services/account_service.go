package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blogem/oauth2-strategy/models"
	"github.com/blogem/oauth2-strategy/repositories"
	"github.com/blogem/oauth2-strategy/strategy"
)

// recentEventLimit caps the login history returned with an account
const recentEventLimit = 10

// AccountService interface defines account business logic
type AccountService interface {
	// Verify is the strategy verify function: it links the provider profile to a
	// local account and settles done with that account.
	Verify(ctx context.Context, tokens *strategy.TokenResult, profile *strategy.Profile, done strategy.DoneFunc)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetRecentEvents(ctx context.Context, id string) ([]models.AuthEvent, error)
}

// accountService implements AccountService interface
type accountService struct {
	accountRepo repositories.AccountRepository
	auditRepo   repositories.AuditRepository
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo repositories.AccountRepository, auditRepo repositories.AuditRepository) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
	}
}

// Verify implements strategy.VerifyFunc
func (s *accountService) Verify(ctx context.Context, _ *strategy.TokenResult, profile *strategy.Profile, done strategy.DoneFunc) {
	if profile == nil || profile.ID == "" {
		done(nil, strategy.Info{Message: "provider did not return a user profile"}, nil)
		return
	}

	account := &models.Account{
		Provider:    profile.Provider,
		Subject:     profile.ID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
	}
	if account.Provider == "" {
		account.Provider = strategy.DefaultName
	}
	account.Normalize()

	if errs := account.Validate(); len(errs) > 0 {
		done(nil, strategy.Info{Message: strings.Join(errs, "; ")}, nil)
		return
	}

	created, err := s.accountRepo.Upsert(ctx, account)
	if err != nil {
		done(nil, nil, fmt.Errorf("failed to link account: %w", err))
		return
	}

	message := "Welcome back, " + account.DisplayName
	if created {
		message = "Welcome, " + account.DisplayName
	}
	done(account, strategy.Info{Message: message}, nil)
}

// GetAccount retrieves an account by ID
func (s *accountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("invalid account ID")
	}
	account, err := s.accountRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

// GetRecentEvents returns the latest authentication events of an account
func (s *accountService) GetRecentEvents(ctx context.Context, id string) ([]models.AuthEvent, error) {
	return s.auditRepo.ListByAccount(ctx, id, recentEventLimit)
}
