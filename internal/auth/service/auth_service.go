package service

import (
	"context"

	"github.com/deskhq/desk-backend/internal/auth/domain"
)

// UserStore is implemented by repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, uid string) (*domain.User, error)
	Upsert(ctx context.Context, req *domain.SyncRequest) (*domain.User, error)
	Update(ctx context.Context, uid string, req *domain.UpdateRequest) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, uid string) error
}

type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	return s.users.GetByID(ctx, uid)
}

// SyncUser creates or refreshes a user from identity data
func (s *AuthService) SyncUser(ctx context.Context, req *domain.SyncRequest) (*domain.User, error) {
	return s.users.Upsert(ctx, req)
}

// UpdateUser updates the profile fields present in req
func (s *AuthService) UpdateUser(ctx context.Context, uid string, req *domain.UpdateRequest) (*domain.User, error) {
	return s.users.Update(ctx, uid, req)
}

// RecordLogin updates the last login timestamp
func (s *AuthService) RecordLogin(ctx context.Context, uid string) error {
	return s.users.UpdateLastLogin(ctx, uid)
}
