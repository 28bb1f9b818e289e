package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/careerarchitect/backend/internal/models"
	pgrepo "github.com/careerarchitect/backend/internal/repositories/postgres"
	"github.com/careerarchitect/backend/internal/utils"
)

// UserService is the user directory: identities keyed by Firebase UID plus
// their running aggregate stats.
type UserService interface {
	FindOrCreate(ctx context.Context, firebaseUID, email string) (*models.User, error)
	Lookup(ctx context.Context, firebaseUID string) (*models.User, error)
	ByID(ctx context.Context, userID string) (*models.User, error)
	RecordAnalysis(ctx context.Context, userID string, score int) error
}

type userService struct {
	users pgrepo.UserRepository
}

func NewUserService(users pgrepo.UserRepository) UserService {
	return &userService{users: users}
}

// FindOrCreate resolves a Firebase UID to a user row, creating it on first
// sight. Create races with a concurrent first submission are recovered by
// re-reading the row that won. last_login is stamped on every call.
func (s *userService) FindOrCreate(ctx context.Context, firebaseUID, email string) (*models.User, error) {
	const op = "UserService.FindOrCreate"

	if firebaseUID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "firebase_uid is required", nil)
	}

	now := time.Now().UTC()

	u, err := s.users.GetByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
		if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to update last login", err)
		}
		u.LastLogin = now
		return u, nil
	case !errors.Is(err, utils.ErrNotFound):
		return nil, utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}

	// The display name derives from the caller-supplied email; the
	// placeholder only fills the email column, never the name.
	fullName := DeriveName(email)
	if email == "" {
		email = "unknown@example.com"
	}

	u = &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: firebaseUID,
		Email:       email,
		FullName:    fullName,
		CreatedAt:   now,
		LastLogin:   now,
	}

	err = s.users.Create(ctx, u)
	if errors.Is(err, pgrepo.ErrDuplicate) {
		// Lost the create race; the row exists now.
		existing, err := s.users.GetByFirebaseUID(ctx, firebaseUID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to re-read user after conflict", err)
		}
		if err := s.users.TouchLastLogin(ctx, existing.ID, now); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to update last login", err)
		}
		existing.LastLogin = now
		return existing, nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	return u, nil
}

func (s *userService) Lookup(ctx context.Context, firebaseUID string) (*models.User, error) {
	const op = "UserService.Lookup"

	if firebaseUID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "firebase_uid is required", nil)
	}

	u, err := s.users.GetByFirebaseUID(ctx, firebaseUID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "User not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}
	return u, nil
}

func (s *userService) ByID(ctx context.Context, userID string) (*models.User, error) {
	const op = "UserService.ByID"

	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "User not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}
	return u, nil
}

// RecordAnalysis bumps total_analyses and best_score. Callers must apply it
// only after the analysis row is durably persisted.
func (s *userService) RecordAnalysis(ctx context.Context, userID string, score int) error {
	const op = "UserService.RecordAnalysis"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if err := s.users.BumpStats(ctx, userID, score); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update user stats", err)
	}
	return nil
}

// DeriveName builds a display name from the email local part: first rune
// upper-cased, rest unchanged. Falls back to "User".
func DeriveName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "User"
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}
