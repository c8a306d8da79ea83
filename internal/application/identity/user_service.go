package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles account management. Every operation is checked by identity.Evaluate.
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	// revokeTTL bounds how long a user revocation is remembered; the access token lifetime
	revokeTTL time.Duration
	eventBus  shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service. blacklist and eventBus are optional.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	revokeTTL time.Duration,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// List returns every account
func (s *UserService) List(ctx context.Context, actor *identity.User) ([]UserDTO, error) {
	if err := identity.Evaluate(actor, identity.ActionViewUsers, identity.Target{}).Err(); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ToUserDTOs(users), nil
}

// Create registers a new account
func (s *UserService) Create(ctx context.Context, actor *identity.User, req CreateUserRequest) (*UserDTO, error) {
	role := identity.Role(req.Role)
	if err := identity.Evaluate(actor, identity.ActionCreateUser, identity.Target{Role: role}).Err(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username availability: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}

	user, err := identity.NewUser(req.Name, req.Username, role, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()),
		zap.String("created_by", actor.ID.String()))
	s.publish(ctx, user)

	dto := ToUserDTO(user)
	return &dto, nil
}

// ResetPassword replaces the password of an account and revokes its issued tokens
func (s *UserService) ResetPassword(ctx context.Context, actor *identity.User, id uuid.UUID, req ResetPasswordRequest) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := identity.Evaluate(actor, identity.ActionResetPassword, identity.TargetOf(user)).Err(); err != nil {
		return err
	}

	if err := user.SetPassword(req.Password); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("User password reset",
		zap.String("user_id", user.ID.String()),
		zap.String("reset_by", actor.ID.String()))
	s.revokeSessions(ctx, user.ID)
	s.publish(ctx, user)
	return nil
}

// Delete removes an account. Protected accounts and the actor's own account are refused.
func (s *UserService) Delete(ctx context.Context, actor *identity.User, id uuid.UUID) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := identity.Evaluate(actor, identity.ActionDeleteUser, identity.TargetOf(user)).Err(); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("deleted_by", actor.ID.String()))
	s.revokeSessions(ctx, user.ID)
	user.AddDomainEvent(identity.NewUserDeletedEvent(user, actor.ID))
	s.publish(ctx, user)
	return nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// revokeSessions is best effort; the account change is already committed
func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.revokeTTL); err != nil {
		s.logger.Warn("Failed to revoke user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.PullDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
