package identity

import (
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeUser is the aggregate type of user accounts
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserCreated       = "UserCreated"
	EventTypeUserPasswordReset = "UserPasswordReset"
	EventTypeUserDeleted       = "UserDeleted"
)

// UserCreatedEvent is published when a user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(user *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, user.ID),
		Username:        user.Username,
		Role:            user.Role,
	}
}

// UserPasswordResetEvent is published when a password is replaced
type UserPasswordResetEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserPasswordResetEvent creates a new UserPasswordResetEvent
func NewUserPasswordResetEvent(user *User) *UserPasswordResetEvent {
	return &UserPasswordResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordReset, AggregateTypeUser, user.ID),
		Username:        user.Username,
	}
}

// UserDeletedEvent is published when an account is removed
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Username  string    `json:"username"`
	DeletedBy uuid.UUID `json:"deleted_by"`
}

// NewUserDeletedEvent creates a new UserDeletedEvent
func NewUserDeletedEvent(user *User, deletedBy uuid.UUID) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, user.ID),
		Username:        user.Username,
		DeletedBy:       deletedBy,
	}
}
