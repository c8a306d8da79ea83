package identity

import (
	"regexp"
	"strings"

	"github.com/checkmaster/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// Password cost for bcrypt
const bcryptCost = 12

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an operator account
type User struct {
	shared.BaseAggregateRoot
	Name         string
	Username     string
	Role         Role
	PasswordHash string
	// Protected accounts can never be deleted
	Protected bool
}

// NewUser creates a user with a hashed password
func NewUser(name, username string, role Role, password string) (*User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be CONFERENTE, SUPERVISOR or ADMIN")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Username:          username,
		Role:              role,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.ClearDomainEvents()
	u.AddDomainEvent(NewUserCreatedEvent(u))

	return u, nil
}

// SetPassword replaces the password hash (administrative reset, no old password check)
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.IncrementVersion()

	u.AddDomainEvent(NewUserPasswordResetEvent(u))

	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// MarkProtected flags the account as undeletable
func (u *User) MarkProtected() {
	u.Protected = true
}

// UsernameMatches compares usernames case-insensitively
func (u *User) UsernameMatches(username string) bool {
	return UsernameKey(u.Username) == UsernameKey(username)
}

// UsernameKey is the case-folded form used for lookups and uniqueness
func UsernameKey(username string) string {
	return cases.Fold().String(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 3 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 3 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
