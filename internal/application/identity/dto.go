package identity

import (
	"time"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginRequest contains the credentials of a login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
	User        UserDTO   `json:"user"`
}

// LogoutInput identifies the token to revoke
type LogoutInput struct {
	UserID    uuid.UUID
	TokenJTI  string
	ExpiresAt time.Time
}

// CreateUserRequest contains input for creating an account
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=3,max=72"`
	Role     string `json:"role" binding:"required,oneof=CONFERENTE SUPERVISOR ADMIN"`
}

// ResetPasswordRequest contains the replacement password of an account
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=3,max=72"`
}

// UserDTO represents an account without its credentials
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Protected bool      `json:"protected"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Role:      u.Role.String(),
		Protected: u.Protected,
		CreatedAt: u.CreatedAt,
	}
}

// ToUserDTOs converts a list of domain users
func ToUserDTOs(users []*identity.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// CreateBranchRequest contains input for registering a branch
type CreateBranchRequest struct {
	CNPJ string `json:"cnpj" binding:"required,cnpj"`
	Name string `json:"name" binding:"required,max=200"`
}

// BranchDTO represents a company branch
type BranchDTO struct {
	ID        uuid.UUID `json:"id"`
	CNPJ      string    `json:"cnpj"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToBranchDTO converts a domain branch
func ToBranchDTO(b *identity.Branch) BranchDTO {
	return BranchDTO{
		ID:        b.ID,
		CNPJ:      b.CNPJ,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
	}
}

// ToBranchDTOs converts a list of domain branches
func ToBranchDTOs(branches []*identity.Branch) []BranchDTO {
	out := make([]BranchDTO, len(branches))
	for i, b := range branches {
		out[i] = ToBranchDTO(b)
	}
	return out
}

// OriginQuery is the vendor of an invoice whose origin is resolved
type OriginQuery struct {
	CNPJ       string `form:"cnpj" binding:"required"`
	VendorName string `form:"vendor_name"`
}

// OriginDTO is the resolved origin of an invoice
type OriginDTO struct {
	CNPJ string `json:"cnpj"`
	Name string `json:"name"`
	// Internal is true when the vendor is one of the company branches
	Internal bool `json:"internal"`
}
