package models

import (
	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
)

// UserModel is the persistence model for the User domain entity
type UserModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null"`
	Username string `gorm:"type:varchar(100);not null"`
	// UsernameKey is the case-folded username; unique so "Maria" and "maria" cannot coexist
	UsernameKey  string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Role         string `gorm:"type:varchar(20);not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Protected    bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Username:          m.Username,
		Role:              identity.Role(m.Role),
		PasswordHash:      m.PasswordHash,
		Protected:         m.Protected,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Name = u.Name
	m.Username = u.Username
	m.UsernameKey = identity.UsernameKey(u.Username)
	m.Role = u.Role.String()
	m.PasswordHash = u.PasswordHash
	m.Protected = u.Protected
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// BranchModel is the persistence model for the Branch domain entity
type BranchModel struct {
	BaseModel
	CNPJ string `gorm:"column:cnpj;type:varchar(20);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch
func (m *BranchModel) ToDomain() *identity.Branch {
	return &identity.Branch{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		CNPJ:       m.CNPJ,
		Name:       m.Name,
	}
}

// BranchModelFromDomain creates a new persistence model from a domain Branch
func BranchModelFromDomain(b *identity.Branch) *BranchModel {
	m := &BranchModel{CNPJ: b.CNPJ, Name: b.Name}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}
