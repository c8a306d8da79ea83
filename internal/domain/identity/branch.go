package identity

import (
	"strings"
	"unicode"

	"github.com/checkmaster/backend/internal/domain/shared"
)

// MinCNPJLength is the minimum number of digits of a branch tax id
const MinCNPJLength = 14

// Branch is a company site; invoices whose vendor CNPJ matches a branch are internal transfers
type Branch struct {
	shared.BaseEntity
	CNPJ string
	Name string
}

// NewBranch creates a branch; non-digit characters of the CNPJ are dropped
func NewBranch(cnpj, name string) (*Branch, error) {
	digits := NormalizeCNPJ(cnpj)
	if len(digits) < MinCNPJLength {
		return nil, shared.NewDomainError("INVALID_CNPJ", "CNPJ must have at least 14 digits")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Branch name cannot be empty")
	}
	return &Branch{
		BaseEntity: shared.NewBaseEntity(),
		CNPJ:       digits,
		Name:       name,
	}, nil
}

// NormalizeCNPJ keeps only the digits of a tax id
func NormalizeCNPJ(cnpj string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cnpj)
}

// ResolveOriginName returns the name of the branch owning cnpj, or vendorName when
// no branch matches
func ResolveOriginName(branches []*Branch, cnpj, vendorName string) string {
	key := NormalizeCNPJ(cnpj)
	if key != "" {
		for _, b := range branches {
			if b.CNPJ == key {
				return b.Name
			}
		}
	}
	return vendorName
}
