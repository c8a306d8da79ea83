package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBranch(t *testing.T) {
	t.Run("keeps digits only", func(t *testing.T) {
		b, err := NewBranch("09.267.050/0001-04", " Filial AS ")
		require.NoError(t, err)
		assert.Equal(t, "09267050000104", b.CNPJ)
		assert.Equal(t, "Filial AS", b.Name)
	})

	t.Run("requires fourteen digits", func(t *testing.T) {
		_, err := NewBranch("0926705000010", "Filial")
		assert.Contains(t, err.Error(), "at least 14 digits")
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := NewBranch("09267050000104", "  ")
		assert.Error(t, err)
	})
}

func TestResolveOriginName(t *testing.T) {
	as, err := NewBranch("09267050000104", "Filial AS")
	require.NoError(t, err)
	branches := []*Branch{as}

	assert.Equal(t, "Filial AS", ResolveOriginName(branches, "09267050000104", "Fornecedor"))
	assert.Equal(t, "Filial AS", ResolveOriginName(branches, "09.267.050/0001-04", "Fornecedor"))
	assert.Equal(t, "Fornecedor", ResolveOriginName(branches, "11111111000111", "Fornecedor"))
	assert.Equal(t, "Fornecedor", ResolveOriginName(nil, "", "Fornecedor"))
}
