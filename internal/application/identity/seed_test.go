package identity

import (
	"context"
	"testing"

	"github.com/checkmaster/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("fills an empty database", func(t *testing.T) {
		users := new(MockUserRepository)
		branches := new(MockBranchRepository)
		var created []*identity.User
		users.On("Count", ctx).Return(int64(0), nil)
		users.On("Create", ctx, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { created = append(created, args.Get(1).(*identity.User)) }).
			Return(nil)
		branches.On("Count", ctx).Return(int64(0), nil)
		branches.On("Create", ctx, mock.AnythingOfType("*identity.Branch")).Return(nil)

		require.NoError(t, NewSeeder(users, branches, "123", zap.NewNop()).Seed(ctx))

		require.Len(t, created, 4)
		protected := map[string]bool{}
		for _, u := range created {
			protected[u.Username] = u.Protected
		}
		assert.Equal(t, map[string]bool{"admin": true, "joao": false, "maria": false, "DIEGO.SILVA": true}, protected)
		branches.AssertNumberOfCalls(t, "Create", 14)
	})

	t.Run("leaves existing data alone", func(t *testing.T) {
		users := new(MockUserRepository)
		branches := new(MockBranchRepository)
		users.On("Count", ctx).Return(int64(2), nil)
		branches.On("Count", ctx).Return(int64(1), nil)

		require.NoError(t, NewSeeder(users, branches, "123", zap.NewNop()).Seed(ctx))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		branches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
