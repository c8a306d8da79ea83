package identity

import (
	"context"
	"fmt"

	"github.com/checkmaster/backend/internal/domain/identity"
	"go.uber.org/zap"
)

type seedUser struct {
	name      string
	username  string
	role      identity.Role
	protected bool
}

var seedUsers = []seedUser{
	{name: "Admin Principal", username: "admin", role: identity.RoleAdmin, protected: true},
	{name: "João Conferente", username: "joao", role: identity.RoleConferente},
	{name: "Maria Supervisor", username: "maria", role: identity.RoleSupervisor},
	{name: "Diego Silva", username: "DIEGO.SILVA", role: identity.RoleAdmin, protected: true},
}

var seedBranches = [][2]string{
	{"09267050000104", "Filial AS"},
	{"09267050000376", "Filial BM"},
	{"09267050000708", "Filial VT"},
	{"09267050000457", "Filial CD"},
	{"09267050000880", "Filial JN"},
	{"09267050001003", "Filial SD"},
	{"09267050001186", "Filial PJ"},
	{"09267050001267", "Filial CB"},
	{"09267050001771", "Filial EB"},
	{"09267050001429", "Filial JQ"},
	{"09267050001690", "Filial MA"},
	{"09267050001348", "Filial TZ"},
	{"09267050001852", "Filial PD"},
	{"09267050001933", "Filial AV"},
}

// Seeder fills an empty database with the initial accounts and branches
type Seeder struct {
	userRepo   identity.UserRepository
	branchRepo identity.BranchRepository
	password   string
	logger     *zap.Logger
}

// NewSeeder creates a seeder; every seeded account starts with password
func NewSeeder(userRepo identity.UserRepository, branchRepo identity.BranchRepository, password string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		userRepo:   userRepo,
		branchRepo: branchRepo,
		password:   password,
		logger:     logger,
	}
}

// Seed creates the initial accounts when there are no users and the initial branches when
// there are no branches. Existing data is never touched.
func (s *Seeder) Seed(ctx context.Context) error {
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if userCount == 0 {
		for _, su := range seedUsers {
			user, err := identity.NewUser(su.name, su.username, su.role, s.password)
			if err != nil {
				return fmt.Errorf("invalid seed user %s: %w", su.username, err)
			}
			if su.protected {
				user.MarkProtected()
			}
			user.ClearDomainEvents()
			if err := s.userRepo.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", su.username, err)
			}
		}
		s.logger.Info("Seeded initial users", zap.Int("count", len(seedUsers)))
	}

	branchCount, err := s.branchRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count branches: %w", err)
	}
	if branchCount == 0 {
		for _, sb := range seedBranches {
			branch, err := identity.NewBranch(sb[0], sb[1])
			if err != nil {
				return fmt.Errorf("invalid seed branch %s: %w", sb[0], err)
			}
			if err := s.branchRepo.Create(ctx, branch); err != nil {
				return fmt.Errorf("failed to seed branch %s: %w", sb[0], err)
			}
		}
		s.logger.Info("Seeded initial branches", zap.Int("count", len(seedBranches)))
	}

	return nil
}
