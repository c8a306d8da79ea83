package identity

import (
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Action is an operation guarded by the permission evaluator
type Action string

const (
	ActionViewUsers         Action = "users:view"
	ActionCreateUser        Action = "users:create"
	ActionResetPassword     Action = "users:reset_password"
	ActionDeleteUser        Action = "users:delete"
	ActionManageBranches    Action = "branches:manage"
	ActionApproveDivergence Action = "conference:approve"
)

// Target describes the account an action applies to. For account creation only Role is set.
type Target struct {
	ID        uuid.UUID
	Role      Role
	Protected bool
}

// TargetOf builds the Target of an existing account
func TargetOf(u *User) Target {
	return Target{ID: u.ID, Role: u.Role, Protected: u.Protected}
}

// Decision is the outcome of a permission evaluation
type Decision struct {
	Allowed bool
	Reason  string
}

// Err returns nil when allowed, otherwise an INSUFFICIENT_PERMISSION error carrying the reason
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return shared.NewDomainError(shared.CodeInsufficientPermission, d.Reason)
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Evaluate is the single permission rule of the system. ADMIN may manage every account.
// SUPERVISOR may manage CONFERENTE and SUPERVISOR accounts but never ADMIN ones.
// CONFERENTE manages nothing. Protected accounts and the actor's own account are never deletable.
func Evaluate(actor *User, action Action, target Target) Decision {
	if actor == nil {
		return deny("Authentication required")
	}

	switch action {
	case ActionApproveDivergence:
		if actor.Role.CanSupervise() {
			return allow()
		}
		return deny("Only supervisors and administrators can approve divergent conferences")

	case ActionViewUsers, ActionManageBranches:
		if actor.Role.CanSupervise() {
			return allow()
		}
		return deny("Only supervisors and administrators can manage accounts and branches")

	case ActionCreateUser:
		return canManageRole(actor, target.Role, "create")

	case ActionResetPassword:
		return canManageRole(actor, target.Role, "reset the password of")

	case ActionDeleteUser:
		if target.Protected {
			return deny("This account is protected and cannot be deleted")
		}
		if target.ID == actor.ID {
			return deny("You cannot delete your own account")
		}
		return canManageRole(actor, target.Role, "delete")
	}

	return deny("Unknown action")
}

func canManageRole(actor *User, role Role, verb string) Decision {
	switch actor.Role {
	case RoleAdmin:
		return allow()
	case RoleSupervisor:
		if role == RoleAdmin {
			return deny("Supervisors cannot " + verb + " administrator accounts")
		}
		return allow()
	}
	return deny("Only supervisors and administrators can manage accounts")
}
