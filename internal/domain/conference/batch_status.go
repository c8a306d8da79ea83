package conference

// BatchStatus represents the lifecycle state of a conference batch
type BatchStatus string

const (
	BatchStatusOpen              BatchStatus = "OPEN"
	BatchStatusPendingSupervisor BatchStatus = "PENDING_SUPERVISOR"
	BatchStatusApproved          BatchStatus = "APPROVED"
	BatchStatusRejected          BatchStatus = "REJECTED"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusOpen, BatchStatusPendingSupervisor, BatchStatusApproved, BatchStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves this status
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusApproved || s == BatchStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status.
// A rejected approval goes back to OPEN; REJECTED is never persisted.
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchStatusOpen:
		return target == BatchStatusApproved || target == BatchStatusPendingSupervisor
	case BatchStatusPendingSupervisor:
		return target == BatchStatusApproved || target == BatchStatusOpen
	case BatchStatusApproved, BatchStatusRejected:
		return false
	}
	return false
}
