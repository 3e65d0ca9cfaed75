package model

// Role is the resolved identity role of a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports role == admin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsTeacher reports role == teacher.
func (r Role) IsTeacher() bool { return r == RoleTeacher }

// IsAdminOrTeacher reports role ∈ {admin, teacher}.
func (r Role) IsAdminOrTeacher() bool { return r == RoleAdmin || r == RoleTeacher }

// IsApprovalTier reports whether content authored by r is trusted without review.
func (r Role) IsApprovalTier() bool { return r.IsAdminOrTeacher() }

// Capability names an operation guarded by the role gate.
type Capability string

const (
	// CapabilityApprove allows approving pending questions.
	CapabilityApprove Capability = "questions:approve"

	// CapabilityDelete allows deleting questions.
	CapabilityDelete Capability = "questions:delete"

	// CapabilityManageTeachers allows listing and approving teacher requests.
	CapabilityManageTeachers Capability = "teachers:manage"

	// CapabilityReview allows subscribing to the live review feed.
	CapabilityReview Capability = "questions:review"

	// CapabilityManageSubjects allows creating, renaming and deleting subjects.
	CapabilityManageSubjects Capability = "subjects:manage"
)

// Can reports whether r holds the capability. Unknown capabilities are denied.
func (r Role) Can(c Capability) bool {
	switch c {
	case CapabilityApprove:
		return r.CanApprove()
	case CapabilityDelete:
		return r.CanDelete()
	case CapabilityManageTeachers:
		return r.CanManageTeachers()
	case CapabilityReview, CapabilityManageSubjects:
		return r.IsAdminOrTeacher()
	}
	return false
}

func (r Role) CanApprove() bool        { return r.IsAdminOrTeacher() }
func (r Role) CanDelete() bool         { return r.IsAdminOrTeacher() }
func (r Role) CanManageTeachers() bool { return r.IsAdmin() }
