package admin

import "NoticeBoard/internal/identity"

// TargetAdmin is the role value that grants the admin flag instead of
// converting the variant.
const TargetAdmin = "admin"

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student faculty admin"`
	// Branch overrides the faculty division when converting to a student.
	Branch string `json:"branch" validate:"omitempty,branch"`
}

type UserList struct {
	Students []identity.Profile `json:"students"`
	Faculty  []identity.Profile `json:"faculty"`
}

type UserDetail struct {
	User identity.Profile `json:"user"`
	Role identity.Role    `json:"role"`
}
