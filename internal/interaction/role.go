package interaction

import (
	"fmt"

	"xrmuseum/internal/controller"
)

// Role selects which controllers a state listens to.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
	RoleBoth      Role = "both"
	RoleLeft      Role = "left"
	RoleRight     Role = "right"
)

// ParseRole validates a selector. The empty string selects the primary hand.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case "":
		return RolePrimary, nil
	case RolePrimary, RoleSecondary, RoleBoth, RoleLeft, RoleRight:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Matches reports whether a controller held in hand h is selected when
// primary is the primary hand.
func (r Role) Matches(h, primary controller.Handedness) bool {
	switch r {
	case RoleLeft:
		return h == controller.Left
	case RoleRight:
		return h == controller.Right
	case RoleBoth:
		return h == controller.Left || h == controller.Right
	case RolePrimary, "":
		return h != controller.None && h == primary
	case RoleSecondary:
		return h != controller.None && h == primary.Opposite()
	}
	return false
}
