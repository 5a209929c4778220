package team

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the side a team plays in an attack/defense layout.
type Role int32

const (
	RoleNone     Role = 0 // Not declared
	RoleAttacker Role = 1
	RoleDefender Role = 2
	RoleRandom   Role = 3 // Resolved to attacker or defender at initialization
)

var (
	ErrInvalidRole  = errors.New("invalid team role")
	ErrRoleMismatch = errors.New("team roles are incompatible")
	ErrTeamCount    = errors.New("wrong number of teams")
)

var roleNames = map[Role]string{
	RoleNone:     "none",
	RoleAttacker: "attacker",
	RoleDefender: "defender",
	RoleRandom:   "random",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", int32(r))
}

// ParseRole parses a role keyword. The empty string parses as RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case "attacker", "attack", "attackers":
		return RoleAttacker, nil
	case "defender", "defend", "defenders":
		return RoleDefender, nil
	case "random":
		return RoleRandom, nil
	default:
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Opposite returns the complementary concrete role.
func (r Role) Opposite() Role {
	switch r {
	case RoleAttacker:
		return RoleDefender
	case RoleDefender:
		return RoleAttacker
	default:
		return r
	}
}

// ResolveRoles applies the two-team role rules:
//
//	none + none         -> none, none
//	none + other        -> error
//	random + random     -> coin flip
//	random + concrete   -> complementary role
//	concrete + concrete -> must differ
//
// coin is consulted only for random+random and returns true when the first
// team should attack.
func ResolveRoles(a, b Role, coin func() bool) (Role, Role, error) {
	for _, r := range [2]Role{a, b} {
		if _, ok := roleNames[r]; !ok {
			return RoleNone, RoleNone, fmt.Errorf("%w: %d", ErrInvalidRole, int32(r))
		}
	}

	switch {
	case a == RoleNone && b == RoleNone:
		return RoleNone, RoleNone, nil
	case a == RoleNone || b == RoleNone:
		return RoleNone, RoleNone, fmt.Errorf("%w: only one team declares a role (%s, %s)", ErrRoleMismatch, a, b)
	case a == RoleRandom && b == RoleRandom:
		if coin() {
			return RoleAttacker, RoleDefender, nil
		}
		return RoleDefender, RoleAttacker, nil
	case a == RoleRandom:
		return b.Opposite(), b, nil
	case b == RoleRandom:
		return a, a.Opposite(), nil
	case a == b:
		return RoleNone, RoleNone, fmt.Errorf("%w: both teams are %s", ErrRoleMismatch, a)
	default:
		return a, b, nil
	}
}
