package domain

import (
	"sort"
	"strings"
)

type Role string

const (
	// Admin manages accounts (activation, role changes).
	RoleAdmin Role = "admin"
	// Teacher authors quizzes.
	RoleTeacher Role = "teacher"
	// Student takes quizzes.
	RoleStudent Role = "student"
)

func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// NormalizeRoles validates raw role names and returns them deduplicated and sorted.
// An empty input is rejected: every account holds at least one role.
func NormalizeRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return nil, ErrMissingField("roles")
	}
	seen := make(map[Role]struct{}, len(raw))
	out := make([]Role, 0, len(raw))
	for _, r := range raw {
		r = strings.ToLower(strings.TrimSpace(r))
		if !IsValidRole(r) {
			return nil, ErrInvalidRole(r)
		}
		if _, dup := seen[Role(r)]; dup {
			continue
		}
		seen[Role(r)] = struct{}{}
		out = append(out, Role(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// HasAnyRole reports whether held and allowed intersect.
func HasAnyRole(held, allowed []Role) bool {
	for _, h := range held {
		for _, a := range allowed {
			if h == a {
				return true
			}
		}
	}
	return false
}

func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func JoinRoles(roles []Role) string {
	return strings.Join(RoleStrings(roles), ",")
}

// AllRoles is every role; authorizing against it only checks active and verified.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleStudent, RoleTeacher}
}
