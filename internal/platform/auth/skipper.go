package auth

import "strings"

// Tier is the access level a path requires.
type Tier int

const (
	TierPublic Tier = iota
	TierUser
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierUser:
		return "user"
	case TierAdmin:
		return "admin"
	default:
		return "public"
	}
}

// RoutePolicy assigns tiers by plain path prefix. Admin prefixes win over
// user prefixes; anything unmatched is public.
type RoutePolicy struct {
	AdminPrefixes []string
	UserPrefixes  []string
}

// DefaultPolicy protects patient data for admins and conversations for any
// authenticated user. Health, the OpenAPI document and /docs stay public.
func DefaultPolicy() RoutePolicy {
	return RoutePolicy{
		AdminPrefixes: []string{"/api/patients"},
		UserPrefixes:  []string{"/api/conversations"},
	}
}

func (p RoutePolicy) TierFor(path string) Tier {
	for _, prefix := range p.AdminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return TierAdmin
		}
	}
	for _, prefix := range p.UserPrefixes {
		if strings.HasPrefix(path, prefix) {
			return TierUser
		}
	}
	return TierPublic
}

// IsPublicPath reports whether path needs no token under the default policy.
func IsPublicPath(path string) bool {
	return DefaultPolicy().TierFor(path) == TierPublic
}
