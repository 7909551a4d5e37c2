package moderation

import "sort"

// Authorizer answers whether an acting identity may perform moderation
// actions. The engine re-validates every call even when the HTTP layer has
// already gated access.
type Authorizer interface {
	IsAuthorized(actor string) bool
}

// DefaultAdmins is the built-in administrator allow-list, used when the
// config file does not supply one.
var DefaultAdmins = []string{"admin@maru.app", "manager@maru.app"}

// AllowList authorizes a fixed set of administrator emails. The set is
// read-only after construction, so lookups need no locking.
type AllowList struct {
	admins map[string]struct{}
}

var _ Authorizer = (*AllowList)(nil)

// NewAllowList builds an allow-list from the given emails. With no emails it
// falls back to DefaultAdmins.
func NewAllowList(emails ...string) *AllowList {
	if len(emails) == 0 {
		emails = DefaultAdmins
	}
	admins := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AllowList{admins: admins}
}

// IsAuthorized reports whether actor is on the allow-list.
func (a *AllowList) IsAuthorized(actor string) bool {
	_, ok := a.admins[actor]
	return ok
}

// Admins returns the configured administrator emails, sorted.
func (a *AllowList) Admins() []string {
	out := make([]string, 0, len(a.admins))
	for e := range a.admins {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
