package models

import "sort"

// PermissionSet is an unordered set of permission keys.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from keys.
func NewPermissionSet(keys ...string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports literal membership of key.
func (s PermissionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the keys sorted.
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Principal is the resolved acting identity attached to a request.
type Principal struct {
	UserID         string
	Email          string
	RoleID         string
	RoleName       string
	Administrative bool
	Permissions    PermissionSet
	TokenID        string
}

// Can reports whether the principal holds key.
func (p *Principal) Can(key string) bool {
	return p != nil && p.Permissions.Has(key)
}

// Owned is implemented by resources subject to the ownership guard.
type Owned interface {
	OwnerID() string
}

// PermissionSnapshot is the role data pinned to one access token.
type PermissionSnapshot struct {
	RoleID         string   `json:"role_id"`
	RoleName       string   `json:"role_name"`
	Administrative bool     `json:"administrative"`
	Permissions    []string `json:"permissions"`
}
