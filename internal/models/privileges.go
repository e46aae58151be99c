package models

// Permission keys enforced by route guards.
const (
	PrivilegeUserView   = "user_view"
	PrivilegeUserUpdate = "user_update"
	PrivilegeUserDelete = "user_delete"

	PrivilegeRecordCreate = "record_create"
	PrivilegeRecordView   = "record_view"
	PrivilegeRecordUpdate = "record_update"
	PrivilegeRecordDelete = "record_delete"

	PrivilegeRoleCreate = "role_create"
	PrivilegeRoleView   = "role_view"
	PrivilegeRoleUpdate = "role_update"
	PrivilegeRoleDelete = "role_delete"

	PrivilegeAuditView = "audit_view"
)

// Privilege describes one permission key for display.
type Privilege struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// PrivilegeGroup groups privileges under a display heading.
type PrivilegeGroup struct {
	Group      string      `json:"group"`
	Privileges []Privilege `json:"privileges"`
}

// Privileges is the catalog of every known permission key.
var Privileges = []PrivilegeGroup{
	{Group: "USERS", Privileges: []Privilege{
		{Key: PrivilegeUserView, Description: "View users"},
		{Key: PrivilegeUserUpdate, Description: "Update any user"},
		{Key: PrivilegeUserDelete, Description: "Delete any user"},
	}},
	{Group: "RECORDS", Privileges: []Privilege{
		{Key: PrivilegeRecordCreate, Description: "Create records"},
		{Key: PrivilegeRecordView, Description: "View records"},
		{Key: PrivilegeRecordUpdate, Description: "Update records"},
		{Key: PrivilegeRecordDelete, Description: "Delete records"},
	}},
	{Group: "ROLES", Privileges: []Privilege{
		{Key: PrivilegeRoleCreate, Description: "Create roles"},
		{Key: PrivilegeRoleView, Description: "View roles"},
		{Key: PrivilegeRoleUpdate, Description: "Update roles"},
		{Key: PrivilegeRoleDelete, Description: "Delete roles"},
	}},
	{Group: "AUDIT", Privileges: []Privilege{
		{Key: PrivilegeAuditView, Description: "View and export the audit trail"},
	}},
}

var knownPrivileges = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, g := range Privileges {
		for _, p := range g.Privileges {
			set[p.Key] = struct{}{}
		}
	}
	return set
}()

// IsKnownPrivilege reports whether key is in the catalog.
func IsKnownPrivilege(key string) bool {
	_, ok := knownPrivileges[key]
	return ok
}

// AllPrivilegeKeys returns every catalog key in display order.
func AllPrivilegeKeys() []string {
	keys := make([]string, 0, len(knownPrivileges))
	for _, g := range Privileges {
		for _, p := range g.Privileges {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// DefaultRolePrivileges are granted to the role assigned at registration.
func DefaultRolePrivileges() []string {
	return []string{PrivilegeRecordCreate, PrivilegeRecordView, PrivilegeRecordUpdate, PrivilegeRecordDelete}
}
