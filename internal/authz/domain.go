// Package authz implements role based authorization over a static,
// immutable role table loaded at process start.
package authz

// Role names a fixed permission bundle. Roles are not user editable.
type Role string

// Known roles.
const (
	RoleAdmin             Role = "admin"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleAccountManager    Role = "account_manager"
	RoleStaff             Role = "staff"
	RoleViewer            Role = "viewer"
	RoleClientUser        Role = "client_user"
)

// Modules used as units of permission granting.
const (
	ModuleClients   = "clients"
	ModuleDocuments = "documents"
	ModuleFilings   = "filings"
	ModuleRequests  = "requests"
	ModuleMessages  = "messages"
	ModuleDashboard = "dashboard"
	ModuleScores    = "scores"
	ModuleUsers     = "users"
)

// Common actions.
const (
	ActionView      = "view"
	ActionCreate    = "create"
	ActionEdit      = "edit"
	ActionArchive   = "archive"
	ActionUpload    = "upload"
	ActionSubmit    = "submit"
	ActionAssign    = "assign"
	ActionSend      = "send"
	ActionRecompute = "recompute"
	ActionManage    = "manage"
)

// Context carries the acting user's identity for a single request.
// It is built fresh from session state and never persisted.
type Context struct {
	Role     Role
	TenantID int64
	UserID   int64
}

// Grant is a tagged variant: it either confers unconditional access or
// a set of actions on a single module. The action set may itself be
// the wildcard.
type Grant struct {
	all        bool
	module     string
	allActions bool
	actions    map[string]struct{}
}

// GrantAll returns the unconditional grant (module *, actions *).
func GrantAll() Grant {
	return Grant{all: true}
}

// GrantActions returns a grant for the given actions on one module.
// The wildcard "*" anywhere in actions grants every action on the module.
func GrantActions(module string, actions ...string) Grant {
	g := Grant{module: module, actions: make(map[string]struct{}, len(actions))}
	for _, a := range actions {
		if a == Wildcard {
			g.allActions = true
			continue
		}
		g.actions[a] = struct{}{}
	}
	return g
}

// Wildcard matches any module or action in a grant definition.
const Wildcard = "*"

// Table maps each role to its ordered grant list. Built once at
// startup; never written afterwards, so no synchronization is needed.
type Table map[Role][]Grant

// DefaultTable returns the built-in role table.
func DefaultTable() Table {
	return Table{
		RoleAdmin: {GrantAll()},
		RoleComplianceOfficer: {
			GrantActions(ModuleClients, ActionView, ActionCreate, ActionEdit),
			GrantActions(ModuleDocuments, Wildcard),
			GrantActions(ModuleFilings, Wildcard),
			GrantActions(ModuleScores, Wildcard),
			GrantActions(ModuleRequests, ActionView, ActionEdit, ActionAssign),
			GrantActions(ModuleMessages, ActionView, ActionSend),
			GrantActions(ModuleDashboard, ActionView),
			GrantActions(ModuleUsers, ActionView),
		},
		RoleAccountManager: {
			GrantActions(ModuleClients, Wildcard),
			GrantActions(ModuleDocuments, ActionView, ActionUpload),
			GrantActions(ModuleFilings, ActionView, ActionCreate),
			GrantActions(ModuleScores, ActionView, ActionRecompute),
			GrantActions(ModuleRequests, Wildcard),
			GrantActions(ModuleMessages, Wildcard),
			GrantActions(ModuleDashboard, ActionView),
		},
		RoleStaff: {
			GrantActions(ModuleClients, ActionView, ActionEdit),
			GrantActions(ModuleDocuments, ActionView, ActionUpload),
			GrantActions(ModuleFilings, ActionView, ActionEdit),
			GrantActions(ModuleScores, ActionView),
			GrantActions(ModuleRequests, ActionView, ActionEdit),
			GrantActions(ModuleMessages, ActionView, ActionSend),
			GrantActions(ModuleDashboard, ActionView),
		},
		RoleViewer: {
			GrantActions(ModuleClients, ActionView),
			GrantActions(ModuleDocuments, ActionView),
			GrantActions(ModuleFilings, ActionView),
			GrantActions(ModuleScores, ActionView),
			GrantActions(ModuleRequests, ActionView),
			GrantActions(ModuleMessages, ActionView),
			GrantActions(ModuleDashboard, ActionView),
		},
		RoleClientUser: {
			GrantActions(ModuleDocuments, ActionView, ActionUpload),
			GrantActions(ModuleFilings, ActionView),
			GrantActions(ModuleScores, ActionView),
			GrantActions(ModuleRequests, ActionView, ActionCreate),
			GrantActions(ModuleMessages, ActionView, ActionSend),
		},
	}
}

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleComplianceOfficer, RoleAccountManager, RoleStaff, RoleViewer, RoleClientUser:
		return true
	}
	return false
}
