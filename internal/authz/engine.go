package authz

// Engine resolves (role, module, action) triples against the role table.
// All methods are pure functions of the table and their arguments.
type Engine struct {
	table Table
}

// NewEngine constructs an Engine. A nil table falls back to the
// built-in default.
func NewEngine(table Table) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

// HasPermission reports whether the actor may perform action on module.
// Unknown modules and actions simply fail to match.
func (e *Engine) HasPermission(ctx Context, module, action string) bool {
	if ctx.Role == RoleAdmin {
		return true
	}
	grants, ok := e.table[ctx.Role]
	if !ok {
		return false
	}
	for _, g := range grants {
		if g.all {
			return true
		}
	}
	for _, g := range grants {
		if g.module != module {
			continue
		}
		if g.allActions {
			return true
		}
		_, granted := g.actions[action]
		return granted
	}
	return false
}

// RequirePermission returns a PermissionDeniedError when the actor may
// not perform action on module. An optional message overrides the
// default "{role} cannot {action} on {module}".
func (e *Engine) RequirePermission(ctx Context, module, action string, message ...string) error {
	if e.HasPermission(ctx, module, action) {
		return nil
	}
	denied := &PermissionDeniedError{Role: ctx.Role, Module: module, Action: action}
	if len(message) > 0 {
		denied.Message = message[0]
	}
	return denied
}

// RequireTenant enforces row level tenant isolation. Every data access
// touching a tenant-owned record must pass through this check (or an
// equivalent per-query tenant filter) before returning or mutating it.
func RequireTenant(userTenantID, resourceTenantID int64) error {
	if userTenantID != resourceTenantID {
		return &TenantMismatchError{UserTenantID: userTenantID, ResourceTenantID: resourceTenantID}
	}
	return nil
}
