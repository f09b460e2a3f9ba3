package authz

import "testing"

func TestAdminBypassesTable(t *testing.T) {
	engine := NewEngine(DefaultTable())
	actor := Context{Role: RoleAdmin, TenantID: 1, UserID: 1}

	cases := [][2]string{
		{ModuleClients, ActionView},
		{ModuleFilings, ActionSubmit},
		{"no-such-module", "no-such-action"},
		{"", ""},
	}
	for _, c := range cases {
		if !engine.HasPermission(actor, c[0], c[1]) {
			t.Fatalf("admin denied %s on %s", c[1], c[0])
		}
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	engine := NewEngine(DefaultTable())
	actor := Context{Role: Role("intern"), TenantID: 1, UserID: 2}
	if engine.HasPermission(actor, ModuleClients, ActionView) {
		t.Fatal("unknown role must be denied")
	}
}

func TestUnknownModuleDeniedForNonAdmin(t *testing.T) {
	engine := NewEngine(DefaultTable())
	for _, role := range []Role{RoleComplianceOfficer, RoleAccountManager, RoleStaff, RoleViewer, RoleClientUser} {
		actor := Context{Role: role, TenantID: 1, UserID: 3}
		if engine.HasPermission(actor, "payroll", ActionView) {
			t.Fatalf("role %s granted on unknown module", role)
		}
	}
}

func TestWildcardActionsGrantEverything(t *testing.T) {
	engine := NewEngine(DefaultTable())
	officer := Context{Role: RoleComplianceOfficer, TenantID: 1, UserID: 4}

	for _, action := range []string{ActionView, ActionUpload, ActionSubmit, "purge"} {
		if !engine.HasPermission(officer, ModuleDocuments, action) {
			t.Fatalf("wildcard grant denied %s", action)
		}
	}
}

func TestLiteralActionMembership(t *testing.T) {
	engine := NewEngine(DefaultTable())
	staff := Context{Role: RoleStaff, TenantID: 1, UserID: 5}

	if !engine.HasPermission(staff, ModuleClients, ActionEdit) {
		t.Fatal("staff should edit clients")
	}
	if engine.HasPermission(staff, ModuleClients, ActionArchive) {
		t.Fatal("staff must not archive clients")
	}
}

func TestFilingsSubmitScenario(t *testing.T) {
	engine := NewEngine(DefaultTable())

	officer := Context{Role: RoleComplianceOfficer, TenantID: 1, UserID: 6}
	if !engine.HasPermission(officer, ModuleFilings, ActionSubmit) {
		t.Fatal("compliance officer must submit filings")
	}

	viewer := Context{Role: RoleViewer, TenantID: 1, UserID: 7}
	if engine.HasPermission(viewer, ModuleFilings, ActionSubmit) {
		t.Fatal("viewer must not submit filings")
	}
}

func TestGrantAllOnCustomTable(t *testing.T) {
	table := Table{
		Role("operator"): {GrantAll()},
	}
	engine := NewEngine(table)
	actor := Context{Role: Role("operator")}
	if !engine.HasPermission(actor, "anything", "whatever") {
		t.Fatal("grant-all role denied")
	}
}

func TestRequirePermissionMessages(t *testing.T) {
	engine := NewEngine(DefaultTable())
	viewer := Context{Role: RoleViewer, TenantID: 1, UserID: 8}

	err := engine.RequirePermission(viewer, ModuleFilings, ActionSubmit)
	if err == nil {
		t.Fatal("expected denial")
	}
	denied, ok := err.(*PermissionDeniedError)
	if !ok {
		t.Fatalf("expected PermissionDeniedError, got %T", err)
	}
	if got, want := denied.Error(), "viewer cannot submit on filings"; got != want {
		t.Fatalf("default message %q, want %q", got, want)
	}

	err = engine.RequirePermission(viewer, ModuleFilings, ActionSubmit, "submissions are restricted")
	if err.Error() != "submissions are restricted" {
		t.Fatalf("custom message not used: %q", err.Error())
	}

	if err := engine.RequirePermission(Context{Role: RoleAdmin}, ModuleFilings, ActionSubmit); err != nil {
		t.Fatalf("admin unexpectedly denied: %v", err)
	}
}

func TestRequireTenant(t *testing.T) {
	if err := RequireTenant(5, 5); err != nil {
		t.Fatalf("same tenant must pass: %v", err)
	}
	err := RequireTenant(5, 6)
	if err == nil {
		t.Fatal("expected tenant mismatch")
	}
	mismatch, ok := err.(*TenantMismatchError)
	if !ok {
		t.Fatalf("expected TenantMismatchError, got %T", err)
	}
	if mismatch.UserTenantID != 5 || mismatch.ResourceTenantID != 6 {
		t.Fatalf("mismatch payload wrong: %+v", mismatch)
	}
}
