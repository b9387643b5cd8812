package rbac_test

import (
	"errors"
	"testing"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/rbac"
)

func TestNewManager_SeedsBuiltIns(t *testing.T) {
	m := rbac.NewManager()
	roles := m.List()

	want := []string{enum.RoleAdmin, enum.RoleManager, enum.RoleCashier, enum.RoleChef, enum.RoleWaiter}
	if len(roles) != len(want) {
		t.Fatalf("roles: got %d, want %d", len(roles), len(want))
	}
	for i, id := range want {
		if roles[i].ID != id || !roles[i].BuiltIn {
			t.Errorf("role[%d]: got %s (built-in %v), want built-in %s", i, roles[i].ID, roles[i].BuiltIn, id)
		}
		if len(roles[i].Permissions) != len(enum.Pages) {
			t.Errorf("role %s: %d permissions, want %d", id, len(roles[i].Permissions), len(enum.Pages))
		}
	}

	if !m.Allows(enum.RoleAdmin, enum.PageRoles, enum.AccessFull) {
		t.Error("admin should have FULL on roles")
	}
	if m.Allows(enum.RoleChef, enum.PagePOS, enum.AccessReadOnly) {
		t.Error("chef should not see the POS")
	}
	if !m.Allows(enum.RoleChef, enum.PageKitchen, enum.AccessEdit) {
		t.Error("chef should edit the kitchen")
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Shift Lead":       "shift-lead",
		"  Shift   Lead  ": "shift-lead",
		"SHIFT-LEAD":       "shift-lead",
		"Bar & Grill #2":   "bar-grill-2",
		"--Night__Owl--":   "night-owl",
		"!!!":              "",
	}
	for in, want := range tests {
		if got := rbac.Slugify(in); got != want {
			t.Errorf("Slugify(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestCreate_DefaultsToHidden(t *testing.T) {
	m := rbac.NewManager()

	role, err := m.Create("Shift Lead", map[string]string{enum.PagePOS: "edit"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if role.ID != "shift-lead" || role.BuiltIn {
		t.Errorf("role: got id %q built-in %v", role.ID, role.BuiltIn)
	}
	if got := role.Access(enum.PagePOS); got != enum.AccessEdit {
		t.Errorf("pos access: got %s, want EDIT", got)
	}
	if got := role.Access(enum.PageReports); got != enum.AccessHidden {
		t.Errorf("reports access: got %s, want HIDDEN", got)
	}
}

func TestCreate_CollisionIsNormalised(t *testing.T) {
	m := rbac.NewManager()
	if _, err := m.Create("Shift Lead", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, name := range []string{"shift lead", "  SHIFT   LEAD ", "Shift-Lead", "Admin"} {
		if _, err := m.Create(name, nil); !errors.Is(err, rbac.ErrRoleExists) {
			t.Errorf("create %q: got %v, want ErrRoleExists", name, err)
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	m := rbac.NewManager()

	if _, err := m.Create("   ", nil); !errors.Is(err, rbac.ErrNameRequired) {
		t.Errorf("empty name: got %v", err)
	}
	if _, err := m.Create("Host", map[string]string{"billing": enum.AccessFull}); !errors.Is(err, rbac.ErrInvalidPage) {
		t.Errorf("unknown page: got %v", err)
	}
	if _, err := m.Create("Host", map[string]string{enum.PagePOS: "SUPER"}); !errors.Is(err, rbac.ErrInvalidAccessLevel) {
		t.Errorf("unknown level: got %v", err)
	}
	if len(m.List()) != 5 {
		t.Error("failed create must not add a role")
	}
}

func TestSetAccess(t *testing.T) {
	m := rbac.NewManager()

	role, err := m.SetAccess(enum.RoleCashier, enum.PageReports, enum.AccessHidden)
	if err != nil {
		t.Fatalf("set access: %v", err)
	}
	if role.Access(enum.PageReports) != enum.AccessHidden {
		t.Errorf("reports: got %s", role.Access(enum.PageReports))
	}
	if m.Allows(enum.RoleCashier, enum.PageReports, enum.AccessReadOnly) {
		t.Error("cashier should lose report access")
	}

	if _, err := m.SetAccess("ghost", enum.PagePOS, enum.AccessFull); !errors.Is(err, rbac.ErrRoleNotFound) {
		t.Errorf("unknown role: got %v", err)
	}
	if _, err := m.SetAccess(enum.RoleCashier, "billing", enum.AccessFull); !errors.Is(err, rbac.ErrInvalidPage) {
		t.Errorf("unknown page: got %v", err)
	}
}

func TestDelete(t *testing.T) {
	m := rbac.NewManager()

	if err := m.Delete(enum.RoleAdmin); !errors.Is(err, rbac.ErrBuiltInRole) {
		t.Errorf("delete admin: got %v, want ErrBuiltInRole", err)
	}

	m.Create("Host", nil)
	if err := m.Delete("host"); err != nil {
		t.Fatalf("delete custom: %v", err)
	}
	if _, err := m.Get("host"); !errors.Is(err, rbac.ErrRoleNotFound) {
		t.Errorf("get deleted: got %v", err)
	}
	if err := m.Delete("host"); !errors.Is(err, rbac.ErrRoleNotFound) {
		t.Errorf("delete twice: got %v", err)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	m := rbac.NewManager()
	r, _ := m.Get(enum.RoleWaiter)
	r.Permissions[0].AccessLevel = enum.AccessFull

	again, _ := m.Get(enum.RoleWaiter)
	if again.Permissions[0].AccessLevel == enum.AccessFull {
		t.Error("manager state mutated through returned role")
	}
}
