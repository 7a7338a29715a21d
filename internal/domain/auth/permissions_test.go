package auth

import "testing"

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestRolePermissionsAreKnown(t *testing.T) {
	known := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		known[perm] = struct{}{}
	}
	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s grants nothing", role)
		}
		for _, perm := range perms {
			if _, ok := known[perm]; !ok {
				t.Fatalf("role %s grants undeclared permission %s", role, perm)
			}
		}
	}
}

func TestAdminCoversEveryPermission(t *testing.T) {
	granted := map[string]struct{}{}
	for _, perm := range RolePermissions[RoleAdmin] {
		granted[perm] = struct{}{}
	}
	for _, perm := range DefaultPermissions {
		if _, ok := granted[perm]; !ok {
			t.Fatalf("admin is missing %s", perm)
		}
	}
}

func TestPayrollCloseIsHeldByFinanceAndAdminOnly(t *testing.T) {
	for role, perms := range RolePermissions {
		has := false
		for _, perm := range perms {
			if perm == PermPayrollClose {
				has = true
				break
			}
		}
		switch role {
		case RoleAdmin, RoleFinance:
			if !has {
				t.Fatalf("role %s should be able to close payrolls", role)
			}
		default:
			if has {
				t.Fatalf("role %s must not close payrolls", role)
			}
		}
	}
}
