package auth

import (
	"testing"

	"github.com/spec-kit/restaurant-service/internal/domain"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name   string
		role   domain.StaffRole
		module Module
		action Action
		want   bool
	}{
		{"admin exclusion beats the ALL grant", domain.StaffRoleAdmin, ModuleCommandes, ActionRead, false},
		{"admin ALL grant covers menu delete", domain.StaffRoleAdmin, ModuleMenu, ActionDelete, true},
		{"admin ALL grant covers revenue read", domain.StaffRoleAdmin, ModuleRevenus, ActionRead, true},
		{"caissier dashboard read granted", domain.StaffRoleCaissier, ModuleDashboard, ActionRead, true},
		{"caissier dashboard delete not in set", domain.StaffRoleCaissier, ModuleDashboard, ActionDelete, false},
		{"caissier has no revenue grant", domain.StaffRoleCaissier, ModuleRevenus, ActionRead, false},
		{"manager parametres excluded", domain.StaffRoleManager, ModuleParametres, ActionRead, false},
		{"manager menu full access", domain.StaffRoleManager, ModuleMenu, ActionDelete, true},
		{"serveur can take orders", domain.StaffRoleServeur, ModuleCommandes, ActionCreate, true},
		{"unknown role fails closed", domain.StaffRole("INTERN"), ModuleDashboard, ActionRead, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorize(tc.role, tc.module, tc.action); got != tc.want {
				t.Errorf("Authorize(%s, %s, %s) = %v, want %v", tc.role, tc.module, tc.action, got, tc.want)
			}
		})
	}
}
