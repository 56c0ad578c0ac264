package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/restaurant-service/internal/domain"
	apperrors "github.com/spec-kit/restaurant-service/pkg/util"
)

// Module names a permission-gated area of the backoffice.
type Module string

const (
	ModuleAll        Module = "ALL"
	ModuleDashboard  Module = "DASHBOARD"
	ModuleCommandes  Module = "COMMANDES"
	ModuleMenu       Module = "MENU"
	ModuleClients    Module = "CLIENTS"
	ModulePersonnel  Module = "PERSONNEL"
	ModuleRevenus    Module = "REVENUS"
	ModuleParametres Module = "PARAMETRES"
)

// Action names an operation within a module.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ActionSet is a membership set of actions.
type ActionSet map[Action]struct{}

func actions(list ...Action) ActionSet {
	set := make(ActionSet, len(list))
	for _, a := range list {
		set[a] = struct{}{}
	}
	return set
}

var allActions = actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete)

// RolePermissions holds the grants and exclusions for one role. Exclusions
// beat every grant, including the ALL wildcard: they carve sensitive modules
// out of an otherwise broad grant without needing a second role.
type RolePermissions struct {
	Modules    map[Module]ActionSet
	Exclusions map[Module]struct{}
}

// rolePermissionTable is the single canonical grant table.
var rolePermissionTable = map[domain.StaffRole]RolePermissions{
	domain.StaffRoleAdmin: {
		Modules:    map[Module]ActionSet{ModuleAll: allActions},
		Exclusions: map[Module]struct{}{ModuleCommandes: {}},
	},
	domain.StaffRoleManager: {
		Modules: map[Module]ActionSet{
			ModuleDashboard: actions(ActionRead),
			ModuleMenu:      allActions,
			ModuleCommandes: actions(ActionRead, ActionUpdate),
			ModuleClients:   actions(ActionRead),
			ModulePersonnel: actions(ActionRead, ActionCreate, ActionUpdate),
			ModuleRevenus:   actions(ActionRead),
		},
		Exclusions: map[Module]struct{}{ModuleParametres: {}},
	},
	domain.StaffRoleCaissier: {
		Modules: map[Module]ActionSet{
			ModuleDashboard: actions(ActionRead),
			ModuleCommandes: actions(ActionRead, ActionUpdate),
			ModuleMenu:      actions(ActionRead),
		},
	},
	domain.StaffRoleServeur: {
		Modules: map[Module]ActionSet{
			ModuleCommandes: actions(ActionRead, ActionCreate, ActionUpdate),
			ModuleMenu:      actions(ActionRead),
		},
	},
}

// Authorize decides whether the role may perform action on module. Unknown
// roles fail closed.
func Authorize(role domain.StaffRole, module Module, action Action) bool {
	perms, ok := rolePermissionTable[role]
	if !ok {
		return false
	}
	if _, excluded := perms.Exclusions[module]; excluded {
		return false
	}
	granted, ok := perms.Modules[module]
	if !ok {
		granted, ok = perms.Modules[ModuleAll]
	}
	if !ok {
		return false
	}
	_, allowed := granted[action]
	return allowed
}

// RequirePermission gates a route on a (module, action) requirement resolved
// against the authenticated staff principal's role.
func RequirePermission(module Module, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Type != domain.PrincipalTypeStaff || principal.Staff == nil {
			return apperrors.NewForbidden("staff role required")
		}
		if !Authorize(principal.Staff.Role, module, action) {
			return apperrors.NewForbidden("permission denied")
		}
		return c.Next()
	}
}
