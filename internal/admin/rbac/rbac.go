package rbac

import "strings"

// Actor identifies the acting staff member by role and department name, as
// reported by the order backend's account profile.
type Actor struct {
	Role       string
	Department string
}

// Well-known role names used by the backend.
const (
	RoleAdministrator = "Administrator"
	RoleSales         = "Sales"
	RoleSupply        = "Supply"
	RoleLeader        = "Leader"
)

// Well-known department names used by the backend.
const (
	DeptSupply     = "Cung ứng"
	DeptAdminSouth = "Hành chính - Miền Nam"
)

// Capability represents a discrete feature toggle which can be checked in
// handlers and middleware.
type Capability string

const (
	CapOrdersView       Capability = "orders.view"
	CapOrdersEdit       Capability = "orders.edit"
	CapOrdersMerge      Capability = "orders.merge"
	CapOrdersSplit      Capability = "orders.split"
	CapOrdersImport     Capability = "orders.import"
	CapOrdersExport     Capability = "orders.export"
	CapCategoriesManage Capability = "categories.manage"
)

// grant names the roles and departments permitted to use a capability.
// Administrators implicitly hold every capability and are not listed.
type grant struct {
	roles       []string
	departments []string
}

var capabilityGrants = map[Capability]grant{
	CapOrdersView: {
		roles: []string{RoleSales, RoleSupply, RoleLeader},
	},
	CapOrdersEdit: {
		roles:       []string{RoleSales, RoleSupply, RoleLeader},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
	CapOrdersMerge: {
		roles:       []string{RoleSupply},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
	CapOrdersSplit: {
		roles:       []string{RoleSupply},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
	CapOrdersImport: {
		roles:       []string{RoleSupply},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
	CapOrdersExport: {
		roles:       []string{RoleSupply, RoleLeader},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
	CapCategoriesManage: {
		roles:       []string{RoleSupply},
		departments: []string{DeptSupply, DeptAdminSouth},
	},
}

// IsAdministrator reports whether the actor holds the Administrator role.
func IsAdministrator(actor Actor) bool {
	return strings.TrimSpace(actor.Role) == RoleAdministrator
}

// Has reports whether the actor's role or department grants the capability.
// Administrators implicitly possess every defined capability.
func Has(actor Actor, capability Capability) bool {
	if capability == "" {
		return true
	}
	g, ok := capabilityGrants[capability]
	if !ok {
		return false
	}
	if IsAdministrator(actor) {
		return true
	}
	role := strings.TrimSpace(actor.Role)
	for _, r := range g.roles {
		if r == role {
			return true
		}
	}
	dept := strings.TrimSpace(actor.Department)
	for _, d := range g.departments {
		if d == dept {
			return true
		}
	}
	return false
}

// Capabilities enumerates the capabilities available to the actor.
func Capabilities(actor Actor) map[Capability]bool {
	caps := make(map[Capability]bool, len(capabilityGrants))
	for capability := range capabilityGrants {
		if Has(actor, capability) {
			caps[capability] = true
		}
	}
	return caps
}
