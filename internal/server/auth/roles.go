package auth

import (
	"slices"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   string
	Username string
	Role     models.Role
}

// Operation names a role-gated action.
type Operation string

const (
	OpListGadgets        Operation = "gadgets.list"
	OpCreateGadget       Operation = "gadgets.create"
	OpUpdateGadget       Operation = "gadgets.update"
	OpDecommissionGadget Operation = "gadgets.decommission"
	OpSelfDestructGadget Operation = "gadgets.self_destruct"
	OpMaintainGadget     Operation = "gadgets.maintain"
	OpImportGadgets      Operation = "gadgets.import"
	OpCreateAdmin        Operation = "users.create_admin"
)

var permissions = map[Operation][]models.Role{
	OpListGadgets:        {models.RoleAdmin, models.RoleTechnician, models.RoleAgent},
	OpCreateGadget:       {models.RoleAdmin, models.RoleTechnician},
	OpUpdateGadget:       {models.RoleAdmin, models.RoleTechnician},
	OpDecommissionGadget: {models.RoleAdmin},
	OpSelfDestructGadget: {models.RoleAdmin, models.RoleAgent},
	OpMaintainGadget:     {models.RoleAdmin, models.RoleTechnician},
	OpImportGadgets:      {models.RoleAdmin},
	OpCreateAdmin:        {models.RoleAdmin},
}

// AllowedRoles returns the roles permitted to perform op. Unknown operations
// allow nobody.
func AllowedRoles(op Operation) []models.Role {
	return slices.Clone(permissions[op])
}

// HasAnyRole reports whether the identity holds one of roles.
func HasAnyRole(id Identity, roles ...models.Role) bool {
	return slices.Contains(roles, id.Role)
}

// Authorize reports whether the identity may perform op.
func Authorize(id Identity, op Operation) bool {
	return HasAnyRole(id, permissions[op]...)
}

// ParseRole converts a requested role name. Empty means models.DefaultRole.
func ParseRole(s string) (models.Role, error) {
	if s == "" {
		return models.DefaultRole, nil
	}
	r := models.Role(s)
	if !r.Valid() {
		return "", common.Invalid("role", "Role must be one of admin, agent, technician")
	}
	return r, nil
}
