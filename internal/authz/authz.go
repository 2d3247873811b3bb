// Package authz holds the role gate and the tenant ownership rules applied
// at the start of every handler.
package authz

import (
	"slices"

	"officecrm/internal/apperr"
	"officecrm/models"
)

// Principal is the authenticated caller as decoded from the access token.
type Principal struct {
	ID       int
	Role     models.Role
	TenantID *int
}

func (p *Principal) IsTenant() bool { return p != nil && p.Role == models.RoleTenant }

// Authorize returns p when its role is one of roles and Forbidden otherwise.
// A nil principal never passes.
func Authorize(p *Principal, roles ...models.Role) (*Principal, error) {
	if p == nil {
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}
	if !slices.Contains(roles, p.Role) {
		return nil, apperr.New(apperr.Forbidden, "role %q may not perform this operation", p.Role)
	}
	return p, nil
}

// CheckOwner enforces that a tenant principal only acts on rows of its own
// tenant. Non-tenant roles are not restricted here.
func CheckOwner(p *Principal, tenantID int) error {
	if !p.IsTenant() {
		return nil
	}
	if p.TenantID == nil || *p.TenantID != tenantID {
		return apperr.New(apperr.Forbidden, "record belongs to another tenant")
	}
	return nil
}

// OwnerScope returns the tenant id a list query must be narrowed to, or nil
// when the principal may see every row.
func OwnerScope(p *Principal) (*int, error) {
	if !p.IsTenant() {
		return nil, nil
	}
	if p.TenantID == nil {
		return nil, apperr.New(apperr.Forbidden, "account is not linked to a tenant")
	}
	id := *p.TenantID
	return &id, nil
}

// OwnTenant is OwnerScope for operations that need a concrete tenant id,
// such as a tenant booking for itself.
func OwnTenant(p *Principal) (int, error) {
	scope, err := OwnerScope(p)
	if err != nil {
		return 0, err
	}
	if scope == nil {
		return 0, apperr.New(apperr.Forbidden, "only tenant accounts act for themselves")
	}
	return *scope, nil
}
