package services

import (
	"context"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/repos"
)

// Gate answers "is this handle an admin" and protects the superadmin.
type Gate struct {
	Customers  *repos.CustomerRepo
	superAdmin string
	bootstrap  map[string]bool
}

func NewGate(customers *repos.CustomerRepo, superAdmin string, bootstrapHandles []string) *Gate {
	b := map[string]bool{}
	for _, h := range bootstrapHandles {
		if h = normHandle(h); h != "" {
			b[h] = true
		}
	}
	return &Gate{Customers: customers, superAdmin: normHandle(superAdmin), bootstrap: b}
}

func normHandle(h string) string { return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@")) }

// IsAdmin looks the handle up; an unknown handle is not an admin unless it
// is a configured bootstrap handle.
func (g *Gate) IsAdmin(ctx context.Context, handle string) bool {
	h := normHandle(handle)
	if h == "" {
		return false
	}
	if g.bootstrap[h] || (g.superAdmin != "" && h == g.superAdmin) {
		return true
	}
	c, err := g.Customers.ByUsername(ctx, h)
	if err != nil {
		return false
	}
	return c.IsAdmin && c.Status != domain.CustomerDeleted
}

// IsBootstrap reports whether the handle is configured as an admin.
func (g *Gate) IsBootstrap(handle string) bool {
	h := normHandle(handle)
	return g.bootstrap[h] || (g.superAdmin != "" && h == g.superAdmin)
}

func (g *Gate) Require(ctx context.Context, handle string) error {
	if !g.IsAdmin(ctx, handle) {
		return domain.Unauthorized("This action is for admins only.")
	}
	return nil
}

// Protect refuses any admin action aimed at the superadmin.
func (g *Gate) Protect(target *domain.Customer) error {
	if target != nil && g.superAdmin != "" && normHandle(target.Username) == g.superAdmin {
		return domain.Unauthorized("This account is protected and cannot be changed by other admins.")
	}
	return nil
}
