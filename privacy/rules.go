package privacy

import (
	"context"
	"slices"
)

// Viewer is the principal a plan is compiled for. Applications attach
// their own user type to the context with WithViewer.
type Viewer interface {
	GetID() string
	GetRoles() []string
	// GetTenantID returns "" outside multi-tenant models.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a copy of ctx carrying the viewer.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext returns the viewer of ctx, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a Viewer holding fixed values, for tests and tools.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

func (v *SimpleViewer) GetID() string       { return v.UserID }
func (v *SimpleViewer) GetRoles() []string  { return v.Roles }
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer denies every attribute to anonymous callers. It usually
// opens a policy:
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.OnSensitive(privacy.HasRole("hr")),
//	    privacy.DenySensitiveRule(),
//	}
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("entitygraph/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole allows access to viewers with the role and skips otherwise.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole allows access to viewers with one of the roles and skips
// otherwise, leaving the decision to the next rule.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		if v := ViewerFromContext(ctx); v != nil && slices.ContainsFunc(roles, func(r string) bool {
			return slices.Contains(v.GetRoles(), r)
		}) {
			return Allow
		}
		return Skip
	})
}

// RequireTenant returns a rule that denies access if no viewer or tenant is
// present. Use this as a guard for plans loading tenant-scoped types.
//
// Example:
//
//	privacy.OnTypes(privacy.RequireTenant(), "Invoice")
func RequireTenant() Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Denyf("entitygraph/privacy: viewer required for tenant-scoped type")
		}
		if viewer.GetTenantID() == "" {
			return Denyf("entitygraph/privacy: tenant required")
		}
		return Skip
	})
}
