// Package privacy decides which attributes a fetch plan may load.
//
// Rules are consulted by fetchplan.Build for every attribute a graph or
// fetch mode would load. Denied attributes are left out of the plan, together
// with every subgraph reached through them, and reported in Plan.Denied.
//
// # Core Concepts
//
//   - Rule: evaluates an Access and returns Allow, Deny, or Skip
//   - Policy: an ordered list of rules evaluated until one decides
//   - Viewer: the authenticated user, carried in the context
//
// # Defining Policies
//
//	policy := privacy.Policy{
//	    privacy.OnSensitive(privacy.HasRole("hr")), // HR reads sensitive data
//	    privacy.DenySensitiveRule(),                // nobody else does
//	    privacy.OnTypes(privacy.RequireTenant(), "Invoice"),
//	}
//	plan, err := fetchplan.Build(ctx, model, graph, fetchplan.WithPolicy(policy))
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: grants access and stops evaluation
//   - Deny: denies access and stops evaluation
//   - Skip: continues to the next rule
//
// If all rules return Skip, access is granted. Policies combines several
// policies; an Allow from any of them grants access. A decision attached to
// the context with DecisionContext overrides Policies, which is useful for
// trusted internal callers:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
//
// # Viewer Interface
//
// The Viewer interface represents the authenticated user:
//
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{
//	    UserID: "user-123",
//	    Roles:  []string{"hr"},
//	})
package privacy
