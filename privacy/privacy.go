// Package privacy provides access rules deciding which attributes a fetch
// plan may load, and helpers for evaluating them at runtime.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/entitygraph/metamodel"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from rules to indicate
// how the policy evaluation should proceed. Use errors.Is() to check
// for these values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("entitygraph/privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	// A denied attribute is left out of the fetch plan.
	Deny = errors.New("entitygraph/privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	Skip = errors.New("entitygraph/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
// The returned error wraps Allow and can be checked with errors.Is(err, Allow).
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
// The returned error wraps Deny and can be checked with errors.Is(err, Deny).
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
// The returned error wraps Skip and can be checked with errors.Is(err, Skip).
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Access describes the read of one attribute by a fetch plan.
type Access struct {
	// Type is the type the attribute is read from. It may be a subtype of
	// the attribute owner.
	Type *metamodel.Type
	// Attribute is the attribute being read.
	Attribute *metamodel.Attribute
	// Path locates the attribute from the plan root, e.g. "department.deptName".
	Path string
}

// Rule defines the interface deciding whether an attribute may be loaded.
type Rule interface {
	EvalAccess(context.Context, Access) error
}

// RuleFunc type is an adapter which allows the use of
// ordinary functions as access rules.
type RuleFunc func(context.Context, Access) error

// EvalAccess returns f(ctx, a).
func (f RuleFunc) EvalAccess(ctx context.Context, a Access) error {
	return f(ctx, a)
}

// Policy combines multiple rules into a single rule. Rules are evaluated in
// order until one returns a decision other than Skip.
type Policy []Rule

// EvalAccess evaluates the rules of the policy.
func (policy Policy) EvalAccess(ctx context.Context, a Access) error {
	for _, rule := range policy {
		switch decision := rule.EvalAccess(ctx, a); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

// Policies combines multiple policies. If the Allow error is returned from
// one of the policies, it stops the evaluation with a nil error. A decision
// attached to the context with DecisionContext overrides all policies.
type Policies []Rule

// EvalAccess evaluates the policies.
func (policies Policies) EvalAccess(ctx context.Context, a Access) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := policy.EvalAccess(ctx, a); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Allowed interprets a decision. Nil, Allow and Skip allow the access and
// Deny rejects it. Any other error is returned as is.
func Allowed(decision error) (bool, error) {
	switch {
	case decision == nil, errors.Is(decision, Allow), errors.Is(decision, Skip):
		return true, nil
	case errors.Is(decision, Deny):
		return false, nil
	default:
		return false, decision
	}
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
// The provided function receives the context and should return Allow, Deny, Skip, or nil.
// Returning nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(func(ctx context.Context, _ Access) error {
		return eval(ctx)
	})
}

// OnTypes evaluates the given rule only for attributes read from one of the
// given types or their subtypes.
func OnTypes(rule Rule, types ...string) Rule {
	return RuleFunc(func(ctx context.Context, a Access) error {
		for t := a.Type; t != nil; t = t.Supertype() {
			if slices.Contains(types, t.Name) {
				return rule.EvalAccess(ctx, a)
			}
		}
		return Skip
	})
}

// OnAttributes evaluates the given rule only for the given attributes,
// named as "Type.attribute" after their declaring type.
func OnAttributes(rule Rule, attrs ...string) Rule {
	return RuleFunc(func(ctx context.Context, a Access) error {
		if slices.Contains(attrs, a.Attribute.String()) {
			return rule.EvalAccess(ctx, a)
		}
		return Skip
	})
}

// OnSensitive evaluates the given rule only for attributes declared sensitive.
func OnSensitive(rule Rule) Rule {
	return RuleFunc(func(ctx context.Context, a Access) error {
		if a.Attribute.Sensitive {
			return rule.EvalAccess(ctx, a)
		}
		return Skip
	})
}

// DenySensitiveRule returns a rule denying all sensitive attributes.
func DenySensitiveRule() Rule {
	return OnSensitive(RuleFunc(func(_ context.Context, a Access) error {
		return Denyf("entitygraph/privacy: attribute %s is sensitive", a.Attribute)
	}))
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalAccess(context.Context, Access) error {
	return f.decision
}
