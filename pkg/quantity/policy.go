// Package quantity holds the pure decision function shared by cart mutation
// and checkout. It has no side effects and no storage dependencies; callers
// supply fresh inputs and the checkout engine's second evaluation is the
// authoritative one.
package quantity

// Outcome classifies the policy decision.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeClamped  Outcome = "clamped"
	OutcomeRejected Outcome = "rejected"
)

// Constraint names the limit that bound a clamped or rejected request.
type Constraint string

const (
	ConstraintNone  Constraint = ""
	ConstraintStock Constraint = "stock"
	ConstraintCap   Constraint = "cap"
)

// Decision is the result of evaluating a requested quantity.
type Decision struct {
	Outcome  Outcome
	Quantity int
	Limited  Constraint
}

// Decide evaluates a request for `requested` additional units against current
// stock, the optional per-customer cap, and the quantity the customer already
// holds (their current cart quantity for the item, excluding the line being
// replaced). Stock and cap allowances are computed independently; the final
// allowance is the minimum of the two.
//
//   - Accepted: the full request fits.
//   - Clamped:  only part fits; Quantity carries the largest satisfiable value.
//   - Rejected: nothing fits (Quantity is 0).
func Decide(requested, stock int, cap *int, alreadyHeld int) Decision {
	if requested < 1 {
		return Decision{Outcome: OutcomeRejected, Quantity: 0}
	}

	allowed := Allowance(stock, cap, alreadyHeld)
	limited := bindingConstraint(stock, cap, alreadyHeld)

	switch {
	case allowed <= 0:
		return Decision{Outcome: OutcomeRejected, Quantity: 0, Limited: limited}
	case requested <= allowed:
		return Decision{Outcome: OutcomeAccepted, Quantity: requested}
	default:
		return Decision{Outcome: OutcomeClamped, Quantity: allowed, Limited: limited}
	}
}

// Allowance returns the largest additional quantity that satisfies both the
// stock and cap constraints, never below zero.
func Allowance(stock int, cap *int, alreadyHeld int) int {
	allowed := stock - alreadyHeld
	if cap != nil {
		if byCap := *cap - alreadyHeld; byCap < allowed {
			allowed = byCap
		}
	}
	if allowed < 0 {
		allowed = 0
	}
	return allowed
}

// bindingConstraint names the tighter limit. The cap wins ties so callers
// report the per-customer ceiling rather than transient stock.
func bindingConstraint(stock int, cap *int, alreadyHeld int) Constraint {
	byStock := stock - alreadyHeld
	if cap == nil {
		return ConstraintStock
	}
	if byCap := *cap - alreadyHeld; byCap <= byStock {
		return ConstraintCap
	}
	return ConstraintStock
}
