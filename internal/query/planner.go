// Package query plans filter requests that the entity store cannot run directly.
//
// The store accepts range operators on at most one field. A request may carry, besides
// equality filters and that one range, a single exclusion ("field is none of S"). The planner
// satisfies it with one of two strategies:
//
//   - Rewrite turns the exclusion into an IN filter over the complement of S within a known
//     universe, so the store evaluates everything.
//   - PostFilter sends equality and range filters to the store and drops excluded entities in
//     process, keeping the store's order.
//
// A request is planned with exactly one strategy.
package query

import (
	"context"
	"fmt"

	"conferencecentral/internal/domain"
)

// Strategy selects how an exclusion is evaluated.
type Strategy int

const (
	// Auto picks Rewrite when a universe is supplied and PostFilter otherwise.
	Auto Strategy = iota
	Rewrite
	PostFilter
)

func (s Strategy) String() string {
	switch s {
	case Rewrite:
		return "rewrite"
	case PostFilter:
		return "post_filter"
	}
	return "auto"
}

// Exclusion keeps entities whose Field holds a value outside Values. Entities without a value
// for Field are dropped, matching the store's NULL semantics under the rewrite.
type Exclusion struct {
	Field  string
	Values []any
}

// Request is a logical filter request.
type Request struct {
	Kind domain.Kind
	// Ancestor scopes the request to the direct children of one key; nil queries the whole kind.
	Ancestor *domain.Key
	// Equal holds EQ and IN filters.
	Equal []domain.Filter
	// Range holds range filters, all on the same field.
	Range   []domain.Filter
	Exclude *Exclusion
	// Universe is the finite set of values Exclude.Field can take. Required by Rewrite.
	Universe []any
	Strategy Strategy
	// Order is applied after the range field.
	Order []domain.Order
}

// Plan is the store query a request resolves to.
type Plan struct {
	Strategy Strategy
	Filters  []domain.Filter
	Order    []domain.Order
	// PostExclude is applied in process after the store returns.
	PostExclude *Exclusion
	// Empty means the result is known to be empty and the store is not queried.
	Empty bool
}

// Planner runs requests against an entity store.
type Planner struct {
	store domain.EntityStore
}

// NewPlanner returns a planner over store.
func NewPlanner(store domain.EntityStore) *Planner {
	return &Planner{store: store}
}

// Plan resolves req into a single store query plus optional in-process filtering.
func (p *Planner) Plan(req Request) (Plan, error) {
	rangeField, err := checkShape(req)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Strategy: req.Strategy}
	plan.Filters = append(plan.Filters, req.Equal...)
	plan.Filters = append(plan.Filters, req.Range...)
	if rangeField != "" {
		plan.Order = append(plan.Order, domain.Order{Field: rangeField})
	}
	for _, o := range req.Order {
		if o.Field != rangeField {
			plan.Order = append(plan.Order, o)
		}
	}

	if plan.Strategy == Auto {
		if req.Universe != nil {
			plan.Strategy = Rewrite
		} else {
			plan.Strategy = PostFilter
		}
	}
	if req.Exclude == nil {
		return plan, nil
	}

	switch plan.Strategy {
	case Rewrite:
		if req.Universe == nil {
			return Plan{}, fmt.Errorf("%w: rewrite needs a universe for %q", domain.ErrUnsupportedFilterCombination, req.Exclude.Field)
		}
		complement := make([]any, 0, len(req.Universe))
		for _, v := range req.Universe {
			if !containsValue(req.Exclude.Values, v) {
				complement = append(complement, v)
			}
		}
		if len(complement) == 0 {
			plan.Empty = true
			return plan, nil
		}
		plan.Filters = append(plan.Filters, domain.Filter{Field: req.Exclude.Field, Op: domain.OpIN, Value: complement})
	case PostFilter:
		plan.PostExclude = req.Exclude
	default:
		return Plan{}, fmt.Errorf("%w: unknown strategy %d", domain.ErrUnsupportedFilterCombination, plan.Strategy)
	}
	return plan, nil
}

// Run plans and executes req.
func (p *Planner) Run(ctx context.Context, req Request) ([]domain.Entity, error) {
	plan, err := p.Plan(req)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, req.Kind, req.Ancestor, plan)
}

// Execute runs a plan produced by Plan.
func (p *Planner) Execute(ctx context.Context, kind domain.Kind, ancestor *domain.Key, plan Plan) ([]domain.Entity, error) {
	if plan.Empty {
		return []domain.Entity{}, nil
	}
	var (
		found []domain.Entity
		err   error
	)
	if ancestor != nil {
		found, err = p.store.QueryChildren(ctx, ancestor, kind, plan.Filters, plan.Order...)
	} else {
		found, err = p.store.QueryByAttribute(ctx, kind, plan.Filters, plan.Order...)
	}
	if err != nil {
		return nil, err
	}
	if plan.PostExclude == nil {
		return found, nil
	}
	out := found[:0]
	for _, e := range found {
		if plan.PostExclude.keeps(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// keeps reports whether e survives the exclusion. Repeated fields survive when any element
// lies outside Values, which is what IN over the complement selects.
func (x *Exclusion) keeps(e domain.Entity) bool {
	v, ok := e.Property(x.Field)
	if !ok || v == nil {
		return false
	}
	if set, ok := v.([]string); ok {
		for _, elem := range set {
			if !containsValue(x.Values, elem) {
				return true
			}
		}
		return false
	}
	return !containsValue(x.Values, v)
}

// checkShape rejects requests no strategy can serve and returns the range field.
func checkShape(req Request) (string, error) {
	for _, f := range req.Equal {
		if f.Op != domain.OpEQ && f.Op != domain.OpIN {
			return "", fmt.Errorf("%w: %s is not an equality filter", domain.ErrUnsupportedFilterCombination, f)
		}
	}
	rangeField := ""
	for _, f := range req.Range {
		if !f.Op.IsRange() {
			return "", fmt.Errorf("%w: %s is not a range filter", domain.ErrUnsupportedFilterCombination, f)
		}
		if rangeField != "" && f.Field != rangeField {
			return "", fmt.Errorf("%w: range filters on %q and %q", domain.ErrUnsupportedFilterCombination, rangeField, f.Field)
		}
		rangeField = f.Field
	}
	if req.Exclude != nil {
		if _, ok := domain.LookupField(req.Kind, req.Exclude.Field); !ok {
			return "", fmt.Errorf("%w: %s has no indexed field %q", domain.ErrUnsupportedFilterCombination, req.Kind, req.Exclude.Field)
		}
	}
	return rangeField, nil
}

func containsValue(values []any, v any) bool {
	for _, c := range values {
		if cmp, ok := domain.CompareValues(c, v); ok && cmp == 0 {
			return true
		}
	}
	return false
}
