package domain

import (
	"fmt"
	"strings"
	"time"
)

// Operator is a comparison understood by the entity store.
type Operator string

const (
	OpEQ  Operator = "EQ"
	OpLT  Operator = "LT"
	OpLTE Operator = "LTE"
	OpGT  Operator = "GT"
	OpGTE Operator = "GTE"
	OpIN  Operator = "IN"
)

// IsRange reports whether the operator is an inequality.
func (o Operator) IsRange() bool {
	switch o {
	case OpLT, OpLTE, OpGT, OpGTE:
		return true
	}
	return false
}

func (o Operator) valid() bool {
	return o == OpEQ || o == OpIN || o.IsRange()
}

// Filter is one (field, operator, value) predicate. IN takes a []any value.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

// Order sorts query results by a field.
type Order struct {
	Field string
	Desc  bool
}

// ValidateFilters enforces the store contract: known indexed fields, known operators, no
// range operator on a repeated field, and range operators on at most one field.
func ValidateFilters(kind Kind, filters []Filter, orders []Order) error {
	rangeField := ""
	for _, f := range filters {
		field, ok := LookupField(kind, f.Field)
		if !ok {
			return fmt.Errorf("%w: %s has no indexed field %q", ErrUnsupportedFilterCombination, kind, f.Field)
		}
		if !f.Op.valid() {
			return fmt.Errorf("%w: unknown operator %q", ErrUnsupportedFilterCombination, f.Op)
		}
		if f.Op == OpIN {
			if _, ok := f.Value.([]any); !ok {
				return fmt.Errorf("%w: IN on %q needs a list value", ErrUnsupportedFilterCombination, f.Field)
			}
		}
		if !f.Op.IsRange() {
			continue
		}
		if field.Repeated {
			return fmt.Errorf("%w: range operator on repeated field %q", ErrUnsupportedFilterCombination, f.Field)
		}
		if rangeField != "" && rangeField != f.Field {
			return fmt.Errorf("%w: range filters on %q and %q", ErrUnsupportedFilterCombination, rangeField, f.Field)
		}
		rangeField = f.Field
	}
	for _, o := range orders {
		if _, ok := LookupField(kind, o.Field); !ok {
			return fmt.Errorf("%w: %s has no indexed field %q to order by", ErrUnsupportedFilterCombination, kind, o.Field)
		}
	}
	return nil
}

// RangeField returns the single field carrying range operators, or "".
func RangeField(filters []Filter) string {
	for _, f := range filters {
		if f.Op.IsRange() {
			return f.Field
		}
	}
	return ""
}

// Matches evaluates the filter against an entity the way the stores do: absent values never
// match, repeated fields match when any element matches.
func (f Filter) Matches(e Entity) bool {
	v, ok := e.Property(f.Field)
	if !ok || v == nil {
		return false
	}
	if set, ok := v.([]string); ok {
		for _, elem := range set {
			if f.matchOne(elem) {
				return true
			}
		}
		return false
	}
	return f.matchOne(v)
}

func (f Filter) matchOne(v any) bool {
	if f.Op == OpIN {
		list, _ := f.Value.([]any)
		for _, want := range list {
			if c, ok := CompareValues(v, want); ok && c == 0 {
				return true
			}
		}
		return false
	}
	c, ok := CompareValues(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEQ:
		return c == 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	}
	return false
}

// MatchesAll reports whether every filter matches.
func MatchesAll(e Entity, filters []Filter) bool {
	for _, f := range filters {
		if !f.Matches(e) {
			return false
		}
	}
	return true
}

// CompareValues orders two property values of the same type. Integers of any width compare
// as int64. ok is false when the values are not comparable.
func CompareValues(a, b any) (int, bool) {
	if ai, ok := toInt64(a); ok {
		bi, ok := toInt64(b)
		if !ok {
			return 0, false
		}
		switch {
		case ai < bi:
			return -1, true
		case ai > bi:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
