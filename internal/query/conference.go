package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"conferencecentral/internal/domain"
)

// OpNE is the user-facing "not equal" operator. The store has no such operator; the planner
// serves it as an Exclusion.
const OpNE domain.Operator = "NE"

// conferenceFields maps user-facing filter fields to indexed conference fields.
var conferenceFields = map[string]string{
	"CITY":            "city",
	"TOPIC":           "topics",
	"MONTH":           "month",
	"MAX_ATTENDEES":   "maxAttendees",
	"SEATS_AVAILABLE": "seatsAvailable",
}

var numericFields = map[string]bool{
	"month":          true,
	"maxAttendees":   true,
	"seatsAvailable": true,
}

// userOperators maps user-facing operators to store operators.
var userOperators = map[string]domain.Operator{
	"EQ":   domain.OpEQ,
	"GT":   domain.OpGT,
	"GTEQ": domain.OpGTE,
	"LT":   domain.OpLT,
	"LTEQ": domain.OpLTE,
	"NE":   OpNE,
}

// ParseOperator maps a user-facing operator name (EQ, GT, GTEQ, LT, LTEQ, NE).
func ParseOperator(s string) (domain.Operator, error) {
	op, ok := userOperators[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: invalid operator %q", domain.ErrValidation, s)
	}
	return op, nil
}

// ParseConferenceFilters turns user filters into a conference request ordered by name.
// Range operators are allowed on one field only. NE filters become the request's exclusion
// and must all name the same field.
func ParseConferenceFilters(filters []domain.ConferenceQueryFilter) (Request, error) {
	req := Request{Kind: domain.KindConference, Order: []domain.Order{{Field: "name"}}}
	rangeField := ""
	for _, f := range filters {
		field, op, value, err := parseConferenceFilter(f)
		if err != nil {
			return Request{}, err
		}
		switch {
		case op == OpNE:
			if req.Exclude == nil {
				req.Exclude = &Exclusion{Field: field}
			} else if req.Exclude.Field != field {
				return Request{}, fmt.Errorf("%w: not-equal filter is allowed on only one field", domain.ErrValidation)
			}
			req.Exclude.Values = append(req.Exclude.Values, value)
		case op.IsRange():
			if field == "topics" {
				return Request{}, fmt.Errorf("%w: TOPIC supports EQ and NE only", domain.ErrValidation)
			}
			if rangeField != "" && rangeField != field {
				return Request{}, fmt.Errorf("%w: inequality filter is allowed on only one field", domain.ErrValidation)
			}
			rangeField = field
			req.Range = append(req.Range, domain.Filter{Field: field, Op: op, Value: value})
		default:
			req.Equal = append(req.Equal, domain.Filter{Field: field, Op: op, Value: value})
		}
	}
	return req, nil
}

func parseConferenceFilter(f domain.ConferenceQueryFilter) (string, domain.Operator, any, error) {
	field, ok := conferenceFields[strings.ToUpper(strings.TrimSpace(f.Field))]
	if !ok {
		return "", "", nil, fmt.Errorf("%w: invalid filter field %q", domain.ErrValidation, f.Field)
	}
	op, err := ParseOperator(f.Operator)
	if err != nil {
		return "", "", nil, err
	}
	if !numericFields[field] {
		return field, op, f.Value, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %s needs an integer value", domain.ErrValidation, f.Field)
	}
	return field, op, n, nil
}

// SimilarTo returns conferences organized by the owner of reference, other than reference
// itself, that satisfy one optional predicate. filter with all fields empty means no predicate.
func (p *Planner) SimilarTo(ctx context.Context, reference *domain.Conference, filter domain.ConferenceQueryFilter) ([]*domain.Conference, error) {
	req := Request{
		Kind:  domain.KindConference,
		Equal: []domain.Filter{{Field: "organizerUserId", Op: domain.OpEQ, Value: reference.OrganizerUserID}},
	}
	switch {
	case filter.Field != "" && filter.Operator != "" && filter.Value != "":
		field, op, value, err := parseConferenceFilter(filter)
		if err != nil {
			return nil, err
		}
		switch {
		case op == OpNE:
			req.Exclude = &Exclusion{Field: field, Values: []any{value}}
		case op.IsRange():
			if field == "topics" {
				return nil, fmt.Errorf("%w: TOPIC supports EQ and NE only", domain.ErrValidation)
			}
			req.Range = []domain.Filter{{Field: field, Op: op, Value: value}}
		default:
			req.Equal = append(req.Equal, domain.Filter{Field: field, Op: op, Value: value})
		}
	case filter.Field != "" || filter.Operator != "" || filter.Value != "":
		return nil, fmt.Errorf("%w: field, operator and value are required together", domain.ErrValidation)
	}

	found, err := p.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Conference, 0, len(found))
	for _, e := range found {
		c := e.(*domain.Conference)
		if !c.Key.Equal(reference.Key) {
			out = append(out, c)
		}
	}
	return out, nil
}
