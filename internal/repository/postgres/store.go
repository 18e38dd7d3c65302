package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"conferencecentral/internal/domain"
)

// Store implements domain.EntityStore on PostgreSQL with one table per kind. A child's parent
// identity is stored inline and indexed, so an ancestor query is a single indexed scan.
type Store struct {
	DB *sql.DB
}

// NewStore returns a store backed by db. Call Migrate once before use.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

var _ domain.EntityStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key *domain.Key) (domain.Entity, error) {
	if key == nil || key.Incomplete() {
		return nil, fmt.Errorf("%w: incomplete key", domain.ErrNotFound)
	}
	t, err := tableFor(key.Kind)
	if err != nil {
		return nil, err
	}
	where, args, err := t.keyCondition(key)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, strings.Join(t.selectColumns(), ", "), t.name, where)
	row := s.DB.QueryRowContext(ctx, query, args...)
	e, err := t.scan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return e, nil
}

func (s *Store) Put(ctx context.Context, e domain.Entity) (*domain.Key, error) {
	t, err := tableFor(e.Kind())
	if err != nil {
		return nil, err
	}
	key := e.EntityKey()
	if key == nil {
		key = domain.IncompleteKey(e.Kind(), nil)
	}
	if key.Kind != e.Kind() {
		return nil, fmt.Errorf("put %s: key kind %s", e.Kind(), key.Kind)
	}
	values, err := t.values(e)
	if err != nil {
		return nil, err
	}

	var cols []string
	var args []any
	if !key.Incomplete() {
		cols = append(cols, t.idColumn)
		if t.named {
			args = append(args, key.Name)
		} else {
			args = append(args, key.ID)
		}
	} else if t.named {
		return nil, fmt.Errorf("%w: %s keys are caller-named", domain.ErrValidation, key.Kind)
	}
	if t.parentColumn != "" {
		if key.Parent == nil || key.Parent.Kind != t.parentKind || key.Parent.ID == 0 {
			return nil, fmt.Errorf("%w: %s needs a %s parent", domain.ErrValidation, key.Kind, t.parentKind)
		}
		cols = append(cols, t.parentColumn)
		args = append(args, key.Parent.ID)
	}
	cols = append(cols, t.dataColumns...)
	args = append(args, values...)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, t.name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if !key.Incomplete() {
		updates := make([]string, 0, len(t.dataColumns))
		for _, c := range t.dataColumns {
			updates = append(updates, c+" = EXCLUDED."+c)
		}
		query += fmt.Sprintf(` ON CONFLICT (%s) DO UPDATE SET %s`, t.idColumn, strings.Join(updates, ", "))
		if t.parentColumn == "" {
			if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
				return nil, fmt.Errorf("put %s: %w", key, err)
			}
			return key, nil
		}
		// Ids are unique per table, so an existing row under another parent is left untouched.
		query += fmt.Sprintf(` WHERE %s.%s = EXCLUDED.%s`, t.name, t.parentColumn, t.parentColumn)
		res, err := s.DB.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", key, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s id %d already belongs to another %s", domain.ErrValidation, key.Kind, key.ID, t.parentKind)
		}
		return key, nil
	}

	query += ` RETURNING ` + t.idColumn
	var id int64
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert %s: %w", key.Kind, err)
	}
	key = domain.NewIDKey(key.Kind, id, key.Parent)
	e.SetEntityKey(key)
	return key, nil
}

func (s *Store) QueryChildren(ctx context.Context, parent *domain.Key, kind domain.Kind, filters []domain.Filter, order ...domain.Order) ([]domain.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: nil parent", domain.ErrValidation)
	}
	if t.parentColumn == "" || parent.Kind != t.parentKind {
		return []domain.Entity{}, nil
	}
	return s.query(ctx, t, kind, []string{t.parentColumn + " = $1"}, []any{parent.ID}, filters, order)
}

func (s *Store) QueryByAttribute(ctx context.Context, kind domain.Kind, filters []domain.Filter, order ...domain.Order) ([]domain.Entity, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, t, kind, nil, nil, filters, order)
}

func (s *Store) query(ctx context.Context, t *table, kind domain.Kind, conds []string, args []any, filters []domain.Filter, order []domain.Order) ([]domain.Entity, error) {
	if err := domain.ValidateFilters(kind, filters, order); err != nil {
		return nil, err
	}
	for _, f := range filters {
		cond, arg, err := t.filterCondition(f, len(args)+1)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		if arg != nil {
			args = append(args, arg)
		}
	}
	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(t.selectColumns(), ", "), t.name)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	orderBy := make([]string, 0, len(order)+1)
	for _, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy, t.fields[o.Field].name+" "+dir)
	}
	orderBy = append(orderBy, t.idColumn+" ASC")
	query += " ORDER BY " + strings.Join(orderBy, ", ")

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()
	out := make([]domain.Entity, 0)
	for rows.Next() {
		e, err := t.scan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *table) keyCondition(key *domain.Key) (string, []any, error) {
	if t.named {
		return t.idColumn + " = $1", []any{key.Name}, nil
	}
	if t.parentColumn == "" {
		if key.Parent != nil {
			return "", nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return t.idColumn + " = $1", []any{key.ID}, nil
	}
	if key.Parent == nil || key.Parent.Kind != t.parentKind {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return t.idColumn + " = $1 AND " + t.parentColumn + " = $2", []any{key.ID, key.Parent.ID}, nil
}

// filterCondition renders one validated filter. arg is nil when the condition has no parameter.
func (t *table) filterCondition(f domain.Filter, n int) (cond string, arg any, err error) {
	col := t.fields[f.Field]
	p := "$" + strconv.Itoa(n)
	if f.Op == domain.OpIN {
		list := f.Value.([]any)
		if len(list) == 0 {
			return "FALSE", nil, nil
		}
		arr, err := arrayParam(list)
		if err != nil {
			return "", nil, err
		}
		if col.repeated {
			return col.name + " && " + p, arr, nil
		}
		return col.name + " = ANY(" + p + ")", arr, nil
	}
	if col.repeated {
		return p + " = ANY(" + col.name + ")", f.Value, nil
	}
	var sqlOp string
	switch f.Op {
	case domain.OpEQ:
		sqlOp = "="
	case domain.OpLT:
		sqlOp = "<"
	case domain.OpLTE:
		sqlOp = "<="
	case domain.OpGT:
		sqlOp = ">"
	case domain.OpGTE:
		sqlOp = ">="
	}
	return col.name + " " + sqlOp + " " + p, f.Value, nil
}

// arrayParam converts an IN list into a typed array parameter.
func arrayParam(list []any) (any, error) {
	switch list[0].(type) {
	case string:
		out := make(pq.StringArray, 0, len(list))
		for _, v := range list {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: mixed IN list", domain.ErrUnsupportedFilterCombination)
			}
			out = append(out, s)
		}
		return out, nil
	case int, int32, int64:
		out := make(pq.Int64Array, 0, len(list))
		for _, v := range list {
			switch n := v.(type) {
			case int:
				out = append(out, int64(n))
			case int32:
				out = append(out, int64(n))
			case int64:
				out = append(out, n)
			default:
				return nil, fmt.Errorf("%w: mixed IN list", domain.ErrUnsupportedFilterCombination)
			}
		}
		return out, nil
	case time.Time:
		out := make([]time.Time, 0, len(list))
		for _, v := range list {
			tv, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%w: mixed IN list", domain.ErrUnsupportedFilterCombination)
			}
			out = append(out, tv)
		}
		return pq.Array(out), nil
	}
	return nil, fmt.Errorf("%w: unsupported IN value %T", domain.ErrUnsupportedFilterCombination, list[0])
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
