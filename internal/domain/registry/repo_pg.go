package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenda/agenda/internal/platform/db"
)

// namedRepoPG stores id/name records; specialty and insurer share its SQL.
type namedRepoPG struct {
	pool  db.Querier
	table string
}

func (r *namedRepoPG) create(ctx context.Context, name string) (uuid.UUID, time.Time, error) {
	id := uuid.New()
	var createdAt time.Time
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2) RETURNING created_at`, r.table), id, name).Scan(&createdAt)
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("insert %s: %w", r.table, err)
	}
	return id, createdAt, nil
}

func (r *namedRepoPG) get(ctx context.Context, id uuid.UUID, dest ...any) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		fmt.Sprintf(`SELECT id, name, created_at FROM %s WHERE id = $1`, r.table), id).Scan(dest...)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (r *namedRepoPG) list(ctx context.Context, scan func(pgx.Rows) error) error {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		fmt.Sprintf(`SELECT id, name, created_at FROM %s ORDER BY name, created_at`, r.table))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// =========== Specialty Repository ===========

type specialtyRepoPG struct{ namedRepoPG }

func NewSpecialtyRepoPG(pool db.Querier) SpecialtyRepository {
	return &specialtyRepoPG{namedRepoPG{pool: pool, table: "specialty"}}
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	id, createdAt, err := r.create(ctx, s.Name)
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt = id, createdAt
	return nil
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	var s Specialty
	if err := r.get(ctx, id, &s.ID, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *specialtyRepoPG) List(ctx context.Context) ([]*Specialty, error) {
	var items []*Specialty
	err := r.list(ctx, func(rows pgx.Rows) error {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return err
		}
		items = append(items, &s)
		return nil
	})
	return items, err
}

// =========== Insurer Repository ===========

type insurerRepoPG struct{ namedRepoPG }

func NewInsurerRepoPG(pool db.Querier) InsurerRepository {
	return &insurerRepoPG{namedRepoPG{pool: pool, table: "insurer"}}
}

func (r *insurerRepoPG) Create(ctx context.Context, i *Insurer) error {
	id, createdAt, err := r.create(ctx, i.Name)
	if err != nil {
		return err
	}
	i.ID, i.CreatedAt = id, createdAt
	return nil
}

func (r *insurerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Insurer, error) {
	var i Insurer
	if err := r.get(ctx, id, &i.ID, &i.Name, &i.CreatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *insurerRepoPG) List(ctx context.Context) ([]*Insurer, error) {
	var items []*Insurer
	err := r.list(ctx, func(rows pgx.Rows) error {
		var i Insurer
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return err
		}
		items = append(items, &i)
		return nil
	})
	return items, err
}
