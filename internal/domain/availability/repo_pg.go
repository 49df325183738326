package availability

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenda/agenda/internal/platform/db"
	"github.com/agenda/agenda/pkg/wallclock"
)

const specialtyFK = "availability_block_specialty_id_fkey"

type repoPG struct {
	pool db.Querier
}

func NewRepoPG(pool db.Querier) Repository {
	return &repoPG{pool: pool}
}

const blockCols = `id, practitioner_name, specialty_id, weekday, start_time, end_time, slot_duration_minutes, created_at`

func (r *repoPG) Create(ctx context.Context, b *Block) error {
	b.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO availability_block (id, practitioner_name, specialty_id, weekday, start_time, end_time, slot_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		b.ID, b.PractitionerName, b.SpecialtyID, b.Weekday,
		b.StartTime.String(), b.EndTime.String(), b.SlotDurationMinutes,
	).Scan(&b.CreatedAt)
	if db.IsForeignKeyViolation(err, specialtyFK) {
		return &ValidationError{Field: "specialty_id", Message: "unknown specialty"}
	}
	if err != nil {
		return fmt.Errorf("insert availability block: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Block, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+blockCols+` FROM availability_block WHERE id = $1`, id)
	b, err := scanBlock(row)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *repoPG) Find(ctx context.Context, f Filter) ([]*Block, error) {
	query := `SELECT ` + blockCols + ` FROM availability_block WHERE 1=1`
	var args []any
	idx := 1

	if f.SpecialtyID != uuid.Nil {
		query += fmt.Sprintf(" AND specialty_id = $%d", idx)
		args = append(args, f.SpecialtyID)
		idx++
	}
	if f.Weekday != "" {
		query += fmt.Sprintf(" AND lower(weekday) = lower($%d)", idx)
		args = append(args, strings.TrimSpace(f.Weekday))
		idx++
	}
	if f.PractitionerName != "" {
		query += fmt.Sprintf(" AND practitioner_name = $%d", idx)
		args = append(args, f.PractitionerName)
	}
	query += " ORDER BY seq"

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query availability blocks: %w", err)
	}
	defer rows.Close()

	var items []*Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func scanBlock(row pgx.Row) (*Block, error) {
	var b Block
	var start, end string
	if err := row.Scan(&b.ID, &b.PractitionerName, &b.SpecialtyID, &b.Weekday,
		&start, &end, &b.SlotDurationMinutes, &b.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.StartTime, err = wallclock.ParseClock(start); err != nil {
		return nil, fmt.Errorf("block %s: %w", b.ID, err)
	}
	if b.EndTime, err = wallclock.ParseClock(end); err != nil {
		return nil, fmt.Errorf("block %s: %w", b.ID, err)
	}
	return &b, nil
}
