package booking

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenda/agenda/internal/platform/db"
	"github.com/agenda/agenda/pkg/wallclock"
)

const (
	dateTimeUnique = "reservation_date_time_key"
	specialtyFK    = "reservation_specialty_id_fkey"
	insurerFK      = "reservation_insurer_id_fkey"
)

type repoPG struct {
	pool db.Querier
}

func NewRepoPG(pool db.Querier) Repository {
	return &repoPG{pool: pool}
}

const resCols = `id, patient_name, specialty_id, insurer_id, date_time, practitioner_name, created_at`

func (r *repoPG) Create(ctx context.Context, res *Reservation) error {
	res.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO reservation (id, patient_name, specialty_id, insurer_id, date_time, practitioner_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		res.ID, res.PatientName, res.SpecialtyID, res.InsurerID,
		wallclock.ToTime(res.DateTime), res.PractitionerName,
	).Scan(&res.CreatedAt)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, dateTimeUnique):
		return ErrConflict
	case db.IsForeignKeyViolation(err, specialtyFK):
		return &ValidationError{Field: "specialty_id", Message: "unknown specialty"}
	case db.IsForeignKeyViolation(err, insurerFK):
		return &ValidationError{Field: "insurer_id", Message: "unknown insurer"}
	default:
		return fmt.Errorf("insert reservation: %w", err)
	}
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return r.getOne(ctx, `SELECT `+resCols+` FROM reservation WHERE id = $1`, id)
}

func (r *repoPG) GetByDateTime(ctx context.Context, dt civil.DateTime) (*Reservation, error) {
	return r.getOne(ctx, `SELECT `+resCols+` FROM reservation WHERE date_time = $1`, wallclock.ToTime(dt))
}

func (r *repoPG) getOne(ctx context.Context, query string, arg any) (*Reservation, error) {
	res, err := scanReservation(db.Conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *repoPG) ListBetween(ctx context.Context, from, to civil.DateTime) ([]*Reservation, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+resCols+` FROM reservation WHERE date_time >= $1 AND date_time < $2 ORDER BY date_time`,
		wallclock.ToTime(from), wallclock.ToTime(to))
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return collect(rows)
}

func (r *repoPG) Search(ctx context.Context, f ReservationFilter, limit, offset int) ([]*Reservation, int, error) {
	query := `SELECT ` + resCols + ` FROM reservation WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM reservation WHERE 1=1`
	var args []any
	idx := 1

	if f.DateFrom != nil {
		query += fmt.Sprintf(` AND date_time >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND date_time >= $%d`, idx)
		args = append(args, wallclock.ToTime(*f.DateFrom))
		idx++
	}
	if f.DateTo != nil {
		query += fmt.Sprintf(` AND date_time <= $%d`, idx)
		countQuery += fmt.Sprintf(` AND date_time <= $%d`, idx)
		args = append(args, wallclock.ToTime(*f.DateTo))
		idx++
	}
	if f.PatientName != "" {
		query += fmt.Sprintf(` AND patient_name = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_name = $%d`, idx)
		args = append(args, f.PatientName)
		idx++
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY date_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search reservations: %w", err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collect(rows pgx.Rows) ([]*Reservation, error) {
	defer rows.Close()
	var items []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	return items, rows.Err()
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	var dt time.Time
	if err := row.Scan(&res.ID, &res.PatientName, &res.SpecialtyID, &res.InsurerID,
		&dt, &res.PractitionerName, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.DateTime = wallclock.FromTime(dt)
	return &res, nil
}
