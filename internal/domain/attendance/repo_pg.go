package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenda/agenda/internal/platform/db"
	"github.com/agenda/agenda/pkg/wallclock"
)

const (
	reservationUnique = "visit_record_reservation_id_key"
	reservationFK     = "visit_record_reservation_id_fkey"
)

type repoPG struct {
	pool db.Querier
}

func NewRepoPG(pool db.Querier) Repository {
	return &repoPG{pool: pool}
}

const visitSelect = `SELECT v.id, v.reservation_id, v.visit_timestamp, v.notes, r.patient_name, v.created_at
	FROM visit_record v JOIN reservation r ON r.id = v.reservation_id`

func (r *repoPG) Create(ctx context.Context, v *VisitRecord) error {
	v.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO visit_record (id, reservation_id, visit_timestamp, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		v.ID, v.ReservationID, wallclock.ToTime(v.VisitTimestamp), v.Notes,
	).Scan(&v.CreatedAt)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, reservationUnique):
		return ErrAlreadyRecorded
	case db.IsForeignKeyViolation(err, reservationFK):
		return ErrUnknownReservation
	default:
		return fmt.Errorf("insert visit record: %w", err)
	}
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*VisitRecord, error) {
	v, err := scanVisit(db.Conn(ctx, r.pool).QueryRow(ctx, visitSelect+` WHERE v.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*VisitRecord, int, error) {
	where := ` WHERE 1=1`
	var args []any
	idx := 1

	if f.DateFrom != nil {
		where += fmt.Sprintf(` AND v.visit_timestamp >= $%d`, idx)
		args = append(args, wallclock.ToTime(*f.DateFrom))
		idx++
	}
	if f.DateTo != nil {
		where += fmt.Sprintf(` AND v.visit_timestamp <= $%d`, idx)
		args = append(args, wallclock.ToTime(*f.DateTo))
		idx++
	}
	if f.PatientName != "" {
		where += fmt.Sprintf(` AND r.patient_name = $%d`, idx)
		args = append(args, f.PatientName)
		idx++
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	countQuery := `SELECT COUNT(*) FROM visit_record v JOIN reservation r ON r.id = v.reservation_id` + where
	if err := conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count visit records: %w", err)
	}

	query := visitSelect + where + fmt.Sprintf(` ORDER BY v.visit_timestamp LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search visit records: %w", err)
	}
	defer rows.Close()

	var items []*VisitRecord
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func scanVisit(row pgx.Row) (*VisitRecord, error) {
	var v VisitRecord
	var ts time.Time
	if err := row.Scan(&v.ID, &v.ReservationID, &ts, &v.Notes, &v.PatientName, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.VisitTimestamp = wallclock.FromTime(ts)
	return &v, nil
}
