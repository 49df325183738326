package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/agenda/agenda/pkg/wallclock"
)

var resColumns = []string{"id", "patient_name", "specialty_id", "insurer_id", "date_time", "practitioner_name", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRepoPG_Create(t *testing.T) {
	mock := newMock(t)
	dt := at(monday, "08:20")
	res := &Reservation{
		PatientName: "Ana Souza", SpecialtyID: uuid.New(), InsurerID: uuid.New(),
		DateTime: dt, PractitionerName: "Dr. Silva",
	}
	mock.ExpectQuery("INSERT INTO reservation").
		WithArgs(pgxmock.AnyArg(), "Ana Souza", res.SpecialtyID, res.InsurerID, wallclock.ToTime(dt), "Dr. Silva").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if err := NewRepoPG(mock).Create(context.Background(), res); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if res.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepoPG_Create_TranslatesConstraintErrors(t *testing.T) {
	tests := []struct {
		name  string
		pgErr *pgconn.PgError
		check func(error) bool
	}{
		{
			"unique date_time",
			&pgconn.PgError{Code: "23505", ConstraintName: dateTimeUnique},
			func(err error) bool { return errors.Is(err, ErrConflict) },
		},
		{
			"unknown insurer",
			&pgconn.PgError{Code: "23503", ConstraintName: insurerFK},
			func(err error) bool {
				var ve *ValidationError
				return errors.As(err, &ve) && ve.Field == "insurer_id"
			},
		},
		{
			"unknown specialty",
			&pgconn.PgError{Code: "23503", ConstraintName: specialtyFK},
			func(err error) bool {
				var ve *ValidationError
				return errors.As(err, &ve) && ve.Field == "specialty_id"
			},
		},
		{
			"other failure",
			&pgconn.PgError{Code: "57014"},
			func(err error) bool { return err != nil && !errors.Is(err, ErrConflict) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectQuery("INSERT INTO reservation").
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(tt.pgErr)

			err := NewRepoPG(mock).Create(context.Background(), &Reservation{DateTime: at(monday, "08:00")})
			if !tt.check(err) {
				t.Errorf("unexpected error translation: %v", err)
			}
		})
	}
}

func TestRepoPG_GetByDateTime(t *testing.T) {
	mock := newMock(t)
	dt := at(monday, "08:20")
	id := uuid.New()
	mock.ExpectQuery("FROM reservation WHERE date_time = ").
		WithArgs(wallclock.ToTime(dt)).
		WillReturnRows(pgxmock.NewRows(resColumns).
			AddRow(id, "Ana Souza", uuid.New(), uuid.New(), wallclock.ToTime(dt), "Dr. Silva", time.Now()))

	res, err := NewRepoPG(mock).GetByDateTime(context.Background(), dt)
	if err != nil {
		t.Fatalf("GetByDateTime() error: %v", err)
	}
	if res.ID != id || res.DateTime != dt {
		t.Errorf("unexpected reservation %+v", res)
	}
}

func TestRepoPG_GetByDateTime_NotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM reservation WHERE date_time = ").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	if _, err := NewRepoPG(mock).GetByDateTime(context.Background(), at(monday, "08:00")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoPG_ListBetween(t *testing.T) {
	mock := newMock(t)
	from, to := at(monday, "00:00"), at(monday.AddDays(1), "00:00")
	mock.ExpectQuery(`WHERE date_time >= \$1 AND date_time < \$2 ORDER BY date_time`).
		WithArgs(wallclock.ToTime(from), wallclock.ToTime(to)).
		WillReturnRows(pgxmock.NewRows(resColumns).
			AddRow(uuid.New(), "Ana Souza", uuid.New(), uuid.New(), wallclock.ToTime(at(monday, "08:00")), "Dr. Silva", time.Now()).
			AddRow(uuid.New(), "Bruno Lima", uuid.New(), uuid.New(), wallclock.ToTime(at(monday, "08:20")), "Dr. Silva", time.Now()))

	items, err := NewRepoPG(mock).ListBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ListBetween() error: %v", err)
	}
	if len(items) != 2 || items[1].PatientName != "Bruno Lima" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestRepoPG_Search_PushesFiltersToSQL(t *testing.T) {
	mock := newMock(t)
	from, to := at(monday, "00:00"), at(monday, "23:59")
	filter := ReservationFilter{DateFrom: &from, DateTo: &to, PatientName: "Ana Souza"}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservation WHERE 1=1 AND date_time >= \$1 AND date_time <= \$2 AND patient_name = \$3`).
		WithArgs(wallclock.ToTime(from), wallclock.ToTime(to), "Ana Souza").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`AND patient_name = \$3 ORDER BY date_time LIMIT \$4 OFFSET \$5`).
		WithArgs(wallclock.ToTime(from), wallclock.ToTime(to), "Ana Souza", 20, 0).
		WillReturnRows(pgxmock.NewRows(resColumns).
			AddRow(uuid.New(), "Ana Souza", uuid.New(), uuid.New(), wallclock.ToTime(at(monday, "08:00")), "Dr. Silva", time.Now()))

	items, total, err := NewRepoPG(mock).Search(context.Background(), filter, 20, 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("expected one result, got total=%d items=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
