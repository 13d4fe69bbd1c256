package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// DayRepo is the itinerary store: durable, ordered stop lists keyed by
// (trip, date). Structural changes always replace the whole list; only
// field edits on a single stop are applied as patches.
type DayRepo interface {
	// GetDay returns one day with its stops.
	// Returns domain.ErrDayNotFound if the trip has no such date.
	GetDay(ctx context.Context, tripID uuid.UUID, date time.Time) (domain.Day, error)

	// GetLastStop returns the final stop of a day, or nil when it is empty.
	GetLastStop(ctx context.Context, tripID uuid.UUID, date time.Time) (*domain.Stop, error)

	// ListByTrip returns every day of a trip in date order.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Day, error)

	// AppendStop adds stop to the end of the day provided the current last
	// stop is still expectedLast (uuid.Nil for an empty day). Returns
	// domain.ErrConflict when the day changed since it was read.
	AppendStop(ctx context.Context, tripID uuid.UUID, date time.Time, expectedLast uuid.UUID, stop domain.Stop) error

	// ReplaceStops overwrites the full stop list of a day.
	ReplaceStops(ctx context.Context, tripID uuid.UUID, date time.Time, stops []domain.Stop) error

	// ReplaceDays overwrites the stop lists of several days of one trip in a
	// single transaction. Either every day is written or none is.
	ReplaceDays(ctx context.Context, tripID uuid.UUID, days []domain.Day) error

	// UpdateStop applies patch to one stop and leaves the rest of the list
	// untouched. Returns domain.ErrStopNotFound if the stop is not on that day.
	UpdateStop(ctx context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID, patch domain.StopPatch) error

	// DeleteStop removes one stop from a day without touching the others.
	DeleteStop(ctx context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID) error

	// SetDepartureTime stores the day's departure wall-clock time.
	SetDepartureTime(ctx context.Context, tripID uuid.UUID, date time.Time, departure string) error
}

type pgDayRepo struct {
	db db
}

// NewDayRepo constructs a DayRepo backed by the provided db connection.
func NewDayRepo(db db) DayRepo {
	return &pgDayRepo{db: db}
}

const dayColumns = `trip_id, date, departure_time, stops, updated_at`

func (r *pgDayRepo) GetDay(ctx context.Context, tripID uuid.UUID, date time.Time) (domain.Day, error) {
	const q = `SELECT ` + dayColumns + ` FROM days WHERE trip_id = @trip_id AND date = @date`

	d, err := scanDay(r.db.QueryRow(ctx, q, dayArgs(tripID, date)))
	if err != nil {
		return domain.Day{}, fmt.Errorf("repo.DayRepo.GetDay: %w", err)
	}
	return d, nil
}

func (r *pgDayRepo) GetLastStop(ctx context.Context, tripID uuid.UUID, date time.Time) (*domain.Stop, error) {
	d, err := r.GetDay(ctx, tripID, date)
	if err != nil {
		return nil, fmt.Errorf("repo.DayRepo.GetLastStop: %w", err)
	}
	return d.LastStop(), nil
}

func (r *pgDayRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Day, error) {
	const q = `SELECT ` + dayColumns + ` FROM days WHERE trip_id = @trip_id ORDER BY date`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.DayRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DayRepo.ListByTrip: scan: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DayRepo.ListByTrip: rows: %w", err)
	}
	return days, nil
}

func (r *pgDayRepo) AppendStop(ctx context.Context, tripID uuid.UUID, date time.Time, expectedLast uuid.UUID, stop domain.Stop) error {
	doc, err := encodeStop(stop)
	if err != nil {
		return fmt.Errorf("repo.DayRepo.AppendStop: %w", err)
	}
	expected := ""
	if expectedLast != uuid.Nil {
		expected = expectedLast.String()
	}

	const q = `
		UPDATE days
		SET stops      = stops || jsonb_build_array(@stop::jsonb),
		    updated_at = now()
		WHERE trip_id = @trip_id
		  AND date    = @date
		  AND COALESCE(stops -> -1 ->> 'id', '') = @expected`

	args := dayArgs(tripID, date)
	args["stop"] = doc
	args["expected"] = expected

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.DayRepo.AppendStop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureDay(ctx, tripID, date); err != nil {
			return fmt.Errorf("repo.DayRepo.AppendStop: %w", err)
		}
		return fmt.Errorf("repo.DayRepo.AppendStop: last stop changed: %w", domain.ErrConflict)
	}
	return nil
}

func (r *pgDayRepo) ReplaceStops(ctx context.Context, tripID uuid.UUID, date time.Time, stops []domain.Stop) error {
	if err := replaceStops(ctx, r.db, tripID, date, stops); err != nil {
		return fmt.Errorf("repo.DayRepo.ReplaceStops: %w", err)
	}
	return nil
}

func (r *pgDayRepo) ReplaceDays(ctx context.Context, tripID uuid.UUID, days []domain.Day) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, d := range days {
			if err := replaceStops(ctx, tx, tripID, d.Date, d.Stops); err != nil {
				return fmt.Errorf("day %s: %w", d.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.DayRepo.ReplaceDays: %w", err)
	}
	return nil
}

func (r *pgDayRepo) UpdateStop(ctx context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID, patch domain.StopPatch) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const q = `SELECT ` + dayColumns + ` FROM days WHERE trip_id = @trip_id AND date = @date FOR UPDATE`

		d, err := scanDay(tx.QueryRow(ctx, q, dayArgs(tripID, date)))
		if err != nil {
			return err
		}
		i := d.IndexOf(stopID)
		if i < 0 {
			return domain.ErrStopNotFound
		}
		d.Stops[i] = patch.Apply(d.Stops[i])
		return replaceStops(ctx, tx, tripID, date, d.Stops)
	})
	if err != nil {
		return fmt.Errorf("repo.DayRepo.UpdateStop: %w", err)
	}
	return nil
}

func (r *pgDayRepo) DeleteStop(ctx context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID) error {
	const q = `
		UPDATE days
		SET stops = (
		        SELECT COALESCE(jsonb_agg(elem ORDER BY pos), '[]'::jsonb)
		        FROM jsonb_array_elements(stops) WITH ORDINALITY AS t(elem, pos)
		        WHERE elem ->> 'id' <> @stop_id
		    ),
		    updated_at = now()
		WHERE trip_id = @trip_id
		  AND date    = @date
		  AND stops @> jsonb_build_array(jsonb_build_object('id', @stop_id::text))`

	args := dayArgs(tripID, date)
	args["stop_id"] = stopID.String()

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.DayRepo.DeleteStop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureDay(ctx, tripID, date); err != nil {
			return fmt.Errorf("repo.DayRepo.DeleteStop: %w", err)
		}
		return fmt.Errorf("repo.DayRepo.DeleteStop: %w", domain.ErrStopNotFound)
	}
	return nil
}

func (r *pgDayRepo) SetDepartureTime(ctx context.Context, tripID uuid.UUID, date time.Time, departure string) error {
	const q = `
		UPDATE days
		SET departure_time = @departure,
		    updated_at     = now()
		WHERE trip_id = @trip_id AND date = @date`

	args := dayArgs(tripID, date)
	args["departure"] = departure

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.DayRepo.SetDepartureTime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DayRepo.SetDepartureTime: %w", domain.ErrDayNotFound)
	}
	return nil
}

// ensureDay returns domain.ErrDayNotFound when the day row is missing.
func (r *pgDayRepo) ensureDay(ctx context.Context, tripID uuid.UUID, date time.Time) error {
	const q = `SELECT EXISTS (SELECT 1 FROM days WHERE trip_id = @trip_id AND date = @date)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, dayArgs(tripID, date)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrDayNotFound
	}
	return nil
}

func replaceStops(ctx context.Context, q db, tripID uuid.UUID, date time.Time, stops []domain.Stop) error {
	doc, err := encodeStops(stops)
	if err != nil {
		return err
	}

	const stmt = `
		UPDATE days
		SET stops      = @stops::jsonb,
		    updated_at = now()
		WHERE trip_id = @trip_id AND date = @date`

	args := dayArgs(tripID, date)
	args["stops"] = doc

	tag, err := q.Exec(ctx, stmt, args)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDayNotFound
	}
	return nil
}

func dayArgs(tripID uuid.UUID, date time.Time) pgx.NamedArgs {
	return pgx.NamedArgs{
		"trip_id": tripID,
		"date":    pgtype.Date{Time: domain.TruncateDate(date), Valid: true},
	}
}

func scanDay(s scanner) (domain.Day, error) {
	var (
		d     domain.Day
		id    pgtype.UUID
		date  pgtype.Date
		stops []byte
	)
	err := s.Scan(&id, &date, &d.DepartureTime, &stops, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Day{}, domain.ErrDayNotFound
		}
		return domain.Day{}, err
	}

	d.TripID = uuid.UUID(id.Bytes)
	d.Date = date.Time
	if d.Stops, err = decodeStops(stops); err != nil {
		return domain.Day{}, err
	}
	return d, nil
}
