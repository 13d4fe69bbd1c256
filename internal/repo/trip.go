package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// Every read and write is scoped by owner: a trip owned by someone else is
// reported as domain.ErrTripNotFound.
type TripRepo interface {
	// Create inserts a new trip and one empty day per calendar date in its
	// range, in one transaction.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns one page of the owner's trips ordered by start_date
	// descending, together with the owner's total trip count.
	ListPaged(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the mutable fields of a trip and reconciles its days
	// with the new date range: missing dates get empty days and dates outside
	// the range are deleted. Dropping a day that still holds stops fails with
	// domain.ErrConflict unless upd.ConfirmDropStops is set.
	Update(ctx context.Context, ownerID string, upd domain.TripUpdate) (domain.Trip, error)

	// Delete removes a trip; its days and articles cascade.
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, owner_id, title, start_date, end_date, countries, cover_image, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	var result domain.Trip
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
			INSERT INTO trips (owner_id, title, start_date, end_date, countries, cover_image)
			VALUES (@owner_id, @title, @start_date, @end_date, @countries, @cover_image)
			RETURNING ` + tripColumns

		var err error
		result, err = scanTrip(tx.QueryRow(ctx, q, tripArgs(trip)))
		if err != nil {
			return err
		}
		return insertMissingDays(ctx, tx, result)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id AND owner_id = @owner_id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListPaged(ctx context.Context, ownerID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `SELECT count(*) FROM trips WHERE owner_id = @owner_id`
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE owner_id = @owner_id
		ORDER BY start_date DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"owner_id": ownerID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"owner_id": ownerID,
		"limit":    p.Limit,
		"offset":   p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}
	return trips, total, nil
}

func (r *pgTripRepo) Update(ctx context.Context, ownerID string, upd domain.TripUpdate) (domain.Trip, error) {
	trip := upd.Trip
	var result domain.Trip
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		const lockQ = `SELECT id FROM trips WHERE id = @id AND owner_id = @owner_id FOR UPDATE`
		var locked pgtype.UUID
		if err := tx.QueryRow(ctx, lockQ, pgx.NamedArgs{"id": trip.ID, "owner_id": ownerID}).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTripNotFound
			}
			return err
		}

		const occupiedQ = `
			SELECT date FROM days
			WHERE trip_id = @id
			  AND (date < @start_date OR date > @end_date)
			  AND jsonb_array_length(stops) > 0
			ORDER BY date`
		dropped, err := collectDates(tx.Query(ctx, occupiedQ, tripArgs(trip)))
		if err != nil {
			return err
		}
		if len(dropped) > 0 && !upd.ConfirmDropStops {
			return fmt.Errorf("%w: days %s still hold stops", domain.ErrConflict, strings.Join(dropped, ", "))
		}

		const pruneQ = `DELETE FROM days WHERE trip_id = @id AND (date < @start_date OR date > @end_date)`
		if _, err := tx.Exec(ctx, pruneQ, tripArgs(trip)); err != nil {
			return err
		}

		const q = `
			UPDATE trips
			SET title       = @title,
			    start_date  = @start_date,
			    end_date    = @end_date,
			    countries   = @countries,
			    cover_image = @cover_image,
			    updated_at  = now()
			WHERE id = @id
			RETURNING ` + tripColumns
		if result, err = scanTrip(tx.QueryRow(ctx, q, tripArgs(trip))); err != nil {
			return err
		}
		return insertMissingDays(ctx, tx, result)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id AND owner_id = @owner_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrTripNotFound)
	}
	return nil
}

// insertMissingDays creates an empty day for every date in the trip's range
// that does not have one yet.
func insertMissingDays(ctx context.Context, q db, trip domain.Trip) error {
	const stmt = `
		INSERT INTO days (trip_id, date, departure_time)
		SELECT @id::uuid, d::date, @departure::text
		FROM generate_series(@start_date::date, @end_date::date, interval '1 day') AS d
		ON CONFLICT (trip_id, date) DO NOTHING`

	args := tripArgs(trip)
	args["departure"] = domain.DefaultDepartureTime
	_, err := q.Exec(ctx, stmt, args)
	return err
}

func collectDates(rows pgx.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d pgtype.Date
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d.Time.Format(domain.DateLayout))
	}
	return out, rows.Err()
}

func tripArgs(t domain.Trip) pgx.NamedArgs {
	countries := t.Countries
	if countries == nil {
		countries = []string{}
	}
	return pgx.NamedArgs{
		"id":          t.ID,
		"owner_id":    t.OwnerID,
		"title":       t.Title,
		"start_date":  pgtype.Date{Time: domain.TruncateDate(t.StartDate), Valid: true},
		"end_date":    pgtype.Date{Time: domain.TruncateDate(t.EndDate), Valid: true},
		"countries":   countries,
		"cover_image": t.CoverImage,
	}
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t     domain.Trip
		id    pgtype.UUID
		start pgtype.Date
		end   pgtype.Date
	)

	err := s.Scan(&id, &t.OwnerID, &t.Title, &start, &end, &t.Countries, &t.CoverImage, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrTripNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = start.Time
	t.EndDate = end.Time
	return t, nil
}
