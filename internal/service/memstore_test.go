package service_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
)

// memDayRepo is an in-memory repo.DayRepo with the same not-found and
// conflict semantics as the Postgres implementation. Setting failWrites makes
// every write fail, simulating an unreachable store.
type memDayRepo struct {
	mu         sync.Mutex
	days       map[string]domain.Day
	failWrites error

	appends, replaces, replaceDays, updates, deletes int
}

var _ repo.DayRepo = (*memDayRepo)(nil)

func newMemDayRepo(tripID uuid.UUID, dates ...time.Time) *memDayRepo {
	m := &memDayRepo{days: make(map[string]domain.Day)}
	for _, d := range dates {
		m.days[memKey(tripID, d)] = domain.Day{
			TripID:        tripID,
			Date:          domain.TruncateDate(d),
			DepartureTime: domain.DefaultDepartureTime,
		}
	}
	return m
}

func memKey(tripID uuid.UUID, d time.Time) string {
	return tripID.String() + "/" + domain.TruncateDate(d).Format(domain.DateLayout)
}

// put seeds a day's stops directly, bypassing validation.
func (m *memDayRepo) put(tripID uuid.UUID, d time.Time, stops ...domain.Stop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := m.days[memKey(tripID, d)]
	day.Stops = stops
	m.days[memKey(tripID, d)] = day.Clone()
}

// snapshot returns a deep copy of a stored day.
func (m *memDayRepo) snapshot(tripID uuid.UUID, d time.Time) domain.Day {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.days[memKey(tripID, d)].Clone()
}

func (m *memDayRepo) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appends + m.replaces + m.replaceDays + m.updates + m.deletes
}

func (m *memDayRepo) GetDay(_ context.Context, tripID uuid.UUID, date time.Time) (domain.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.Day{}, domain.ErrDayNotFound
	}
	return d.Clone(), nil
}

func (m *memDayRepo) GetLastStop(ctx context.Context, tripID uuid.UUID, date time.Time) (*domain.Stop, error) {
	d, err := m.GetDay(ctx, tripID, date)
	if err != nil {
		return nil, err
	}
	return d.LastStop(), nil
}

func (m *memDayRepo) ListByTrip(_ context.Context, tripID uuid.UUID) ([]domain.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Day
	for _, d := range m.days {
		if d.TripID == tripID {
			out = append(out, d.Clone())
		}
	}
	slices.SortFunc(out, func(a, b domain.Day) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (m *memDayRepo) AppendStop(_ context.Context, tripID uuid.UUID, date time.Time, expectedLast uuid.UUID, stop domain.Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	last := uuid.Nil
	if l := d.LastStop(); l != nil {
		last = l.ID
	}
	if last != expectedLast {
		return fmt.Errorf("append: %w", domain.ErrConflict)
	}
	m.appends++
	d = d.Clone()
	d.AppendStop(stop)
	m.days[memKey(tripID, date)] = d.Clone()
	return nil
}

func (m *memDayRepo) ReplaceStops(_ context.Context, tripID uuid.UUID, date time.Time, stops []domain.Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	if err := m.replaceLocked(tripID, date, stops); err != nil {
		return err
	}
	m.replaces++
	return nil
}

func (m *memDayRepo) ReplaceDays(_ context.Context, tripID uuid.UUID, days []domain.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	for _, d := range days {
		if _, ok := m.days[memKey(tripID, d.Date)]; !ok {
			return domain.ErrDayNotFound
		}
		if err := (domain.Day{Stops: d.Stops}).Validate(); err != nil {
			return err
		}
	}
	for _, d := range days {
		_ = m.replaceLocked(tripID, d.Date, d.Stops)
	}
	m.replaceDays++
	return nil
}

func (m *memDayRepo) replaceLocked(tripID uuid.UUID, date time.Time, stops []domain.Stop) error {
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	if err := (domain.Day{Stops: stops}).Validate(); err != nil {
		return err
	}
	d.Stops = stops
	m.days[memKey(tripID, date)] = d.Clone()
	return nil
}

func (m *memDayRepo) UpdateStop(_ context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID, patch domain.StopPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	d = d.Clone()
	i := d.IndexOf(stopID)
	if i < 0 {
		return domain.ErrStopNotFound
	}
	d.Stops[i] = patch.Apply(d.Stops[i])
	m.days[memKey(tripID, date)] = d
	m.updates++
	return nil
}

func (m *memDayRepo) DeleteStop(_ context.Context, tripID uuid.UUID, date time.Time, stopID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	d = d.Clone()
	if _, _, err := d.RemoveStop(stopID); err != nil {
		return err
	}
	m.days[memKey(tripID, date)] = d
	m.deletes++
	return nil
}

func (m *memDayRepo) SetDepartureTime(_ context.Context, tripID uuid.UUID, date time.Time, departure string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	d, ok := m.days[memKey(tripID, date)]
	if !ok {
		return domain.ErrDayNotFound
	}
	d.DepartureTime = departure
	m.days[memKey(tripID, date)] = d
	m.updates++
	return nil
}
