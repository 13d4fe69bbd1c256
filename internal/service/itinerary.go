package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/itinerary-planner/internal/domain"
	"github.com/pkordes/itinerary-planner/internal/repo"
	"github.com/pkordes/itinerary-planner/internal/routing"
	"github.com/pkordes/itinerary-planner/internal/timeline"
)

// maxParallelRoutes bounds concurrent routing calls within one operation.
const maxParallelRoutes = 4

// routingWaves is how many per-call route timeouts one operation may spend
// routing in total. Legs still unrouted when the budget runs out are stored
// without a segment, like any other routing failure.
const routingWaves = 2

// RoutingBudget is the most time one edit spends waiting on the router when
// each call is bounded by routeTimeout. Zero means unbounded.
func RoutingBudget(routeTimeout time.Duration) time.Duration {
	return routingWaves * routeTimeout
}

// ItineraryService is the only writer of day and stop state. It decides
// which travel segments a structural edit makes stale, refreshes them
// through the router and writes the result back before returning, so a day
// is never stored with a segment computed against the wrong predecessor.
//
// Routing failures are not fatal: the affected stop is stored without a
// segment and the timeline counts its travel as zero. Store failures are
// returned wrapped in domain.ErrPersistence and nothing is committed.
type ItineraryService struct {
	trips        repo.TripRepo
	days         repo.DayRepo
	router       routing.Router
	logger       *slog.Logger
	routeTimeout time.Duration
	locks        *dayLocks
	newID        func() uuid.UUID
}

// NewItineraryService constructs an ItineraryService. routeTimeout bounds
// each routing call; zero means no bound beyond the caller's context.
func NewItineraryService(trips repo.TripRepo, days repo.DayRepo, router routing.Router, logger *slog.Logger, routeTimeout time.Duration) *ItineraryService {
	return &ItineraryService{
		trips:        trips,
		days:         days,
		router:       router,
		logger:       logger,
		routeTimeout: routeTimeout,
		locks:        newDayLocks(),
		newID:        uuid.New,
	}
}

// NewStop is the caller-supplied part of a stop being added to a day.
type NewStop struct {
	PlaceName   string
	PlaceID     string
	Location    domain.Coordinates
	StaySeconds *int // nil means domain.DefaultStaySeconds
	Mode        domain.TransportMode
	Description string
	PhotoRef    string

	// Position inserts the stop at the given index instead of appending it.
	Position *int
}

// DayOrder is the complete new stop order of one day.
type DayOrder struct {
	Date    time.Time
	StopIDs []uuid.UUID
}

// GetDay returns one day of a trip.
func (s *ItineraryService) GetDay(ctx context.Context, owner string, tripID uuid.UUID, date time.Time) (domain.Day, error) {
	if err := s.authorize(ctx, owner, tripID); err != nil {
		return domain.Day{}, fmt.Errorf("service.ItineraryService.GetDay: %w", err)
	}
	d, err := s.days.GetDay(ctx, tripID, date)
	if err != nil {
		return domain.Day{}, storeErr("service.ItineraryService.GetDay", err)
	}
	return d, nil
}

// ListDays returns every day of a trip in date order.
func (s *ItineraryService) ListDays(ctx context.Context, owner string, tripID uuid.UUID) ([]domain.Day, error) {
	if err := s.authorize(ctx, owner, tripID); err != nil {
		return nil, fmt.Errorf("service.ItineraryService.ListDays: %w", err)
	}
	days, err := s.days.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, storeErr("service.ItineraryService.ListDays", err)
	}
	return days, nil
}

// AddStop adds a place to a day. By default the stop is appended: its
// incoming segment is routed from the current last stop, and the append is
// rejected with domain.ErrConflict if the last stop changed in the meantime.
// With a Position the stop is inserted and the day rewritten in full.
func (s *ItineraryService) AddStop(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, in NewStop) (domain.Stop, error) {
	const op = "service.ItineraryService.AddStop"

	stop, err := s.buildStop(in)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return domain.Stop{}, fmt.Errorf("%s: %w", op, err)
	}

	if in.Position != nil {
		return s.insertStop(ctx, tripID, date, stop, *in.Position)
	}

	last, err := s.days.GetLastStop(ctx, tripID, date)
	if err != nil {
		return domain.Stop{}, storeErr(op, err)
	}
	expected := uuid.Nil
	if last != nil {
		expected = last.ID
		stop.Segment = s.segmentOrNil(ctx, tripID, date, *last, stop)
	}

	if err := s.days.AppendStop(ctx, tripID, date, expected, stop); err != nil {
		return domain.Stop{}, storeErr(op, err)
	}
	return stop, nil
}

func (s *ItineraryService) insertStop(ctx context.Context, tripID uuid.UUID, date time.Time, stop domain.Stop, position int) (domain.Stop, error) {
	const op = "service.ItineraryService.AddStop"

	day, err := s.days.GetDay(ctx, tripID, date)
	if err != nil {
		return domain.Stop{}, storeErr(op, err)
	}
	if err := day.InsertStop(stop, position); err != nil {
		return domain.Stop{}, fmt.Errorf("%s: %w", op, err)
	}
	routeCtx, cancel := s.routingContext(ctx)
	s.refresh(routeCtx, &day)
	cancel()

	if err := s.days.ReplaceStops(ctx, tripID, date, day.Stops); err != nil {
		return domain.Stop{}, storeErr(op, err)
	}
	return day.Stops[position], nil
}

// DeleteStop removes a stop and repairs its successor. If the removed stop
// was first, the successor becomes first and loses its segment. If it had
// both neighbours, the successor is re-routed from the predecessor with its
// own mode. Only the successor is touched; every other segment is kept.
func (s *ItineraryService) DeleteStop(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID) error {
	const op = "service.ItineraryService.DeleteStop"

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	day, err := s.days.GetDay(ctx, tripID, date)
	if err != nil {
		return storeErr(op, err)
	}
	i := day.IndexOf(stopID)
	if i < 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrStopNotFound)
	}
	pred, succ := day.Neighbors(i)

	// Removing the tail leaves every remaining segment valid.
	if succ == nil {
		if err := s.days.DeleteStop(ctx, tripID, date, stopID); err != nil {
			return storeErr(op, err)
		}
		return nil
	}

	if _, _, err := day.RemoveStop(stopID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// The successor now sits at index i.
	if pred == nil {
		day.ClearFirstSegment()
	} else {
		day.Stops[i].Segment = s.segmentOrNil(ctx, tripID, date, *pred, day.Stops[i])
	}

	if err := s.days.ReplaceStops(ctx, tripID, date, day.Stops); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// ReorderStops applies new stop orders to one or more days of a trip. The
// orders must together list exactly the stops those days hold now; a stale
// order is rejected with domain.ErrConflict rather than applied. Every stop
// whose predecessor or mode no longer matches its segment is re-routed,
// each first stop loses its segment, and all affected days are written in
// one transaction.
func (s *ItineraryService) ReorderStops(ctx context.Context, owner string, tripID uuid.UUID, orders []DayOrder) ([]domain.Day, error) {
	const op = "service.ItineraryService.ReorderStops"

	if len(orders) == 0 {
		return nil, fmt.Errorf("%s: %w: no days to reorder", op, domain.ErrValidation)
	}
	dates := make([]time.Time, len(orders))
	for i, o := range orders {
		dates[i] = o.Date
	}

	unlock, err := s.lockDays(ctx, tripID, dates...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current := make(map[string]domain.Day, len(orders))
	pool := make(map[uuid.UUID]domain.Stop)
	for _, o := range orders {
		key := domain.TruncateDate(o.Date).Format(domain.DateLayout)
		if _, dup := current[key]; dup {
			return nil, fmt.Errorf("%s: %w: day %s listed twice", op, domain.ErrValidation, key)
		}
		d, err := s.days.GetDay(ctx, tripID, o.Date)
		if err != nil {
			return nil, storeErr(op, err)
		}
		current[key] = d
		for _, st := range d.Stops {
			pool[st.ID] = st
		}
	}

	updated := make([]domain.Day, 0, len(orders))
	placed := make(map[uuid.UUID]bool, len(pool))
	for _, o := range orders {
		d := current[domain.TruncateDate(o.Date).Format(domain.DateLayout)]
		d.Stops = make([]domain.Stop, 0, len(o.StopIDs))
		for _, id := range o.StopIDs {
			st, ok := pool[id]
			if !ok {
				return nil, fmt.Errorf("%s: %w: stop %s is not on the listed days", op, domain.ErrValidation, id)
			}
			if placed[id] {
				return nil, fmt.Errorf("%s: %w: stop %s placed twice", op, domain.ErrValidation, id)
			}
			placed[id] = true
			d.Stops = append(d.Stops, st)
		}
		updated = append(updated, d)
	}
	if len(placed) != len(pool) {
		return nil, fmt.Errorf("%s: %w: order omits %d stop(s); reload the day", op, domain.ErrConflict, len(pool)-len(placed))
	}

	return s.commit(ctx, op, tripID, updated)
}

// MoveStop moves the stop at fromIndex on fromDate to toIndex on toDate.
// For a same-day move toIndex refers to the list after removal. The
// resulting days go through the same refresh and write as ReorderStops.
func (s *ItineraryService) MoveStop(ctx context.Context, owner string, tripID uuid.UUID, fromDate time.Time, fromIndex int, toDate time.Time, toIndex int) ([]domain.Day, error) {
	const op = "service.ItineraryService.MoveStop"

	unlock, err := s.lockDays(ctx, tripID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from, err := s.days.GetDay(ctx, tripID, fromDate)
	if err != nil {
		return nil, storeErr(op, err)
	}

	if from.Key() == domain.TruncateDate(toDate).Format(domain.DateLayout) {
		if err := domain.MoveStop(&from, fromIndex, &from, toIndex); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s.commit(ctx, op, tripID, []domain.Day{from})
	}

	to, err := s.days.GetDay(ctx, tripID, toDate)
	if err != nil {
		return nil, storeErr(op, err)
	}
	if err := domain.MoveStop(&from, fromIndex, &to, toIndex); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.commit(ctx, op, tripID, []domain.Day{from, to})
}

// ChangeTransportMode re-routes a stop's incoming segment with mode. If the
// router fails the stored stop is left as it was and the error, matching
// domain.ErrRouteUnavailable, is returned. The first stop of a day has no
// incoming segment, so only its mode is recorded.
func (s *ItineraryService) ChangeTransportMode(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, mode domain.TransportMode) error {
	const op = "service.ItineraryService.ChangeTransportMode"

	mode, err := domain.ParseTransportMode(string(mode))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	day, err := s.days.GetDay(ctx, tripID, date)
	if err != nil {
		return storeErr(op, err)
	}
	i := day.IndexOf(stopID)
	if i < 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrStopNotFound)
	}

	patch := domain.StopPatch{Mode: &mode}
	if pred, _ := day.Neighbors(i); pred != nil {
		seg, err := s.route(ctx, *pred, day.Stops[i], mode)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		patch.Segment = seg
	}

	if err := s.days.UpdateStop(ctx, tripID, date, stopID, patch); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// UpdateStayDuration sets how long the traveller stays at a stop.
func (s *ItineraryService) UpdateStayDuration(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, seconds int) error {
	const op = "service.ItineraryService.UpdateStayDuration"

	if err := domain.ValidateStay(seconds); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.days.UpdateStop(ctx, tripID, date, stopID, domain.StopPatch{StaySeconds: &seconds}); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// UpdateStopDetails edits the free-text description of a stop.
func (s *ItineraryService) UpdateStopDetails(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, stopID uuid.UUID, description string) error {
	const op = "service.ItineraryService.UpdateStopDetails"

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.days.UpdateStop(ctx, tripID, date, stopID, domain.StopPatch{Description: &description}); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// UpdateDepartureTime sets the day's departure. It accepts "15:04",
// "15:04:05" or an RFC 3339 timestamp and stores the canonical "15:04".
// Segments are not touched; only the projected times shift.
func (s *ItineraryService) UpdateDepartureTime(ctx context.Context, owner string, tripID uuid.UUID, date time.Time, departure string) (string, error) {
	const op = "service.ItineraryService.UpdateDepartureTime"

	offset, ok := timeline.ParseDeparture(departure)
	if !ok {
		return "", fmt.Errorf("%s: %w: invalid departure time %q", op, domain.ErrValidation, departure)
	}
	canonical := timeline.FormatDeparture(offset)

	unlock, err := s.lockDays(ctx, tripID, date)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	if err := s.authorize(ctx, owner, tripID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.days.SetDepartureTime(ctx, tripID, date, canonical); err != nil {
		return "", storeErr(op, err)
	}
	return canonical, nil
}

// ---- internals -------------------------------------------------------------

// commit refreshes every day and writes them. A single day is replaced on
// its own; several days go through one transaction.
func (s *ItineraryService) commit(ctx context.Context, op string, tripID uuid.UUID, days []domain.Day) ([]domain.Day, error) {
	routeCtx, cancel := s.routingContext(ctx)
	for i := range days {
		s.refresh(routeCtx, &days[i])
	}
	cancel()

	var err error
	if len(days) == 1 {
		err = s.days.ReplaceStops(ctx, tripID, days[0].Date, days[0].Stops)
	} else {
		err = s.days.ReplaceDays(ctx, tripID, days)
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return days, nil
}

// refresh brings day back to a consistent state: the first stop loses its
// segment and every stale segment is re-routed against the current
// predecessor. Segments that still match are kept.
func (s *ItineraryService) refresh(ctx context.Context, day *domain.Day) {
	day.ClearFirstSegment()
	stale := day.StaleIndices()
	if len(stale) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxParallelRoutes)
	for _, i := range stale {
		pred, stop := day.Stops[i-1], day.Stops[i]
		g.Go(func() error {
			day.Stops[i].Segment = s.segmentOrNil(ctx, day.TripID, day.Date, pred, stop)
			return nil
		})
	}
	_ = g.Wait()
}

// routingContext bounds all routing of one operation by RoutingBudget.
func (s *ItineraryService) routingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.routeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, RoutingBudget(s.routeTimeout))
}

// segmentOrNil routes pred -> stop with the stop's mode and degrades to nil
// on failure.
func (s *ItineraryService) segmentOrNil(ctx context.Context, tripID uuid.UUID, date time.Time, pred, stop domain.Stop) *domain.TravelSegment {
	seg, err := s.route(ctx, pred, stop, stop.Mode)
	if err != nil {
		s.logger.WarnContext(ctx, "route unavailable, stop stored without travel segment",
			"trip_id", tripID,
			"date", date.Format(domain.DateLayout),
			"from_stop_id", pred.ID,
			"stop_id", stop.ID,
			"mode", stop.Mode,
			"error", err,
		)
		return nil
	}
	return seg
}

// route asks the router for a segment and stamps it with the predecessor it
// was computed against. A nil segment counts as unavailable.
func (s *ItineraryService) route(ctx context.Context, pred, stop domain.Stop, mode domain.TransportMode) (*domain.TravelSegment, error) {
	if s.routeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.routeTimeout)
		defer cancel()
	}

	seg, err := s.router.Route(ctx, pred.Location, stop.Location, mode)
	if err != nil {
		if !errors.Is(err, domain.ErrRouteUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
		}
		return nil, err
	}
	if seg == nil {
		return nil, fmt.Errorf("%w: no route", domain.ErrRouteUnavailable)
	}

	out := *seg
	out.Mode = mode
	out.FromStopID = pred.ID
	return &out, nil
}

func (s *ItineraryService) buildStop(in NewStop) (domain.Stop, error) {
	name := strings.TrimSpace(in.PlaceName)
	if name == "" {
		return domain.Stop{}, fmt.Errorf("%w: place name is required", domain.ErrValidation)
	}
	if err := in.Location.Validate(); err != nil {
		return domain.Stop{}, err
	}
	mode, err := domain.ParseTransportMode(string(in.Mode))
	if err != nil {
		return domain.Stop{}, err
	}
	stay := domain.DefaultStaySeconds
	if in.StaySeconds != nil {
		if err := domain.ValidateStay(*in.StaySeconds); err != nil {
			return domain.Stop{}, err
		}
		stay = *in.StaySeconds
	}
	return domain.Stop{
		ID:          s.newID(),
		PlaceName:   name,
		PlaceID:     in.PlaceID,
		Location:    in.Location,
		StaySeconds: stay,
		Mode:        mode,
		Description: in.Description,
		PhotoRef:    in.PhotoRef,
	}, nil
}

func (s *ItineraryService) authorize(ctx context.Context, owner string, tripID uuid.UUID) error {
	if _, err := s.trips.GetByID(ctx, owner, tripID); err != nil {
		return storeErr("authorize", err)
	}
	return nil
}

func (s *ItineraryService) lockDays(ctx context.Context, tripID uuid.UUID, dates ...time.Time) (func(), error) {
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = tripID.String() + "/" + domain.TruncateDate(d).Format(domain.DateLayout)
	}
	return s.locks.lock(ctx, keys...)
}

// storeErr wraps a store failure. Domain sentinels pass through unchanged so
// handlers can map them; anything else becomes domain.ErrPersistence.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}
