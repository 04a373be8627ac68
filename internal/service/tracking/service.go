package tracking

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/geo"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/schedule"
)

const (
	defaultCurrency        = "BDT"
	defaultPromisedMinutes = 10
	maxPromisedMinutes     = 240
	defaultTimeout         = 3 * time.Second

	reasonSimulation = "simulation"
)

// Config tunes the tracking service.
type Config struct {
	StoreLocation          domain.LatLng
	TickInterval           time.Duration
	DefaultPromisedMinutes int
	OperationTimeout       time.Duration
}

// Service owns order tracking: status transitions, rider assignment, the
// delivery simulation and change notification. Mutations of one order are
// serialized; listeners run synchronously while the order is locked and
// must not mutate the same order from inside the callback.
type Service struct {
	repo     OrderRepository
	hub      *Hub
	sim      *Simulator
	locks    *keyedMutex
	geocoder geo.Geocoder
	clock    schedule.Clock
	metrics  Metrics
	logger   logx.Logger

	store            domain.LatLng
	promisedMinutes  int
	operationTimeout time.Duration
	newID            func() string
}

// NewService wires a Service. A nil metrics sink is replaced by a no-op one.
func NewService(
	repo OrderRepository,
	sched schedule.Scheduler,
	clock schedule.Clock,
	geocoder geo.Geocoder,
	cfg Config,
	logger logx.Logger,
	m Metrics,
) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaultTimeout
	}
	if cfg.DefaultPromisedMinutes <= 0 {
		cfg.DefaultPromisedMinutes = defaultPromisedMinutes
	}
	if m == nil {
		m = nopMetrics{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             repo,
		hub:              NewHub(),
		sim:              NewSimulator(sched, cfg.TickInterval, m),
		locks:            newKeyedMutex(),
		geocoder:         geocoder,
		clock:            clock,
		metrics:          m,
		logger:           logger,
		store:            cfg.StoreLocation,
		promisedMinutes:  cfg.DefaultPromisedMinutes,
		operationTimeout: cfg.OperationTimeout,
		newID:            uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// Close stops every running simulation.
func (s *Service) Close() {
	s.sim.Close()
}

// Simulating reports whether a movement simulation is running for the order.
func (s *Service) Simulating(orderID string) bool {
	return s.sim.Running(orderID)
}

// ActiveSimulations returns the number of running movement simulations.
func (s *Service) ActiveSimulations() int {
	return s.sim.Active()
}

// Ping checks the order store.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.Ping(ctx)
}

// CreateOrder places a pending order with the default store location and a
// destination derived from the shipping address.
func (s *Service) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error) {
	in, err := normalizeCreate(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	store := s.store
	o := &domain.Order{
		ID:              s.newID(),
		UserID:          in.UserID,
		Items:           in.Items,
		Total:           in.Total,
		Currency:        in.Currency,
		ShippingAddress: in.ShippingAddress,
		Status:          domain.StatusPending,
		TrackingStatus:  domain.StatusPending.TrackingMessage(),
		Delivery:        domain.Delivery{StoreLocation: &store},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if dest, err := s.geocoder.Locate(ctx, in.ShippingAddress); err != nil {
		s.logger.Warn("destination lookup failed",
			logx.OrderID(o.ID),
			logx.String("address", in.ShippingAddress),
			logx.Err(err),
		)
	} else {
		o.Delivery.DestinationLocation = &dest
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		logx.String("event", "order_created"),
		logx.OrderID(o.ID),
		logx.String("user_id", o.UserID),
		logx.String("total", o.Total.StringFixed(2)),
	)
	return o.Clone(), nil
}

// GetOrderByID returns the order or apperr.ErrNotFound.
func (s *Service) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.load(ctx, id)
}

// GetOrdersByUserID returns the orders placed by userID, oldest first.
func (s *Service) GetOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	userID, err := validateID(userID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListByUser(ctx, userID)
}

// GetAllOrders returns every order, oldest first.
func (s *Service) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.List(ctx)
}

// UpdateOrderStatus moves the order to upd.Status. Terminal orders and
// backward moves yield apperr.ErrConflict. Reaching a terminal status stops
// the order's simulation.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, upd domain.StatusUpdate) (*domain.Order, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	if !upd.Status.Valid() {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(upd.Status) {
		return nil, apperr.ErrConflict
	}

	prev := o.Status
	o.Status = upd.Status
	if tn := strings.TrimSpace(upd.TrackingNumber); tn != "" {
		o.TrackingNumber = tn
	}
	if o.Status == domain.StatusShipped && o.TrackingNumber == "" {
		o.TrackingNumber = newTrackingNumber(s.newID())
	}
	o.TrackingStatus = strings.TrimSpace(upd.TrackingStatus)
	if o.TrackingStatus == "" {
		o.TrackingStatus = o.Status.TrackingMessage()
	}
	o.UpdatedAt = s.now()

	if err := s.save(ctx, o); err != nil {
		return nil, err
	}

	if o.Status.Terminal() {
		s.sim.Cancel(id)
		s.metrics.OrderFinalized(string(o.Status))
	}

	s.logger.Info("order status updated",
		logx.String("event", "order_status_updated"),
		logx.OrderID(id),
		logx.String("from", string(prev)),
		logx.String("to", string(o.Status)),
	)
	s.hub.Publish(o)
	return o, nil
}

// AssignRider attaches rider to the order without changing its status.
func (s *Service) AssignRider(ctx context.Context, id string, rider domain.Rider) (*domain.Order, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	if err := validateRider(&rider); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, apperr.ErrConflict
	}

	o.Delivery.Rider = &rider
	o.UpdatedAt = s.now()
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("rider assigned",
		logx.String("event", "rider_assigned"),
		logx.OrderID(id),
		logx.String("rider_id", rider.ID),
	)
	s.hub.Publish(o)
	return o, nil
}

// StartExpressDelivery puts the order out for delivery with a deadline
// promisedMinutes from now and starts the movement simulation. A nil rider
// means domain.DefaultRider and a non-positive promisedMinutes means the
// configured default; promises over four hours are rejected. Calling it
// again replaces the running simulation. Orders without store or
// destination coordinates are updated but not simulated.
func (s *Service) StartExpressDelivery(ctx context.Context, id string, rider *domain.Rider, promisedMinutes int) (*domain.Order, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	r := domain.DefaultRider
	if rider != nil {
		r = *rider
	}
	if err := validateRider(&r); err != nil {
		return nil, err
	}
	if promisedMinutes > maxPromisedMinutes {
		return nil, apperr.ErrInvalid
	}
	if promisedMinutes <= 0 {
		promisedMinutes = s.promisedMinutes
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(domain.StatusOutForDelivery) {
		return nil, apperr.ErrConflict
	}

	now := s.now()
	deadline := now.Add(time.Duration(promisedMinutes) * time.Minute)
	o.Status = domain.StatusOutForDelivery
	o.TrackingStatus = domain.StatusOutForDelivery.TrackingMessage()
	o.Delivery.Rider = &r
	o.Delivery.StartedAt = &now
	o.Delivery.PromisedDeliveryAt = &deadline
	o.Delivery.CurrentLocation = nil
	if o.Delivery.StoreLocation != nil {
		o.Delivery.CurrentLocation = &domain.GeoPoint{LatLng: *o.Delivery.StoreLocation, At: now}
	}
	o.UpdatedAt = now

	if err := s.save(ctx, o); err != nil {
		return nil, err
	}

	simulated := o.Delivery.StoreLocation != nil && o.Delivery.DestinationLocation != nil
	if simulated {
		s.sim.Start(id, func(gen uint64) { s.tick(id, gen) })
	} else {
		s.sim.Cancel(id)
	}

	s.logger.Info("delivery started",
		logx.String("event", "delivery_started"),
		logx.OrderID(id),
		logx.String("rider_id", r.ID),
		logx.Time("promised_at", deadline),
		logx.Bool("simulated", simulated),
	)
	s.hub.Publish(o)
	return o, nil
}

// UpdateOrderLocation applies a real rider position observed now. It stops
// the order's simulation first. Fixes for delivered or cancelled orders are
// dropped and the stored order is returned unchanged.
func (s *Service) UpdateOrderLocation(ctx context.Context, id string, lat, lng float64) (*domain.Order, error) {
	return s.UpdateOrderLocationAt(ctx, id, lat, lng, time.Time{})
}

// UpdateOrderLocationAt is UpdateOrderLocation for a fix recorded at
// recordedAt. A zero or future recordedAt is replaced by the current time.
func (s *Service) UpdateOrderLocationAt(ctx context.Context, id string, lat, lng float64, recordedAt time.Time) (*domain.Order, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	if !validCoordinate(lat, lng) {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		s.logger.Debug("location fix ignored for finished order",
			logx.String("event", "location_ignored"),
			logx.OrderID(id),
			logx.String("status", string(o.Status)),
		)
		return o, nil
	}

	if s.sim.Cancel(id) {
		s.logger.Info("simulation replaced by rider location",
			logx.String("event", "simulation_overridden"),
			logx.OrderID(id),
		)
	}

	now := s.now()
	at := now
	if !recordedAt.IsZero() && recordedAt.Before(now) {
		at = recordedAt.UTC()
	}
	o.Delivery.CurrentLocation = &domain.GeoPoint{LatLng: domain.LatLng{Lat: lat, Lng: lng}, At: at}
	o.UpdatedAt = now
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}

	s.metrics.LocationOverridden()
	s.hub.Publish(o)
	return o, nil
}

// SubscribeToOrder registers listener for changes of the order and calls it
// once right away with the current snapshot. The returned func unsubscribes.
func (s *Service) SubscribeToOrder(ctx context.Context, id string, listener Listener) (func(), error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	if listener == nil {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	unsubscribe := s.hub.Subscribe(id, listener)
	listener(o)
	return unsubscribe, nil
}

// tick advances the simulated rider of one order.
func (s *Service) tick(id string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout)
	defer cancel()

	unlock := s.locks.Lock(id)
	defer unlock()

	// a run stopped while this tick waited for the lock must not write
	if !s.sim.Current(id, gen) {
		return
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Warn("simulation tick: load order failed", logx.OrderID(id), logx.Err(err))
		return
	}
	if o == nil || o.Status.Terminal() {
		s.sim.Finish(id, gen)
		return
	}

	d := o.Delivery
	if d.StoreLocation == nil || d.DestinationLocation == nil || d.StartedAt == nil || d.PromisedDeliveryAt == nil {
		s.sim.Finish(id, gen)
		return
	}

	now := s.now()
	progress := geo.Progress(*d.StartedAt, *d.PromisedDeliveryAt, now)
	pos := geo.Lerp(*d.StoreLocation, *d.DestinationLocation, progress)

	o.Delivery.CurrentLocation = &domain.GeoPoint{LatLng: pos, At: now}
	o.UpdatedAt = now
	done := progress >= 1
	if done {
		o.Status = domain.StatusDelivered
		o.TrackingStatus = domain.StatusDelivered.TrackingMessage()
	}

	ok, err := s.repo.Update(ctx, o)
	if err != nil {
		s.logger.Warn("simulation tick: save order failed", logx.OrderID(id), logx.Err(err))
		return
	}
	if !ok {
		s.sim.Finish(id, gen)
		return
	}
	s.metrics.SimulationTick()

	if done {
		s.sim.Finish(id, gen)
		s.metrics.OrderFinalized(reasonSimulation)
		s.logger.Info("order delivered",
			logx.String("event", "order_delivered"),
			logx.OrderID(id),
		)
	} else {
		s.logger.Debug("rider moved",
			logx.OrderID(id),
			logx.Float64("progress", progress),
			logx.Float64("lat", pos.Lat),
			logx.Float64("lng", pos.Lng),
		)
	}
	s.hub.Publish(o)
}

func (s *Service) load(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

func (s *Service) save(ctx context.Context, o *domain.Order) error {
	ok, err := s.repo.Update(ctx, o)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

func validateID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperr.ErrInvalid
	}
	return id, nil
}

func validateRider(r *domain.Rider) error {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.ID == "" || r.Name == "" {
		return apperr.ErrInvalid
	}
	if r.Phone != "" && !domain.ValidatePhone(r.Phone) {
		return apperr.ErrInvalid
	}
	return nil
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// normalizeCreate validates the checkout input and fills the currency and
// the total when they are omitted.
func normalizeCreate(in domain.CreateOrderInput) (domain.CreateOrderInput, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	if in.UserID == "" || in.ShippingAddress == "" {
		return in, apperr.ErrInvalid
	}

	for _, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			return in, apperr.ErrInvalid
		}
	}

	if in.Total.IsNegative() {
		return in, apperr.ErrInvalid
	}
	if in.Total.IsZero() {
		in.Total = lo.Reduce(in.Items, func(acc decimal.Decimal, it domain.OrderItem, _ int) decimal.Decimal {
			return acc.Add(it.Subtotal())
		}, decimal.Zero)
	}

	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	unit, err := currency.ParseISO(in.Currency)
	if err != nil {
		return in, apperr.ErrInvalid
	}
	in.Currency = unit.String()

	return in, nil
}

// newTrackingNumber derives a short tracking number from a random id.
func newTrackingNumber(seed string) string {
	hex := strings.ToUpper(strings.ReplaceAll(seed, "-", ""))
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return "TRK-" + hex
}
