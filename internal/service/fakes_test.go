package service

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/catalog"
	kafkaEvents "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/provider"
	repository "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
)

// In-memory doubles for the Redis repositories. They reproduce the repository
// contracts, including CAS semantics and idempotent hold settlement, so the
// services can be tested without a Redis instance.

type fakeInventoryRepo struct {
	mu          sync.Mutex
	inventories map[string]*models.Inventory
	holds       map[string]*models.Hold

	failRelease error
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		inventories: map[string]*models.Inventory{},
		holds:       map[string]*models.Hold{},
	}
}

func (f *fakeInventoryRepo) Seed(ctx context.Context, eventID string, total int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.inventories[eventID]; !ok {
		f.inventories[eventID] = &models.Inventory{EventID: eventID, Total: total}
	}
	return nil
}

func (f *fakeInventoryRepo) Reserve(ctx context.Context, eventID, token string, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.inventories[eventID]
	if !ok {
		return repository.ErrInventoryNotFound
	}

	if inv.Sold+inv.Held+quantity > inv.Total {
		return repository.ErrInsufficientInventory
	}

	inv.Held += quantity
	f.holds[token] = &models.Hold{
		Token:    token,
		EventID:  eventID,
		Quantity: quantity,
		State:    models.HoldStateHeld,
	}
	return nil
}

func (f *fakeInventoryRepo) Commit(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.holds[token]
	if !ok {
		return repository.ErrHoldNotFound
	}

	switch h.State {
	case models.HoldStateCommitted:
		return nil
	case models.HoldStateReleased:
		return repository.ErrHoldConflict
	}

	inv := f.inventories[h.EventID]
	inv.Held -= h.Quantity
	inv.Sold += h.Quantity
	h.State = models.HoldStateCommitted
	return nil
}

func (f *fakeInventoryRepo) Release(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failRelease != nil {
		return f.failRelease
	}

	h, ok := f.holds[token]
	if !ok {
		return repository.ErrHoldNotFound
	}

	switch h.State {
	case models.HoldStateReleased:
		return nil
	case models.HoldStateCommitted:
		return repository.ErrHoldConflict
	}

	inv := f.inventories[h.EventID]
	inv.Held -= h.Quantity
	h.State = models.HoldStateReleased
	return nil
}

func (f *fakeInventoryRepo) Snapshot(ctx context.Context, eventID string) (*models.Inventory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.inventories[eventID]
	if !ok {
		return nil, repository.ErrInventoryNotFound
	}

	cp := *inv
	return &cp, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	pending  map[string]time.Time

	failCreate error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: map[string]*models.Booking{},
		pending:  map[string]time.Time{},
	}
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	if f.failCreate != nil {
		return f.failCreate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *b
	f.bookings[b.ID] = &cp
	f.pending[b.ID] = b.HoldExpiry
	return nil
}

func (f *fakeBookingRepo) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}

	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) CompareAndSetStatus(ctx context.Context, bookingID string, from, to models.BookingStatus) (bool, error) {
	if !models.CanTransition(from, to) {
		return false, repository.ErrTransitionNotAllowed
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[bookingID]
	if !ok {
		return false, repository.ErrBookingNotFound
	}

	if b.Status != from {
		return false, nil
	}

	b.Status = to
	b.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeBookingRepo) RemovePending(ctx context.Context, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.pending, bookingID)
	return nil
}

func (f *fakeBookingRepo) SetPayment(ctx context.Context, bookingID, paymentID string, status models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}

	b.PaymentID = paymentID
	b.PaymentStatus = status
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) DuePending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var due []string
	for id, expiry := range f.pending {
		if !expiry.After(now) {
			due = append(due, id)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[string]*models.Payment
	byBooking map[string]string
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{
		payments:  map[string]*models.Payment{},
		byBooking: map[string]string{},
	}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id, ok := f.byBooking[p.BookingID]; ok {
		if cur := f.payments[id]; cur.Status == models.PaymentStatusPending || cur.Status == models.PaymentStatusSuccess {
			return repository.ErrPaymentActive
		}
	}

	cp := *p
	f.payments[p.ID] = &cp
	f.byBooking[p.BookingID] = p.ID
	return nil
}

func (f *fakePaymentRepo) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[paymentID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	f.mu.Lock()
	id, ok := f.byBooking[bookingID]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}

	return f.Get(ctx, id)
}

func (f *fakePaymentRepo) CompareAndSetStatus(ctx context.Context, paymentID string, from, to models.PaymentStatus, providerPaymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[paymentID]
	if !ok {
		return false, repository.ErrPaymentNotFound
	}

	if p.Status != from {
		return false, nil
	}

	p.Status = to
	if providerPaymentID != "" {
		p.ProviderPaymentID = providerPaymentID
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

type fakeCatalog struct {
	events map[string]*catalog.Event
}

func (f *fakeCatalog) GetEvent(ctx context.Context, eventID string) (*catalog.Event, error) {
	ev, ok := f.events[eventID]
	if !ok {
		return nil, catalog.ErrEventNotFound
	}

	cp := *ev
	return &cp, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	accept   bool
	err      error
	requests []provider.InitiateRequest
}

func (f *fakeProvider) Initiate(ctx context.Context, req provider.InitiateRequest) (*provider.InitiateResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &provider.InitiateResponse{Accepted: f.accept, ProviderID: "prov-" + req.PaymentID}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// recordingProducer counts published events per topic.
type recordingProducer struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingProducer() *recordingProducer {
	return &recordingProducer{counts: map[string]int{}}
}

func (p *recordingProducer) record(topic string) {
	p.mu.Lock()
	p.counts[topic]++
	p.mu.Unlock()
}

func (p *recordingProducer) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[topic]
}

func (p *recordingProducer) PublishBookingCreated(ctx context.Context, event kafkaEvents.BookingCreatedEvent) error {
	p.record(kafkaEvents.TopicBookingCreated)
	return nil
}

func (p *recordingProducer) PublishBookingConfirmed(ctx context.Context, event kafkaEvents.BookingConfirmedEvent) error {
	p.record(kafkaEvents.TopicBookingConfirmed)
	return nil
}

func (p *recordingProducer) PublishBookingCancelled(ctx context.Context, event kafkaEvents.BookingClosedEvent) error {
	p.record(kafkaEvents.TopicBookingCancelled)
	return nil
}

func (p *recordingProducer) PublishBookingExpired(ctx context.Context, event kafkaEvents.BookingClosedEvent) error {
	p.record(kafkaEvents.TopicBookingExpired)
	return nil
}

func (p *recordingProducer) PublishPaymentSucceeded(ctx context.Context, event kafkaEvents.PaymentSettledEvent) error {
	p.record(kafkaEvents.TopicPaymentSucceeded)
	return nil
}

func (p *recordingProducer) PublishPaymentFailed(ctx context.Context, event kafkaEvents.PaymentSettledEvent) error {
	p.record(kafkaEvents.TopicPaymentFailed)
	return nil
}

func (p *recordingProducer) Close() error { return nil }
