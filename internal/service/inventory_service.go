package service

import (
	"context"
	"errors"

	"github.com/vogiaan1904/ticketbottle-booking/internal/catalog"
	"github.com/vogiaan1904/ticketbottle-booking/internal/monitoring"
	repository "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type InventoryService interface {
	// Reserve places a hold on quantity tickets for the event. The ledger is
	// seeded lazily from the catalog the first time an event is seen.
	Reserve(ctx context.Context, eventID, token string, quantity int64) error
	Commit(ctx context.Context, token string) error
	Release(ctx context.Context, token string) error
	Snapshot(ctx context.Context, eventID string) (*InventorySnapshotOutput, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
	ctlg catalog.Catalog
	l    logger.Logger
}

func NewInventoryService(repo repository.InventoryRepository, ctlg catalog.Catalog, l logger.Logger) InventoryService {
	return &inventoryService{
		repo: repo,
		ctlg: ctlg,
		l:    l,
	}
}

func (s *inventoryService) Reserve(ctx context.Context, eventID, token string, quantity int64) error {
	err := s.repo.Reserve(ctx, eventID, token, quantity)
	if errors.Is(err, repository.ErrInventoryNotFound) {
		if err = s.seed(ctx, eventID); err != nil {
			return err
		}
		err = s.repo.Reserve(ctx, eventID, token, quantity)
	}

	if err != nil {
		if errors.Is(err, repository.ErrInsufficientInventory) {
			return ErrSoldOut
		}
		s.l.Errorf(ctx, "inventoryService.Reserve: %v", err)
		return err
	}

	s.publishAvailable(ctx, eventID)
	return nil
}

func (s *inventoryService) Commit(ctx context.Context, token string) error {
	if err := s.repo.Commit(ctx, token); err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) || errors.Is(err, repository.ErrHoldConflict) {
			return ErrInvalidToken
		}
		s.l.Errorf(ctx, "inventoryService.Commit: %v", err)
		return err
	}

	return nil
}

func (s *inventoryService) Release(ctx context.Context, token string) error {
	if err := s.repo.Release(ctx, token); err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) || errors.Is(err, repository.ErrHoldConflict) {
			return ErrInvalidToken
		}
		s.l.Errorf(ctx, "inventoryService.Release: %v", err)
		return err
	}

	return nil
}

func (s *inventoryService) Snapshot(ctx context.Context, eventID string) (*InventorySnapshotOutput, error) {
	inv, err := s.repo.Snapshot(ctx, eventID)
	if errors.Is(err, repository.ErrInventoryNotFound) {
		if err = s.seed(ctx, eventID); err != nil {
			return nil, err
		}
		inv, err = s.repo.Snapshot(ctx, eventID)
	}
	if err != nil {
		s.l.Errorf(ctx, "inventoryService.Snapshot: %v", err)
		return nil, err
	}

	return &InventorySnapshotOutput{
		EventID:   inv.EventID,
		Total:     inv.Total,
		Sold:      inv.Sold,
		Held:      inv.Held,
		Available: inv.Available(),
	}, nil
}

// seed pulls the event's capacity from the catalog and initializes the
// ledger. Racing seeders are harmless: the repository keeps the first total.
func (s *inventoryService) seed(ctx context.Context, eventID string) error {
	ev, err := s.ctlg.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			return ErrEventNotFound
		}
		s.l.Errorf(ctx, "inventoryService.seed: %v", err)
		return err
	}

	return s.repo.Seed(ctx, eventID, ev.TotalTickets)
}

func (s *inventoryService) publishAvailable(ctx context.Context, eventID string) {
	inv, err := s.repo.Snapshot(ctx, eventID)
	if err != nil {
		return
	}
	monitoring.SetInventoryAvailable(eventID, inv.Available())
}
