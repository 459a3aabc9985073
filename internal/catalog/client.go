// Package catalog reads event capacity and pricing from the external event
// catalog service. This service does not own event metadata; it only needs
// totalTickets, unitPrice and status to seed inventory and price payments.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Event struct {
	ID           string          `json:"event_id"`
	Title        string          `json:"title"`
	TotalTickets int64           `json:"total_tickets"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Status       string          `json:"status"`
}

type Catalog interface {
	GetEvent(ctx context.Context, eventID string) (*Event, error)
}

var ErrEventNotFound = fmt.Errorf("event not found in catalog")

type httpCatalog struct {
	baseURL string
	cli     *http.Client
	l       logger.Logger
}

func NewHTTPCatalog(cfg config.CatalogConfig, l logger.Logger) Catalog {
	return &httpCatalog{
		baseURL: cfg.Addr,
		cli: &http.Client{
			Timeout: cfg.Timeout,
		},
		l: l,
	}
}

func (c *httpCatalog) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	url := fmt.Sprintf("%s/api/v1/events/%s", c.baseURL, eventID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	start := time.Now()
	resp, err := c.cli.Do(req)
	if err != nil {
		c.l.Errorf(ctx, "catalog.httpCatalog.GetEvent: %v", err)
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrEventNotFound
	}

	if resp.StatusCode != http.StatusOK {
		c.l.Errorf(ctx, "catalog.httpCatalog.GetEvent: unexpected status %d", resp.StatusCode)
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var ev Event
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		c.l.Errorf(ctx, "catalog.httpCatalog.GetEvent: %v", err)
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	c.l.Debugf(ctx, "Catalog event fetched",
		"event_id", eventID,
		"total_tickets", ev.TotalTickets,
		"duration", time.Since(start),
	)

	return &ev, nil
}
