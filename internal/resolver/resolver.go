// Package resolver translates stable file IDs into time-bounded delivery URLs.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/filestreamhq/filestream/internal/registry"
)

// ErrUpstreamUnavailable means the record exists but the transport could not
// produce a delivery URL for it right now (e.g. the stored token was
// invalidated). Distinct from registry.ErrNotFound: this is transient, not
// evidence of deletion.
var ErrUpstreamUnavailable = errors.New("upstream file lookup unavailable")

// RecordSource looks up file records by stable ID.
type RecordSource interface {
	Get(ctx context.Context, stableID string) (registry.FileRecord, error)
}

// FileLocator asks the transport for the current location of a file.
// The returned URL is short-lived; mimeHint may be empty.
type FileLocator interface {
	FileURL(ctx context.Context, deliveryToken string) (url, mimeHint string, err error)
}

// Delivery is the result of a successful resolution: a fully qualified,
// time-bounded URL plus presentation metadata.
type Delivery struct {
	URL      string
	MIMEType string
	Title    string
	Caption  string
}

// Service resolves stable IDs on demand. Delivery URLs expire upstream, so
// resolution is recomputed on every request and never cached or written back.
type Service struct {
	records RecordSource
	locator FileLocator
	logger  *slog.Logger
}

// NewService creates the resolver service.
func NewService(log *slog.Logger, records RecordSource, locator FileLocator) *Service {
	return &Service{
		records: records,
		locator: locator,
		logger:  log.With(slog.String("service", "resolver")),
	}
}

// Resolve looks up the record for stableID and asks the transport for a live
// delivery URL using the record's current delivery token. Returns
// registry.ErrNotFound when no record exists and ErrUpstreamUnavailable when
// the transport lookup fails. The record is never mutated.
func (s *Service) Resolve(ctx context.Context, stableID string) (Delivery, error) {
	record, err := s.records.Get(ctx, stableID)
	if err != nil {
		return Delivery{}, err
	}

	url, mimeHint, err := s.locator.FileURL(ctx, record.DeliveryToken)
	if err != nil {
		s.logger.Warn("upstream lookup failed",
			slog.String("stable_id", stableID),
			slog.Any("error", err),
		)
		return Delivery{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	mime := mimeHint
	if mime == "" {
		mime = record.MIMEType
	}
	return Delivery{
		URL:      url,
		MIMEType: mime,
		Title:    record.DisplayName,
		Caption:  record.Caption,
	}, nil
}
