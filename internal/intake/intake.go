// Package intake turns inbound upload events into registered files and
// public watch links.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/filestreamhq/filestream/internal/registry"
)

// Upload is a content descriptor extracted from an inbound upload event.
type Upload struct {
	StableID      string
	DeliveryToken string
	DisplayName   string
	MIMEType      string
	SizeBytes     int64
	Caption       string
	OwnerID       int64
	OwnerName     string
}

// Result is a successful registration: the stable ID and the public link
// derived from it.
type Result struct {
	StableID string
	Link     string
}

// Putter writes file records through the registry.
type Putter interface {
	Put(ctx context.Context, params registry.PutParams) (string, error)
}

// Notifier receives a best-effort copy of each registration for auditing.
type Notifier interface {
	NotifyUpload(ctx context.Context, upload Upload, link string) error
}

// Service registers uploads. A failed store write fails the registration and
// must be surfaced to the uploader; the audit fan-out is best-effort and its
// failure never rolls back or blocks the registration.
type Service struct {
	files    Putter
	notifier Notifier
	baseURL  string
	logger   *slog.Logger
}

// NewService creates the intake service. notifier may be nil to disable the
// audit fan-out.
func NewService(log *slog.Logger, files Putter, notifier Notifier, baseURL string) *Service {
	return &Service{
		files:    files,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   log.With(slog.String("service", "intake")),
	}
}

// Register writes the upload through the registry and returns the public
// link. Re-uploads of the same content yield the same link.
func (s *Service) Register(ctx context.Context, upload Upload) (Result, error) {
	stableID, err := s.files.Put(ctx, registry.PutParams{
		StableID:      upload.StableID,
		DeliveryToken: upload.DeliveryToken,
		DisplayName:   upload.DisplayName,
		MIMEType:      upload.MIMEType,
		SizeBytes:     upload.SizeBytes,
		Caption:       upload.Caption,
		OwnerID:       upload.OwnerID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("register upload: %w", err)
	}

	result := Result{
		StableID: stableID,
		Link:     s.baseURL + "/watch/" + stableID,
	}
	s.logger.Info("upload registered",
		slog.String("stable_id", stableID),
		slog.Int64("owner_id", upload.OwnerID),
		slog.String("name", upload.DisplayName),
	)

	if s.notifier != nil {
		// Fan-out must never delay the registration response; it runs
		// detached from the request's cancellation.
		go s.forwardAudit(context.WithoutCancel(ctx), upload, result.Link)
	}
	return result, nil
}

func (s *Service) forwardAudit(ctx context.Context, upload Upload, link string) {
	if err := s.notifier.NotifyUpload(ctx, upload, link); err != nil {
		s.logger.Warn("audit notify failed",
			slog.String("stable_id", upload.StableID),
			slog.Any("error", err),
		)
	}
}
