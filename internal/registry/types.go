// Package registry owns the file metadata records and their persistence.
package registry

import (
	"errors"
	"time"
)

// Defaults applied at read time when the stored metadata is empty.
const (
	DefaultDisplayName = "Untitled"
	DefaultMIMEType    = "video/mp4"
)

// Sentinel errors returned by the registry.
var (
	// ErrNotFound means no record exists for the requested stable ID.
	ErrNotFound = errors.New("file not found")
	// ErrStoreUnavailable means the metadata store could not be reached.
	// Callers must not report success to the uploader when they see it.
	ErrStoreUnavailable = errors.New("metadata store unavailable")
)

// FileRecord is one physically distinct uploaded file.
// StableID is the transport's durable per-content identifier and the dedup key;
// DeliveryToken is the transport's current short-lived identifier and may be
// rotated without creating a new record.
type FileRecord struct {
	StableID      string    `json:"stable_id"`
	DeliveryToken string    `json:"delivery_token"`
	DisplayName   string    `json:"display_name"`
	MIMEType      string    `json:"mime_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Caption       string    `json:"caption"`
	OwnerID       int64     `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PutParams describes an upload to register. A second Put with the same
// StableID updates the existing record in place (upsert).
type PutParams struct {
	StableID      string
	DeliveryToken string
	DisplayName   string
	MIMEType      string
	SizeBytes     int64
	Caption       string
	OwnerID       int64
}
