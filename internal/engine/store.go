// Package engine defines the record store contract and its in-memory, file-backed implementation.
package engine

import (
	"context"
	"errors"

	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

var (
	// ErrUserNotFound is returned when a user has no stored APIs.
	ErrUserNotFound = errors.New("user not found")
	// ErrAPINotFound is returned when a requested API does not exist for a user.
	ErrAPINotFound = errors.New("api not found")
	// ErrResourceNotFound is returned when a requested resource does not exist within an API.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidRecord is returned when a record cannot be keyed by (user id, api name).
	ErrInvalidRecord = errors.New("record must carry a user id and the api it is saved under")
)

// --- Functional Interfaces ---

// RecordReader reads stored records.
type RecordReader interface {
	Get(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error)
	GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error)
}

// RecordWriter upserts and removes records. Save is last-writer-wins per (user id, api name).
type RecordWriter interface {
	Save(ctx context.Context, apiName string, rec schema.UserAPIRecord) error
	Delete(ctx context.Context, userID, apiName string) error
}

// Enumerator lists users and their APIs.
type Enumerator interface {
	ListUsers(ctx context.Context) ([]string, error)
	ListAPIs(ctx context.Context, userID string) ([]string, error)
}

// RecordStore is the persistence collaborator of the submission service.
// Saved records are treated as immutable values.
type RecordStore interface {
	RecordReader
	RecordWriter
	Enumerator

	// Close flushes pending writes and releases the backend.
	Close() error
}

// CheckRecord verifies that rec can be stored under apiName.
func CheckRecord(apiName string, rec schema.UserAPIRecord) error {
	if rec.UserID == "" || apiName == "" {
		return ErrInvalidRecord
	}
	if _, ok := rec.API[apiName]; !ok {
		return ErrInvalidRecord
	}
	return nil
}

// ResourceOf extracts a resource from a record fetched for apiName.
func ResourceOf(rec schema.UserAPIRecord, apiName, resource string) (schema.ResourceSchema, error) {
	rs, ok := rec.Resource(apiName, resource)
	if !ok {
		return schema.ResourceSchema{}, ErrResourceNotFound
	}
	return rs, nil
}
