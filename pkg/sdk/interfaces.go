package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// ErrNotFound is matched by an APIError carrying a 404.
var ErrNotFound = errors.New("not found")

// --- Functional Interfaces ---

// Submitter sends API definitions to the daemon.
type Submitter interface {
	CreateUserAPI(ctx context.Context, sub Submission) (schema.Envelope, error)
}

// Reader fetches stored API definitions.
type Reader interface {
	GetUserAPI(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error)
	ListUserAPIs(ctx context.Context, userID string) ([]string, error)
	GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error)
}

// Deleter removes stored API definitions.
type Deleter interface {
	DeleteUserAPI(ctx context.Context, userID, apiName string) error
}

// Forge is the complete client surface of the apiforge daemon.
type Forge interface {
	Submitter
	Reader
	Deleter
}

// Submission is one API definition as sent to POST /api/saveapi.
type Submission struct {
	UserID string
	Name   string
	API    string
	Tree   schema.FieldNode
}

// MarshalJSON nests the tree under data.data as the daemon expects.
func (s Submission) MarshalJSON() ([]byte, error) {
	type data struct {
		Data schema.FieldNode `json:"data"`
	}
	return json.Marshal(struct {
		UserID string `json:"userId"`
		Name   string `json:"name"`
		API    string `json:"api"`
		Data   data   `json:"data"`
	}{s.UserID, s.Name, s.API, data{s.Tree}})
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Violations []schema.Violation
}

func (e *APIError) Error() string {
	if len(e.Violations) > 0 {
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.Field + " " + v.Message
		}
		return fmt.Sprintf("apiforge: status %d: %s", e.StatusCode, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("apiforge: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}
