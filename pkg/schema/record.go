// Package schema defines the data shapes shared by the apiforge daemon, its SDK and client applications.
package schema

import (
	"encoding/json"
	"time"
)

// ResourceSchema is the compiled schema of one resource, stored independently of its siblings.
// MockAPIData holds optional sample payloads for the resource.
type ResourceSchema struct {
	Schema      Descriptor      `json:"schema"`
	MockAPIData json.RawMessage `json:"mockApiData,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CompiledAPI holds one named API: the tree as submitted plus its flattened resources.
// OpenAPI is carried through unchanged when present.
type CompiledAPI struct {
	Name      string                    `json:"name"`
	RawSchema json.RawMessage           `json:"rawSchema"`
	Resources map[string]ResourceSchema `json:"resources"`
	OpenAPI   json.RawMessage           `json:"openAPI,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// UserAPIRecord is the persisted unit. It is owned by one user and keyed by (UserID, API name).
type UserAPIRecord struct {
	UserID    string                 `json:"userId"`
	Name      string                 `json:"name"`
	API       map[string]CompiledAPI `json:"api"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Resource looks up a resource schema inside the named API.
func (r UserAPIRecord) Resource(apiName, resource string) (ResourceSchema, bool) {
	api, ok := r.API[apiName]
	if !ok {
		return ResourceSchema{}, false
	}
	rs, ok := api.Resources[resource]
	return rs, ok
}

// Violation names one offending input field or field-tree node.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the uniform response body of the submission endpoint.
type Envelope struct {
	Status     bool           `json:"status"`
	Code       int            `json:"code"`
	DBResponse *UserAPIRecord `json:"dbResponse,omitempty"`
	Error      []Violation    `json:"error,omitempty"`
	Message    string         `json:"message,omitempty"`
}
