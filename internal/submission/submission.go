// Package submission validates the envelope of an API-definition submission before it is compiled.
package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/celerix-dev/celerix-apiforge/internal/compiler"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// Submission is a validated request body.
type Submission struct {
	UserID string          `json:"userId" validate:"required"`
	Name   string          `json:"name" validate:"required"`
	Data   json.RawMessage `json:"data" validate:"required"`
	API    string          `json:"api" validate:"required"`
}

// ValidationError lists every violated field of a rejected submission.
type ValidationError struct {
	Violations []schema.Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + " " + v.Message
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// fieldOrder fixes the order in which violations are reported.
var fieldOrder = []string{"userId", "name", "data", "api"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate decodes body and checks the submission envelope. The content of data is not inspected.
func Validate(body []byte) (Submission, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return Submission{}, &ValidationError{Violations: []schema.Violation{
			{Field: "body", Message: "must be a JSON object"},
		}}
	}

	var sub Submission
	problems := make(map[string]string)

	decodeString(raw, "userId", &sub.UserID, problems)
	decodeString(raw, "name", &sub.Name, problems)
	decodeString(raw, "api", &sub.API, problems)

	if data, ok := present(raw, "data"); ok {
		if data[0] == '{' {
			sub.Data = data
		} else {
			problems["data"] = "must be an object"
		}
	}

	if err := validate.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Submission{}, err
		}
		for _, fe := range fieldErrs {
			if _, seen := problems[fe.Field()]; seen {
				continue
			}
			problems[fe.Field()] = "is required"
		}
	}

	if len(problems) > 0 {
		violations := make([]schema.Violation, 0, len(problems))
		for _, field := range fieldOrder {
			if msg, ok := problems[field]; ok {
				violations = append(violations, schema.Violation{Field: field, Message: msg})
			}
		}
		return Submission{}, &ValidationError{Violations: violations}
	}
	return sub, nil
}

// present returns the trimmed raw value of key unless it is absent or null.
func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

func decodeString(raw map[string]json.RawMessage, key string, dst *string, problems map[string]string) {
	v, ok := present(raw, key)
	if !ok {
		return
	}
	if err := json.Unmarshal(v, dst); err != nil {
		problems[key] = "must be a string"
	}
}

// Tree extracts the field tree submitted under data.data, along with its bytes as submitted.
func (s Submission) Tree() (schema.FieldNode, json.RawMessage, error) {
	var data struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(s.Data, &data); err != nil {
		return schema.FieldNode{}, nil, malformedTree(err)
	}
	raw := bytes.TrimSpace(data.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return schema.FieldNode{}, nil, &compiler.CompilationError{Path: "data.data", Reason: "field tree is missing"}
	}

	var tree schema.FieldNode
	if err := json.Unmarshal(raw, &tree); err != nil {
		return schema.FieldNode{}, nil, malformedTree(err)
	}
	return tree, append(json.RawMessage(nil), raw...), nil
}

func malformedTree(err error) error {
	return &compiler.CompilationError{
		Path:   "data.data",
		Reason: "field tree is malformed: " + err.Error(),
		Err:    err,
	}
}
