// Package service is the entry point that turns a submitted API definition into a stored,
// per-resource schema record.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/compiler"
	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/internal/log"
	"github.com/celerix-dev/celerix-apiforge/internal/submission"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// FailureMessage is returned to callers for every unexpected failure; details are only logged.
const FailureMessage = "CreateUserAPI has failed"

// UserAPIService validates, compiles and stores API definitions.
type UserAPIService struct {
	store  engine.RecordStore
	logger *zap.Logger
	now    func() time.Time
}

// NewUserAPIService creates a service writing to store.
func NewUserAPIService(store engine.RecordStore, logger *zap.Logger) *UserAPIService {
	return &UserAPIService{
		store:  store,
		logger: log.Component(logger, "UserAPIService"),
		now:    time.Now,
	}
}

// CreateUserAPI handles one submission body and reports the outcome as an envelope.
// Nothing is stored unless the body validates and its field tree compiles.
func (s *UserAPIService) CreateUserAPI(ctx context.Context, body []byte) (env schema.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CreateUserAPI panicked", zap.Any("panic", r), zap.Stack("stack"))
			env = failure()
		}
	}()

	sub, err := submission.Validate(body)
	if err != nil {
		return s.rejected(err)
	}

	tree, rawSchema, err := sub.Tree()
	if err != nil {
		return s.rejected(err)
	}

	now := s.now().UTC()
	resources, err := compiler.CompileResourceSet(sub.API, tree, now)
	if err != nil {
		return s.rejected(err)
	}

	rec := schema.UserAPIRecord{
		UserID: sub.UserID,
		Name:   sub.Name,
		API: map[string]schema.CompiledAPI{
			sub.API: {
				Name:      sub.API,
				RawSchema: rawSchema,
				Resources: resources,
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Save(ctx, sub.API, rec); err != nil {
		s.logger.Error("Failed to save user api",
			zap.String("userId", sub.UserID),
			zap.String("api", sub.API),
			zap.Error(err))
		return failure()
	}

	s.logger.Info("User api saved",
		zap.String("userId", sub.UserID),
		zap.String("api", sub.API),
		zap.Int("resources", len(resources)))
	return schema.Envelope{Status: true, Code: http.StatusOK, DBResponse: &rec}
}

// rejected converts a validation or compilation error into a 400 envelope.
func (s *UserAPIService) rejected(err error) schema.Envelope {
	var verr *submission.ValidationError
	var cerr *compiler.CompilationError
	switch {
	case errors.As(err, &verr):
		s.logger.Debug("Submission rejected", zap.Error(err))
		return schema.Envelope{Code: http.StatusBadRequest, Error: verr.Violations}
	case errors.As(err, &cerr):
		s.logger.Debug("Field tree rejected", zap.Error(err))
		field := cerr.Path
		if field == "" {
			field = "data"
		}
		return schema.Envelope{Code: http.StatusBadRequest, Error: []schema.Violation{{Field: field, Message: cerr.Reason}}}
	default:
		s.logger.Error("Unexpected submission error", zap.Error(err))
		return failure()
	}
}

func failure() schema.Envelope {
	return schema.Envelope{Code: http.StatusInternalServerError, Message: FailureMessage}
}

// GetUserAPI returns the record stored for (userID, apiName).
func (s *UserAPIService) GetUserAPI(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error) {
	rec, err := s.store.Get(ctx, userID, apiName)
	if err != nil {
		return schema.UserAPIRecord{}, fmt.Errorf("get api %s of user %s: %w", apiName, userID, err)
	}
	return rec, nil
}

// ListUserAPIs returns the names of the APIs stored for userID.
func (s *UserAPIService) ListUserAPIs(ctx context.Context, userID string) ([]string, error) {
	names, err := s.store.ListAPIs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list apis of user %s: %w", userID, err)
	}
	return names, nil
}

// GetResource returns one compiled resource schema.
func (s *UserAPIService) GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error) {
	rs, err := s.store.GetResource(ctx, userID, apiName, resource)
	if err != nil {
		return schema.ResourceSchema{}, fmt.Errorf("get resource %s of api %s: %w", resource, apiName, err)
	}
	return rs, nil
}

// DeleteUserAPI removes the record stored for (userID, apiName).
func (s *UserAPIService) DeleteUserAPI(ctx context.Context, userID, apiName string) error {
	if err := s.store.Delete(ctx, userID, apiName); err != nil {
		return fmt.Errorf("delete api %s of user %s: %w", apiName, userID, err)
	}
	s.logger.Info("User api deleted", zap.String("userId", userID), zap.String("api", apiName))
	return nil
}
