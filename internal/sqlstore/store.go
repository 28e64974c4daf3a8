// Package sqlstore implements the record store on top of database/sql for PostgreSQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/internal/log"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// Driver names registered by the imported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is a RecordStore persisting one row per (user id, api name).
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ engine.RecordStore = (*Store)(nil)

// New wraps an open database. The table must already exist; see Bootstrap.
func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: log.Component(logger, "SQLStore")}
}

// Open connects to the database, verifies the connection and creates the table if missing.
func Open(ctx context.Context, driverName, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}

	s := New(db, logger)
	if err := s.Bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Debug("SQL store ready", zap.String("driver", driverName))
	return s, nil
}

// Bootstrap creates the USER_APIS table if it does not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, queryCreateTable.Query); err != nil {
		return queryError(queryCreateTable, err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, apiName string, rec schema.UserAPIRecord) error {
	if err := engine.CheckRecord(apiName, rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryUpsertRecord.Query,
		rec.UserID, apiName, rec.Name, string(payload), rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return queryError(queryUpsertRecord, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, apiName string) (schema.UserAPIRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, queryGetRecord.Query, userID, apiName).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.UserAPIRecord{}, s.missing(ctx, userID)
	}
	if err != nil {
		return schema.UserAPIRecord{}, queryError(queryGetRecord, err)
	}

	var rec schema.UserAPIRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return schema.UserAPIRecord{}, fmt.Errorf("failed to decode record of user %s: %w", userID, err)
	}
	return rec, nil
}

func (s *Store) GetResource(ctx context.Context, userID, apiName, resource string) (schema.ResourceSchema, error) {
	rec, err := s.Get(ctx, userID, apiName)
	if err != nil {
		return schema.ResourceSchema{}, err
	}
	return engine.ResourceOf(rec, apiName, resource)
}

func (s *Store) Delete(ctx context.Context, userID, apiName string) error {
	res, err := s.db.ExecContext(ctx, queryDeleteRecord.Query, userID, apiName)
	if err != nil {
		return queryError(queryDeleteRecord, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return queryError(queryDeleteRecord, err)
	}
	if n == 0 {
		return s.missing(ctx, userID)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	return s.strings(ctx, queryListUsers)
}

func (s *Store) ListAPIs(ctx context.Context, userID string) ([]string, error) {
	apis, err := s.strings(ctx, queryListAPIs, userID)
	if err != nil {
		return nil, err
	}
	if len(apis) == 0 {
		return nil, engine.ErrUserNotFound
	}
	return apis, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// missing tells an unknown user apart from an unknown api of a known user.
func (s *Store) missing(ctx context.Context, userID string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountUserRecords.Query, userID).Scan(&count); err != nil {
		return queryError(queryCountUserRecords, err)
	}
	if count == 0 {
		return engine.ErrUserNotFound
	}
	return engine.ErrAPINotFound
}

func (s *Store) strings(ctx context.Context, q DBQuery, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q.Query, args...)
	if err != nil {
		return nil, queryError(q, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("Failed to close rows", zap.String("query", q.ID), zap.Error(cerr))
		}
	}()

	list := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, queryError(q, err)
		}
		list = append(list, v)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(q, err)
	}
	return list, nil
}

func queryError(q DBQuery, err error) error {
	return fmt.Errorf("query %s failed: %w", q.ID, err)
}
