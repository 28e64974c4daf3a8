package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

var recordTime = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func sampleRecord(userID, apiName, name string) schema.UserAPIRecord {
	return schema.UserAPIRecord{
		UserID: userID,
		Name:   name,
		API: map[string]schema.CompiledAPI{
			apiName: {
				Name:      apiName,
				RawSchema: json.RawMessage(`{"name":"` + apiName + `","type":"object","isArray":false,"children":[]}`),
				Resources: map[string]schema.ResourceSchema{
					"rs1": {
						Schema: schema.Object(schema.Fields{
							{Name: "id", Descriptor: schema.Scalar(schema.TypeNumber)},
						}),
						CreatedAt: recordTime,
						UpdatedAt: recordTime,
					},
				},
				CreatedAt: recordTime,
				UpdatedAt: recordTime,
			},
		},
		CreatedAt: recordTime,
		UpdatedAt: recordTime,
	}
}

type StoreTestSuite struct {
	suite.Suite
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
	store  *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	var err error
	suite.mockDB, suite.mock, err = sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.store = New(suite.mockDB, nil)
}

func (suite *StoreTestSuite) TearDownTest() {
	if err := suite.mock.ExpectationsWereMet(); err != nil {
		suite.T().Fatalf("There were unfulfilled expectations: %v", err)
	}
}

func (suite *StoreTestSuite) TestBootstrap() {
	suite.mock.ExpectExec(queryCreateTable.Query).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(suite.T(), suite.store.Bootstrap(context.Background()))
}

func (suite *StoreTestSuite) TestSaveUpserts() {
	rec := sampleRecord("u1", "a1", "n1")
	suite.mock.ExpectExec(queryUpsertRecord.Query).
		WithArgs("u1", "a1", "n1", sqlmock.AnyArg(), "2026-10-19T08:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(suite.T(), suite.store.Save(context.Background(), "a1", rec))
}

func (suite *StoreTestSuite) TestSaveRejectsUnkeyedRecord() {
	rec := sampleRecord("", "a1", "n1")
	assert.ErrorIs(suite.T(), suite.store.Save(context.Background(), "a1", rec), engine.ErrInvalidRecord)

	rec = sampleRecord("u1", "a1", "n1")
	assert.ErrorIs(suite.T(), suite.store.Save(context.Background(), "other", rec), engine.ErrInvalidRecord)
}

func (suite *StoreTestSuite) TestSaveDatabaseError() {
	suite.mock.ExpectExec(queryUpsertRecord.Query).WillReturnError(errors.New("disk full"))

	err := suite.store.Save(context.Background(), "a1", sampleRecord("u1", "a1", "n1"))
	assert.ErrorContains(suite.T(), err, queryUpsertRecord.ID)
	assert.ErrorContains(suite.T(), err, "disk full")
}

func (suite *StoreTestSuite) TestGet() {
	rec := sampleRecord("u1", "a1", "n1")
	payload, err := json.Marshal(rec)
	suite.Require().NoError(err)

	suite.mock.ExpectQuery(queryGetRecord.Query).
		WithArgs("u1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"RECORD"}).AddRow(string(payload)))

	got, err := suite.store.Get(context.Background(), "u1", "a1")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "n1", got.Name)
	assert.Equal(suite.T(), recordTime, got.CreatedAt)
	out, err := json.Marshal(got)
	suite.Require().NoError(err)
	assert.JSONEq(suite.T(), string(payload), string(out))
}

func (suite *StoreTestSuite) TestGetUnknownUser() {
	suite.mock.ExpectQuery(queryGetRecord.Query).
		WithArgs("ghost", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"RECORD"}))
	suite.mock.ExpectQuery(queryCountUserRecords.Query).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(0))

	_, err := suite.store.Get(context.Background(), "ghost", "a1")
	assert.ErrorIs(suite.T(), err, engine.ErrUserNotFound)
}

func (suite *StoreTestSuite) TestGetUnknownAPI() {
	suite.mock.ExpectQuery(queryGetRecord.Query).
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"RECORD"}))
	suite.mock.ExpectQuery(queryCountUserRecords.Query).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(2))

	_, err := suite.store.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(suite.T(), err, engine.ErrAPINotFound)
}

func (suite *StoreTestSuite) TestGetCorruptRecord() {
	suite.mock.ExpectQuery(queryGetRecord.Query).
		WithArgs("u1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"RECORD"}).AddRow("{not json"))

	_, err := suite.store.Get(context.Background(), "u1", "a1")
	assert.ErrorContains(suite.T(), err, "failed to decode record")
}

func (suite *StoreTestSuite) TestDelete() {
	suite.mock.ExpectExec(queryDeleteRecord.Query).
		WithArgs("u1", "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(suite.T(), suite.store.Delete(context.Background(), "u1", "a1"))
}

func (suite *StoreTestSuite) TestDeleteUnknownAPI() {
	suite.mock.ExpectExec(queryDeleteRecord.Query).
		WithArgs("u1", "a9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	suite.mock.ExpectQuery(queryCountUserRecords.Query).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT"}).AddRow(1))

	assert.ErrorIs(suite.T(), suite.store.Delete(context.Background(), "u1", "a9"), engine.ErrAPINotFound)
}

func (suite *StoreTestSuite) TestListUsers() {
	suite.mock.ExpectQuery(queryListUsers.Query).
		WillReturnRows(sqlmock.NewRows([]string{"USER_ID"}).AddRow("u1").AddRow("u2"))

	users, err := suite.store.ListUsers(context.Background())
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"u1", "u2"}, users)
}

func (suite *StoreTestSuite) TestListUsersEmpty() {
	suite.mock.ExpectQuery(queryListUsers.Query).WillReturnRows(sqlmock.NewRows([]string{"USER_ID"}))

	users, err := suite.store.ListUsers(context.Background())
	suite.Require().NoError(err)
	assert.NotNil(suite.T(), users)
	assert.Empty(suite.T(), users)
}

func (suite *StoreTestSuite) TestListAPIs() {
	suite.mock.ExpectQuery(queryListAPIs.Query).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"API_NAME"}).AddRow("a1").AddRow("a2"))

	apis, err := suite.store.ListAPIs(context.Background(), "u1")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"a1", "a2"}, apis)
}

func (suite *StoreTestSuite) TestListAPIsUnknownUser() {
	suite.mock.ExpectQuery(queryListAPIs.Query).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"API_NAME"}))

	_, err := suite.store.ListAPIs(context.Background(), "ghost")
	assert.ErrorIs(suite.T(), err, engine.ErrUserNotFound)
}

func (suite *StoreTestSuite) TestListAPIsQueryError() {
	suite.mock.ExpectQuery(queryListAPIs.Query).
		WithArgs("u1").
		WillReturnError(errors.New("connection refused"))

	_, err := suite.store.ListAPIs(context.Background(), "u1")
	assert.ErrorContains(suite.T(), err, queryListAPIs.ID)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "apis.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "a1", sampleRecord("u1", "a1", "first")))
	require.NoError(t, store.Save(ctx, "a2", sampleRecord("u1", "a2", "second")))
	require.NoError(t, store.Save(ctx, "a1", sampleRecord("u2", "a1", "other user")))

	// Resubmission replaces the row.
	require.NoError(t, store.Save(ctx, "a1", sampleRecord("u1", "a1", "replaced")))

	rec, err := store.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "replaced", rec.Name)

	rs, err := store.GetResource(ctx, "u1", "a1", "rs1")
	require.NoError(t, err)
	out, err := json.Marshal(rs.Schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":{"type":"number"}}`, string(out))

	_, err = store.GetResource(ctx, "u1", "a1", "missing")
	assert.ErrorIs(t, err, engine.ErrResourceNotFound)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)

	apis, err := store.ListAPIs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, apis)

	require.NoError(t, store.Delete(ctx, "u1", "a2"))
	assert.ErrorIs(t, store.Delete(ctx, "u1", "a2"), engine.ErrAPINotFound)
	assert.ErrorIs(t, store.Delete(ctx, "nobody", "a2"), engine.ErrUserNotFound)

	_, err = store.Get(ctx, "u1", "a2")
	assert.ErrorIs(t, err, engine.ErrAPINotFound)
}

func TestMigrateMemoryToSQLite(t *testing.T) {
	ctx := context.Background()
	src := engine.NewMemStore(nil, nil, nil)
	require.NoError(t, src.Save(ctx, "a1", sampleRecord("u1", "a1", "n1")))
	require.NoError(t, src.Save(ctx, "a2", sampleRecord("u2", "a2", "n2")))

	dst, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "migrated.db"), nil)
	require.NoError(t, err)
	defer dst.Close()

	n, err := engine.Migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := dst.Get(ctx, "u2", "a2")
	require.NoError(t, err)
	assert.Equal(t, "n2", rec.Name)
}

func TestSQLiteStoreKeepsRecordExtras(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "extras.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	rec := sampleRecord("u1", "a1", "n1")
	api := rec.API["a1"]
	api.OpenAPI = json.RawMessage(`{"openapi":"3.0.0","info":{"title":"a1"}}`)
	rs := api.Resources["rs1"]
	rs.MockAPIData = json.RawMessage(`[{"id":1},{"id":2}]`)
	api.Resources["rs1"] = rs
	rec.API["a1"] = api
	require.NoError(t, store.Save(ctx, "a1", rec))

	got, err := store.Get(ctx, "u1", "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"openapi":"3.0.0","info":{"title":"a1"}}`, string(got.API["a1"].OpenAPI))
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(got.API["a1"].Resources["rs1"].MockAPIData))

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"openAPI":`)
	assert.Contains(t, string(out), `"mockApiData":`)
}
