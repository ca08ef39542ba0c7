package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Append(t *testing.T) {
	id := uuid.MustParse("8b7d1c52-2c0f-4c7e-9b3a-6a5f4e3d2c1b")
	createdAt := int64(1767225600000)

	newEvent := func(version int64) *v1.Event {
		return &v1.Event{
			AggregateID:   id,
			AggregateType: "project",
			Version:       version,
			Type:          "TASK_CREATED_EVENT",
			Payload:       json.RawMessage(`{"taskId":"t1"}`),
			CreatedAt:     createdAt,
		}
	}

	tests := []struct {
		name            string
		event           *v1.Event
		expectedVersion int64
		mockResult      func(mock sqlmock.Sqlmock, event *v1.Event)
		assertions      func(t *testing.T, event *v1.Event, version int64, err error)
	}{
		{
			name:            "success sets ingest seq",
			event:           newEvent(3),
			expectedVersion: 2,
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(queryAppendEvent)).
					WithArgs(id, "project", int64(3), "TASK_CREATED_EVENT", []byte(event.Payload), createdAt, int64(2)).
					WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}).AddRow(int64(42)))
			},
			assertions: func(t *testing.T, event *v1.Event, version int64, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(3), version)
				require.Equal(t, int64(42), event.IngestSeq)
			},
		},
		{
			name:            "guarded insert with no row maps to ErrVersionConflict",
			event:           newEvent(1),
			expectedVersion: 0,
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(queryAppendEvent)).
					WithArgs(id, "project", int64(1), "TASK_CREATED_EVENT", sqlmock.AnyArg(), createdAt, int64(0)).
					WillReturnRows(sqlmock.NewRows([]string{"ingest_seq"}))
			},
			assertions: func(t *testing.T, event *v1.Event, version int64, err error) {
				require.ErrorIs(t, err, storage.ErrVersionConflict)
				require.Zero(t, event.IngestSeq)
			},
		},
		{
			name:            "driver error is wrapped",
			event:           newEvent(1),
			expectedVersion: 0,
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				mock.ExpectQuery(regexp.QuoteMeta(queryAppendEvent)).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, event *v1.Event, version int64, err error) {
				require.ErrorContains(t, err, "failed to append event")
				require.NotErrorIs(t, err, storage.ErrVersionConflict)
			},
		},
		{
			name:            "version gap short-circuits",
			event:           newEvent(5),
			expectedVersion: 2,
			assertions: func(t *testing.T, event *v1.Event, version int64, err error) {
				require.ErrorContains(t, err, "does not follow expected version")
			},
		},
		{
			name: "invalid envelope short-circuits",
			event: &v1.Event{
				AggregateID:   id,
				AggregateType: "project",
				Version:       1,
				Type:          "TASK_CREATED_EVENT",
				Payload:       json.RawMessage(`not json`),
				CreatedAt:     createdAt,
			},
			assertions: func(t *testing.T, event *v1.Event, version int64, err error) {
				require.ErrorContains(t, err, "payload must be valid JSON")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t, 500)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock, tc.event)
			}

			version, err := adapter.Append(context.Background(), tc.event, tc.expectedVersion)
			tc.assertions(t, tc.event, version, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_ReadFromPages(t *testing.T) {
	adapter, mock, db := newMockAdapter(t, 2)
	defer db.Close()

	id := uuid.New()
	row := func(rows *sqlmock.Rows, version int64) *sqlmock.Rows {
		return rows.AddRow(id.String(), "project", version, "TASK_CREATED_EVENT", []byte(`{"v":1}`), int64(1767225600000), version+100)
	}

	mock.ExpectQuery(regexp.QuoteMeta(queryReadEventsFrom)).
		WithArgs(id, int64(0), 2).
		WillReturnRows(row(row(sqlmock.NewRows(eventRowColumns()), 1), 2)).
		RowsWillBeClosed()
	mock.ExpectQuery(regexp.QuoteMeta(queryReadEventsFrom)).
		WithArgs(id, int64(2), 2).
		WillReturnRows(row(sqlmock.NewRows(eventRowColumns()), 3)).
		RowsWillBeClosed()

	var versions []int64
	for evt, err := range adapter.ReadFrom(context.Background(), id, 0) {
		require.NoError(t, err)
		require.Equal(t, id, evt.AggregateID)
		require.JSONEq(t, `{"v":1}`, string(evt.Payload))
		versions = append(versions, evt.Version)
	}

	require.Equal(t, []int64{1, 2, 3}, versions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ReadFromStopsEarly(t *testing.T) {
	adapter, mock, db := newMockAdapter(t, 2)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(queryReadEventsFrom)).
		WithArgs(id, int64(4), 2).
		WillReturnRows(sqlmock.NewRows(eventRowColumns()).
			AddRow(id.String(), "project", int64(5), "T", []byte(`{}`), int64(1), int64(5)).
			AddRow(id.String(), "project", int64(6), "T", []byte(`{}`), int64(1), int64(6)))

	for evt, err := range adapter.ReadFrom(context.Background(), id, 4) {
		require.NoError(t, err)
		require.Equal(t, int64(5), evt.Version)
		break
	}

	// No second page is requested after the consumer stops.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ReadFromQueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t, 10)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(queryReadEventsFrom)).
		WithArgs(id, int64(0), 10).
		WillReturnError(errors.New("boom"))

	var gotErr error
	for _, err := range adapter.ReadFrom(context.Background(), id, 0) {
		gotErr = err
	}
	require.ErrorContains(t, gotErr, "failed to query events")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(queryAppendEvent)).WillBeClosed()
	stmtAppend, err := db.Prepare(queryAppendEvent)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryReadEventsFrom)).WillBeClosed()
	stmtReadFrom, err := db.Prepare(queryReadEventsFrom)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:              db,
		stmtAppendEvent: stmtAppend,
		stmtReadFrom:    stmtReadFrom,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSchema_MissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("events").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("projection_offsets").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = validateSchema(db)
	require.ErrorContains(t, err, "projection_offsets table does not exist")
	require.NoError(t, mock.ExpectationsWereMet())
}

func eventRowColumns() []string {
	return []string{"aggregate_id", "aggregate_type", "version", "type", "payload", "created_at", "ingest_seq"}
}

func newMockAdapter(t *testing.T, pageSize int) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:              db,
		stmtAppendEvent: mustPrepareStmt(t, db, mock, queryAppendEvent),
		stmtReadFrom:    mustPrepareStmt(t, db, mock, queryReadEventsFrom),
		pageSize:        pageSize,
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}
