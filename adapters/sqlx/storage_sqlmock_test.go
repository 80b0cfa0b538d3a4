package sqlx_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "typequest/adapters/sqlx"
	"typequest/core"
	"typequest/engine"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"))
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_GetState(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	st := core.NewUserState("alice")
	st.XP = 1500
	blob, err := json.Marshal(st)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(blob))

	got, err := store.GetState(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1500), got.XP)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetState_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT state FROM user_states`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetState(context.Background(), "ghost")
	require.ErrorIs(t, err, engine.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_SaveState_Upsert(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	st := core.NewUserState("alice")
	st.XP = 2000

	mock.ExpectExec(`INSERT INTO user_states`).
		WithArgs("alice", sqlmock.AnyArg(), int64(2000), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SaveState(context.Background(), st))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Delete(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM user_states`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_TopXP(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT user_id FROM user_states ORDER BY xp DESC`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))

	top, err := store.TopXP(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, []core.UserID{"alice", "bob"}, top)
	require.NoError(t, mock.ExpectationsWereMet())
}
