package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records the transaction protocol. Embedding pgx.Tx keeps the
// interface satisfied; only the methods the executor drives are implemented.
type fakeTx struct {
	pgx.Tx

	execSQL    string
	execArgs   []any
	execErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execSQL = sql
	t.execArgs = args
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		// Matches pgx: rollback after commit is a closed-transaction no-op.
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func bindValues(args ...any) BindFunc {
	return func() ([]any, error) { return args, nil }
}

func TestExecPrepared_Commits(t *testing.T) {
	tx := &fakeTx{}
	conn := &fakeBeginner{tx: tx}

	err := execPrepared(t.Context(), conn, "INSERT INTO dd_labels VALUES ($1, $2)", bindValues(int64(7), "spouse"))

	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO dd_labels VALUES ($1, $2)", tx.execSQL)
	assert.Equal(t, []any{int64(7), "spouse"}, tx.execArgs)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack, "a committed transaction must not roll back")
}

func TestExecPrepared_BeginError(t *testing.T) {
	beginErr := errors.New("connection lost")
	conn := &fakeBeginner{beginErr: beginErr}

	err := execPrepared(t.Context(), conn, "INSERT INTO dd_labels VALUES ($1)", bindValues(1))

	assert.ErrorIs(t, err, beginErr)
}

func TestExecPrepared_BindErrorRollsBack(t *testing.T) {
	tx := &fakeTx{}
	conn := &fakeBeginner{tx: tx}
	bindErr := errors.New("no values for row")

	err := execPrepared(t.Context(), conn, "INSERT INTO dd_labels VALUES ($1)", func() ([]any, error) {
		return nil, bindErr
	})

	assert.ErrorIs(t, err, bindErr)
	assert.Empty(t, tx.execSQL, "nothing may execute when binding fails")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack, "an open transaction must be rolled back explicitly")
}

func TestExecPrepared_ExecErrorRollsBack(t *testing.T) {
	execErr := errors.New("unique violation")
	tx := &fakeTx{execErr: execErr}
	conn := &fakeBeginner{tx: tx}

	err := execPrepared(t.Context(), conn, "INSERT INTO dd_labels VALUES ($1)", bindValues(1))

	assert.ErrorIs(t, err, execErr)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}
