package stock

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecer records SQL and simulates RowsAffected for guard behaviour.
type fakeExecer struct {
	queries  []string
	args     [][]any
	affected int64
	err      error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult(f.affected), nil
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestReserve_GuardRejectsOversell(t *testing.T) {
	ex := &fakeExecer{affected: 0}

	err := Reserve(context.Background(), ex, "prod-1", 5)

	assert.ErrorIs(t, err, ErrInsufficient)
	assert.Contains(t, err.Error(), "prod-1")
}

func TestReserve_Success(t *testing.T) {
	ex := &fakeExecer{affected: 1}

	err := Reserve(context.Background(), ex, "prod-1", 5)

	require.NoError(t, err)
	require.Len(t, ex.queries, 1)
	// The decrement and the guard must live in the same statement.
	assert.Contains(t, ex.queries[0], "stock_available = stock_available - $1")
	assert.Contains(t, ex.queries[0], "stock_available >= $1")
	assert.Equal(t, []any{5, "prod-1"}, ex.args[0])
}

func TestReserve_RejectsNonPositiveQty(t *testing.T) {
	ex := &fakeExecer{affected: 1}

	assert.Error(t, Reserve(context.Background(), ex, "prod-1", 0))
	assert.Error(t, Reserve(context.Background(), ex, "prod-1", -2))
	assert.Empty(t, ex.queries)
}

func TestRelease_Success(t *testing.T) {
	ex := &fakeExecer{affected: 1}

	err := Release(context.Background(), ex, "prod-1", 3)

	require.NoError(t, err)
	require.Len(t, ex.queries, 1)
	assert.Contains(t, ex.queries[0], "stock_available = stock_available + $1")
}

func TestRelease_UnknownProduct(t *testing.T) {
	ex := &fakeExecer{affected: 0}

	err := Release(context.Background(), ex, "ghost", 3)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestReserve_DBError(t *testing.T) {
	ex := &fakeExecer{err: errors.New("connection reset")}

	err := Reserve(context.Background(), ex, "prod-1", 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficient)
}
