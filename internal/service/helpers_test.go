package service

import (
	"context"
	"sync"
	"testing"

	"wallet-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTx implements pgx.Tx for testing and records how it was finished.
type mockTx struct {
	pgx.Tx

	mu         sync.Mutex
	commitErr  error
	onCommit   func()
	committed  bool
	rolledBack bool
	rollbackOK bool // rollback happened on a live context
}

func (m *mockTx) Commit(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	if m.onCommit != nil {
		m.onCommit()
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	m.rollbackOK = ctx.Err() == nil
	return nil
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
