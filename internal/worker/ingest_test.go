package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum/internal/amqp"
	"momentum/internal/core"
	"momentum/internal/services"
)

type ingestFunc func(ctx context.Context) (core.IngestRun, error)

func (f ingestFunc) Run(ctx context.Context) (core.IngestRun, error) { return f(ctx) }

func TestIngestTask(t *testing.T) {
	ctx := context.Background()

	n, err := IngestTask(ingestFunc(func(context.Context) (core.IngestRun, error) {
		return core.IngestRun{Fetched: 4, Inserted: 3}, nil
	}))(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = IngestTask(ingestFunc(func(context.Context) (core.IngestRun, error) {
		return core.IngestRun{}, services.ErrEmailSyncDisabled
	}))(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	boom := errors.New("mailbox unreachable")
	n, err = IngestTask(ingestFunc(func(context.Context) (core.IngestRun, error) {
		return core.IngestRun{Inserted: 1, Error: boom.Error()}, boom
	}))(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestLogBudgetAlert(t *testing.T) {
	assert.NoError(t, LogBudgetAlert(context.Background(), &amqp.BudgetAlertMessage{
		Category: "Food",
		Status:   "Exceeded",
	}))
}
