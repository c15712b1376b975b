package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimulationSettlesWithoutDelay(t *testing.T) {
	sim := simulation{orders: 5, successRate: 1, timeout: time.Second}

	var out bytes.Buffer
	report, err := sim.execute(context.Background(), &out, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Settled)
	assert.Zero(t, report.Pending)
	assert.Contains(t, out.String(), "STARTING SIMULATION (5 ORDERS)")
}

func TestSimulationReconcilesTimedOutPayments(t *testing.T) {
	sim := simulation{orders: 3, successRate: 1, delay: 200 * time.Millisecond, timeout: 5 * time.Millisecond}

	var out bytes.Buffer
	report, err := sim.execute(context.Background(), &out, zap.NewNop())
	require.NoError(t, err)

	assert.Zero(t, report.Settled)
	assert.Equal(t, 3, report.Pending)
	assert.Equal(t, 3, report.Reconciled)
	assert.Zero(t, report.Remaining)
}
