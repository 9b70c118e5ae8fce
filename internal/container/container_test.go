package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireReportsMissingDependencies(t *testing.T) {
	c := New()
	err := c.Wire(Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDependency)

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.ElementsMatch(t, []string{"database (DB)", "object store", "JWT secret"}, initErr.MissingDeps)
}

func TestValidateBeforeWire(t *testing.T) {
	err := New().Validate()
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestNewMockWiresEverything(t *testing.T) {
	mc, err := NewMock(Options{SweepInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Cleanup(context.Background()) })

	assert.NoError(t, mc.Validate())
	assert.NotNil(t, mc.Users())
	assert.NotNil(t, mc.Communities())
	assert.NotNil(t, mc.Guard())
	assert.NotNil(t, mc.Auth())
	assert.NotNil(t, mc.Notifications())
	assert.NotNil(t, mc.Sweeper())
	assert.NotNil(t, mc.Uploads())
	assert.NotNil(t, mc.Articles())
	assert.Same(t, mc.Store, mc.ObjectStore())
}

func TestSweeperWithoutIntervalStillSweeps(t *testing.T) {
	mc, err := NewMock(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Cleanup(context.Background()) })

	sweeper := mc.Sweeper()
	require.NotNil(t, sweeper)
	assert.False(t, sweeper.Periodic())
	sweeper.Start()
	deleted, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NotPanics(t, sweeper.Stop)
}

func TestCleanupRunsInReverseAndReturnsFirstError(t *testing.T) {
	c := New()
	var order []int
	boom := errors.New("boom")

	c.OnCleanup(func(context.Context) error { order = append(order, 1); return errors.New("later") })
	c.OnCleanup(func(context.Context) error { order = append(order, 2); return boom })
	c.OnCleanup(func(context.Context) error { order = append(order, 3); return nil })

	err := c.Cleanup(context.Background())
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, c.Cleanup(context.Background()), "functions run once")
}
