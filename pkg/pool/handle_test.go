package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/testutil"
)

func TestHandle_ReleaseReturnsResource(t *testing.T) {
	factory := &fakeFactory{}
	p := newTestPool(t, Config{Capacity: 2}, factory, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	h, err := p.BorrowHandle(ctx)
	require.NoError(t, err)
	require.NotNil(t, h.Resource())

	require.NoError(t, h.Release())

	stats := p.Stats()
	assert.Equal(t, 1, stats.Idle)
	assert.Equal(t, 0, stats.Active)

	// The released resource is reusable.
	conn, err := p.Borrow(ctx)
	require.NoError(t, err)
	assert.Same(t, h.Resource(), conn)
	p.Release(conn)
}

func TestHandle_DoubleReleaseFails(t *testing.T) {
	factory := &fakeFactory{}
	p := newTestPool(t, Config{Capacity: 2}, factory, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	h, err := p.BorrowHandle(ctx)
	require.NoError(t, err)

	require.NoError(t, h.Release())

	err = h.Release()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyReleased)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeValidation))

	// The double release must not have double-counted the resource.
	assert.Equal(t, 1, p.Stats().Idle)
	assert.Equal(t, int64(1), p.Stats().TotalReleases)
}

func TestHandle_MarkBrokenDiscardsOnRelease(t *testing.T) {
	factory := &fakeFactory{}
	p := newTestPool(t, Config{Capacity: 2}, factory, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	h, err := p.BorrowHandle(ctx)
	require.NoError(t, err)

	h.MarkBroken()
	require.NoError(t, h.Release())

	assert.True(t, h.Resource().closed.Load(), "broken resource should be destroyed")
	stats := p.Stats()
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 0, stats.Idle)
	assert.Equal(t, int64(1), stats.TotalDiscards)
}

func TestHandle_DiscardFreesSlot(t *testing.T) {
	factory := &fakeFactory{}
	p := newTestPool(t, Config{Capacity: 1}, factory, nil)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	h, err := p.BorrowHandle(ctx)
	require.NoError(t, err)

	require.NoError(t, h.Discard())
	assert.True(t, h.Resource().closed.Load())
	assert.Equal(t, 0, p.Stats().Created)

	err = h.Discard()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyReleased)

	err = h.Release()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyReleased)

	// The freed slot is immediately usable.
	conn, err := p.Borrow(ctx)
	require.NoError(t, err)
	p.Release(conn)
}
