package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/ajitpratap0/conduit/pkg/errors"
	"github.com/ajitpratap0/conduit/pkg/pool"
	"github.com/ajitpratap0/conduit/pkg/testutil"
)

func TestRegistry_AddAndGet(t *testing.T) {
	r := NewRegistry()

	ds := New("orders")
	t.Cleanup(ds.Close)
	require.NoError(t, r.Add(ds))

	got, err := r.Get("orders")
	require.NoError(t, err)
	assert.Same(t, ds, got)
}

func TestRegistry_RejectsDuplicatesAndNil(t *testing.T) {
	r := NewRegistry()

	ds := New("orders")
	t.Cleanup(ds.Close)
	require.NoError(t, r.Add(ds))

	other := New("orders")
	t.Cleanup(other.Close)
	err := r.Add(other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeConfig))

	err = r.Add(nil)
	require.Error(t, err)
	assert.True(t, cerrors.IsType(err, cerrors.ErrorTypeConfig))
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()

	ds := New("orders")
	t.Cleanup(ds.Close)
	require.NoError(t, r.Add(ds))

	removed := r.Remove("orders")
	assert.Same(t, ds, removed)
	assert.Nil(t, r.Remove("orders"), "second remove finds nothing")

	_, err := r.Get("orders")
	require.Error(t, err)

	// A removed name can be reused.
	require.NoError(t, r.Add(ds))
}

func TestRegistry_NamesAndAll(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"orders", "billing", "analytics"} {
		ds := New(name)
		t.Cleanup(ds.Close)
		require.NoError(t, r.Add(ds))
	}

	assert.Equal(t, []string{"analytics", "billing", "orders"}, r.Names())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "analytics", all[0].Name())
	assert.Equal(t, "orders", all[2].Name())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()

	ds, _ := newTestDataSource(t, "orders")
	require.NoError(t, r.Add(ds))

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	conn, err := ds.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	r.CloseAll()

	assert.Empty(t, r.Names())
	_, err = ds.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, pool.ErrPoolClosed)
}
