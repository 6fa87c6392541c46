package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/bowl-monitor/internal/logic"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	rec, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, logic.CounterRecord{}, rec)

	want := logic.CounterRecord{BootCount: 2, NoWaterCount: 1}
	require.NoError(t, m.Save(ctx, want))
	assert.Equal(t, 1, m.Saves)

	rec, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, rec)

	require.NoError(t, m.Clear(ctx))
	assert.Equal(t, logic.CounterRecord{}, m.Record())
}

func TestMemoryStoreInjectedErrors(t *testing.T) {
	m := NewMemoryStoreWith(logic.CounterRecord{BootCount: 4})
	ctx := context.Background()

	m.SaveError = errors.New("flash worn out")
	assert.Error(t, m.Save(ctx, logic.CounterRecord{BootCount: 5}))
	assert.Equal(t, uint64(4), m.Record().BootCount)
	assert.Zero(t, m.Saves)

	m.LoadError = errors.New("rtc lost")
	_, err := m.Load(ctx)
	assert.Error(t, err)
}
