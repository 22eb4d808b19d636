package cache_test

import (
	"context"
	"testing"

	"otasync/internal/booking"
	"otasync/internal/cache"
	"otasync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := booking.Key{PropertyID: "30357", ExternalBookingID: "SFBOOKING_30357_1", RoomNumber: "101"}

	assert.Equal(t, "otasync:seen:30357:"+k.ID(), cache.Key(k))
	assert.NotEqual(t, cache.Key(k), cache.Key(booking.Key{PropertyID: "30357", ExternalBookingID: "SFBOOKING_30357_1", RoomNumber: "102"}))
}

func TestConnect_Disabled(t *testing.T) {
	client, err := cache.Connect(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory()
	k := booking.Key{PropertyID: "1", ExternalBookingID: "B1", RoomNumber: "101"}

	seen, err := m.Seen(ctx, k)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, m.Mark(ctx, k))

	seen, err = m.Seen(ctx, k)
	require.NoError(t, err)
	assert.True(t, seen)
}
