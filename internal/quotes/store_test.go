package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/rental-pricing/internal/model"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	q := model.Quote{ID: "q-1", ListingID: 3, ExpiresAt: now.Add(15 * time.Minute)}
	require.NoError(t, store.Save(ctx, q))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ListingID)

	require.NoError(t, store.Delete(ctx, "q-1"))
	_, err = store.Get(ctx, "q-1")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.Quote{ID: "q-1", ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(time.Minute)
	_, err := store.Get(ctx, "q-1")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestMemoryStore_UnknownQuote(t *testing.T) {
	store := NewMemoryStore(nil)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestQuoteKey(t *testing.T) {
	assert.Equal(t, "rental:quote:abc", quoteKey("abc"))
}
