package repositories

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhnger/backend/models"
)

func TestCalendarReseedReplacesDay(t *testing.T) {
	db := openTestDB(t)
	repo := NewBunCalendarRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.CalendarDay{
		Day:  1,
		Type: "quote",
		Data: json.RawMessage(`{"text":"first"}`),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.CalendarDay{
		Day:  1,
		Type: "image",
		Data: json.RawMessage(`{"url":"https://example.com/a.png"}`),
	}))

	entry, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "image", entry.Type)
	assert.JSONEq(t, `{"url":"https://example.com/a.png"}`, string(entry.Data))

	days, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestCalendarListOrdersByDay(t *testing.T) {
	db := openTestDB(t)
	repo := NewBunCalendarRepository(db)
	ctx := context.Background()

	for _, day := range []int{24, 3, 12} {
		require.NoError(t, repo.Upsert(ctx, &models.CalendarDay{
			Day:  day,
			Type: "quote",
			Data: json.RawMessage(`{}`),
		}))
	}

	days, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 3, days[0].Day)
	assert.Equal(t, 12, days[1].Day)
	assert.Equal(t, 24, days[2].Day)
}

func TestCalendarGetMissingReturnsNil(t *testing.T) {
	db := openTestDB(t)
	repo := NewBunCalendarRepository(db)

	entry, err := repo.Get(context.Background(), 7)
	assert.NoError(t, err)
	assert.Nil(t, entry)
}
