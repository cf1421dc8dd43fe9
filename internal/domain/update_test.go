package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_MarshalJSON(t *testing.T) {
	t.Run("content categories use the action key", func(t *testing.T) {
		u := NewUpdate(CategoryBlog, ActionCreated, map[string]any{"id": 7})
		b, err := json.Marshal(u)
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"created","data":{"id":7}}`, string(b))
		assert.Equal(t, "blog_update", u.EventName())
	})

	t.Run("dashboard uses the type key", func(t *testing.T) {
		u := NewUpdate(CategoryDashboard, DashboardStats, map[string]int{"x": 1})
		b, err := json.Marshal(u)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"stats","data":{"x":1}}`, string(b))
	})

	t.Run("raw JSON passes through", func(t *testing.T) {
		u := NewUpdate(CategoryLike, ActionAdded, json.RawMessage(` {"blog_id":"b1"} `))
		b, err := json.Marshal(u)
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"added","data":{"blog_id":"b1"}}`, string(b))
	})

	t.Run("nil data becomes an empty object", func(t *testing.T) {
		b, err := json.Marshal(NewUpdate(CategoryUser, ActionDeleted, nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"deleted","data":{}}`, string(b))

		b, err = json.Marshal(NewUpdate(CategoryUser, ActionDeleted, json.RawMessage("null")))
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"deleted","data":{}}`, string(b))
	})

	t.Run("non-object data is rejected", func(t *testing.T) {
		_, err := json.Marshal(NewUpdate(CategoryBlog, ActionCreated, []int{1, 2}))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPayload))
	})

	t.Run("unencodable data fails", func(t *testing.T) {
		_, err := json.Marshal(NewUpdate(CategoryBlog, ActionCreated, map[string]any{"ch": make(chan int)}))
		assert.Error(t, err)
	})
}

func TestBroadcastError(t *testing.T) {
	cause := errors.New("boom")
	err := &BroadcastError{Category: CategoryBlog, Action: "created", Err: cause}
	assert.Equal(t, "broadcast blog/created: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	err.Room = "dashboard"
	assert.Contains(t, err.Error(), `room "dashboard"`)

	var target *BroadcastError
	assert.True(t, errors.As(error(err), &target))
}
