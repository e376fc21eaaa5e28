package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/session"
)

type noteData struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func (*noteData) Flow() session.FlowName { return "note" }

func factory(name session.FlowName) (session.Data, bool) {
	if name == "note" {
		return &noteData{}, true
	}
	return nil, false
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := session.NewMemoryStore(0)

	got, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := session.New("u1", "note", "text", &noteData{})
	require.NoError(t, st.Put(ctx, s))

	got, err = st.Get(ctx, "u1")
	require.NoError(t, err)
	got.Advance("count")
	got.Data.(*noteData).Text = "hello"
	require.NoError(t, st.Put(ctx, got))

	again, _ := st.Get(ctx, "u1")
	assert.Equal(t, "count", again.Step)
	assert.Equal(t, "hello", again.Data.(*noteData).Text)

	require.NoError(t, st.Clear(ctx, "u1"))
	got, _ = st.Get(ctx, "u1")
	assert.Nil(t, got)
}

func TestMemoryStoreOneSessionPerUser(t *testing.T) {
	ctx := context.Background()
	st := session.NewMemoryStore(0)
	require.NoError(t, st.Put(ctx, session.New("u1", "note", "a", &noteData{})))
	require.NoError(t, st.Put(ctx, session.New("u1", "note", "b", &noteData{})))

	assert.Equal(t, 1, st.Len())
	got, _ := st.Get(ctx, "u1")
	assert.Equal(t, "b", got.Step)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	st := session.NewMemoryStore(time.Minute)
	s := session.New("u1", "note", "a", &noteData{})
	s.StartedAt = time.Now().Add(-2 * time.Minute)
	require.NoError(t, st.Put(ctx, s))

	got, err := st.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEncodeDecodeKeepsTypedData(t *testing.T) {
	s := session.New("u9", "note", "count", &noteData{Text: "hi", Count: 2})
	raw, err := session.Encode(s)
	require.NoError(t, err)

	back, err := session.Decode(raw, factory)
	require.NoError(t, err)
	assert.Equal(t, "count", back.Step)
	assert.Equal(t, &noteData{Text: "hi", Count: 2}, back.Data)

	_, err = session.Decode([]byte(`{"flow":"mystery"}`), factory)
	assert.Error(t, err)
}
