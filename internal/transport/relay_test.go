package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/transport"
)

func TestRelaySenderPostsMenu(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := transport.NewRelaySender(srv.URL)
	err := s.SendMenu(context.Background(), "42", "Pick one", []transport.Button{{Text: "Cash", Data: "pay:Cash"}})
	require.NoError(t, err)

	assert.Equal(t, "42", got["user_id"])
	assert.Equal(t, "menu", got["kind"])
	buttons := got["buttons"].([]any)
	require.Len(t, buttons, 1)
	assert.Equal(t, "pay:Cash", buttons[0].(map[string]any)["data"])
}

func TestRelaySenderReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := transport.NewRelaySender(srv.URL).SendText(context.Background(), "42", "hi")
	assert.Error(t, err)
}

func TestRecorderFailingRecipient(t *testing.T) {
	r := transport.NewRecorder()
	r.Fail["bad"] = true

	assert.ErrorIs(t, r.SendText(context.Background(), "bad", "x"), transport.ErrUnreachable)
	require.NoError(t, transport.Send(context.Background(), r, "ok", "menu", []transport.Button{{Text: "A", Data: "a"}}))
	assert.Empty(t, r.To("bad"))
	assert.Len(t, r.Last("ok").Buttons, 1)
}
