package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"honeydesk/internal/notify"
	"honeydesk/internal/transport"
)

type staticDir struct {
	ids []string
	err error
}

func (s staticDir) AdminExternalIDs(context.Context) ([]string, error) { return s.ids, s.err }

func TestAdminsFailureIsolated(t *testing.T) {
	rec := transport.NewRecorder()
	rec.Fail["2"] = true
	d := notify.New(rec, staticDir{ids: []string{"2", "3", "1"}}, []string{"1"}, nil)

	delivered := d.Admins(context.Background(), "New order #5")

	assert.Equal(t, 2, delivered)
	assert.True(t, rec.Contains("1", "New order #5"))
	assert.True(t, rec.Contains("3", "New order #5"))
	assert.Len(t, rec.To("1"), 1, "bootstrap admin listed twice is notified once")
}

func TestRecipientsSurviveDirectoryError(t *testing.T) {
	d := notify.New(transport.NewRecorder(), staticDir{err: errors.New("db down")}, []string{"9"}, nil)
	assert.Equal(t, []string{"9"}, d.Recipients(context.Background()))
}

func TestUserReportsDelivery(t *testing.T) {
	rec := transport.NewRecorder()
	rec.Fail["gone"] = true
	d := notify.New(rec, nil, nil, nil)

	assert.False(t, d.User(context.Background(), "gone", "hi"))
	assert.True(t, d.User(context.Background(), "here", "hi", transport.Button{Text: "Ok", Data: "ok"}))
	assert.Len(t, rec.Last("here").Buttons, 1)
}
