package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/domain"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
)

// echoFlow asks for a word and a colour, then commits through commit.
func echoFlow(commit func() error) *Flow {
	data := func(s *session.Session) *SearchData { return s.Data.(*SearchData) }
	return &Flow{
		Name:     FlowSearch,
		Title:    "echo",
		Triggers: []string{"echo", "echo_with:"},
		Begin: func(_ context.Context, _ Event, arg string) (session.Data, string, error) {
			if arg == "deny" {
				return nil, "", domain.Unauthorized("No echo for you.")
			}
			return &SearchData{}, "word", nil
		},
		Steps: []*Step{
			{
				Name:   "word",
				Kind:   StepText,
				Prompt: static("Say a word:"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					if len(in.Text) < 3 {
						return "", domain.Validation("Too short.")
					}
					data(s).Query = in.Text
					return "colour", nil
				},
			},
			{
				Name:   "colour",
				Kind:   StepChoice,
				Prompt: static("Pick a colour:", btn("Red", "col:red"), btn("Blue", "col:blue")),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					data(s).Query += " " + tokenArg(in.Text, "col")
					return "confirm", nil
				},
			},
			{Name: "confirm", Kind: StepConfirm, Prompt: static("Sure?", confirmButton)},
		},
		Commit: func(_ context.Context, s *session.Session, _ Event) (Prompt, error) {
			if err := commit(); err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: "echo: " + data(s).Query}, nil
		},
	}
}

func newTestEngine(commit func() error) (*Engine, *session.MemoryStore, *transport.Recorder) {
	store := session.NewMemoryStore(0)
	rec := transport.NewRecorder()
	return NewEngine(NewRegistry(echoFlow(commit)), store, rec, nil), store, rec
}

func handle(t *testing.T, e *Engine, ev Event) bool {
	t.Helper()
	ok, err := e.Handle(context.Background(), ev)
	require.NoError(t, err)
	return ok
}

func TestEngineHappyPath(t *testing.T) {
	commits := 0
	e, store, rec := newTestEngine(func() error { commits++; return nil })

	assert.False(t, handle(t, e, Text("1", "u", "hello")), "free text without a session is not ours")
	assert.False(t, handle(t, e, Text("1", "u", "echo")), "text triggers need a slash")

	assert.True(t, handle(t, e, Text("1", "u", "/echo")))
	last := rec.Last("1")
	assert.Equal(t, "Say a word:", last.Text)
	assert.Equal(t, []transport.Button{cancelButton}, last.Buttons)

	handle(t, e, Text("1", "u", "hi"))
	assert.Equal(t, "Too short.\n\nSay a word:", rec.Last("1").Text)

	handle(t, e, Text("1", "u", "hello"))
	handle(t, e, Text("1", "u", "red"))
	assert.Equal(t, "Please choose one of the options below.\n\nPick a colour:", rec.Last("1").Text)

	handle(t, e, Button("1", "u", "col:green"))
	assert.Contains(t, rec.Last("1").Text, "not available")

	handle(t, e, Button("1", "u", "col:blue"))
	handle(t, e, Button("1", "u", TokenConfirm))
	assert.Equal(t, "echo: hello blue", rec.Last("1").Text)
	assert.Equal(t, 1, commits)
	assert.Equal(t, 0, store.Len())

	handle(t, e, Button("1", "u", TokenConfirm))
	assert.Equal(t, "Nothing to confirm.", rec.Last("1").Text)
	assert.Equal(t, 1, commits)
}

func TestEngineGuardAndRefusal(t *testing.T) {
	e, store, rec := newTestEngine(func() error { return nil })

	handle(t, e, Button("1", "u", "echo_with:deny"))
	assert.Equal(t, "No echo for you.", rec.Last("1").Text)
	assert.Equal(t, 0, store.Len())

	handle(t, e, Button("1", "u", "echo"))
	handle(t, e, Button("1", "u", "echo"))
	assert.Contains(t, rec.Last("1").Text, "You are in the middle of echo")
	s, err := store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "word", s.Step)
}

func TestUnknownCommandIsNotAnAnswer(t *testing.T) {
	e, store, rec := newTestEngine(func() error { return nil })

	handle(t, e, Text("1", "u", "/echo"))
	handle(t, e, Text("1", "u", "/help me"))
	assert.Equal(t, "/help is not available here. Type your answer or /cancel.\n\nSay a word:", rec.Last("1").Text)

	s, err := store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "word", s.Step)
	assert.Empty(t, s.Data.(*SearchData).Query)
}

func TestEngineCommitFailureClearsSession(t *testing.T) {
	e, store, rec := newTestEngine(func() error { return domain.Storage(errors.New("disk full"), "insert") })

	handle(t, e, Text("1", "u", "/echo"))
	handle(t, e, Text("1", "u", "hello"))
	handle(t, e, Button("1", "u", "col:red"))
	handle(t, e, Button("1", "u", TokenConfirm))

	assert.Equal(t, "Sorry, that could not be saved. Please try again.", rec.Last("1").Text)
	assert.Equal(t, 0, store.Len())
}

func TestUsersDoNotShareSessions(t *testing.T) {
	e, store, _ := newTestEngine(func() error { return nil })

	handle(t, e, Text("1", "u", "/echo"))
	handle(t, e, Text("2", "v", "/echo"))
	handle(t, e, Text("1", "u", "hello"))

	s1, _ := store.Get(context.Background(), "1")
	s2, _ := store.Get(context.Background(), "2")
	assert.Equal(t, "colour", s1.Step)
	assert.Equal(t, "word", s2.Step)
}

func TestRegistryMatch(t *testing.T) {
	r := NewRegistry(Flows(Deps{})...)

	f, arg, ok := r.Match("order_product:7")
	require.True(t, ok)
	assert.Equal(t, FlowOrder, f.Name)
	assert.Equal(t, "7", arg)

	f, _, ok = r.Match("order")
	require.True(t, ok)
	assert.Equal(t, FlowOrder, f.Name)

	_, _, ok = r.Match("order_later")
	assert.False(t, ok)

	f, arg, ok = r.Match("support:Complaint")
	require.True(t, ok)
	assert.Equal(t, FlowTicket, f.Name)
	assert.Equal(t, "Complaint", arg)
}

func TestSessionDataSurvivesCodec(t *testing.T) {
	s := session.New("1", FlowOrder, "confirm", &OrderData{ProductID: 3, ProductName: "Honey", Price: decimal.RequireFromString("12.5"), Quantity: "1kg"})
	raw, err := session.Encode(s)
	require.NoError(t, err)

	got, err := session.Decode(raw, NewData)
	require.NoError(t, err)
	od, ok := got.Data.(*OrderData)
	require.True(t, ok)
	assert.Equal(t, "Honey", od.ProductName)
	assert.True(t, od.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "confirm", got.Step)

	for _, name := range []session.FlowName{FlowRegistration, FlowTicket, FlowFeedback, FlowDeleteAccount, FlowAddProduct, FlowEditProduct, FlowReply, FlowSearch} {
		d, ok := NewData(name)
		require.True(t, ok, name)
		assert.Equal(t, name, d.Flow())
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Order not found.", UserMessage(domain.NotFound("order")))
	assert.Equal(t, "Already Approved, decided by someone else.", UserMessage(domain.Conflict("already Approved, decided by someone else")))
	assert.Equal(t, "Sorry, that could not be saved. Please try again.", UserMessage(errors.New("boom")))
}
