// Package flow is the conversation engine: named multi-step flows that
// collect typed input across turns and commit once behind a confirm step.
package flow

import (
	"context"
	"strings"

	"honeydesk/internal/session"
	"honeydesk/internal/transport"
)

type EventKind int

const (
	EventText EventKind = iota
	EventButton
	EventFile
)

// FileUpload is a file already staged by the transport boundary.
type FileUpload struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
}

// Event is one inbound chat event. Username is the display handle, which
// may be empty.
type Event struct {
	UserID   string
	Username string
	FullName string
	Kind     EventKind
	Text     string
	File     *FileUpload
}

func Text(userID, username, text string) Event {
	return Event{UserID: userID, Username: username, Kind: EventText, Text: text}
}

func Button(userID, username, data string) Event {
	return Event{UserID: userID, Username: username, Kind: EventButton, Text: data}
}

func File(userID, username, ref, name string) Event {
	return Event{UserID: userID, Username: username, Kind: EventFile, File: &FileUpload{Ref: ref, Name: name}}
}

// Token is the callback token of a button or the trimmed text.
func (e Event) Token() string { return strings.TrimSpace(e.Text) }

type StepKind int

const (
	StepText StepKind = iota
	StepChoice
	StepFile
	StepConfirm
)

// Commit is returned by Accept to run the flow's commit.
const Commit = "__commit__"

const (
	TokenCancel  = "cancel"
	TokenConfirm = "confirm"
	TokenSkip    = "skip"
)

type Prompt struct {
	Text    string
	Buttons []transport.Button
	// Image, when set, is sent before the text.
	Image string
}

// Input is what a step receives: the text or button token, or a file.
type Input struct {
	Text string
	File *FileUpload
}

type Step struct {
	Name      string
	Kind      StepKind
	Prompt    func(ctx context.Context, s *session.Session) (Prompt, error)
	Accept    func(ctx context.Context, s *session.Session, in Input) (string, error)
	Skippable bool
}

// Flow is one named interaction. Begin runs the entry guard and returns the
// initial data and entry step; Commit performs the single write.
type Flow struct {
	Name session.FlowName
	// Triggers are exact tokens, or prefixes ending in ":" whose remainder is
	// passed to Begin as arg.
	Triggers []string
	// Replace lets a trigger discard another active session instead of being refused.
	Replace bool
	Title   string
	Begin   func(ctx context.Context, ev Event, arg string) (session.Data, string, error)
	Steps   []*Step
	Commit  func(ctx context.Context, s *session.Session, ev Event) (Prompt, error)
}

func (f *Flow) Step(name string) *Step {
	for _, st := range f.Steps {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// static wraps a fixed prompt.
func static(text string, buttons ...transport.Button) func(context.Context, *session.Session) (Prompt, error) {
	return func(context.Context, *session.Session) (Prompt, error) {
		return Prompt{Text: text, Buttons: buttons}, nil
	}
}

func btn(text, data string) transport.Button { return transport.Button{Text: text, Data: data} }

var (
	confirmButton = btn("Confirm", TokenConfirm)
	cancelButton  = btn("Cancel", TokenCancel)
	skipButton    = btn("Skip", TokenSkip)
)
