package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"honeydesk/internal/domain"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
)

// Engine drives sessions through the flows of a Registry. It expects events
// for one user to arrive one at a time.
type Engine struct {
	Registry *Registry
	Store    session.Store
	Sender   transport.Sender
	Metrics  *metrics.Metrics
}

func NewEngine(reg *Registry, store session.Store, sender transport.Sender, m *metrics.Metrics) *Engine {
	return &Engine{Registry: reg, Store: store, Sender: sender, Metrics: m}
}

// Handle consumes ev if it belongs to the flow machinery: a cancel, a flow
// trigger, a stray confirm, or any event while a session is active. It
// reports false when the caller should route the event elsewhere.
func (e *Engine) Handle(ctx context.Context, ev Event) (bool, error) {
	if isCancel(ev) {
		return true, e.cancel(ctx, ev.UserID)
	}
	s, err := e.Store.Get(ctx, ev.UserID)
	if err != nil {
		e.say(ctx, ev.UserID, UserMessage(domain.Storage(err, "load session")))
		return true, err
	}
	if f, arg, ok := e.trigger(ev); ok {
		return true, e.start(ctx, ev, s, f, arg)
	}
	if s == nil {
		if ev.Kind == EventButton && ev.Token() == TokenConfirm {
			e.say(ctx, ev.UserID, "Nothing to confirm.")
			return true, nil
		}
		return false, nil
	}
	return true, e.step(ctx, ev, s)
}

// Active reports the flow the user is in, if any.
func (e *Engine) Active(ctx context.Context, userID string) (session.FlowName, bool) {
	s, err := e.Store.Get(ctx, userID)
	if err != nil || s == nil {
		return "", false
	}
	return s.Flow, true
}

func isCancel(ev Event) bool {
	switch ev.Kind {
	case EventButton:
		return ev.Token() == TokenCancel
	case EventText:
		return strings.EqualFold(ev.Token(), "/"+TokenCancel)
	}
	return false
}

// trigger matches buttons by token and text only when it is a slash command.
func (e *Engine) trigger(ev Event) (*Flow, string, bool) {
	tok := ev.Token()
	switch ev.Kind {
	case EventButton:
		return e.Registry.Match(tok)
	case EventText:
		if !strings.HasPrefix(tok, "/") {
			return nil, "", false
		}
		return e.Registry.Match(strings.TrimPrefix(tok, "/"))
	}
	return nil, "", false
}

func (e *Engine) cancel(ctx context.Context, userID string) error {
	s, err := e.Store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if s == nil {
		e.say(ctx, userID, "Nothing to cancel.")
		return nil
	}
	if err := e.Store.Clear(ctx, userID); err != nil {
		return err
	}
	e.Metrics.FlowCancelled(string(s.Flow))
	applog.Info(nil, "flow.cancel", map[string]any{"user_id": userID, "flow": s.Flow, "step": s.Step})
	e.say(ctx, userID, "Process cancelled.")
	return nil
}

func (e *Engine) start(ctx context.Context, ev Event, cur *session.Session, f *Flow, arg string) error {
	if cur != nil {
		if !f.Replace {
			title := string(cur.Flow)
			if cf, ok := e.Registry.Get(cur.Flow); ok && cf.Title != "" {
				title = cf.Title
			}
			e.send(ctx, ev.UserID, Prompt{
				Text:    fmt.Sprintf("You are in the middle of %s. Finish it or cancel it first.", title),
				Buttons: []transport.Button{cancelButton},
			})
			return nil
		}
		if err := e.Store.Clear(ctx, ev.UserID); err != nil {
			return err
		}
		e.Metrics.FlowCancelled(string(cur.Flow))
	}

	data, entry, err := f.Begin(ctx, ev, arg)
	if err != nil {
		e.fail(ctx, ev.UserID, f, err, false)
		return nil
	}
	s := session.New(ev.UserID, f.Name, entry, data)
	if err := e.Store.Put(ctx, s); err != nil {
		e.fail(ctx, ev.UserID, f, domain.Storage(err, "save session"), false)
		return err
	}
	e.Metrics.FlowStarted(string(f.Name))
	return e.prompt(ctx, s, f, entry, "")
}

func (e *Engine) step(ctx context.Context, ev Event, s *session.Session) error {
	f, ok := e.Registry.Get(s.Flow)
	var st *Step
	if ok {
		st = f.Step(s.Step)
	}
	if st == nil {
		_ = e.Store.Clear(ctx, s.UserID)
		e.say(ctx, s.UserID, "That conversation has expired. Please start again.")
		return nil
	}

	in, note, err := e.shape(ctx, st, s, ev)
	if err != nil {
		e.fail(ctx, s.UserID, f, err, true)
		return nil
	}
	if note != "" {
		e.Metrics.Reprompt(string(f.Name), st.Name)
		return e.prompt(ctx, s, f, st.Name, note)
	}

	next := Commit
	if st.Accept != nil {
		next, err = st.Accept(ctx, s, in)
	}
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			e.Metrics.Reprompt(string(f.Name), st.Name)
			return e.prompt(ctx, s, f, st.Name, UserMessage(err))
		}
		e.fail(ctx, s.UserID, f, err, true)
		return nil
	}
	if next == Commit {
		return e.commit(ctx, ev, s, f)
	}
	s.Advance(next)
	if err := e.Store.Put(ctx, s); err != nil {
		e.fail(ctx, s.UserID, f, domain.Storage(err, "save session"), true)
		return err
	}
	return e.prompt(ctx, s, f, next, "")
}

// shape checks that ev fits the step. A non-empty note means reprompt.
func (e *Engine) shape(ctx context.Context, st *Step, s *session.Session, ev Event) (Input, string, error) {
	tok := ev.Token()
	switch st.Kind {
	case StepText:
		if ev.Kind != EventText || tok == "" {
			return Input{}, "Please type your answer.", nil
		}
		if strings.HasPrefix(tok, "/") {
			return Input{}, fmt.Sprintf("%s is not available here. Type your answer or /cancel.", strings.Fields(tok)[0]), nil
		}
		return Input{Text: tok}, "", nil
	case StepChoice, StepConfirm:
		if ev.Kind != EventButton {
			return Input{}, "Please choose one of the options below.", nil
		}
		p, err := st.Prompt(ctx, s)
		if err != nil {
			return Input{}, "", err
		}
		for _, b := range p.Buttons {
			if b.Data == tok {
				return Input{Text: tok}, "", nil
			}
		}
		return Input{}, "That option is not available. Please choose again.", nil
	case StepFile:
		if ev.Kind == EventFile && ev.File != nil {
			return Input{File: ev.File}, "", nil
		}
		if st.Skippable && ev.Kind != EventFile && strings.EqualFold(tok, TokenSkip) {
			return Input{Text: TokenSkip}, "", nil
		}
		if st.Skippable {
			return Input{}, "Please send a file or press Skip.", nil
		}
		return Input{}, "Please send a file.", nil
	}
	return Input{}, "", fmt.Errorf("flow: unknown step kind %d", st.Kind)
}

// commit clears the session first so a repeated confirm finds nothing to do.
func (e *Engine) commit(ctx context.Context, ev Event, s *session.Session, f *Flow) error {
	if err := e.Store.Clear(ctx, s.UserID); err != nil {
		e.fail(ctx, s.UserID, f, domain.Storage(err, "clear session"), false)
		return err
	}
	p, err := f.Commit(ctx, s, ev)
	if err != nil {
		e.fail(ctx, s.UserID, f, err, false)
		return nil
	}
	e.Metrics.FlowCompleted(string(f.Name))
	applog.Info(nil, "flow.complete", map[string]any{"user_id": s.UserID, "flow": f.Name})
	e.send(ctx, s.UserID, p)
	return nil
}

func (e *Engine) prompt(ctx context.Context, s *session.Session, f *Flow, name, note string) error {
	st := f.Step(name)
	if st == nil {
		e.fail(ctx, s.UserID, f, fmt.Errorf("flow %s: no step %q", f.Name, name), true)
		return nil
	}
	p, err := st.Prompt(ctx, s)
	if err != nil {
		e.fail(ctx, s.UserID, f, err, true)
		return nil
	}
	if note != "" {
		p.Text = note + "\n\n" + p.Text
	}
	buttons := make([]transport.Button, 0, len(p.Buttons)+2)
	buttons = append(buttons, p.Buttons...)
	if st.Skippable && !hasToken(buttons, TokenSkip) {
		buttons = append(buttons, skipButton)
	}
	p.Buttons = append(buttons, cancelButton)
	e.send(ctx, s.UserID, p)
	return nil
}

// fail ends the flow on a non-validation error.
func (e *Engine) fail(ctx context.Context, userID string, f *Flow, err error, clear bool) {
	if clear {
		_ = e.Store.Clear(ctx, userID)
	}
	kind := domain.KindOf(err)
	e.Metrics.FlowFailed(string(f.Name), string(kind))
	if kind == domain.KindStorage {
		applog.Error(nil, "flow.fail", err, map[string]any{"user_id": userID, "flow": f.Name})
	} else {
		applog.Info(nil, "flow.refuse", map[string]any{"user_id": userID, "flow": f.Name, "kind": kind})
	}
	e.say(ctx, userID, UserMessage(err))
}

func (e *Engine) say(ctx context.Context, userID, text string) {
	e.send(ctx, userID, Prompt{Text: text})
}

func (e *Engine) send(ctx context.Context, userID string, p Prompt) {
	if p.Image != "" {
		if err := e.Sender.SendFile(ctx, userID, p.Image, ""); err != nil {
			applog.Error(nil, "flow.send", domain.Delivery(err, userID), nil)
		}
	}
	if err := transport.Send(ctx, e.Sender, userID, p.Text, p.Buttons); err != nil {
		applog.Error(nil, "flow.send", domain.Delivery(err, userID), nil)
	}
}

func hasToken(buttons []transport.Button, tok string) bool {
	for _, b := range buttons {
		if b.Data == tok {
			return true
		}
	}
	return false
}
