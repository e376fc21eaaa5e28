// Package bot routes inbound chat events: flows first, then one-shot actions.
package bot

import (
	"context"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/flow"
	applog "honeydesk/internal/log"
	"honeydesk/internal/services"
	"honeydesk/internal/transport"
)

type action func(ctx context.Context, ev flow.Event, args []string) error

type Bot struct {
	Engine  *flow.Engine
	Svc     flow.Deps
	Reports *services.ReportService
	Sender  transport.Sender

	locks   keyedMutex
	actions map[string]action
	admin   map[string]bool
}

func New(engine *flow.Engine, svc flow.Deps, reports *services.ReportService, sender transport.Sender) *Bot {
	b := &Bot{Engine: engine, Svc: svc, Reports: reports, Sender: sender}
	b.actions = map[string]action{
		"start":        b.start,
		"help":         b.help,
		"profile":      b.profile,
		"my_orders":    b.myOrders,
		"my_tickets":   b.myTickets,
		"my_feedback":  b.myFeedback,
		"view_ticket":  b.viewTicket,
		"catalog":      b.catalog,
		"categories":   b.categories,
		"category":     b.category,
		"view_product": b.viewProduct,
		"order_later":  b.orderLater,

		"admin":                b.decide,
		"resolve_ticket":       b.resolveTicket,
		"admin_user":           b.manageUser,
		"admin_delete_product": b.deleteProduct,
		"setadmin":             b.setAdmin(true),
		"setuser":              b.setAdmin(false),
		"tickets":              b.tickets,
		"orders":               b.orders,
		"users":                b.users,
		"view_user":            b.viewUser,
		"dashboard":            b.dashboard,
	}
	b.admin = map[string]bool{
		"admin": true, "resolve_ticket": true, "admin_user": true, "admin_delete_product": true,
		"setadmin": true, "setuser": true, "tickets": true, "orders": true, "users": true,
		"view_user": true, "dashboard": true,
	}
	return b
}

// Handle processes one event. Events of the same user never overlap.
func (b *Bot) Handle(ctx context.Context, ev flow.Event) error {
	unlock := b.locks.Lock(ev.UserID)
	defer unlock()

	handled, err := b.Engine.Handle(ctx, ev)
	if handled {
		return err
	}
	switch ev.Kind {
	case flow.EventFile:
		b.say(ctx, ev.UserID, "I was not expecting a file. Start /support to attach one to a request.")
		return nil
	case flow.EventText:
		if !strings.HasPrefix(ev.Token(), "/") {
			return b.freeText(ctx, ev)
		}
	}
	name, args := parse(ev)
	return b.run(ctx, ev, name, args)
}

// parse splits "/cmd a b" on spaces and "name:a:b" button tokens on colons.
func parse(ev flow.Event) (string, []string) {
	tok := ev.Token()
	if ev.Kind == flow.EventText {
		fields := strings.Fields(strings.TrimPrefix(tok, "/"))
		if len(fields) == 0 {
			return "", nil
		}
		return strings.ToLower(fields[0]), fields[1:]
	}
	parts := strings.Split(tok, ":")
	return parts[0], parts[1:]
}

func (b *Bot) run(ctx context.Context, ev flow.Event, name string, args []string) error {
	act, ok := b.actions[name]
	if !ok {
		b.say(ctx, ev.UserID, "Sorry, I did not understand that. Send /help to see what I can do.")
		return nil
	}
	if b.admin[name] {
		if err := b.Svc.Gate.Require(ctx, ev.Username); err != nil {
			applog.Security(nil, "bot.admin.denied", map[string]any{"user_id": ev.UserID, "action": name})
			b.fail(ctx, ev.UserID, name, err)
			return nil
		}
	}
	if err := act(ctx, ev, args); err != nil {
		b.fail(ctx, ev.UserID, name, err)
	}
	return nil
}

// freeText continues the user's active ticket, if any.
func (b *Bot) freeText(ctx context.Context, ev flow.Event) error {
	t, err := b.Svc.Tickets.ActiveFor(ctx, ev.UserID)
	if err != nil {
		b.fail(ctx, ev.UserID, "ticket.append", err)
		return nil
	}
	if t == nil {
		b.say(ctx, ev.UserID, "Send /help to see what I can do, or /support to contact us.")
		return nil
	}
	if err := b.appendToTicket(ctx, ev); err != nil {
		b.fail(ctx, ev.UserID, "ticket.append", err)
	}
	return nil
}

func (b *Bot) fail(ctx context.Context, userID, action string, err error) {
	if domain.KindOf(err) == domain.KindStorage {
		applog.Error(nil, "bot."+action, err, map[string]any{"user_id": userID})
	}
	b.say(ctx, userID, flow.UserMessage(err))
}

func (b *Bot) say(ctx context.Context, userID, text string, buttons ...transport.Button) {
	if err := transport.Send(ctx, b.Sender, userID, text, buttons); err != nil {
		applog.Error(nil, "bot.send", domain.Delivery(err, userID), nil)
	}
}

func (b *Bot) sendFile(ctx context.Context, userID, ref, caption string) {
	if err := b.Sender.SendFile(ctx, userID, ref, caption); err != nil {
		applog.Error(nil, "bot.send", domain.Delivery(err, userID), nil)
	}
}

func btn(text, data string) transport.Button { return transport.Button{Text: text, Data: data} }
