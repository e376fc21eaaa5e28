package flow

import (
	"context"
	"fmt"

	"honeydesk/internal/domain"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func replyFlow(d Deps) *Flow {
	data := func(s *session.Session) *ReplyData { return s.Data.(*ReplyData) }

	return &Flow{
		Name:     FlowReply,
		Title:    "a ticket reply",
		Triggers: []string{"admin_reply:"},
		Begin: func(ctx context.Context, ev Event, arg string) (session.Data, string, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return nil, "", err
			}
			id, ok := parseID(arg)
			if !ok {
				return nil, "", domain.NotFound("ticket")
			}
			t, _, err := d.Tickets.Thread(ctx, id)
			if err != nil {
				return nil, "", err
			}
			if t.Status == domain.TicketRejected {
				return nil, "", domain.Conflict(fmt.Sprintf("Ticket #%d was rejected and cannot be answered.", id))
			}
			return &ReplyData{TicketID: id}, "reply", nil
		},
		Steps: []*Step{
			{
				Name: "reply",
				Kind: StepText,
				Prompt: func(ctx context.Context, s *session.Session) (Prompt, error) {
					t, msgs, err := d.Tickets.Thread(ctx, data(s).TicketID)
					if err != nil {
						return Prompt{}, err
					}
					return Prompt{Text: services.ThreadText(t, msgs) + "\n\nType your reply:"}, nil
				},
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Message(in.Text)
					if !ok {
						return "", domain.Validation("Reply must be at least %d characters.", validate.MinMessage)
					}
					data(s).Body = v
					return Commit, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, ev Event) (Prompt, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return Prompt{}, err
			}
			rd := data(s)
			t, err := d.Tickets.Reply(ctx, ev.Username, rd.TicketID, rd.Body)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{
				Text:    fmt.Sprintf("Reply sent on ticket #%d.", t.ID),
				Buttons: []transport.Button{btn("Resolve", fmt.Sprintf("resolve_ticket:%d", t.ID))},
			}, nil
		},
	}
}
