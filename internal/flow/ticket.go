package flow

import (
	"context"
	"fmt"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func ticketFlow(d Deps) *Flow {
	data := func(s *session.Session) *TicketData { return s.Data.(*TicketData) }

	return &Flow{
		Name:     FlowTicket,
		Title:    "a support request",
		Triggers: []string{"support", "support:"},
		Begin: func(ctx context.Context, ev Event, arg string) (session.Data, string, error) {
			if _, err := requireApproved(ctx, d, ev.UserID); err != nil {
				return nil, "", err
			}
			active, err := d.Tickets.ActiveFor(ctx, ev.UserID)
			if err != nil {
				return nil, "", err
			}
			if active != nil {
				return nil, "", domain.Conflict(fmt.Sprintf("You already have an active ticket #%d. Send a message to continue it.", active.ID))
			}
			if cat, ok := validate.Option(arg, services.TicketCategories); ok {
				return &TicketData{Category: cat}, "message", nil
			}
			return &TicketData{}, "category", nil
		},
		Steps: []*Step{
			{
				Name: "category",
				Kind: StepChoice,
				Prompt: func(context.Context, *session.Session) (Prompt, error) {
					buttons := make([]transport.Button, 0, len(services.TicketCategories))
					for _, c := range services.TicketCategories {
						buttons = append(buttons, btn(c, "cat:"+c))
					}
					return Prompt{Text: "What is your request about?", Buttons: buttons}, nil
				},
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					c, ok := validate.Option(tokenArg(in.Text, "cat"), services.TicketCategories)
					if !ok {
						return "", domain.Validation("Please choose a category.")
					}
					data(s).Category = c
					return "message", nil
				},
			},
			{
				Name: "message",
				Kind: StepText,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					return Prompt{Text: fmt.Sprintf("Describe your %s:", strings.ToLower(data(s).Category))}, nil
				},
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Message(in.Text)
					if !ok {
						return "", domain.Validation("Message must be at least %d characters.", validate.MinMessage)
					}
					data(s).Message = v
					return "attachment", nil
				},
			},
			{
				Name:      "attachment",
				Kind:      StepFile,
				Skippable: true,
				Prompt:    static(fmt.Sprintf("Attach a file (%s), or press Skip.", strings.Join(validate.AllowedExtensions, ", "))),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					up, err := optionalUpload(in)
					if err != nil {
						return "", err
					}
					data(s).Attachment = up
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					td := data(s)
					file := "none"
					if td.Attachment != nil {
						file = td.Attachment.Name
					}
					return Prompt{
						Text:    fmt.Sprintf("Please confirm your request:\nCategory: %s\nMessage: %s\nAttachment: %s", td.Category, td.Message, file),
						Buttons: []transport.Button{confirmButton},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, _ Event) (Prompt, error) {
			td := data(s)
			t, err := d.Tickets.Open(ctx, s.UserID, td.Category, td.Message, td.Attachment)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: fmt.Sprintf("Ticket #%d created. Our team will reply here; any message you send is added to the ticket.", t.ID)}, nil
		},
	}
}
