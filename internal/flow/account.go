package flow

import (
	"context"

	"honeydesk/internal/domain"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
)

func deleteAccountFlow(d Deps) *Flow {
	data := func(s *session.Session) *DeleteAccountData { return s.Data.(*DeleteAccountData) }

	return &Flow{
		Name:     FlowDeleteAccount,
		Title:    "account deletion",
		Triggers: []string{"delete_account"},
		Begin: func(ctx context.Context, ev Event, _ string) (session.Data, string, error) {
			c, err := d.Customers.Find(ctx, ev.UserID)
			if err != nil {
				return nil, "", err
			}
			if c == nil {
				return nil, "", &domain.Error{Kind: domain.KindNotFound, Message: "You have no account to delete."}
			}
			if c.Status != domain.CustomerApproved {
				return &DeleteAccountData{Erase: true}, "confirm", nil
			}
			return &DeleteAccountData{}, "mode", nil
		},
		Steps: []*Step{
			{
				Name: "mode",
				Kind: StepChoice,
				Prompt: static("Deactivate your account to keep your history and come back later with /register, or delete it permanently.",
					btn("Deactivate", "account:deactivate"), btn("Delete permanently", "account:erase")),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					data(s).Erase = tokenArg(in.Text, "account") == "erase"
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					if !data(s).Erase {
						return Prompt{
							Text:    "Your account will be deactivated. Orders, tickets and feedback are kept and you can reactivate with /register.",
							Buttons: []transport.Button{btn("Deactivate", TokenConfirm)},
						}, nil
					}
					return Prompt{
						Text:    "This permanently deletes your account together with your orders, tickets and feedback. It cannot be undone.",
						Buttons: []transport.Button{btn("Delete permanently", TokenConfirm)},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, _ Event) (Prompt, error) {
			if !data(s).Erase {
				if _, err := d.Customers.Deactivate(ctx, s.UserID); err != nil {
					return Prompt{}, err
				}
				return Prompt{Text: "Your account has been deactivated. Use /register to reactivate it."}, nil
			}
			if err := d.Customers.Erase(ctx, s.UserID); err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: "Your account and all of your data have been deleted."}, nil
		},
	}
}
