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

var customerTypes = []string{"New", "Returning"}

func registrationFlow(d Deps) *Flow {
	data := func(s *session.Session) *RegistrationData { return s.Data.(*RegistrationData) }

	return &Flow{
		Name:     FlowRegistration,
		Title:    "registration",
		Triggers: []string{"register"},
		Replace:  true,
		Begin: func(ctx context.Context, ev Event, _ string) (session.Data, string, error) {
			handle := strings.TrimPrefix(strings.TrimSpace(ev.Username), "@")
			if handle == "" {
				return nil, "", domain.Validation("Please set a username in your chat settings, then send /register again.")
			}
			c, err := d.Customers.Find(ctx, ev.UserID)
			if err != nil {
				return nil, "", err
			}
			rd := &RegistrationData{Username: handle}
			if c == nil {
				return rd, "name", nil
			}
			switch c.Status {
			case domain.CustomerApproved:
				return nil, "", domain.Conflict("You are already registered.")
			case domain.CustomerPending:
				return nil, "", domain.Conflict("Your registration is awaiting admin approval.")
			case domain.CustomerDeleted:
				return rd, "returning", nil
			}
			rd.ReplaceExisting = true
			return rd, "name", nil
		},
		Steps: []*Step{
			{
				Name:   "returning",
				Kind:   StepChoice,
				Prompt: static("Welcome back! Your account was deleted. Reactivate it or register again?", btn("Reactivate", "returning:reactivate"), btn("Register new", "returning:new")),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					if tokenArg(in.Text, "returning") == "reactivate" {
						data(s).Reactivate = true
						return "confirm", nil
					}
					data(s).ReplaceExisting = true
					return "name", nil
				},
			},
			{
				Name:   "name",
				Kind:   StepText,
				Prompt: static("Please enter your full name:"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Name(in.Text)
					if !ok {
						return "", domain.Validation("Name must be at least %d characters.", validate.MinName)
					}
					data(s).FullName = v
					return "phone", nil
				},
			},
			{
				Name:   "phone",
				Kind:   StepText,
				Prompt: static("Please enter your phone number (digits only):"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Phone(in.Text)
					if !ok {
						return "", domain.Validation("Phone number must contain digits only.")
					}
					data(s).Phone = v
					return "email", nil
				},
			},
			{
				Name:   "email",
				Kind:   StepText,
				Prompt: static("Please enter your email, or type skip:"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Email(in.Text)
					if !ok {
						return "", domain.Validation("Please enter a valid email address or type skip.")
					}
					data(s).Email = v
					return "region", nil
				},
			},
			{
				Name:   "region",
				Kind:   StepText,
				Prompt: static("Which region or city are you in?"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Region(in.Text)
					if !ok {
						return "", domain.Validation("Region cannot be empty.")
					}
					data(s).Region = v
					return "type", nil
				},
			},
			{
				Name:   "type",
				Kind:   StepChoice,
				Prompt: static("Are you a new or returning customer?", btn("New customer", "type:New"), btn("Returning customer", "type:Returning")),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Option(tokenArg(in.Text, "type"), customerTypes)
					if !ok {
						return "", domain.Validation("Please choose a customer type.")
					}
					data(s).CustomerType = v
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					rd := data(s)
					if rd.Reactivate {
						return Prompt{Text: "Reactivate your previous account?", Buttons: []transport.Button{confirmButton}}, nil
					}
					return Prompt{
						Text: fmt.Sprintf("Please confirm your details:\nName: %s\nPhone: %s\nEmail: %s\nRegion: %s\nType: %s",
							rd.FullName, rd.Phone, yesNo(rd.Email), rd.Region, rd.CustomerType),
						Buttons: []transport.Button{confirmButton},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, ev Event) (Prompt, error) {
			rd := data(s)
			afterwards := []transport.Button{btn("Order now", "order"), btn("Later", "order_later")}
			if rd.Reactivate {
				if _, err := d.Customers.Reactivate(ctx, s.UserID); err != nil {
					return Prompt{}, err
				}
				return Prompt{Text: "Welcome back! Your account is active again. Would you like to order now?", Buttons: afterwards}, nil
			}
			c, err := d.Customers.Register(ctx, services.Registration{
				ExternalID:   s.UserID,
				Username:     rd.Username,
				FullName:     rd.FullName,
				Phone:        rd.Phone,
				Email:        rd.Email,
				Region:       rd.Region,
				CustomerType: rd.CustomerType,
			}, rd.ReplaceExisting)
			if err != nil {
				return Prompt{}, err
			}
			if c.Status != domain.CustomerApproved {
				return Prompt{Text: "Thanks for registering! An admin will review your registration shortly."}, nil
			}
			return Prompt{Text: "Registration complete! Would you like to place an order now?", Buttons: afterwards}, nil
		},
	}
}
