package flow

import (
	"context"
	"fmt"

	"honeydesk/internal/domain"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func searchFlow(d Deps) *Flow {
	data := func(s *session.Session) *SearchData { return s.Data.(*SearchData) }

	return &Flow{
		Name:     FlowSearch,
		Title:    "a product search",
		Triggers: []string{"search"},
		Begin: func(context.Context, Event, string) (session.Data, string, error) {
			return &SearchData{}, "query", nil
		},
		Steps: []*Step{
			{
				Name:   "query",
				Kind:   StepText,
				Prompt: static("What are you looking for?"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					q, ok := validate.Q(in.Text)
					if !ok {
						return "", domain.Validation("Search terms may use letters, digits and spaces only.")
					}
					data(s).Query = q
					return Commit, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, _ Event) (Prompt, error) {
			q := data(s).Query
			ps, err := d.Catalog.Search(ctx, q)
			if err != nil {
				return Prompt{}, err
			}
			if len(ps) == 0 {
				return Prompt{Text: fmt.Sprintf("No products match %q.", q)}, nil
			}
			buttons := make([]transport.Button, 0, len(ps))
			for _, p := range ps {
				buttons = append(buttons, btn(fmt.Sprintf("%s - %s", p.Name, p.Price.StringFixed(2)), fmt.Sprintf("view_product:%d", p.ID)))
			}
			return Prompt{Text: fmt.Sprintf("Found %d product(s) for %q:", len(ps), q), Buttons: buttons}, nil
		},
	}
}
