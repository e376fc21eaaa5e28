package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func feedbackFlow(d Deps) *Flow {
	data := func(s *session.Session) *FeedbackData { return s.Data.(*FeedbackData) }

	ratings := make([]transport.Button, 0, 5)
	for i := 1; i <= 5; i++ {
		ratings = append(ratings, btn(strings.Repeat("*", i), "rate:"+strconv.Itoa(i)))
	}

	return &Flow{
		Name:     FlowFeedback,
		Title:    "feedback",
		Triggers: []string{"feedback"},
		Begin: func(ctx context.Context, ev Event, _ string) (session.Data, string, error) {
			if _, err := requireApproved(ctx, d, ev.UserID); err != nil {
				return nil, "", err
			}
			return &FeedbackData{}, "rating", nil
		},
		Steps: []*Step{
			{
				Name:   "rating",
				Kind:   StepChoice,
				Prompt: static("How would you rate us?", ratings...),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					n, ok := validate.Rating(tokenArg(in.Text, "rate"))
					if !ok {
						return "", domain.Validation("Please choose a rating from 1 to 5.")
					}
					data(s).Rating = n
					return "comment", nil
				},
			},
			{
				Name:   "comment",
				Kind:   StepText,
				Prompt: static("Please write a short comment:"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Message(in.Text)
					if !ok {
						return "", domain.Validation("Comment must be at least %d characters.", validate.MinMessage)
					}
					data(s).Comment = v
					return "photo", nil
				},
			},
			{
				Name:      "photo",
				Kind:      StepFile,
				Skippable: true,
				Prompt:    static("Send a photo if you like, or press Skip."),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					up, err := optionalUpload(in)
					if err != nil {
						return "", err
					}
					data(s).Photo = up
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					fd := data(s)
					photo := "none"
					if fd.Photo != nil {
						photo = fd.Photo.Name
					}
					return Prompt{
						Text:    fmt.Sprintf("Please confirm your feedback:\nRating: %d/5\nComment: %s\nPhoto: %s", fd.Rating, fd.Comment, photo),
						Buttons: []transport.Button{confirmButton},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, _ Event) (Prompt, error) {
			fd := data(s)
			if _, err := d.Feedback.Submit(ctx, s.UserID, fd.Rating, fd.Comment, fd.Photo); err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: "Thank you for your feedback!"}, nil
		},
	}
}
