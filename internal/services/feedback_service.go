package services

import (
	"context"
	"fmt"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
)

type FeedbackService struct {
	Feedback *repos.FeedbackRepo
	Blobs    storage.Blobs
	Notify   *notify.Dispatcher
	Events   events.Publisher
	Metrics  *metrics.Metrics
}

func NewFeedbackService(fb *repos.FeedbackRepo, blobs storage.Blobs, n *notify.Dispatcher, ev events.Publisher, m *metrics.Metrics) *FeedbackService {
	return &FeedbackService{Feedback: fb, Blobs: blobs, Notify: n, Events: ev, Metrics: m}
}

func (s *FeedbackService) Submit(ctx context.Context, userID string, rating int, comment string, photo *Upload) (*domain.Feedback, error) {
	f := &domain.Feedback{UserID: userID, Rating: rating, Comment: comment}
	if _, err := s.Feedback.Create(ctx, f, attach(ctx, s.Blobs, storage.KindFeedback, photo)); err != nil {
		return nil, err
	}
	applog.Info(nil, "feedback.submit", map[string]any{"feedback_id": f.ID, "user_id": userID, "rating": rating})
	s.Events.Publish(ctx, events.FeedbackSubmitted, map[string]any{"feedback_id": f.ID, "rating": rating})

	s.Notify.Admins(ctx, fmt.Sprintf("New feedback #%d from %s\n%s", f.ID, userID, FeedbackCard(f)),
		transport.Button{Text: "Approve", Data: fmt.Sprintf("admin:approve:feedback:%d", f.ID)},
		transport.Button{Text: "Reject", Data: fmt.Sprintf("admin:reject:feedback:%d", f.ID)})
	if f.PhotoPath != "" {
		s.Notify.AdminsFile(ctx, f.PhotoPath, fmt.Sprintf("Photo for feedback #%d", f.ID))
	}
	return f, nil
}

func (s *FeedbackService) Decide(ctx context.Context, actor string, id int64, approve bool) (*domain.Feedback, error) {
	to := domain.FeedbackRejected
	if approve {
		to = domain.FeedbackApproved
	}
	if err := s.Feedback.Decide(ctx, id, to); err != nil {
		s.Metrics.Decision("feedback", string(domain.KindOf(err)))
		return nil, err
	}
	s.Metrics.Decision("feedback", string(to))
	f, err := s.Feedback.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.feedback.decide", map[string]any{"feedback_id": id, "status": to, "actor": actor})
	s.Events.Publish(ctx, events.FeedbackDecided, map[string]any{"feedback_id": id, "status": to})
	s.Notify.User(ctx, f.UserID, fmt.Sprintf("Your feedback #%d was %s. Thank you!", f.ID, strings.ToLower(string(to))))
	return f, nil
}

func (s *FeedbackService) ForUser(ctx context.Context, userID string) ([]domain.Feedback, error) {
	return s.Feedback.ListByUser(ctx, userID, 10)
}

func FeedbackCard(f *domain.Feedback) string {
	return fmt.Sprintf("Rating: %s\nComment: %s\nStatus: %s", strings.Repeat("*", f.Rating), f.Comment, f.Status)
}
