package services

import (
	"context"
	"errors"
	"fmt"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
)

var TicketCategories = []string{"Inquiry", "Complaint", "Support"}

type TicketService struct {
	Tickets *repos.TicketRepo
	Blobs   storage.Blobs
	Notify  *notify.Dispatcher
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func NewTicketService(tickets *repos.TicketRepo, blobs storage.Blobs, n *notify.Dispatcher, ev events.Publisher, m *metrics.Metrics) *TicketService {
	return &TicketService{Tickets: tickets, Blobs: blobs, Notify: n, Events: ev, Metrics: m}
}

// ActiveFor returns the user's active ticket or nil.
func (s *TicketService) ActiveFor(ctx context.Context, userID string) (*domain.Ticket, error) {
	t, err := s.Tickets.Active(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// Open creates a ticket with its first message. A user may hold only one
// active ticket; a second request is refused with the existing id.
func (s *TicketService) Open(ctx context.Context, userID, category, body string, up *Upload) (*domain.Ticket, error) {
	active, err := s.ActiveFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, domain.Conflict(fmt.Sprintf("You already have an active ticket #%d. Send a message to continue it.", active.ID))
	}
	t := &domain.Ticket{UserID: userID, Category: category, Subject: "New " + category}
	if _, err := s.Tickets.Create(ctx, t, body, attach(ctx, s.Blobs, storage.KindTickets, up)); err != nil {
		return nil, err
	}
	applog.Info(nil, "ticket.open", map[string]any{"ticket_id": t.ID, "user_id": userID, "category": category})
	s.Events.Publish(ctx, events.TicketOpened, map[string]any{"ticket_id": t.ID, "user_id": userID, "category": category})

	s.Notify.Admins(ctx, fmt.Sprintf("New ticket #%d (%s) from %s\n%s", t.ID, category, userID, body), ticketButtons(t.ID)...)
	if t.AttachmentPath != "" {
		s.Notify.AdminsFile(ctx, t.AttachmentPath, fmt.Sprintf("Attachment for ticket #%d", t.ID))
	}
	return t, nil
}

// Append adds free text from the owner to their active ticket. It reports
// false when the user has no active ticket.
func (s *TicketService) Append(ctx context.Context, userID, body string) (*domain.Ticket, bool, error) {
	t, err := s.ActiveFor(ctx, userID)
	if err != nil || t == nil {
		return nil, false, err
	}
	if _, err := s.Tickets.AppendMessage(ctx, t.ID, domain.SenderUser, body); err != nil {
		return nil, true, err
	}
	s.Events.Publish(ctx, events.TicketMessage, map[string]any{"ticket_id": t.ID, "sender": domain.SenderUser})
	s.Notify.Admins(ctx, fmt.Sprintf("Message on ticket #%d from %s\n%s", t.ID, userID, body), ticketButtons(t.ID)...)
	return t, true, nil
}

// Reply records an admin answer, opens the ticket and tells the owner. A
// Closed ticket is reopened only while its owner has no other active ticket.
func (s *TicketService) Reply(ctx context.Context, actor string, ticketID int64, body string) (*domain.Ticket, error) {
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case domain.TicketPending:
		err = s.Tickets.Transition(ctx, ticketID, domain.TicketOpen, domain.TicketPending)
	case domain.TicketClosed:
		err = s.Tickets.Reopen(ctx, ticketID)
	case domain.TicketRejected:
		err = domain.Conflict(fmt.Sprintf("ticket #%d was rejected and cannot be answered", ticketID))
	}
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketOpen
	if _, err := s.Tickets.AppendMessage(ctx, ticketID, domain.SenderAdmin, body); err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.ticket.reply", map[string]any{"ticket_id": ticketID, "actor": actor})
	s.Events.Publish(ctx, events.TicketMessage, map[string]any{"ticket_id": ticketID, "sender": domain.SenderAdmin})
	s.Notify.User(ctx, t.UserID, fmt.Sprintf("Support replied on ticket #%d:\n%s", ticketID, body))
	return t, nil
}

// Accept moves a Pending ticket to Open before anyone has replied.
func (s *TicketService) Accept(ctx context.Context, actor string, ticketID int64) (*domain.Ticket, error) {
	return s.decide(ctx, actor, ticketID, domain.TicketOpen, "Your ticket #%d is now open. Support will reply here.", domain.TicketPending)
}

// Close resolves an active ticket.
func (s *TicketService) Close(ctx context.Context, actor string, ticketID int64) (*domain.Ticket, error) {
	return s.decide(ctx, actor, ticketID, domain.TicketClosed, "Your ticket #%d has been resolved and closed.", domain.ActiveTicketStatuses...)
}

// Reject declines an active ticket.
func (s *TicketService) Reject(ctx context.Context, actor string, ticketID int64) (*domain.Ticket, error) {
	return s.decide(ctx, actor, ticketID, domain.TicketRejected, "Your ticket #%d has been rejected.", domain.ActiveTicketStatuses...)
}

func (s *TicketService) decide(ctx context.Context, actor string, ticketID int64, to domain.TicketStatus, msg string, from ...domain.TicketStatus) (*domain.Ticket, error) {
	if err := s.Tickets.Transition(ctx, ticketID, to, from...); err != nil {
		s.Metrics.Decision("tickets", string(domain.KindOf(err)))
		return nil, err
	}
	s.Metrics.Decision("tickets", string(to))
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.ticket.status", map[string]any{"ticket_id": ticketID, "status": to, "actor": actor})
	s.Events.Publish(ctx, events.TicketStatus, map[string]any{"ticket_id": ticketID, "status": to})
	s.Notify.User(ctx, t.UserID, fmt.Sprintf(msg, ticketID))
	return t, nil
}

// Thread returns the ticket and its messages, oldest first.
func (s *TicketService) Thread(ctx context.Context, ticketID int64) (*domain.Ticket, []domain.Message, error) {
	t, err := s.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.Tickets.Messages(ctx, ticketID)
	return t, msgs, err
}

func (s *TicketService) ForUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.Tickets.ListByUser(ctx, userID, 10)
}

func (s *TicketService) List(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return s.Tickets.List(ctx, status, 20)
}

func ticketButtons(id int64) []transport.Button {
	return []transport.Button{
		{Text: "Reply", Data: fmt.Sprintf("admin_reply:%d", id)},
		{Text: "Resolve", Data: fmt.Sprintf("resolve_ticket:%d", id)},
		{Text: "Reject", Data: fmt.Sprintf("admin:reject:tickets:%d", id)},
	}
}

// ThreadText renders a ticket conversation for chat.
func ThreadText(t *domain.Ticket, msgs []domain.Message) string {
	out := fmt.Sprintf("Ticket #%d [%s] %s\nStatus: %s", t.ID, t.Category, t.Subject, t.Status)
	if t.AttachmentPath != "" {
		out += "\nAttachment: " + t.AttachmentPath
	}
	for _, m := range msgs {
		who := "You"
		if m.Sender == domain.SenderAdmin {
			who = "Support"
		}
		out += fmt.Sprintf("\n\n%s (%s):\n%s", who, m.CreatedAt, m.Body)
	}
	return out
}
