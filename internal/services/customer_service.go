package services

import (
	"context"
	"errors"
	"fmt"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	applog "honeydesk/internal/log"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/transport"
)

type CustomerService struct {
	Customers   *repos.CustomerRepo
	Gate        *Gate
	Notify      *notify.Dispatcher
	Events      events.Publisher
	AutoApprove bool
}

func NewCustomerService(customers *repos.CustomerRepo, gate *Gate, n *notify.Dispatcher, ev events.Publisher, autoApprove bool) *CustomerService {
	return &CustomerService{Customers: customers, Gate: gate, Notify: n, Events: ev, AutoApprove: autoApprove}
}

type Registration struct {
	ExternalID   string
	Username     string
	FullName     string
	Phone        string
	Email        string
	Region       string
	CustomerType string
}

// Find returns the customer for an external id, or nil when there is none.
func (s *CustomerService) Find(ctx context.Context, externalID string) (*domain.Customer, error) {
	c, err := s.Customers.ByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// Register creates the customer. replace erases a previous Deleted or
// Rejected record for the same external id in the same transaction.
func (s *CustomerService) Register(ctx context.Context, r Registration, replace bool) (*domain.Customer, error) {
	c := &domain.Customer{
		ExternalID:   r.ExternalID,
		Username:     r.Username,
		FullName:     r.FullName,
		Phone:        r.Phone,
		Email:        r.Email,
		Region:       r.Region,
		CustomerType: r.CustomerType,
		Status:       domain.CustomerPending,
		IsAdmin:      s.Gate.IsBootstrap(r.Username),
	}
	if s.AutoApprove || c.IsAdmin {
		c.Status = domain.CustomerApproved
	}
	if _, err := s.Customers.Create(ctx, c, replace); err != nil {
		return nil, err
	}
	applog.Audit(nil, "customer.register", map[string]any{"customer_id": c.ID, "external_id": c.ExternalID, "status": c.Status, "replaced": replace})
	s.Events.Publish(ctx, events.CustomerRegistered, map[string]any{"customer_id": c.ID, "status": c.Status})

	text := fmt.Sprintf("New customer registered\n%s", CustomerCard(c))
	if c.Status == domain.CustomerPending {
		s.Notify.Admins(ctx, text,
			transport.Button{Text: "Approve", Data: fmt.Sprintf("admin:approve:customers:%d", c.ID)},
			transport.Button{Text: "Reject", Data: fmt.Sprintf("admin:reject:customers:%d", c.ID)})
	} else {
		s.Notify.Admins(ctx, text)
	}
	return c, nil
}

// Deactivate is the reversible self-service deletion: Approved becomes
// Deleted and every record is kept.
func (s *CustomerService) Deactivate(ctx context.Context, externalID string) (*domain.Customer, error) {
	c, err := s.Customers.ByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := s.Customers.Transition(ctx, c.ID, domain.CustomerDeleted, domain.CustomerApproved); err != nil {
		return nil, err
	}
	c.Status = domain.CustomerDeleted
	applog.Audit(nil, "customer.deactivate", map[string]any{"customer_id": c.ID})
	s.Events.Publish(ctx, events.CustomerDeactivated, map[string]any{"customer_id": c.ID})
	s.Notify.Admins(ctx, fmt.Sprintf("Customer deactivated their account\n%s", CustomerCard(c)))
	return c, nil
}

// Reactivate brings a Deleted account back as Approved.
func (s *CustomerService) Reactivate(ctx context.Context, externalID string) (*domain.Customer, error) {
	c, err := s.Customers.ByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if err := s.Customers.Transition(ctx, c.ID, domain.CustomerApproved, domain.CustomerDeleted); err != nil {
		return nil, err
	}
	c.Status = domain.CustomerApproved
	applog.Audit(nil, "customer.reactivate", map[string]any{"customer_id": c.ID})
	s.Events.Publish(ctx, events.CustomerReactivated, map[string]any{"customer_id": c.ID})
	s.Notify.Admins(ctx, fmt.Sprintf("Customer reactivated\n%s", CustomerCard(c)))
	return c, nil
}

// Erase permanently deletes the account with its orders, tickets and feedback.
func (s *CustomerService) Erase(ctx context.Context, externalID string) error {
	c, err := s.Customers.ByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if err := s.Customers.Erase(ctx, externalID); err != nil {
		return err
	}
	applog.Audit(nil, "customer.erase", map[string]any{"customer_id": c.ID, "external_id": externalID})
	s.Events.Publish(ctx, events.CustomerErased, map[string]any{"customer_id": c.ID})
	s.Notify.Admins(ctx, fmt.Sprintf("Customer deleted their account: %s (@%s)", c.FullName, c.Username))
	return nil
}

// Decide approves or rejects a Pending registration once.
func (s *CustomerService) Decide(ctx context.Context, actor string, id int64, approve bool) (*domain.Customer, error) {
	c, err := s.Customers.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Protect(c); err != nil {
		return nil, err
	}
	to := domain.CustomerRejected
	if approve {
		to = domain.CustomerApproved
	}
	if err := s.Customers.Transition(ctx, id, to, domain.CustomerPending); err != nil {
		return nil, err
	}
	c.Status = to
	applog.Audit(nil, "admin.customer.decide", map[string]any{"customer_id": id, "status": to, "actor": actor})
	s.Events.Publish(ctx, events.CustomerDecided, map[string]any{"customer_id": id, "status": to})
	if approve {
		s.Notify.User(ctx, c.ExternalID, "Your registration was approved. Welcome!",
			transport.Button{Text: "Order now", Data: "order"})
	} else {
		s.Notify.User(ctx, c.ExternalID, "Your registration was rejected.")
	}
	return c, nil
}

const (
	UserBan         = "ban"
	UserApprove     = "approve"
	UserToggleAdmin = "toggle_admin"
)

// Manage applies an admin action to a customer. The superadmin is never a
// valid target.
func (s *CustomerService) Manage(ctx context.Context, actor string, id int64, action string) (*domain.Customer, error) {
	c, err := s.Customers.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Protect(c); err != nil {
		applog.Security(nil, "admin.superadmin.block", map[string]any{"actor": actor, "action": action, "customer_id": id})
		return nil, err
	}
	switch action {
	case UserBan:
		err = s.Customers.UpdateStatus(ctx, id, domain.CustomerRejected)
		c.Status = domain.CustomerRejected
	case UserApprove:
		err = s.Customers.UpdateStatus(ctx, id, domain.CustomerApproved)
		c.Status = domain.CustomerApproved
	case UserToggleAdmin:
		err = s.Customers.SetAdmin(ctx, id, !c.IsAdmin)
		c.IsAdmin = !c.IsAdmin
	default:
		return nil, domain.Validation("unknown action %q", action)
	}
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.customer."+action, map[string]any{"customer_id": id, "actor": actor, "status": c.Status, "is_admin": c.IsAdmin})
	switch action {
	case UserBan:
		s.Notify.User(ctx, c.ExternalID, "Your account has been suspended by an admin.")
	case UserApprove:
		s.Notify.User(ctx, c.ExternalID, "Your account has been approved.")
	}
	return c, nil
}

// SetAdmin grants or revokes admin rights; used by /setadmin and /setuser.
func (s *CustomerService) SetAdmin(ctx context.Context, actor string, id int64, admin bool) (*domain.Customer, error) {
	c, err := s.Customers.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Protect(c); err != nil {
		applog.Security(nil, "admin.superadmin.block", map[string]any{"actor": actor, "action": "set_admin", "customer_id": id})
		return nil, err
	}
	if err := s.Customers.SetAdmin(ctx, id, admin); err != nil {
		return nil, err
	}
	c.IsAdmin = admin
	applog.Audit(nil, "admin.customer.set_admin", map[string]any{"customer_id": id, "actor": actor, "is_admin": admin})
	return c, nil
}

// PromoteBootstrap marks every configured admin handle that has registered.
func (s *CustomerService) PromoteBootstrap(ctx context.Context, handles []string) (int, error) {
	n := 0
	for _, h := range handles {
		ok, err := s.Customers.PromoteByUsername(ctx, h)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.Customers.ByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, status domain.CustomerStatus, limit int) ([]domain.Customer, error) {
	return s.Customers.ListRecent(ctx, status, limit)
}

// CustomerCard renders a customer for chat.
func CustomerCard(c *domain.Customer) string {
	email := c.Email
	if email == "" {
		email = "-"
	}
	return fmt.Sprintf("#%d %s (@%s)\nPhone: %s\nEmail: %s\nRegion: %s\nType: %s\nStatus: %s",
		c.ID, c.FullName, c.Username, c.Phone, email, c.Region, c.CustomerType, c.Status)
}
