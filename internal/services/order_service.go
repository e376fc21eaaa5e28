package services

import (
	"context"
	"fmt"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/transport"
)

type OrderService struct {
	Orders  *repos.OrderRepo
	Notify  *notify.Dispatcher
	Events  events.Publisher
	Metrics *metrics.Metrics
}

func NewOrderService(orders *repos.OrderRepo, n *notify.Dispatcher, ev events.Publisher, m *metrics.Metrics) *OrderService {
	return &OrderService{Orders: orders, Notify: n, Events: ev, Metrics: m}
}

// Place stores a Pending order and asks the admins to decide on it.
func (s *OrderService) Place(ctx context.Context, o *domain.Order, customer *domain.Customer) (*domain.Order, error) {
	if _, err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	applog.Info(nil, "order.place", map[string]any{"order_id": o.ID, "user_id": o.UserID})
	s.Events.Publish(ctx, events.OrderPlaced, map[string]any{"order_id": o.ID, "user_id": o.UserID, "price": o.Price.String(), "quantity": o.Quantity})

	who := o.UserID
	if customer != nil {
		who = fmt.Sprintf("%s (@%s, %s)", customer.FullName, customer.Username, customer.Phone)
	}
	s.Notify.Admins(ctx, fmt.Sprintf("New order #%d from %s\n%s", o.ID, who, OrderCard(o)),
		transport.Button{Text: "Approve", Data: fmt.Sprintf("admin:approve:orders:%d", o.ID)},
		transport.Button{Text: "Reject", Data: fmt.Sprintf("admin:reject:orders:%d", o.ID)})
	return o, nil
}

// Decide applies the first admin decision on a Pending order. A later
// decision gets a Conflict and changes nothing.
func (s *OrderService) Decide(ctx context.Context, actor string, id int64, approve bool) (*domain.Order, error) {
	to := domain.OrderRejected
	if approve {
		to = domain.OrderApproved
	}
	if err := s.Orders.Decide(ctx, id, to); err != nil {
		s.Metrics.Decision("orders", string(domain.KindOf(err)))
		return nil, err
	}
	s.Metrics.Decision("orders", string(to))
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.order.decide", map[string]any{"order_id": id, "status": to, "actor": actor})
	s.Events.Publish(ctx, events.OrderDecided, map[string]any{"order_id": id, "status": to})
	if approve {
		s.Notify.User(ctx, o.UserID, fmt.Sprintf("Your order #%d (%s) has been approved.", o.ID, o.ProductName))
	} else {
		s.Notify.User(ctx, o.UserID, fmt.Sprintf("Your order #%d (%s) has been rejected.", o.ID, o.ProductName))
	}
	return o, nil
}

func (s *OrderService) ForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID, 10)
}

func (s *OrderService) Recent(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(ctx, status, limit)
}

func OrderCard(o *domain.Order) string {
	return fmt.Sprintf("Product: %s\nPrice: %s\nQuantity: %s\nAddress: %s\nPayment: %s\nStatus: %s",
		o.ProductName, o.Price.StringFixed(2), o.Quantity, o.Address, o.Payment, o.Status)
}
