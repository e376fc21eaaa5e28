package bot

import (
	"context"
	"fmt"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/flow"
	"honeydesk/internal/repos"
	"honeydesk/internal/services"
	"honeydesk/internal/transport"
)

// decide handles admin:<approve|reject>:<entity>:<id>.
func (b *Bot) decide(ctx context.Context, ev flow.Event, args []string) error {
	if len(args) != 3 {
		return domain.Validation("Malformed admin action.")
	}
	verb, entity := args[0], args[1]
	if verb != "approve" && verb != "reject" {
		return domain.Validation("Unknown decision %q.", verb)
	}
	approve := verb == "approve"
	id, err := argID(args[2:], strings.TrimSuffix(entity, "s"))
	if err != nil {
		return err
	}
	actor := ev.Username
	var status string
	switch entity {
	case "orders":
		o, err := b.Svc.Orders.Decide(ctx, actor, id, approve)
		if err != nil {
			return err
		}
		status = string(o.Status)
	case "customers":
		c, err := b.Svc.Customers.Decide(ctx, actor, id, approve)
		if err != nil {
			return err
		}
		status = string(c.Status)
	case "feedback":
		f, err := b.Svc.Feedback.Decide(ctx, actor, id, approve)
		if err != nil {
			return err
		}
		status = string(f.Status)
	case "tickets":
		var t *domain.Ticket
		if approve {
			t, err = b.Svc.Tickets.Accept(ctx, actor, id)
		} else {
			t, err = b.Svc.Tickets.Reject(ctx, actor, id)
		}
		if err != nil {
			return err
		}
		status = string(t.Status)
	default:
		return domain.Validation("Unknown record type %q.", entity)
	}
	b.say(ctx, ev.UserID, fmt.Sprintf("%s #%d is now %s.", titleOf(entity), id, status))
	return nil
}

func titleOf(entity string) string {
	switch entity {
	case "orders":
		return "Order"
	case "customers":
		return "Customer"
	case "tickets":
		return "Ticket"
	}
	return "Feedback"
}

func (b *Bot) resolveTicket(ctx context.Context, ev flow.Event, args []string) error {
	id, err := argID(args, "ticket")
	if err != nil {
		return err
	}
	if _, err := b.Svc.Tickets.Close(ctx, ev.Username, id); err != nil {
		return err
	}
	b.say(ctx, ev.UserID, fmt.Sprintf("Ticket #%d closed.", id))
	return nil
}

// manageUser handles admin_user:<ban|approve|toggle_admin>:<id>.
func (b *Bot) manageUser(ctx context.Context, ev flow.Event, args []string) error {
	if len(args) != 2 {
		return domain.Validation("Malformed user action.")
	}
	id, err := argID(args[1:], "customer")
	if err != nil {
		return err
	}
	c, err := b.Svc.Customers.Manage(ctx, ev.Username, id, args[0])
	if err != nil {
		return err
	}
	b.say(ctx, ev.UserID, "Updated.\n"+services.CustomerCard(c), userButtons(c)...)
	return nil
}

func (b *Bot) setAdmin(admin bool) action {
	return func(ctx context.Context, ev flow.Event, args []string) error {
		id, err := argID(args, "customer")
		if err != nil {
			return err
		}
		c, err := b.Svc.Customers.SetAdmin(ctx, ev.Username, id, admin)
		if err != nil {
			return err
		}
		role := "a regular user"
		if c.IsAdmin {
			role = "an admin"
		}
		b.say(ctx, ev.UserID, fmt.Sprintf("%s (@%s) is now %s.", c.FullName, c.Username, role))
		return nil
	}
}

func (b *Bot) deleteProduct(ctx context.Context, ev flow.Event, args []string) error {
	id, err := argID(args, "product")
	if err != nil {
		return err
	}
	if err := b.Svc.Catalog.Delete(ctx, ev.Username, id); err != nil {
		return err
	}
	b.say(ctx, ev.UserID, fmt.Sprintf("Product #%d deleted.", id))
	return nil
}

var ticketStatuses = []domain.TicketStatus{domain.TicketPending, domain.TicketOpen, domain.TicketClosed, domain.TicketRejected}

func (b *Bot) tickets(ctx context.Context, ev flow.Event, args []string) error {
	var status domain.TicketStatus
	if len(args) > 0 {
		var ok bool
		if status, ok = matchStatus(args[0], ticketStatuses); !ok {
			return domain.Validation("Unknown status %q. Use Pending, Open, Closed or Rejected.", args[0])
		}
	}
	list, err := b.Svc.Tickets.List(ctx, status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		b.say(ctx, ev.UserID, "No tickets found.")
		return nil
	}
	buttons := make([]transport.Button, 0, len(list))
	for _, t := range list {
		buttons = append(buttons, btn(fmt.Sprintf("#%d %s [%s]", t.ID, t.Subject, t.Status), fmt.Sprintf("view_ticket:%d", t.ID)))
	}
	b.say(ctx, ev.UserID, "Tickets:", buttons...)
	return nil
}

var orderStatuses = []domain.OrderStatus{domain.OrderPending, domain.OrderApproved, domain.OrderRejected}

func (b *Bot) orders(ctx context.Context, ev flow.Event, args []string) error {
	var status domain.OrderStatus
	if len(args) > 0 {
		var ok bool
		if status, ok = matchStatus(args[0], orderStatuses); !ok {
			return domain.Validation("Unknown status %q. Use Pending, Approved or Rejected.", args[0])
		}
	}
	list, err := b.Svc.Orders.Recent(ctx, status, 10)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		b.say(ctx, ev.UserID, "No orders found.")
		return nil
	}
	for i := range list {
		o := &list[i]
		var buttons []transport.Button
		if o.Status == domain.OrderPending {
			buttons = []transport.Button{
				btn("Approve", fmt.Sprintf("admin:approve:orders:%d", o.ID)),
				btn("Reject", fmt.Sprintf("admin:reject:orders:%d", o.ID)),
			}
		}
		b.say(ctx, ev.UserID, fmt.Sprintf("Order #%d from %s\n%s", o.ID, o.UserID, services.OrderCard(o)), buttons...)
	}
	return nil
}

var customerStatuses = []domain.CustomerStatus{domain.CustomerPending, domain.CustomerApproved, domain.CustomerRejected, domain.CustomerDeleted}

func (b *Bot) users(ctx context.Context, ev flow.Event, args []string) error {
	var status domain.CustomerStatus
	if len(args) > 0 {
		var ok bool
		if status, ok = matchStatus(args[0], customerStatuses); !ok {
			return domain.Validation("Unknown status %q. Use Pending, Approved, Rejected or Deleted.", args[0])
		}
	}
	list, err := b.Svc.Customers.List(ctx, status, 20)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		b.say(ctx, ev.UserID, "No customers found.")
		return nil
	}
	buttons := make([]transport.Button, 0, len(list))
	for _, c := range list {
		buttons = append(buttons, btn(fmt.Sprintf("#%d %s (@%s) [%s]", c.ID, c.FullName, c.Username, c.Status), fmt.Sprintf("view_user:%d", c.ID)))
	}
	b.say(ctx, ev.UserID, "Customers:", buttons...)
	return nil
}

func (b *Bot) viewUser(ctx context.Context, ev flow.Event, args []string) error {
	id, err := argID(args, "customer")
	if err != nil {
		return err
	}
	c, err := b.Svc.Customers.Get(ctx, id)
	if err != nil {
		return err
	}
	b.say(ctx, ev.UserID, services.CustomerCard(c), userButtons(c)...)
	return nil
}

func userButtons(c *domain.Customer) []transport.Button {
	toggle := "Make admin"
	if c.IsAdmin {
		toggle = "Remove admin"
	}
	buttons := []transport.Button{btn(toggle, fmt.Sprintf("admin_user:%s:%d", services.UserToggleAdmin, c.ID))}
	if c.Status != domain.CustomerRejected {
		buttons = append(buttons, btn("Ban", fmt.Sprintf("admin_user:%s:%d", services.UserBan, c.ID)))
	}
	if c.Status != domain.CustomerApproved {
		buttons = append(buttons, btn("Approve", fmt.Sprintf("admin_user:%s:%d", services.UserApprove, c.ID)))
	}
	return buttons
}

func (b *Bot) dashboard(ctx context.Context, ev flow.Event, _ []string) error {
	st, err := b.Reports.Overview(ctx)
	if err != nil {
		return err
	}
	low, err := b.Reports.LowStock(ctx)
	if err != nil {
		return err
	}
	b.say(ctx, ev.UserID, DashboardText(st, low),
		btn("Pending tickets", "tickets:Pending"), btn("Add product", "admin_add_product"))
	return nil
}

// DashboardText renders the overview for chat.
func DashboardText(st domain.Stats, low []repos.StockRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Customers: %d\nTickets: %d (pending %d, closed %d)\nOrders: %d approved, %d pending\nRevenue: %s",
		st.Customers, st.Tickets, st.PendingTickets, st.ClosedTickets, st.ApprovedOrders, st.PendingOrders, st.Revenue.StringFixed(2))
	if st.UnpricedOrders > 0 {
		fmt.Fprintf(&sb, "\n%d approved order(s) have no recorded price and are not in the revenue.", st.UnpricedOrders)
	}
	if len(low) > 0 {
		sb.WriteString("\nLow stock:")
		for _, r := range low {
			fmt.Fprintf(&sb, "\n- %s: %d", r.Name, r.Stock)
		}
	}
	return sb.String()
}

func matchStatus[S ~string](in string, all []S) (S, bool) {
	for _, s := range all {
		if strings.EqualFold(in, string(s)) {
			return s, true
		}
	}
	return "", false
}
