package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/flow"
	"honeydesk/internal/services"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func (b *Bot) start(ctx context.Context, ev flow.Event, _ []string) error {
	c, err := b.Svc.Customers.Find(ctx, ev.UserID)
	if err != nil {
		return err
	}
	var buttons []transport.Button
	text := "Welcome! Register to order from our shop, get support and share feedback."
	if c.Approved() {
		text = fmt.Sprintf("Welcome back, %s! What would you like to do?", c.FullName)
		buttons = append(buttons,
			btn("Catalog", "catalog"), btn("Order", "order"), btn("Support", "support"),
			btn("Feedback", "feedback"), btn("My profile", "profile"))
	} else {
		buttons = append(buttons, btn("Register", "register"), btn("Catalog", "catalog"))
	}
	if b.Svc.Gate.IsAdmin(ctx, ev.Username) {
		buttons = append(buttons, btn("Dashboard", "dashboard"), btn("Tickets", "tickets"), btn("Add product", "admin_add_product"))
	}
	b.say(ctx, ev.UserID, text, buttons...)
	return nil
}

func (b *Bot) help(ctx context.Context, ev flow.Event, _ []string) error {
	lines := []string{
		"/register - create your customer account",
		"/order - place an order",
		"/support - open a support ticket",
		"/feedback - rate our service",
		"/search - find a product",
		"/profile - your account, orders and tickets",
		"/delete_account - deactivate or permanently delete your account",
		"/cancel - stop the current process",
	}
	if b.Svc.Gate.IsAdmin(ctx, ev.Username) {
		lines = append(lines,
			"/dashboard - shop overview",
			"/tickets [status] - list tickets",
			"/orders [status] - list orders",
			"/users [status] - list customers",
			"/admin_add_product - add a product",
			"/setadmin <id>, /setuser <id> - change admin rights")
	}
	b.say(ctx, ev.UserID, strings.Join(lines, "\n"))
	return nil
}

func (b *Bot) profile(ctx context.Context, ev flow.Event, _ []string) error {
	c, err := b.Svc.Customers.Find(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if c == nil {
		b.say(ctx, ev.UserID, "You are not registered yet.", btn("Register", "register"))
		return nil
	}
	b.say(ctx, ev.UserID, services.CustomerCard(c),
		btn("My orders", "my_orders"), btn("My tickets", "my_tickets"),
		btn("My feedback", "my_feedback"), btn("Delete account", "delete_account"))
	return nil
}

func (b *Bot) myOrders(ctx context.Context, ev flow.Event, _ []string) error {
	orders, err := b.Svc.Orders.ForUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		b.say(ctx, ev.UserID, "You have no orders yet.", btn("Order now", "order"))
		return nil
	}
	parts := make([]string, 0, len(orders))
	for i := range orders {
		parts = append(parts, fmt.Sprintf("Order #%d (%s)\n%s", orders[i].ID, orders[i].CreatedAt, services.OrderCard(&orders[i])))
	}
	b.say(ctx, ev.UserID, strings.Join(parts, "\n\n"))
	return nil
}

func (b *Bot) myTickets(ctx context.Context, ev flow.Event, _ []string) error {
	tickets, err := b.Svc.Tickets.ForUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		b.say(ctx, ev.UserID, "You have no tickets.", btn("Contact support", "support"))
		return nil
	}
	buttons := make([]transport.Button, 0, len(tickets))
	for _, t := range tickets {
		buttons = append(buttons, btn(fmt.Sprintf("#%d %s [%s]", t.ID, t.Subject, t.Status), fmt.Sprintf("view_ticket:%d", t.ID)))
	}
	b.say(ctx, ev.UserID, "Your tickets:", buttons...)
	return nil
}

// viewTicket shows a thread to its owner or to an admin.
func (b *Bot) viewTicket(ctx context.Context, ev flow.Event, args []string) error {
	id, err := argID(args, "ticket")
	if err != nil {
		return err
	}
	t, msgs, err := b.Svc.Tickets.Thread(ctx, id)
	if err != nil {
		return err
	}
	admin := b.Svc.Gate.IsAdmin(ctx, ev.Username)
	if t.UserID != ev.UserID && !admin {
		return domain.NotFound("ticket")
	}
	var buttons []transport.Button
	if admin && t.Status != domain.TicketRejected {
		buttons = append(buttons, btn("Reply", fmt.Sprintf("admin_reply:%d", t.ID)))
		if t.Status.Active() {
			buttons = append(buttons, btn("Resolve", fmt.Sprintf("resolve_ticket:%d", t.ID)))
		}
	}
	b.say(ctx, ev.UserID, services.ThreadText(t, msgs), buttons...)
	if t.AttachmentPath != "" {
		b.sendFile(ctx, ev.UserID, t.AttachmentPath, fmt.Sprintf("Attachment of ticket #%d", t.ID))
	}
	return nil
}

func (b *Bot) myFeedback(ctx context.Context, ev flow.Event, _ []string) error {
	list, err := b.Svc.Feedback.ForUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		b.say(ctx, ev.UserID, "You have not left any feedback yet.", btn("Leave feedback", "feedback"))
		return nil
	}
	parts := make([]string, 0, len(list))
	for i := range list {
		parts = append(parts, fmt.Sprintf("Feedback #%d\n%s", list[i].ID, services.FeedbackCard(&list[i])))
	}
	b.say(ctx, ev.UserID, strings.Join(parts, "\n\n"))
	return nil
}

func (b *Bot) catalog(ctx context.Context, ev flow.Event, _ []string) error {
	return b.listProducts(ctx, ev, "", "Our products:")
}

func (b *Bot) category(ctx context.Context, ev flow.Event, args []string) error {
	name := strings.Join(args, ":")
	if name == "" {
		return b.categories(ctx, ev, nil)
	}
	return b.listProducts(ctx, ev, name, fmt.Sprintf("Products in %s:", name))
}

func (b *Bot) listProducts(ctx context.Context, ev flow.Event, category, title string) error {
	ps, err := b.Svc.Catalog.List(ctx, category)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		b.say(ctx, ev.UserID, "No products are available right now.")
		return nil
	}
	buttons := make([]transport.Button, 0, len(ps)+1)
	for _, p := range ps {
		buttons = append(buttons, btn(fmt.Sprintf("%s - %s", p.Name, p.Price.StringFixed(2)), fmt.Sprintf("view_product:%d", p.ID)))
	}
	if category == "" {
		buttons = append(buttons, btn("Categories", "categories"))
	}
	b.say(ctx, ev.UserID, title, buttons...)
	return nil
}

func (b *Bot) categories(ctx context.Context, ev flow.Event, _ []string) error {
	cats, err := b.Svc.Catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		b.say(ctx, ev.UserID, "No products are available right now.")
		return nil
	}
	buttons := make([]transport.Button, 0, len(cats))
	for _, c := range cats {
		buttons = append(buttons, btn(fmt.Sprintf("%s (%d)", c.Name, c.Products), "category:"+c.Name))
	}
	b.say(ctx, ev.UserID, "Categories:", buttons...)
	return nil
}

func (b *Bot) viewProduct(ctx context.Context, ev flow.Event, args []string) error {
	id, err := argID(args, "product")
	if err != nil {
		return err
	}
	p, err := b.Svc.Catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if p.ImagePath != "" {
		b.sendFile(ctx, ev.UserID, p.ImagePath, p.Name)
	}
	var buttons []transport.Button
	if p.Stock > 0 {
		buttons = append(buttons, btn("Order this", fmt.Sprintf("order_product:%d", p.ID)))
	}
	if b.Svc.Gate.IsAdmin(ctx, ev.Username) {
		buttons = append(buttons,
			btn("Edit", fmt.Sprintf("admin_edit_product:%d", p.ID)),
			btn("Delete", fmt.Sprintf("admin_delete_product:%d", p.ID)))
	}
	b.say(ctx, ev.UserID, services.ProductCard(p), buttons...)
	return nil
}

func (b *Bot) orderLater(ctx context.Context, ev flow.Event, _ []string) error {
	b.say(ctx, ev.UserID, "No problem. Send /order whenever you are ready.")
	return nil
}

// appendToTicket adds free text to the active ticket.
func (b *Bot) appendToTicket(ctx context.Context, ev flow.Event) error {
	body, ok := validate.Message(ev.Text)
	if !ok {
		return domain.Validation("Message must be at least %d characters.", validate.MinMessage)
	}
	t, ok, err := b.Svc.Tickets.Append(ctx, ev.UserID, body)
	if err != nil {
		return err
	}
	if !ok {
		b.say(ctx, ev.UserID, "Send /help to see what I can do, or /support to contact us.")
		return nil
	}
	b.say(ctx, ev.UserID, fmt.Sprintf("Added to ticket #%d. Support will reply here.", t.ID))
	return nil
}

func argID(args []string, what string) (int64, error) {
	if len(args) == 0 {
		return 0, domain.Validation("Missing %s id.", what)
	}
	id, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NotFound(what)
	}
	return id, nil
}
