package bot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydesk/internal/bot"
	"honeydesk/internal/domain"
	"honeydesk/internal/flow"
	"honeydesk/internal/repos"
	"honeydesk/internal/session"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
)

const (
	alice     = "100"
	adminID   = "900"
	adminUser = "boss"
	ownerID   = "500"
	ownerUser = "owner"
)

type harness struct {
	t        *testing.T
	ctx      context.Context
	db       *sqlx.DB
	rec      *transport.Recorder
	disk     storage.DiskStore
	sessions *session.MemoryStore
	bot      *bot.Bot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		rec:      transport.NewRecorder(),
		disk:     storage.DiskStore{Root: t.TempDir()},
		sessions: session.NewMemoryStore(0),
	}
	h.bot = bot.Wire(db, bot.Options{
		Sender:       h.rec,
		Blobs:        h.disk,
		Sessions:     h.sessions,
		SuperAdmin:   ownerUser,
		AdminIDs:     []string{adminID},
		AdminHandles: []string{adminUser},
		AutoApprove:  true,
	})
	return h
}

func (h *harness) text(user, handle, text string) {
	h.t.Helper()
	require.NoError(h.t, h.bot.Handle(h.ctx, flow.Text(user, handle, text)))
}

func (h *harness) press(user, handle, data string) {
	h.t.Helper()
	require.NoError(h.t, h.bot.Handle(h.ctx, flow.Button(user, handle, data)))
}

func (h *harness) upload(user, handle, name string) {
	h.t.Helper()
	ref, err := h.disk.Stage(name, strings.NewReader("file body"))
	require.NoError(h.t, err)
	require.NoError(h.t, h.bot.Handle(h.ctx, flow.File(user, handle, ref, name)))
}

func (h *harness) register(user, handle, name string) {
	h.t.Helper()
	h.text(user, handle, "/register")
	h.text(user, handle, name)
	h.text(user, handle, "0911234567")
	h.text(user, handle, "skip")
	h.text(user, handle, "Addis Ababa")
	h.press(user, handle, "type:New")
	h.press(user, handle, "confirm")
	require.True(h.t, h.rec.Contains(user, "Registration complete"), "registration of %s did not complete", user)
}

func (h *harness) step(user string) string {
	s, err := h.sessions.Get(h.ctx, user)
	require.NoError(h.t, err)
	if s == nil {
		return ""
	}
	return s.Step
}

func (h *harness) count(query string, args ...any) int {
	var n int
	require.NoError(h.t, h.db.Get(&n, query, args...))
	return n
}

func (h *harness) product(name string, stock int, quantities string) int64 {
	p := &domain.Product{Name: name, Description: "Raw forest honey", Price: decimal.RequireFromString("12.50"), Stock: stock, AvailableQuantities: quantities}
	id, err := repos.NewProductRepo(h.db).Create(h.ctx, p, nil)
	require.NoError(h.t, err)
	return id
}

func TestCancelMidOrderWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	pid := h.product("Forest honey", 5, "")

	h.press(alice, "alice", "order")
	h.press(alice, "alice", fmt.Sprintf("prod:%d", pid))
	h.text(alice, "alice", "2")
	require.Equal(t, "address", h.step(alice))

	h.press(alice, "alice", "cancel")

	assert.Equal(t, "Process cancelled.", h.rec.Last(alice).Text)
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM orders`))
	assert.Equal(t, 0, h.sessions.Len())

	h.text(alice, "alice", "/cancel")
	assert.Equal(t, "Nothing to cancel.", h.rec.Last(alice).Text)
}

func TestOrderWithPackSizesCommitsSnapshot(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	pid := h.product("Forest honey", 5, "500g,1kg")

	h.press(alice, "alice", fmt.Sprintf("order_product:%d", pid))
	require.Equal(t, "quantity_option", h.step(alice))

	h.text(alice, "alice", "1kg")
	assert.Equal(t, "quantity_option", h.step(alice), "typed text on a choice step reprompts")

	h.press(alice, "alice", "qty:2kg")
	assert.Equal(t, "quantity_option", h.step(alice), "tokens outside the offered options are refused")

	h.press(alice, "alice", "qty:1kg")
	h.text(alice, "alice", "Bole road 12")
	h.press(alice, "alice", "pay:Cash")
	h.press(alice, "alice", "confirm")

	var o domain.Order
	require.NoError(t, h.db.Get(&o, `SELECT id, user_id, product_name, price, quantity, address, payment, status, created_at, updated_at FROM orders`))
	assert.Equal(t, "1kg", o.Quantity)
	assert.Equal(t, "12.5", o.Price.String())
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.True(t, h.rec.Contains(adminID, fmt.Sprintf("New order #%d", o.ID)))
}

func TestDoubleConfirmCreatesOneFeedback(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")

	h.press(alice, "alice", "feedback")
	h.press(alice, "alice", "rate:5")
	h.text(alice, "alice", "Lovely honey")
	h.press(alice, "alice", "skip")
	h.press(alice, "alice", "confirm")
	assert.Equal(t, "Thank you for your feedback!", h.rec.Last(alice).Text)

	h.press(alice, "alice", "confirm")
	assert.Equal(t, "Nothing to confirm.", h.rec.Last(alice).Text)
	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM feedback`))
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	o := &domain.Order{UserID: alice, ProductName: "Forest honey", Price: decimal.RequireFromString("12.50"), Quantity: "1", Address: "Bole road 12", Payment: "Cash"}
	id, err := repos.NewOrderRepo(h.db).Create(h.ctx, o)
	require.NoError(t, err)
	h.rec.Reset()

	var wg sync.WaitGroup
	for _, a := range []struct{ user, handle, verb string }{
		{adminID, adminUser, "approve"},
		{ownerID, ownerUser, "reject"},
	} {
		wg.Add(1)
		go func(user, handle, verb string) {
			defer wg.Done()
			assert.NoError(t, h.bot.Handle(h.ctx, flow.Button(user, handle, fmt.Sprintf("admin:%s:orders:%d", verb, id))))
		}(a.user, a.handle, a.verb)
	}
	wg.Wait()

	got, err := repos.NewOrderRepo(h.db).Get(h.ctx, id)
	require.NoError(t, err)

	winner, loser := adminID, ownerID
	if got.Status == domain.OrderRejected {
		winner, loser = ownerID, adminID
	}
	assert.Contains(t, h.rec.Last(winner).Text, fmt.Sprintf("Order #%d is now %s.", id, got.Status))
	assert.Contains(t, h.rec.Last(loser).Text, "decided by someone else")
	assert.Len(t, h.rec.To(alice), 1, "the customer hears about the decision once")
}

func TestPhoneMustBeDigits(t *testing.T) {
	h := newHarness(t)
	h.text(alice, "alice", "/register")
	h.text(alice, "alice", "Alice Doe")
	require.Equal(t, "phone", h.step(alice))

	h.text(alice, "alice", "abc123")
	assert.Equal(t, "phone", h.step(alice))
	assert.Contains(t, h.rec.Last(alice).Text, "digits only")

	h.text(alice, "alice", "0911234567")
	assert.Equal(t, "email", h.step(alice))

	s, err := h.sessions.Get(h.ctx, alice)
	require.NoError(t, err)
	data := s.Data.(*flow.RegistrationData)
	assert.Equal(t, "Alice Doe", data.FullName)
	assert.Equal(t, "0911234567", data.Phone)
}

func TestFreeTextAppendsToActiveTicket(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")

	h.press(alice, "alice", "support")
	h.press(alice, "alice", "cat:Inquiry")
	h.text(alice, "alice", "Where is my order?")
	h.press(alice, "alice", "skip")
	h.press(alice, "alice", "confirm")
	require.Equal(t, 1, h.count(`SELECT COUNT(*) FROM tickets`))

	h.press(adminID, adminUser, "admin:approve:tickets:1")
	require.Equal(t, "Ticket #1 is now Open.", h.rec.Last(adminID).Text)

	h.text(alice, "alice", "Any update please?")

	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM tickets`))
	assert.Equal(t, 2, h.count(`SELECT COUNT(*) FROM messages WHERE ticket_id = 1`))
	assert.Equal(t, "Added to ticket #1. Support will reply here.", h.rec.Last(alice).Text)

	active, err := repos.NewTicketRepo(h.db).Active(h.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.ID)

	h.press(alice, "alice", "support")
	assert.Contains(t, h.rec.Last(alice).Text, "You already have an active ticket #1")
	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM tickets`))
}

func TestDeleteAccountCascades(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	_, err := repos.NewOrderRepo(h.db).Create(h.ctx, &domain.Order{UserID: alice, ProductName: "Forest honey", Price: decimal.NewFromInt(5), Quantity: "1", Address: "Bole road", Payment: "Cash"})
	require.NoError(t, err)
	_, err = repos.NewTicketRepo(h.db).Create(h.ctx, &domain.Ticket{UserID: alice, Category: "Support", Subject: "New Support"}, "Help me", nil)
	require.NoError(t, err)
	_, err = repos.NewFeedbackRepo(h.db).Create(h.ctx, &domain.Feedback{UserID: alice, Rating: 4, Comment: "Good"}, nil)
	require.NoError(t, err)

	h.press(alice, "alice", "delete_account")
	h.press(alice, "alice", "account:erase")
	assert.Contains(t, h.rec.Last(alice).Text, "cannot be undone")
	h.press(alice, "alice", "confirm")

	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM orders WHERE user_id = ?`, alice))
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM tickets WHERE user_id = ?`, alice))
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM messages`))
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM feedback WHERE user_id = ?`, alice))
	_, err = repos.NewCustomerRepo(h.db).ByExternalID(h.ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttachmentExtensionAllowList(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")

	h.press(alice, "alice", "support:Complaint")
	h.text(alice, "alice", "The jar arrived broken")
	require.Equal(t, "attachment", h.step(alice))

	h.upload(alice, "alice", "invoice.exe")
	assert.Equal(t, "attachment", h.step(alice))
	assert.Contains(t, h.rec.Last(alice).Text, "jpg, jpeg, png, pdf, doc, docx, txt")

	h.upload(alice, "alice", "jar.jpg")
	require.Equal(t, "confirm", h.step(alice))
	h.press(alice, "alice", "confirm")

	tk, err := repos.NewTicketRepo(h.db).Get(h.ctx, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tk.AttachmentPath, "uploads/tickets/1_"), tk.AttachmentPath)
	assert.True(t, strings.HasSuffix(tk.AttachmentPath, ".jpg"), tk.AttachmentPath)
	assert.Equal(t, "New Complaint", tk.Subject)
	_, err = os.Stat(filepath.Join(h.disk.Root, filepath.FromSlash(tk.AttachmentPath)))
	assert.NoError(t, err)
}

func TestSuperadminIsProtected(t *testing.T) {
	h := newHarness(t)
	h.register(ownerID, ownerUser, "Shop Owner")
	owner, err := repos.NewCustomerRepo(h.db).ByExternalID(h.ctx, ownerID)
	require.NoError(t, err)
	require.True(t, owner.IsAdmin)

	h.press(adminID, adminUser, fmt.Sprintf("admin_user:ban:%d", owner.ID))
	assert.Contains(t, h.rec.Last(adminID).Text, "protected")

	h.text(adminID, adminUser, fmt.Sprintf("/setuser %d", owner.ID))
	assert.Contains(t, h.rec.Last(adminID).Text, "protected")

	h.register(alice, "alice", "Alice Doe")
	h.press(alice, "alice", fmt.Sprintf("admin_user:toggle_admin:%d", owner.ID))
	assert.Equal(t, "This action is for admins only.", h.rec.Last(alice).Text)

	owner, err = repos.NewCustomerRepo(h.db).ByExternalID(h.ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerApproved, owner.Status)
	assert.True(t, owner.IsAdmin)
}

func TestTriggerWhileInFlow(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")

	h.press(alice, "alice", "feedback")
	h.press(alice, "alice", "support")
	assert.Contains(t, h.rec.Last(alice).Text, "You are in the middle of feedback")
	assert.Equal(t, "rating", h.step(alice))

	// registration replaces the active session instead of being refused
	h.text(alice, "alice", "/register")
	assert.Equal(t, "You are already registered.", h.rec.Last(alice).Text)
	assert.Equal(t, 0, h.sessions.Len())
}

func TestRegistrationGuards(t *testing.T) {
	h := newHarness(t)

	h.text(alice, "", "/register")
	assert.Contains(t, h.rec.Last(alice).Text, "set a username")
	assert.Equal(t, 0, h.sessions.Len())

	h.press(alice, "alice", "order")
	assert.Equal(t, "Please register first with /register.", h.rec.Last(alice).Text)
}

func TestReturningDeletedCustomerReactivates(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	_, err := repos.NewTicketRepo(h.db).Create(h.ctx, &domain.Ticket{UserID: alice, Category: "Inquiry", Subject: "New Inquiry"}, "Do you ship?", nil)
	require.NoError(t, err)

	h.press(alice, "alice", "delete_account")
	require.Equal(t, "mode", h.step(alice))
	h.press(alice, "alice", "account:deactivate")
	h.press(alice, "alice", "confirm")
	assert.Equal(t, "Your account has been deactivated. Use /register to reactivate it.", h.rec.Last(alice).Text)

	c, err := repos.NewCustomerRepo(h.db).ByExternalID(h.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerDeleted, c.Status)
	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM tickets WHERE user_id = ?`, alice))

	h.press(alice, "alice", "feedback")
	assert.Contains(t, h.rec.Last(alice).Text, "reactivate")

	h.text(alice, "alice", "/register")
	require.Equal(t, "returning", h.step(alice))
	h.press(alice, "alice", "returning:reactivate")
	h.press(alice, "alice", "confirm")

	c, err = repos.NewCustomerRepo(h.db).ByExternalID(h.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerApproved, c.Status)
	assert.Equal(t, 1, h.count(`SELECT COUNT(*) FROM customers`))
}

func TestAdminReplyOpensTicketAndNotifiesOwner(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	_, err := repos.NewTicketRepo(h.db).Create(h.ctx, &domain.Ticket{UserID: alice, Category: "Inquiry", Subject: "New Inquiry"}, "Do you ship?", nil)
	require.NoError(t, err)

	h.press(alice, "alice", "admin_reply:1")
	assert.Equal(t, "This action is for admins only.", h.rec.Last(alice).Text)

	h.press(adminID, adminUser, "admin_reply:1")
	assert.Contains(t, h.rec.Last(adminID).Text, "Do you ship?")
	h.text(adminID, adminUser, "Yes, nationwide.")

	assert.Contains(t, h.rec.Last(alice).Text, "Yes, nationwide.")
	tk, err := repos.NewTicketRepo(h.db).Get(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, tk.Status)

	h.press(adminID, adminUser, "resolve_ticket:1")
	assert.Equal(t, "Ticket #1 closed.", h.rec.Last(adminID).Text)
	h.press(adminID, adminUser, "resolve_ticket:1")
	assert.Contains(t, h.rec.Last(adminID).Text, "decided by someone else")
}

func TestReplyOnClosedTicketKeepsOneActive(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	tickets := repos.NewTicketRepo(h.db)
	_, err := tickets.Create(h.ctx, &domain.Ticket{UserID: alice, Category: "Inquiry", Subject: "New Inquiry"}, "Do you ship?", nil)
	require.NoError(t, err)

	h.press(adminID, adminUser, "resolve_ticket:1")
	require.Equal(t, "Ticket #1 closed.", h.rec.Last(adminID).Text)

	_, err = tickets.Create(h.ctx, &domain.Ticket{UserID: alice, Category: "Complaint", Subject: "New Complaint"}, "Lid was loose", nil)
	require.NoError(t, err)

	h.press(adminID, adminUser, "admin_reply:1")
	h.text(adminID, adminUser, "Yes, nationwide.")
	assert.Equal(t, "The customer already has active ticket #2, reply there.", h.rec.Last(adminID).Text)

	n, err := tickets.CountActive(h.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	tk, err := tickets.Get(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClosed, tk.Status)
	assert.Equal(t, 0, h.count(`SELECT COUNT(*) FROM messages WHERE sender = ?`, domain.SenderAdmin))

	h.press(adminID, adminUser, "resolve_ticket:2")
	h.press(adminID, adminUser, "admin_reply:1")
	h.text(adminID, adminUser, "Yes, nationwide.")
	assert.Equal(t, "Reply sent on ticket #1.", h.rec.Last(adminID).Text)
	tk, err = tickets.Get(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, tk.Status)
}

func TestAdminAddsProductWithImage(t *testing.T) {
	h := newHarness(t)

	h.text(adminID, adminUser, "/admin_add_product")
	h.text(adminID, adminUser, "Forest honey")
	h.text(adminID, adminUser, "Raw honey from the south")
	h.text(adminID, adminUser, "-3")
	assert.Equal(t, "price", h.step(adminID))
	h.text(adminID, adminUser, "12.50")
	h.text(adminID, adminUser, "10")
	h.text(adminID, adminUser, "500g, 1kg")
	h.text(adminID, adminUser, "skip")
	h.upload(adminID, adminUser, "jar.png")
	h.press(adminID, adminUser, "confirm")

	p, err := repos.NewProductRepo(h.db).Get(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "General", p.Category)
	assert.Equal(t, "500g,1kg", p.AvailableQuantities)
	assert.True(t, strings.HasPrefix(p.ImagePath, "uploads/products/1_"))

	h.press(adminID, adminUser, "admin_edit_product:1")
	h.press(adminID, adminUser, "field:price")
	h.text(adminID, adminUser, "15")
	p, err = repos.NewProductRepo(h.db).Get(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "15", p.Price.String())
}

func TestDashboardReportsUnpricedOrders(t *testing.T) {
	h := newHarness(t)
	h.register(alice, "alice", "Alice Doe")
	orders := repos.NewOrderRepo(h.db)
	for _, price := range []string{"10", "0"} {
		id, err := orders.Create(h.ctx, &domain.Order{UserID: alice, ProductName: "Honey", Price: decimal.RequireFromString(price), Quantity: "2", Address: "Bole road", Payment: "Cash"})
		require.NoError(t, err)
		require.NoError(t, orders.Decide(h.ctx, id, domain.OrderApproved))
	}

	h.text(adminID, adminUser, "/dashboard")
	text := h.rec.Last(adminID).Text
	assert.Contains(t, text, "Revenue: 20.00")
	assert.Contains(t, text, "1 approved order(s) have no recorded price")
}
