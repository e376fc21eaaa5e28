package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/services"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
)

const adminA, adminB = "900", "901"

type published struct {
	mu    sync.Mutex
	names []string
}

func (p *published) Publish(_ context.Context, event string, _ map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, event)
}

type fixture struct {
	ctx  context.Context
	db   *sqlx.DB
	rec  *transport.Recorder
	ev   *published
	n    *notify.Dispatcher
	disk storage.DiskStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	rec := transport.NewRecorder()
	return &fixture{
		ctx:  context.Background(),
		db:   db,
		rec:  rec,
		ev:   &published{},
		n:    notify.New(rec, repos.NewCustomerRepo(db), []string{adminA, adminB}, nil),
		disk: storage.DiskStore{Root: t.TempDir()},
	}
}

func TestTokenAuth(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := services.TokenAuth{Hash: string(h)}

	assert.NoError(t, auth.Check("s3cret"))
	assert.ErrorIs(t, auth.Check("guess"), services.ErrBadCreds)
	assert.ErrorIs(t, auth.Check(""), services.ErrBadCreds)
	assert.ErrorIs(t, services.TokenAuth{}.Check("s3cret"), services.ErrBadCreds)
}

func TestGateBootstrapAndProtect(t *testing.T) {
	f := newFixture(t)
	customers := repos.NewCustomerRepo(f.db)
	gate := services.NewGate(customers, "@Owner", []string{"boss"})

	assert.True(t, gate.IsAdmin(f.ctx, "@BOSS"))
	assert.True(t, gate.IsAdmin(f.ctx, "owner"))
	assert.False(t, gate.IsAdmin(f.ctx, ""))
	assert.False(t, gate.IsAdmin(f.ctx, "mallory"))

	_, err := customers.Create(f.ctx, &domain.Customer{ExternalID: "7", Username: "helper", Status: domain.CustomerApproved, IsAdmin: true}, false)
	require.NoError(t, err)
	assert.True(t, gate.IsAdmin(f.ctx, "helper"))
	assert.NoError(t, gate.Require(f.ctx, "helper"))
	assert.True(t, errors.Is(gate.Require(f.ctx, "mallory"), domain.ErrAuthorization))

	err = gate.Protect(&domain.Customer{Username: "owner"})
	assert.True(t, errors.Is(err, domain.ErrAuthorization))
	assert.NoError(t, gate.Protect(&domain.Customer{Username: "helper"}))
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, "OUT_OF_STOCK", services.Availability(0))
	assert.Equal(t, "LOW_STOCK", services.Availability(4))
	assert.Equal(t, "IN_STOCK", services.Availability(5))
}

func TestOrderPlaceSurvivesDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.rec.Fail[adminB] = true
	svc := services.NewOrderService(repos.NewOrderRepo(f.db), f.n, f.ev, nil)

	o, err := svc.Place(f.ctx, &domain.Order{UserID: "100", ProductName: "Honey", Price: decimal.NewFromInt(12), Quantity: "1", Address: "Bole road 12", Payment: "Cash"}, nil)
	require.NoError(t, err)
	assert.NotZero(t, o.ID)

	last := f.rec.Last(adminA)
	assert.Contains(t, last.Text, "New order #1")
	require.Len(t, last.Buttons, 2)
	assert.Equal(t, "admin:approve:orders:1", last.Buttons[0].Data)
	assert.Empty(t, f.rec.To(adminB))

	_, err = svc.Decide(f.ctx, "boss", o.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Your order #1 (Honey) has been approved.", f.rec.Last("100").Text)

	_, err = svc.Decide(f.ctx, "boss", o.ID, false)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, []string{events.OrderPlaced, events.OrderDecided}, f.ev.names)
}

func TestTicketLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := services.NewTicketService(repos.NewTicketRepo(f.db), f.disk, f.n, f.ev, nil)

	tk, err := svc.Open(f.ctx, "100", "Complaint", "The jar was broken", nil)
	require.NoError(t, err)
	assert.Equal(t, "New Complaint", tk.Subject)
	assert.Equal(t, domain.TicketPending, tk.Status)

	_, err = svc.Open(f.ctx, "100", "Support", "Another one", nil)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, ok, err := svc.Append(f.ctx, "100", "Any news?")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = svc.Append(f.ctx, "200", "Hello?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Close(f.ctx, "boss", tk.ID)
	require.NoError(t, err)
	_, err = svc.Reject(f.ctx, "boss", tk.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := svc.Reply(f.ctx, "boss", tk.ID, "We are sending a new jar.")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOpen, got.Status)
	assert.True(t, f.rec.Contains("100", "Support replied on ticket #1"))

	_, msgs, err := svc.Thread(f.ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.SenderAdmin, msgs[2].Sender)
}

func TestTicketAttachmentIsStored(t *testing.T) {
	f := newFixture(t)
	svc := services.NewTicketService(repos.NewTicketRepo(f.db), f.disk, f.n, f.ev, nil)

	ref, err := f.disk.Stage("receipt.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	tk, err := svc.Open(f.ctx, "100", "Support", "See attached", &services.Upload{Ref: ref, Name: "receipt.pdf", Ext: ".pdf"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tk.AttachmentPath, "uploads/tickets/1_"))
	assert.True(t, strings.HasSuffix(tk.AttachmentPath, ".pdf"))
	_, err = os.Stat(filepath.Join(f.disk.Root, filepath.FromSlash(tk.AttachmentPath)))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.disk.Root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, tk.AttachmentPath, f.rec.Last(adminA).FileRef)
}

func TestCatalogEdits(t *testing.T) {
	f := newFixture(t)
	svc := services.NewCatalogService(repos.NewCategoryRepo(f.db), repos.NewProductRepo(f.db), f.disk, f.ev)

	p, err := svc.Add(f.ctx, "boss", &domain.Product{Name: "Forest honey", Price: decimal.RequireFromString("9.99"), Stock: 3, AvailableQuantities: "500g,1kg"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "General", p.Category)

	p, err = svc.Update(f.ctx, "boss", p.ID, services.FieldStock, 0)
	require.NoError(t, err)
	assert.Zero(t, p.Stock)
	assert.Contains(t, services.ProductCard(p), "OUT_OF_STOCK")

	found, err := svc.Search(f.ctx, "forest")
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, svc.Delete(f.ctx, "boss", p.ID))
	_, err = svc.GetProduct(f.ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, []string{events.ProductChanged, events.ProductChanged, events.ProductChanged}, f.ev.names)
}
