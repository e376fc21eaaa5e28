package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
	ImagePath   string          `db:"image_path"`
	Category    string          `db:"category"`
	// Comma separated pack sizes ("250g,500g,1kg"); empty means free integer quantity.
	AvailableQuantities string `db:"available_quantities"`
	CreatedAt           string `db:"created_at"`
	UpdatedAt           string `db:"updated_at"`
}

// Quantities splits AvailableQuantities into its options.
func (p *Product) Quantities() []string {
	return SplitQuantities(p.AvailableQuantities)
}

func SplitQuantities(s string) []string {
	var out []string
	for _, q := range strings.Split(s, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

type OrderStatus string

const (
	OrderPending  OrderStatus = "Pending"
	OrderApproved OrderStatus = "Approved"
	OrderRejected OrderStatus = "Rejected"
)

// Order keeps a name/price snapshot of the product taken when it was placed.
type Order struct {
	ID          int64           `db:"id"`
	UserID      string          `db:"user_id"`
	ProductName string          `db:"product_name"`
	Price       decimal.Decimal `db:"price"`
	Quantity    string          `db:"quantity"`
	Address     string          `db:"address"`
	Payment     string          `db:"payment"`
	Status      OrderStatus     `db:"status"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

type TicketStatus string

const (
	TicketPending  TicketStatus = "Pending"
	TicketOpen     TicketStatus = "Open"
	TicketClosed   TicketStatus = "Closed"
	TicketRejected TicketStatus = "Rejected"
)

// ActiveTicketStatuses lists the statuses under which a ticket still accepts
// free text from its owner and blocks a second ticket.
var ActiveTicketStatuses = []TicketStatus{TicketPending, TicketOpen}

func (s TicketStatus) Active() bool {
	for _, a := range ActiveTicketStatuses {
		if s == a {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID             int64        `db:"id"`
	UserID         string       `db:"user_id"`
	Category       string       `db:"category"`
	Subject        string       `db:"subject"`
	Status         TicketStatus `db:"status"`
	AttachmentPath string       `db:"attachment_path"`
	CreatedAt      string       `db:"created_at"`
	UpdatedAt      string       `db:"updated_at"`
}

const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

type Message struct {
	ID        int64  `db:"id"`
	TicketID  int64  `db:"ticket_id"`
	Sender    string `db:"sender"`
	Body      string `db:"body"`
	CreatedAt string `db:"created_at"`
}

type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "Pending"
	FeedbackApproved FeedbackStatus = "Approved"
	FeedbackRejected FeedbackStatus = "Rejected"
)

type Feedback struct {
	ID        int64          `db:"id"`
	UserID    string         `db:"user_id"`
	Rating    int            `db:"rating"`
	Comment   string         `db:"comment"`
	PhotoPath string         `db:"photo_path"`
	Status    FeedbackStatus `db:"status"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

// Stats is the admin dashboard overview.
type Stats struct {
	Customers      int             `db:"customers"`
	Tickets        int             `db:"tickets"`
	PendingTickets int             `db:"pending_tickets"`
	ClosedTickets  int             `db:"closed_tickets"`
	ApprovedOrders int             `db:"approved_orders"`
	PendingOrders  int             `db:"pending_orders"`
	Revenue        decimal.Decimal `db:"-"`
	// Approved orders stored with a zero price snapshot, counted but not priced.
	UnpricedOrders int `db:"-"`
}
