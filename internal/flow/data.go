package flow

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"honeydesk/internal/domain"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/validate"
)

const (
	FlowRegistration  session.FlowName = "registration"
	FlowOrder         session.FlowName = "order"
	FlowTicket        session.FlowName = "ticket"
	FlowFeedback      session.FlowName = "feedback"
	FlowDeleteAccount session.FlowName = "delete_account"
	FlowAddProduct    session.FlowName = "add_product"
	FlowEditProduct   session.FlowName = "edit_product"
	FlowReply         session.FlowName = "admin_reply"
	FlowSearch        session.FlowName = "search"
)

type RegistrationData struct {
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Region       string `json:"region"`
	CustomerType string `json:"customer_type"`
	// Reactivate brings back a Deleted account instead of registering.
	Reactivate bool `json:"reactivate"`
	// ReplaceExisting erases a Deleted or Rejected record at commit.
	ReplaceExisting bool `json:"replace_existing"`
}

type OrderData struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    string          `json:"quantity"`
	Address     string          `json:"address"`
	Payment     string          `json:"payment"`
}

type TicketData struct {
	Category   string           `json:"category"`
	Message    string           `json:"message"`
	Attachment *services.Upload `json:"attachment,omitempty"`
}

type FeedbackData struct {
	Rating  int              `json:"rating"`
	Comment string           `json:"comment"`
	Photo   *services.Upload `json:"photo,omitempty"`
}

// DeleteAccountData holds the chosen mode: a reversible deactivation, or
// Erase for permanent removal.
type DeleteAccountData struct {
	Erase bool `json:"erase"`
}

type ProductData struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Stock       int              `json:"stock"`
	Quantities  string           `json:"quantities"`
	Category    string           `json:"category"`
	Image       *services.Upload `json:"image,omitempty"`
}

type EditProductData struct {
	ProductID int64            `json:"product_id"`
	Field     string           `json:"field"`
	Value     string           `json:"value"`
	Image     *services.Upload `json:"image,omitempty"`
}

type ReplyData struct {
	TicketID int64  `json:"ticket_id"`
	Body     string `json:"body"`
}

type SearchData struct {
	Query string `json:"query"`
}

func (*RegistrationData) Flow() session.FlowName  { return FlowRegistration }
func (*OrderData) Flow() session.FlowName         { return FlowOrder }
func (*TicketData) Flow() session.FlowName        { return FlowTicket }
func (*FeedbackData) Flow() session.FlowName      { return FlowFeedback }
func (*DeleteAccountData) Flow() session.FlowName { return FlowDeleteAccount }
func (*ProductData) Flow() session.FlowName       { return FlowAddProduct }
func (*EditProductData) Flow() session.FlowName   { return FlowEditProduct }
func (*ReplyData) Flow() session.FlowName         { return FlowReply }
func (*SearchData) Flow() session.FlowName        { return FlowSearch }

// NewData returns an empty data value for a flow; the redis session store
// decodes into it.
func NewData(name session.FlowName) (session.Data, bool) {
	switch name {
	case FlowRegistration:
		return &RegistrationData{}, true
	case FlowOrder:
		return &OrderData{}, true
	case FlowTicket:
		return &TicketData{}, true
	case FlowFeedback:
		return &FeedbackData{}, true
	case FlowDeleteAccount:
		return &DeleteAccountData{}, true
	case FlowAddProduct:
		return &ProductData{}, true
	case FlowEditProduct:
		return &EditProductData{}, true
	case FlowReply:
		return &ReplyData{}, true
	case FlowSearch:
		return &SearchData{}, true
	}
	return nil, false
}

// Deps are the services the flows commit through.
type Deps struct {
	Customers *services.CustomerService
	Orders    *services.OrderService
	Tickets   *services.TicketService
	Feedback  *services.FeedbackService
	Catalog   *services.CatalogService
	Gate      *services.Gate
}

// Flows builds every flow over d, in trigger-matching order.
func Flows(d Deps) []*Flow {
	return []*Flow{
		registrationFlow(d),
		orderFlow(d),
		ticketFlow(d),
		feedbackFlow(d),
		deleteAccountFlow(d),
		addProductFlow(d),
		editProductFlow(d),
		replyFlow(d),
		searchFlow(d),
	}
}

// requireApproved is the guard of the customer flows.
func requireApproved(ctx context.Context, d Deps, userID string) (*domain.Customer, error) {
	c, err := d.Customers.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.Unauthorized("Please register first with /register.")
	}
	switch c.Status {
	case domain.CustomerApproved:
		return c, nil
	case domain.CustomerPending:
		return nil, domain.Unauthorized("Your registration is still awaiting admin approval.")
	case domain.CustomerRejected:
		return nil, domain.Unauthorized("Your registration was rejected. You can register again with /register.")
	case domain.CustomerDeleted:
		return nil, domain.Unauthorized("Your account was deleted. Use /register to reactivate it.")
	}
	return nil, domain.Unauthorized("Your account cannot place requests right now.")
}

// upload checks the extension of a received file.
func upload(f *FileUpload) (*services.Upload, error) {
	ext, ok := validate.Extension(f.Name)
	if !ok {
		return nil, domain.Validation("File type not allowed. Allowed types: %s.", strings.Join(validate.AllowedExtensions, ", "))
	}
	return &services.Upload{Ref: f.Ref, Name: f.Name, Ext: ext}, nil
}

// optionalUpload handles a skippable file step.
func optionalUpload(in Input) (*services.Upload, error) {
	if in.File == nil {
		return nil, nil
	}
	return upload(in.File)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

// tokenArg strips a "prefix:" from a button token.
func tokenArg(tok, prefix string) string { return strings.TrimPrefix(tok, prefix+":") }

func yesNo(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
