package flow

import (
	"context"
	"fmt"
	"strconv"

	"honeydesk/internal/domain"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

var paymentMethods = []string{"Cash", "Transfer"}

func orderFlow(d Deps) *Flow {
	data := func(s *session.Session) *OrderData { return s.Data.(*OrderData) }

	// pick copies the product snapshot and names the quantity step it needs.
	pick := func(od *OrderData, p *domain.Product) (string, error) {
		if p.Stock <= 0 {
			return "", domain.Validation("Sorry, %s is out of stock.", p.Name)
		}
		od.ProductID, od.ProductName, od.Price = p.ID, p.Name, p.Price
		if len(p.Quantities()) > 0 {
			return "quantity_option", nil
		}
		return "quantity", nil
	}

	return &Flow{
		Name:     FlowOrder,
		Title:    "an order",
		Triggers: []string{"order", "order_product:"},
		Begin: func(ctx context.Context, ev Event, arg string) (session.Data, string, error) {
			if _, err := requireApproved(ctx, d, ev.UserID); err != nil {
				return nil, "", err
			}
			od := &OrderData{}
			if arg != "" {
				id, ok := parseID(arg)
				if !ok {
					return nil, "", domain.NotFound("product")
				}
				p, err := d.Catalog.GetProduct(ctx, id)
				if err != nil {
					return nil, "", err
				}
				next, err := pick(od, p)
				if err != nil {
					return nil, "", err
				}
				return od, next, nil
			}
			ps, err := d.Catalog.List(ctx, "")
			if err != nil {
				return nil, "", err
			}
			if len(ps) == 0 {
				return nil, "", &domain.Error{Kind: domain.KindNotFound, Message: "No products are available right now."}
			}
			return od, "product", nil
		},
		Steps: []*Step{
			{
				Name: "product",
				Kind: StepChoice,
				Prompt: func(ctx context.Context, _ *session.Session) (Prompt, error) {
					ps, err := d.Catalog.List(ctx, "")
					if err != nil {
						return Prompt{}, err
					}
					buttons := make([]transport.Button, 0, len(ps))
					for _, p := range ps {
						buttons = append(buttons, btn(fmt.Sprintf("%s - %s", p.Name, p.Price.StringFixed(2)), fmt.Sprintf("prod:%d", p.ID)))
					}
					return Prompt{Text: "Which product would you like to order?", Buttons: buttons}, nil
				},
				Accept: func(ctx context.Context, s *session.Session, in Input) (string, error) {
					id, ok := parseID(tokenArg(in.Text, "prod"))
					if !ok {
						return "", domain.Validation("Please choose a product.")
					}
					p, err := d.Catalog.GetProduct(ctx, id)
					if err != nil {
						return "", err
					}
					return pick(data(s), p)
				},
			},
			{
				Name: "quantity_option",
				Kind: StepChoice,
				Prompt: func(ctx context.Context, s *session.Session) (Prompt, error) {
					p, err := d.Catalog.GetProduct(ctx, data(s).ProductID)
					if err != nil {
						return Prompt{}, err
					}
					var buttons []transport.Button
					for _, q := range p.Quantities() {
						buttons = append(buttons, btn(q, "qty:"+q))
					}
					return Prompt{Text: fmt.Sprintf("Choose a quantity of %s:", p.Name), Buttons: buttons}, nil
				},
				Accept: func(ctx context.Context, s *session.Session, in Input) (string, error) {
					p, err := d.Catalog.GetProduct(ctx, data(s).ProductID)
					if err != nil {
						return "", err
					}
					q, ok := validate.Option(tokenArg(in.Text, "qty"), p.Quantities())
					if !ok {
						return "", domain.Validation("Please choose one of the offered quantities.")
					}
					data(s).Quantity = q
					return "address", nil
				},
			},
			{
				Name: "quantity",
				Kind: StepText,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					return Prompt{Text: fmt.Sprintf("How many %s would you like? (a whole number)", data(s).ProductName)}, nil
				},
				Accept: func(ctx context.Context, s *session.Session, in Input) (string, error) {
					n, ok := validate.Qty(in.Text)
					if !ok {
						return "", domain.Validation("Quantity must be a positive whole number.")
					}
					p, err := d.Catalog.GetProduct(ctx, data(s).ProductID)
					if err != nil {
						return "", err
					}
					if n > p.Stock {
						return "", domain.Validation("Only %d in stock. Please enter a smaller quantity.", p.Stock)
					}
					data(s).Quantity = strconv.Itoa(n)
					return "address", nil
				},
			},
			{
				Name:   "address",
				Kind:   StepText,
				Prompt: static("Please enter the delivery address:"),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Address(in.Text)
					if !ok {
						return "", domain.Validation("Address must be at least %d characters.", validate.MinAddress)
					}
					data(s).Address = v
					return "payment", nil
				},
			},
			{
				Name:   "payment",
				Kind:   StepChoice,
				Prompt: static("How would you like to pay?", btn("Cash", "pay:Cash"), btn("Bank transfer", "pay:Transfer")),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, ok := validate.Option(tokenArg(in.Text, "pay"), paymentMethods)
					if !ok {
						return "", domain.Validation("Please choose a payment method.")
					}
					data(s).Payment = v
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					od := data(s)
					return Prompt{
						Text: fmt.Sprintf("Please confirm your order:\nProduct: %s\nPrice: %s\nQuantity: %s\nAddress: %s\nPayment: %s",
							od.ProductName, od.Price.StringFixed(2), od.Quantity, od.Address, od.Payment),
						Buttons: []transport.Button{confirmButton},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, _ Event) (Prompt, error) {
			c, err := requireApproved(ctx, d, s.UserID)
			if err != nil {
				return Prompt{}, err
			}
			od := data(s)
			o, err := d.Orders.Place(ctx, &domain.Order{
				UserID:      s.UserID,
				ProductName: od.ProductName,
				Price:       od.Price,
				Quantity:    od.Quantity,
				Address:     od.Address,
				Payment:     od.Payment,
			}, c)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: fmt.Sprintf("Order #%d placed!\n%s\nWe will let you know once it is reviewed.", o.ID, services.OrderCard(o))}, nil
		},
	}
}
