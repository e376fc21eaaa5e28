package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"honeydesk/internal/domain"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/transport"
	"honeydesk/internal/validate"
)

func addProductFlow(d Deps) *Flow {
	data := func(s *session.Session) *ProductData { return s.Data.(*ProductData) }

	text := func(name, prompt, next string, set func(*ProductData, string) error) *Step {
		return &Step{
			Name:   name,
			Kind:   StepText,
			Prompt: static(prompt),
			Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
				if err := set(data(s), in.Text); err != nil {
					return "", err
				}
				return next, nil
			},
		}
	}

	return &Flow{
		Name:     FlowAddProduct,
		Title:    "adding a product",
		Triggers: []string{"admin_add_product"},
		Begin: func(ctx context.Context, ev Event, _ string) (session.Data, string, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return nil, "", err
			}
			return &ProductData{}, "name", nil
		},
		Steps: []*Step{
			text("name", "Product name:", "description", func(pd *ProductData, in string) error {
				v, ok := validate.Name(in)
				if !ok {
					return domain.Validation("Name must be at least %d characters.", validate.MinName)
				}
				pd.Name = v
				return nil
			}),
			text("description", "Description:", "price", func(pd *ProductData, in string) error {
				v, ok := validate.Message(in)
				if !ok {
					return domain.Validation("Description must be at least %d characters.", validate.MinMessage)
				}
				pd.Description = v
				return nil
			}),
			text("price", "Price (for example 12.50):", "stock", func(pd *ProductData, in string) error {
				v, ok := validate.Price(in)
				if !ok {
					return domain.Validation("Price must be a non-negative number with at most 2 decimal places.")
				}
				pd.Price = v
				return nil
			}),
			text("stock", "Stock count:", "quantities", func(pd *ProductData, in string) error {
				v, ok := validate.Stock(in)
				if !ok {
					return domain.Validation("Stock must be a whole number of 0 or more.")
				}
				pd.Stock = v
				return nil
			}),
			text("quantities", "Available quantities separated by commas (for example 250g,500g,1kg), or none for a free quantity:", "category", func(pd *ProductData, in string) error {
				v, ok := validate.Quantities(in)
				if !ok {
					return domain.Validation("List quantities separated by commas, or type none.")
				}
				pd.Quantities = v
				return nil
			}),
			text("category", "Category (or skip for General):", "image", func(pd *ProductData, in string) error {
				if strings.EqualFold(strings.TrimSpace(in), TokenSkip) {
					pd.Category = ""
					return nil
				}
				v, ok := validate.Q(in)
				if !ok {
					return domain.Validation("Category may use letters, digits and spaces only.")
				}
				pd.Category = v
				return nil
			}),
			{
				Name:      "image",
				Kind:      StepFile,
				Skippable: true,
				Prompt:    static("Send a product image, or press Skip."),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					up, err := optionalUpload(in)
					if err != nil {
						return "", err
					}
					data(s).Image = up
					return "confirm", nil
				},
			},
			{
				Name: "confirm",
				Kind: StepConfirm,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					pd := data(s)
					return Prompt{
						Text: fmt.Sprintf("Add this product?\nName: %s\nDescription: %s\nPrice: %s\nStock: %d\nQuantities: %s\nCategory: %s",
							pd.Name, pd.Description, pd.Price.StringFixed(2), pd.Stock, yesNo(pd.Quantities), yesNo(pd.Category)),
						Buttons: []transport.Button{confirmButton},
					}, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, ev Event) (Prompt, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return Prompt{}, err
			}
			pd := data(s)
			p, err := d.Catalog.Add(ctx, ev.Username, &domain.Product{
				Name:                pd.Name,
				Description:         pd.Description,
				Price:               pd.Price,
				Stock:               pd.Stock,
				Category:            pd.Category,
				AvailableQuantities: pd.Quantities,
			}, pd.Image)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: fmt.Sprintf("Product #%d added.\n%s", p.ID, services.ProductCard(p))}, nil
		},
	}
}

var editableFields = []struct{ label, field string }{
	{"Name", services.FieldName},
	{"Description", services.FieldDescription},
	{"Price", services.FieldPrice},
	{"Stock", services.FieldStock},
	{"Quantities", services.FieldQuantities},
	{"Category", services.FieldCategory},
	{"Image", services.FieldImage},
}

// normalizeField validates a new value for field and returns its stored form.
func normalizeField(field, in string) (string, error) {
	switch field {
	case services.FieldName:
		if v, ok := validate.Name(in); ok {
			return v, nil
		}
		return "", domain.Validation("Name must be at least %d characters.", validate.MinName)
	case services.FieldDescription:
		if v, ok := validate.Message(in); ok {
			return v, nil
		}
		return "", domain.Validation("Description must be at least %d characters.", validate.MinMessage)
	case services.FieldPrice:
		if v, ok := validate.Price(in); ok {
			return v.String(), nil
		}
		return "", domain.Validation("Price must be a non-negative number with at most 2 decimal places.")
	case services.FieldStock:
		if v, ok := validate.Stock(in); ok {
			return strconv.Itoa(v), nil
		}
		return "", domain.Validation("Stock must be a whole number of 0 or more.")
	case services.FieldQuantities:
		if v, ok := validate.Quantities(in); ok {
			return v, nil
		}
		return "", domain.Validation("List quantities separated by commas, or type none.")
	case services.FieldCategory:
		if v, ok := validate.Q(in); ok {
			return v, nil
		}
		return "", domain.Validation("Category may use letters, digits and spaces only.")
	}
	return "", domain.Validation("That field cannot be edited.")
}

// fieldValue converts a normalized value to the column type.
func fieldValue(field, v string) any {
	switch field {
	case services.FieldPrice:
		return decimal.RequireFromString(v)
	case services.FieldStock:
		n, _ := strconv.Atoi(v)
		return n
	}
	return v
}

func editProductFlow(d Deps) *Flow {
	data := func(s *session.Session) *EditProductData { return s.Data.(*EditProductData) }

	return &Flow{
		Name:     FlowEditProduct,
		Title:    "editing a product",
		Triggers: []string{"admin_edit_product:"},
		Begin: func(ctx context.Context, ev Event, arg string) (session.Data, string, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return nil, "", err
			}
			id, ok := parseID(arg)
			if !ok {
				return nil, "", domain.NotFound("product")
			}
			if _, err := d.Catalog.GetProduct(ctx, id); err != nil {
				return nil, "", err
			}
			return &EditProductData{ProductID: id}, "field", nil
		},
		Steps: []*Step{
			{
				Name: "field",
				Kind: StepChoice,
				Prompt: func(ctx context.Context, s *session.Session) (Prompt, error) {
					p, err := d.Catalog.GetProduct(ctx, data(s).ProductID)
					if err != nil {
						return Prompt{}, err
					}
					buttons := make([]transport.Button, 0, len(editableFields))
					for _, f := range editableFields {
						buttons = append(buttons, btn(f.label, "field:"+f.field))
					}
					return Prompt{Text: services.ProductCard(p) + "\n\nWhich field do you want to change?", Buttons: buttons}, nil
				},
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					f := tokenArg(in.Text, "field")
					data(s).Field = f
					if f == services.FieldImage {
						return "image", nil
					}
					return "value", nil
				},
			},
			{
				Name: "value",
				Kind: StepText,
				Prompt: func(_ context.Context, s *session.Session) (Prompt, error) {
					return Prompt{Text: fmt.Sprintf("Enter the new %s:", strings.ReplaceAll(data(s).Field, "_", " "))}, nil
				},
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					v, err := normalizeField(data(s).Field, in.Text)
					if err != nil {
						return "", err
					}
					data(s).Value = v
					return Commit, nil
				},
			},
			{
				Name:   "image",
				Kind:   StepFile,
				Prompt: static("Send the new product image."),
				Accept: func(_ context.Context, s *session.Session, in Input) (string, error) {
					up, err := upload(in.File)
					if err != nil {
						return "", err
					}
					data(s).Image = up
					return Commit, nil
				},
			},
		},
		Commit: func(ctx context.Context, s *session.Session, ev Event) (Prompt, error) {
			if err := d.Gate.Require(ctx, ev.Username); err != nil {
				return Prompt{}, err
			}
			ed := data(s)
			var (
				p   *domain.Product
				err error
			)
			if ed.Field == services.FieldImage {
				p, err = d.Catalog.SetImage(ctx, ev.Username, ed.ProductID, ed.Image)
			} else {
				p, err = d.Catalog.Update(ctx, ev.Username, ed.ProductID, ed.Field, fieldValue(ed.Field, ed.Value))
			}
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: "Product updated.\n" + services.ProductCard(p), Image: p.ImagePath}, nil
		},
	}
}
