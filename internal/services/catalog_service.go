package services

import (
	"context"
	"fmt"
	"strings"

	"honeydesk/internal/domain"
	"honeydesk/internal/events"
	applog "honeydesk/internal/log"
	"honeydesk/internal/repos"
	"honeydesk/internal/storage"
)

type CatalogService struct {
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Blobs  storage.Blobs
	Events events.Publisher
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, blobs storage.Blobs, ev events.Publisher) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Blobs: blobs, Events: ev}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]repos.CategoryRow, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.Prods.List(ctx, category)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	return s.Prods.Search(ctx, q, 10)
}

// Add creates a product; the image, if any, is stored under the new id.
func (s *CatalogService) Add(ctx context.Context, actor string, p *domain.Product, image *Upload) (*domain.Product, error) {
	if _, err := s.Prods.Create(ctx, p, attach(ctx, s.Blobs, storage.KindProducts, image)); err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.product.add", map[string]any{"product_id": p.ID, "actor": actor})
	s.Events.Publish(ctx, events.ProductChanged, map[string]any{"product_id": p.ID, "change": "add"})
	return p, nil
}

// Product fields an admin can edit one at a time.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldStock       = "stock"
	FieldQuantities  = "available_quantities"
	FieldCategory    = "category"
	FieldImage       = "image"
)

// Update overwrites one field in place; value is already validated.
func (s *CatalogService) Update(ctx context.Context, actor string, id int64, field string, value any) (*domain.Product, error) {
	if err := s.Prods.Update(ctx, id, map[string]any{field: value}); err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.product.edit", map[string]any{"product_id": id, "field": field, "actor": actor})
	s.Events.Publish(ctx, events.ProductChanged, map[string]any{"product_id": id, "change": field})
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) SetImage(ctx context.Context, actor string, id int64, image *Upload) (*domain.Product, error) {
	if _, err := s.Prods.SetImage(ctx, id, attach(ctx, s.Blobs, storage.KindProducts, image)); err != nil {
		return nil, err
	}
	applog.Audit(nil, "admin.product.image", map[string]any{"product_id": id, "actor": actor})
	s.Events.Publish(ctx, events.ProductChanged, map[string]any{"product_id": id, "change": FieldImage})
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) Delete(ctx context.Context, actor string, id int64) error {
	if err := s.Prods.Delete(ctx, id); err != nil {
		return err
	}
	applog.Audit(nil, "admin.product.delete", map[string]any{"product_id": id, "actor": actor})
	s.Events.Publish(ctx, events.ProductChanged, map[string]any{"product_id": id, "change": "delete"})
	return nil
}

// ProductCard renders a product for chat.
func ProductCard(p *domain.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\nPrice: %s\nCategory: %s\nAvailability: %s", p.Name, p.Description, p.Price.StringFixed(2), p.Category, Availability(p.Stock))
	if q := p.Quantities(); len(q) > 0 {
		fmt.Fprintf(&b, "\nSizes: %s", strings.Join(q, ", "))
	}
	return b.String()
}
