package services

import (
	"context"
	"fmt"
	"time"

	"blossoms/internal/domain"
	"blossoms/internal/objectstore"
	"blossoms/internal/validate"
)

// Fields carries the submitted product attributes keyed by their JSON names.
// Values arrive as whatever the transport produced: strings from forms,
// numbers and arrays from JSON.
type Fields map[string]any

type ProductService struct {
	Products domain.ProductRepository
	Images   domain.ImageStore
	Now      func() time.Time
}

func NewProductService(products domain.ProductRepository, images domain.ImageStore) *ProductService {
	return &ProductService{Products: products, Images: images, Now: time.Now}
}

func (s *ProductService) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

// decode coerces every editable field. Unsupplied fields get their zero value.
func decode(f Fields) (domain.Product, error) {
	var (
		p   domain.Product
		err error
	)
	text := func(key string, dst *string) {
		if err == nil {
			*dst, err = validate.Text(key, f[key])
		}
	}
	text("name", &p.Name)
	text("description", &p.Description)
	text("material", &p.Material)
	text("discountType", &p.DiscountType)
	text("category", &p.Category)
	text("size", &p.Size)
	if err != nil {
		return domain.Product{}, err
	}
	if p.Price, err = validate.Decimal("price", f["price"]); err != nil {
		return domain.Product{}, err
	}
	if p.DiscountPercentage, err = validate.Float("discountPercentage", f["discountPercentage"]); err != nil {
		return domain.Product{}, err
	}
	if p.Quantity, err = validate.Int("quantity", f["quantity"]); err != nil {
		return domain.Product{}, err
	}
	if p.Colors, err = validate.List("colors", f["colors"]); err != nil {
		return domain.Product{}, err
	}
	if p.Tags, err = validate.List("tags", f["tags"]); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// upload stores img and returns its public URL.
func (s *ProductService) upload(ctx context.Context, img *domain.Image) (string, error) {
	key := objectstore.ProductImageKey(s.Now(), img.Filename)
	return s.Images.Put(ctx, key, img.Body, img.Size, img.ContentType)
}

// Create persists a new product. When img is not nil it is uploaded first
// and the product links to it; a failed insert leaves the object behind.
func (s *ProductService) Create(ctx context.Context, f Fields, img *domain.Image) (domain.Product, error) {
	const op = "ProductService.Create"
	p, err := decode(f)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if img != nil {
		url, err := s.upload(ctx, img)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		p.ImageURL = &url
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	created, err := s.Products.Insert(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// List returns every product when search is empty, otherwise those whose name
// or category contains search ignoring case.
func (s *ProductService) List(ctx context.Context, search string) ([]domain.Product, error) {
	const op = "ProductService.List"
	out, err := s.Products.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (domain.Product, error) {
	const op = "ProductService.Get"
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Update replaces every editable field of id with the submitted values; it is
// not a patch. The image link changes only when img is not nil.
func (s *ProductService) Update(ctx context.Context, id string, f Fields, img *domain.Image) (domain.Product, error) {
	const op = "ProductService.Update"
	p, err := decode(f)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if img != nil {
		url, err := s.upload(ctx, img)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		p.ImageURL = &url
	}
	p.UpdatedAt = s.now()

	updated, err := s.Products.Update(ctx, id, p, img != nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	const op = "ProductService.Delete"
	if err := s.Products.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListLowStock returns products with at most domain.LowStockThreshold units.
func (s *ProductService) ListLowStock(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductService.ListLowStock"
	out, err := s.Products.ListMaxQuantity(ctx, domain.LowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
