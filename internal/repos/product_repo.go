package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"blossoms/internal/domain"
)

var _ domain.ProductRepository = (*ProductRepo)(nil)

// ProductRepo is the SQL-backed product catalogue.
type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID                 string          `db:"id"`
	Name               string          `db:"name"`
	Description        string          `db:"description"`
	Material           string          `db:"material"`
	Price              decimal.Decimal `db:"price"`
	DiscountPercentage float64         `db:"discount_percentage"`
	DiscountType       string          `db:"discount_type"`
	Quantity           int             `db:"quantity"`
	Category           string          `db:"category"`
	Size               string          `db:"size"`
	ColorsJSON         string          `db:"colors_json"`
	TagsJSON           string          `db:"tags_json"`
	ImageURL           *string         `db:"image_url"`
	CreatedAt          int64           `db:"created_at"`
	UpdatedAt          int64           `db:"updated_at"`
}

const productCols = `
    id, name, description, material, price, discount_percentage, discount_type,
    quantity, category, size, colors_json, tags_json, image_url, created_at, updated_at`

func toProductRow(p domain.Product) (productRow, error) {
	colors, err := json.Marshal(nonNil(p.Colors))
	if err != nil {
		return productRow{}, err
	}
	tags, err := json.Marshal(nonNil(p.Tags))
	if err != nil {
		return productRow{}, err
	}
	return productRow{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Material:           p.Material,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		DiscountType:       p.DiscountType,
		Quantity:           p.Quantity,
		Category:           p.Category,
		Size:               p.Size,
		ColorsJSON:         string(colors),
		TagsJSON:           string(tags),
		ImageURL:           p.ImageURL,
		CreatedAt:          p.CreatedAt.UnixMilli(),
		UpdatedAt:          p.UpdatedAt.UnixMilli(),
	}, nil
}

func (r productRow) product() (domain.Product, error) {
	p := domain.Product{
		ID:                 r.ID,
		Name:               r.Name,
		Description:        r.Description,
		Material:           r.Material,
		Price:              r.Price,
		DiscountPercentage: r.DiscountPercentage,
		DiscountType:       r.DiscountType,
		Quantity:           r.Quantity,
		Category:           r.Category,
		Size:               r.Size,
		ImageURL:           r.ImageURL,
		CreatedAt:          time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt:          time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(r.ColorsJSON), &p.Colors); err != nil {
		return domain.Product{}, fmt.Errorf("product %s colors: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TagsJSON), &p.Tags); err != nil {
		return domain.Product{}, fmt.Errorf("product %s tags: %w", r.ID, err)
	}
	p.Colors, p.Tags = nonNil(p.Colors), nonNil(p.Tags)
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func products(rows []productRow) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	const op = "ProductRepo.Insert"
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row, err := toProductRow(p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	_, err = r.db.NamedExecContext(ctx, `
  INSERT INTO products
    (id, name, description, material, price, discount_percentage, discount_type,
     quantity, category, size, colors_json, tags_json, image_url, created_at, updated_at)
  VALUES
    (:id, :name, :description, :material, :price, :discount_percentage, :discount_type,
     :quantity, :category, :size, :colors_json, :tags_json, :image_url, :created_at, :updated_at)
`, row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.Get(ctx, p.ID)
}

// List returns every product, or those whose name or category contains
// search (case-insensitive) when search is not empty.
func (r *ProductRepo) List(ctx context.Context, search string) ([]domain.Product, error) {
	const op = "ProductRepo.List"
	query := `SELECT` + productCols + ` FROM products`
	var args []any
	if search != "" {
		pat := containsPattern(search)
		lower := lowerFunc(r.db)
		query += ` WHERE ` + lower + `(name) LIKE ? ESCAPE '\' OR ` + lower + `(category) LIKE ? ESCAPE '\'`
		args = append(args, pat, pat)
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := products(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	const op = "ProductRepo.Get"
	var row productRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT`+productCols+` FROM products WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p, err := row.product()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, id string, p domain.Product, setImage bool) (domain.Product, error) {
	const op = "ProductRepo.Update"
	p.ID = id
	row, err := toProductRow(p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	set := `
    name = :name, description = :description, material = :material, price = :price,
    discount_percentage = :discount_percentage, discount_type = :discount_type,
    quantity = :quantity, category = :category, size = :size,
    colors_json = :colors_json, tags_json = :tags_json, updated_at = :updated_at`
	if setImage {
		set += `, image_url = :image_url`
	}
	query, args, err := sqlx.Named(`UPDATE products SET`+set+` WHERE id = :id RETURNING`+productCols, row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var updated productRow
	if err := r.db.GetContext(ctx, &updated, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	out, err := updated.product()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	const op = "ProductRepo.Delete"
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// ListMaxQuantity returns products whose stock is at most max.
func (r *ProductRepo) ListMaxQuantity(ctx context.Context, max int) ([]domain.Product, error) {
	const op = "ProductRepo.ListMaxQuantity"
	var rows []productRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT`+productCols+` FROM products WHERE quantity <= ?`), max)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := products(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
