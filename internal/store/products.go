package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"techstore/internal/models"

	"github.com/lib/pq"
)

// ProductFilter narrows product listings. Zero values mean no filter.
type ProductFilter struct {
	Category     string
	Availability string
	Limit        int
	Offset       int
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (
			name, description, category, brand,
			actual_price, strike_price, selling_price, discount_percentage,
			availability, images, image_public_ids, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)
		RETURNING id, views, likes, is_active, created_at, updated_at`

	err := s.db.GetContext(ctx, p, query,
		p.Name, p.Description, p.Category, p.Brand,
		p.ActualPrice, p.StrikePrice, p.SellingPrice, p.DiscountPercentage,
		p.Availability, p.Images, p.ImagePublicIDs)
	if err != nil {
		return translateErr("create product", err)
	}
	return nil
}

// GetProductByID retrieves an active product by ID. Soft-deleted products are
// invisible to this read.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND is_active = true", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "product", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, translateErr("get product", err)
	}
	return &product, nil
}

// ListProducts retrieves active products, newest first
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE is_active = true"
	args := []interface{}{}

	if f.Category != "" {
		args = append(args, f.Category)
		query += " AND category = $" + strconv.Itoa(len(args))
	}
	if f.Availability != "" {
		args = append(args, f.Availability)
		query += " AND availability = $" + strconv.Itoa(len(args))
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, translateErr("list products", err)
	}
	return products, nil
}

// IncrementProductViews adds delta to the view counter in a single atomic update
func (s *Store) IncrementProductViews(ctx context.Context, id int64, delta int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET views = views + $1, updated_at = NOW() WHERE id = $2",
		delta, id)
	if err != nil {
		return translateErr("increment product views", err)
	}
	return nil
}

// IncrementProductLikes bumps the like counter in a single atomic update
func (s *Store) IncrementProductLikes(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET likes = likes + 1, updated_at = NOW() WHERE id = $1 AND is_active = true",
		id)
	if err != nil {
		return translateErr("increment product likes", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &models.NotFoundError{Entity: "product", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

// UpdateProductAvailability sets the availability flag
func (s *Store) UpdateProductAvailability(ctx context.Context, id int64, availability string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET availability = $1, updated_at = NOW() WHERE id = $2 AND is_active = true",
		availability, id)
	if err != nil {
		return translateErr("update product availability", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &models.NotFoundError{Entity: "product", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

// SoftDeleteProduct marks the product inactive and returns its image storage
// handles for cleanup. The record itself is retained.
func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) ([]string, error) {
	var publicIDs pq.StringArray
	err := s.db.GetContext(ctx, &publicIDs,
		"UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active = true RETURNING image_public_ids",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "product", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, translateErr("soft delete product", err)
	}
	return []string(publicIDs), nil
}
