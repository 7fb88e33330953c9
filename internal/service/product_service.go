package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"techstore/internal/imagestore"
	"techstore/internal/models"
	"techstore/internal/store"
	"techstore/internal/util"

	"go.uber.org/zap"
)

// ProductStore is the persistence surface the product service depends on.
// Implemented by *store.Store.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	IncrementProductViews(ctx context.Context, id int64, delta int64) error
	IncrementProductLikes(ctx context.Context, id int64) error
	UpdateProductAvailability(ctx context.Context, id int64, availability string) error
	SoftDeleteProduct(ctx context.Context, id int64) ([]string, error)
}

// ProductCache buffers view counts and caches product reads. Implemented by
// *redisclient.Client.
type ProductCache interface {
	IncrementView(ctx context.Context, productID int64) error
	GetCachedProduct(ctx context.Context, productID int64) (*models.Product, error)
	CacheProduct(ctx context.Context, p *models.Product, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, productID int64) error
}

// ProductService handles catalog reads, counters and admin mutations
type ProductService struct {
	store    ProductStore
	cache    ProductCache
	images   imagestore.Uploader
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(st ProductStore, cache ProductCache, images imagestore.Uploader, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		store:    st,
		cache:    cache,
		images:   images,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// GetProduct serves a public single-product read. The view counter increment
// is asynchronous and best-effort: its failure never fails the read.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.GetProduct")
	defer span.End()

	product, err := s.cachedProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.IncrementView(ctx, id); err != nil {
			s.logger.Warn("Failed to buffer product view",
				zap.Int64("product_id", id),
				zap.Error(err))
		}
	}()

	return product, nil
}

func (s *ProductService) cachedProduct(ctx context.Context, id int64) (*models.Product, error) {
	if cached, err := s.cache.GetCachedProduct(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.CacheProduct(ctx, product, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache product", zap.Int64("product_id", id), zap.Error(err))
	}
	return product, nil
}

// ListProducts serves the public catalog listing
func (s *ProductService) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListProducts")
	defer span.End()

	return s.store.ListProducts(ctx, f)
}

// LikeProduct bumps the like counter
func (s *ProductService) LikeProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "ProductService.LikeProduct")
	defer span.End()

	if err := s.store.IncrementProductLikes(ctx, id); err != nil {
		return err
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
	}
	return nil
}

// ImageUpload carries one image file received at the boundary
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CreateProductRequest represents an admin request to create a product
type CreateProductRequest struct {
	Name               string
	Description        string
	Category           string
	Brand              string
	ActualPrice        float64
	StrikePrice        float64
	SellingPrice       float64
	DiscountPercentage float64
	Availability       string
	Images             []ImageUpload
}

func (r *CreateProductRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &models.ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &models.ValidationError{Field: "category", Msg: "must not be empty"}
	}
	switch r.Availability {
	case models.AvailabilityAvailable, models.AvailabilityOutOfStock, models.AvailabilityDiscontinued:
	case "":
		r.Availability = models.AvailabilityAvailable
	default:
		return &models.ValidationError{Field: "availability", Msg: "unknown availability"}
	}
	if len(r.Images) < models.MinProductImages || len(r.Images) > models.MaxProductImages {
		return &models.ValidationError{
			Field: "images",
			Msg: fmt.Sprintf("must contain between %d and %d images",
				models.MinProductImages, models.MaxProductImages),
		}
	}
	if r.SellingPrice < 0 || r.ActualPrice < 0 || r.StrikePrice < 0 {
		return &models.ValidationError{Field: "price", Msg: "must not be negative"}
	}
	if r.DiscountPercentage < 0 || r.DiscountPercentage > 100 {
		return &models.ValidationError{Field: "discount_percentage", Msg: "must be between 0 and 100"}
	}
	return nil
}

// CreateProduct uploads the images and persists the product with its parallel
// image path / public ID sequences. Admin only.
func (s *ProductService) CreateProduct(ctx context.Context, ident models.Identity, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := AuthorizeAdmin(ident); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(req.Images))
	publicIDs := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		path, publicID, err := s.images.Upload(ctx, img.Filename, img.Data)
		if err != nil {
			// Orphaned uploads from this request are cleaned up advisorily.
			s.cleanupImages(publicIDs)
			return nil, &models.TransientStoreError{Op: "image upload", Err: err}
		}
		paths = append(paths, path)
		publicIDs = append(publicIDs, publicID)
	}

	product := &models.Product{
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		Category:           strings.TrimSpace(req.Category),
		Brand:              strings.TrimSpace(req.Brand),
		ActualPrice:        req.ActualPrice,
		StrikePrice:        req.StrikePrice,
		SellingPrice:       req.SellingPrice,
		DiscountPercentage: req.DiscountPercentage,
		Availability:       req.Availability,
		Images:             paths,
		ImagePublicIDs:     publicIDs,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		s.cleanupImages(publicIDs)
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("images", len(paths)))

	return product, nil
}

// UpdateAvailability sets the availability flag. Admin only.
func (s *ProductService) UpdateAvailability(ctx context.Context, ident models.Identity, id int64, availability string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateAvailability")
	defer span.End()

	if err := AuthorizeAdmin(ident); err != nil {
		return err
	}
	switch availability {
	case models.AvailabilityAvailable, models.AvailabilityOutOfStock, models.AvailabilityDiscontinued:
	default:
		return &models.ValidationError{Field: "availability", Msg: "unknown availability"}
	}

	if err := s.store.UpdateProductAvailability(ctx, id, availability); err != nil {
		return err
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
	}
	return nil
}

// DeleteProduct soft-deletes the product and releases its image storage
// handles fire-and-forget. Bookings keep their denormalized snapshots; the
// record itself is retained. Admin only.
func (s *ProductService) DeleteProduct(ctx context.Context, ident models.Identity, id int64) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct")
	defer span.End()

	if err := AuthorizeAdmin(ident); err != nil {
		return err
	}

	publicIDs, err := s.store.SoftDeleteProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Int64("product_id", id), zap.Error(err))
	}

	s.cleanupImages(publicIDs)

	s.logger.Info("Product soft-deleted",
		zap.Int64("product_id", id),
		zap.Int("images_released", len(publicIDs)))

	return nil
}

// cleanupImages deletes image storage handles in the background. The record
// mutation is the source of truth; cleanup is advisory and idempotent, so
// failures are logged and counted, never propagated.
func (s *ProductService) cleanupImages(publicIDs []string) {
	if len(publicIDs) == 0 {
		return
	}
	ids := make([]string, len(publicIDs))
	copy(ids, publicIDs)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, publicID := range ids {
			if err := s.images.Delete(ctx, publicID); err != nil {
				util.ImageCleanupFailures.Inc()
				s.logger.Warn("Failed to delete stored image",
					zap.String("public_id", publicID),
					zap.Error(err))
			}
		}
	}()
}
