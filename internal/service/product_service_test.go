package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"techstore/internal/models"
	"techstore/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductStore struct {
	products map[int64]*models.Product
	nextID   int64
	views    map[int64]int64
	likes    map[int64]int64
	getErr   error
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products: map[int64]*models.Product{},
		views:    map[int64]int64{},
		likes:    map[int64]int64{},
	}
}

func (f *fakeProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	f.nextID++
	p.ID = f.nextID
	p.IsActive = true
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, &models.NotFoundError{Entity: "product", ID: "x"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductStore) IncrementProductViews(ctx context.Context, id int64, delta int64) error {
	f.views[id] += delta
	return nil
}

func (f *fakeProductStore) IncrementProductLikes(ctx context.Context, id int64) error {
	if _, ok := f.products[id]; !ok {
		return &models.NotFoundError{Entity: "product", ID: "x"}
	}
	f.likes[id]++
	return nil
}

func (f *fakeProductStore) UpdateProductAvailability(ctx context.Context, id int64, availability string) error {
	p, ok := f.products[id]
	if !ok {
		return &models.NotFoundError{Entity: "product", ID: "x"}
	}
	p.Availability = availability
	return nil
}

func (f *fakeProductStore) SoftDeleteProduct(ctx context.Context, id int64) ([]string, error) {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, &models.NotFoundError{Entity: "product", ID: "x"}
	}
	p.IsActive = false
	return p.ImagePublicIDs, nil
}

type fakeCache struct {
	mu          sync.Mutex
	viewCounts  map[int64]int64
	incrViewErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{viewCounts: map[int64]int64{}}
}

func (f *fakeCache) IncrementView(ctx context.Context, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrViewErr != nil {
		return f.incrViewErr
	}
	f.viewCounts[productID]++
	return nil
}

func (f *fakeCache) viewCount(productID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewCounts[productID]
}

func (f *fakeCache) GetCachedProduct(ctx context.Context, productID int64) (*models.Product, error) {
	return nil, nil
}

func (f *fakeCache) CacheProduct(ctx context.Context, p *models.Product, ttl time.Duration) error {
	return nil
}

func (f *fakeCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

type fakeUploader struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	failAfter int // fail the Nth upload (1-based); 0 disables
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.failAfter > 0 && f.uploads >= f.failAfter {
		return "", "", fmt.Errorf("image host down")
	}
	publicID := fmt.Sprintf("pid-%d", f.uploads)
	return "/img/" + filename, publicID, nil
}

func (f *fakeUploader) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeUploader) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func newProductService(fs *fakeProductStore, fc *fakeCache, fu *fakeUploader) *ProductService {
	return NewProductService(fs, fc, fu, time.Minute)
}

func storedCatalogProduct() models.Product {
	return models.Product{
		ID:             1,
		Name:           "NVMe SSD 2TB",
		Category:       "storage",
		Availability:   models.AvailabilityAvailable,
		Images:         []string{"/img/ssd-1.jpg", "/img/ssd-2.jpg"},
		ImagePublicIDs: []string{"pid-a", "pid-b"},
		IsActive:       true,
	}
}

func TestGetProductIncrementsViewsAsync(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	fc := newFakeCache()
	svc := newProductService(fs, fc, &fakeUploader{})

	got, err := svc.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "NVMe SSD 2TB", got.Name)

	assert.Eventually(t, func() bool {
		return fc.viewCount(1) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestGetProductSurvivesViewBufferFailure(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	fc := newFakeCache()
	fc.incrViewErr = fmt.Errorf("redis down")
	svc := newProductService(fs, fc, &fakeUploader{})

	got, err := svc.GetProduct(context.Background(), 1)
	require.NoError(t, err, "view counter failure must not fail the read")
	assert.Equal(t, int64(1), got.ID)
}

func validProductRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Name:         "NVMe SSD 2TB",
		Category:     "storage",
		SellingPrice: 129.99,
		Availability: models.AvailabilityAvailable,
		Images: []ImageUpload{
			{Filename: "front.jpg", Data: []byte("a")},
			{Filename: "back.jpg", Data: []byte("b")},
		},
	}
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc := newProductService(newFakeProductStore(), newFakeCache(), &fakeUploader{})

	_, err := svc.CreateProduct(context.Background(), owner, validProductRequest())
	assert.True(t, models.IsAuthorization(err))
}

func TestCreateProductImageBounds(t *testing.T) {
	svc := newProductService(newFakeProductStore(), newFakeCache(), &fakeUploader{})

	one := validProductRequest()
	one.Images = one.Images[:1]
	_, err := svc.CreateProduct(context.Background(), admin, one)
	assert.True(t, models.IsValidation(err))

	six := validProductRequest()
	for i := 0; i < 5; i++ {
		six.Images = append(six.Images, ImageUpload{Filename: fmt.Sprintf("x%d.jpg", i), Data: []byte("x")})
	}
	_, err = svc.CreateProduct(context.Background(), admin, six)
	assert.True(t, models.IsValidation(err))
}

func TestCreateProductParallelImageSequences(t *testing.T) {
	fs := newFakeProductStore()
	fu := &fakeUploader{}
	svc := newProductService(fs, newFakeCache(), fu)

	product, err := svc.CreateProduct(context.Background(), admin, validProductRequest())
	require.NoError(t, err)

	assert.Len(t, product.Images, 2)
	assert.Len(t, product.ImagePublicIDs, 2)
	assert.Equal(t, len(product.Images), len(product.ImagePublicIDs))
}

func TestCreateProductUploadFailure(t *testing.T) {
	fs := newFakeProductStore()
	fu := &fakeUploader{failAfter: 2}
	svc := newProductService(fs, newFakeCache(), fu)

	_, err := svc.CreateProduct(context.Background(), admin, validProductRequest())
	assert.True(t, models.IsTransientStore(err))
	assert.Empty(t, fs.products)

	// The first upload succeeded and is cleaned up in the background.
	assert.Eventually(t, func() bool {
		return len(fu.deletedIDs()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDeleteProductReleasesImages(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	fu := &fakeUploader{}
	svc := newProductService(fs, newFakeCache(), fu)

	err := svc.DeleteProduct(context.Background(), admin, 1)
	require.NoError(t, err)

	// Soft delete: the record stays, flagged inactive.
	assert.False(t, fs.products[1].IsActive)

	assert.Eventually(t, func() bool {
		return len(fu.deletedIDs()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"pid-a", "pid-b"}, fu.deletedIDs())
}

func TestDeleteProductRequiresAdmin(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	svc := newProductService(fs, newFakeCache(), &fakeUploader{})

	err := svc.DeleteProduct(context.Background(), owner, 1)
	assert.True(t, models.IsAuthorization(err))
	assert.True(t, fs.products[1].IsActive)
}

func TestUpdateAvailability(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	svc := newProductService(fs, newFakeCache(), &fakeUploader{})
	ctx := context.Background()

	require.NoError(t, svc.UpdateAvailability(ctx, admin, 1, models.AvailabilityOutOfStock))
	assert.Equal(t, models.AvailabilityOutOfStock, fs.products[1].Availability)

	err := svc.UpdateAvailability(ctx, admin, 1, "SoldOut")
	assert.True(t, models.IsValidation(err))

	err = svc.UpdateAvailability(ctx, owner, 1, models.AvailabilityAvailable)
	assert.True(t, models.IsAuthorization(err))
}

func TestLikeProduct(t *testing.T) {
	fs := newFakeProductStore()
	p := storedCatalogProduct()
	fs.products[1] = &p
	svc := newProductService(fs, newFakeCache(), &fakeUploader{})

	require.NoError(t, svc.LikeProduct(context.Background(), 1))
	assert.Equal(t, int64(1), fs.likes[1])
}
