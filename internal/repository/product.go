package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"ripple/internal/broker"
	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/store"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for marketplace listings.
type ProductRepository interface {
	Create(ctx context.Context, in CreateProductInput) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Exists(ctx context.Context, id string) (bool, error)
	// SetStatus moves the listing between available/sold/reserved.
	SetStatus(ctx context.Context, id, sellerID string, status models.ProductStatus) (*models.Product, error)
	Subscribe(fn func([]*models.Product)) func()
}

// CreateProductInput carries the write-once fields of a new listing.
type CreateProductInput struct {
	Seller      models.UserSnapshot
	Title       string
	Description string
	Price       float64
	Category    models.ProductCategory
	Condition   models.ProductCondition
	Images      []string
	Location    string
}

type productRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewProductRepository creates a new product repository.
func NewProductRepository(st store.Store, b *broker.Broker) ProductRepository {
	return &productRepository{st: st, broker: b, log: observability.NewRepoLogger(ProductsRoot)}
}

func (r *productRepository) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if in.Seller.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Price <= 0 {
		return nil, models.NewValidationError("Price must be positive")
	}
	if !models.ValidProductCategory(in.Category) {
		return nil, models.NewValidationError("Unknown product category")
	}
	if !models.ValidProductCondition(in.Condition) {
		return nil, models.NewValidationError("Unknown product condition")
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		Seller:      in.Seller,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Condition:   in.Condition,
		Status:      models.ProductStatusAvailable,
		Images:      in.Images,
		Location:    in.Location,
		CreatedAt:   time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, ProductPath(product.ID), product); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, product.ID)
	return product, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := getJSON(ctx, r.st, ProductPath(id), &product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Product", id)
		}
		return nil, models.NewInternalError(err)
	}
	likes, err := readCounter(ctx, r.st, ProductLikesPath(id))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	product.Likes = likes
	return &product, nil
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	blobs, err := r.st.List(ctx, ProductsRoot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	products := make([]*models.Product, 0, len(blobs))
	for _, raw := range blobs {
		var product models.Product
		if err := unmarshalLenient(raw, &product); err != nil {
			continue
		}
		likes, err := readCounter(ctx, r.st, ProductLikesPath(product.ID))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		product.Likes = likes
		products = append(products, &product)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *productRepository) Exists(ctx context.Context, id string) (bool, error) {
	return edgeExists(ctx, r.st, ProductPath(id))
}

func (r *productRepository) SetStatus(ctx context.Context, id, sellerID string, status models.ProductStatus) (*models.Product, error) {
	if sellerID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if !models.ValidProductStatus(status) {
		return nil, models.NewValidationError("Unknown product status")
	}

	product, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Seller.ID != sellerID {
		return nil, models.NewInvalidOperationError("Only the seller can change listing status")
	}

	product.Status = status
	if err := putJSON(ctx, r.st, ProductPath(id), product); err != nil {
		r.log.LogError(ctx, err, "set_status")
		return nil, models.NewInternalError(err)
	}
	r.log.LogMutation(ctx, "set_status", id)
	return product, nil
}

func (r *productRepository) Subscribe(fn func([]*models.Product)) func() {
	return r.broker.Subscribe(ProductsRoot,
		func(ctx context.Context) (interface{}, error) { return r.List(ctx) },
		func(v interface{}) { fn(v.([]*models.Product)) },
	)
}
