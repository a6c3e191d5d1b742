package service

import (
	"context"

	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/abgdnv/stitchnstyle/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines the catalog operations.
type ProductService interface {
	// FindByID returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)

	// FindAll returns a page of products, newest first.
	FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error)

	// Create adds a new product.
	Create(ctx context.Context, dto ProductCreateDto) (*catalog.Product, error)

	// Update replaces a product if dto.Version is current.
	Update(ctx context.Context, id uuid.UUID, dto ProductUpdateDto) (*catalog.Product, error)

	// DeleteByID removes a product if version is current.
	DeleteByID(ctx context.Context, id uuid.UUID, version int32) error
}

// ProductCreateDto is the payload for creating a product.
type ProductCreateDto struct {
	Name        string          `json:"name"        validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"       validate:"gt=0"`
	Category    string          `json:"category"    validate:"required,max=100"`
	SubCategory string          `json:"subCategory" validate:"max=100"`
	Sizes       []string        `json:"sizes"       validate:"required,min=1,dive,required,max=10"`
	Images      []string        `json:"images"      validate:"max=4,dive,required,max=2048"`
	Bestseller  bool            `json:"bestseller"`
}

// ProductUpdateDto is the payload for updating a product. Version is the one the client read.
type ProductUpdateDto struct {
	ProductCreateDto
	Version int32 `json:"version" validate:"required,min=1"`
}

// Products implements ProductService.
type Products struct {
	store store.ProductStore
}

// NewProducts creates a ProductService.
func NewProducts(store store.ProductStore) *Products {
	return &Products{store: store}
}

func (s *Products) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Products) FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error) {
	return s.store.FindAll(ctx, offset, limit)
}

func (s *Products) Create(ctx context.Context, dto ProductCreateDto) (*catalog.Product, error) {
	return s.store.Create(ctx, toProduct(uuid.Nil, 0, dto))
}

func (s *Products) Update(ctx context.Context, id uuid.UUID, dto ProductUpdateDto) (*catalog.Product, error) {
	return s.store.Update(ctx, toProduct(id, dto.Version, dto.ProductCreateDto))
}

func (s *Products) DeleteByID(ctx context.Context, id uuid.UUID, version int32) error {
	return s.store.DeleteByID(ctx, id, version)
}

func toProduct(id uuid.UUID, version int32, dto ProductCreateDto) catalog.Product {
	return catalog.Product{
		ID:          id,
		Name:        dto.Name,
		Description: dto.Description,
		Price:       dto.Price,
		Category:    dto.Category,
		SubCategory: dto.SubCategory,
		Sizes:       dto.Sizes,
		Images:      dto.Images,
		Bestseller:  dto.Bestseller,
		Version:     version,
	}
}
