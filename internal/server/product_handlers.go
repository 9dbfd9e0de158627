package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// CreateProduct handles POST /api/products
func (s *Server) CreateProduct(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description,omitempty"`
		Price       float64  `json:"price"`
		Category    string   `json:"category"`
		Condition   string   `json:"condition"`
		Images      []string `json:"images,omitempty"`
		Location    string   `json:"location,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	product, err := s.productRepo.Create(c.Context(), repository.CreateProductInput{
		Seller:      actor,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    models.ProductCategory(req.Category),
		Condition:   models.ProductCondition(req.Condition),
		Images:      req.Images,
		Location:    req.Location,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// GetProducts handles GET /api/products
func (s *Server) GetProducts(c *fiber.Ctx) error {
	products, err := s.productRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(products)
}

// GetProduct handles GET /api/products/:id
func (s *Server) GetProduct(c *fiber.Ctx) error {
	product, err := s.productRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(product)
}

// ToggleProductLike handles POST /api/products/:id/like
func (s *Server) ToggleProductLike(c *fiber.Ctx) error {
	result, err := s.engagement.ToggleProductLike(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// SetProductStatus handles PUT /api/products/:id/status
func (s *Server) SetProductStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	product, err := s.productRepo.SetStatus(c.Context(), c.Params("id"), middleware.UserID(c), models.ProductStatus(req.Status))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(product)
}
