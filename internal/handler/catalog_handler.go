package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/stridelab/stridefit/internal/domain"
)

// CatalogHandler handles product catalog endpoints. Listing is public;
// create, update and image upload are admin-only.
type CatalogHandler struct {
	productRepo domain.ProductRepository
	fileRepo    domain.FileRepository
	maxUploadMB int64
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(productRepo domain.ProductRepository, fileRepo domain.FileRepository, maxUploadMB int64) *CatalogHandler {
	return &CatalogHandler{
		productRepo: productRepo,
		fileRepo:    fileRepo,
		maxUploadMB: maxUploadMB,
	}
}

// ProductResponse represents a catalog entry for the frontend. For
// subscriptions both billing options are included so the storefront can
// render the toggle without doing money math.
type ProductResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Kind             string `json:"kind"`
	PriceCents       int64  `json:"price_cents"`
	YearlyPriceCents int64  `json:"yearly_price_cents,omitempty"`
	DurationMonths   int    `json:"duration_months,omitempty"`
	ImageURL         string `json:"image_url,omitempty"`
	IsActive         bool   `json:"is_active"`
}

func mapProductToResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Kind:           p.Kind,
		PriceCents:     p.PriceCents,
		DurationMonths: p.DurationMonths,
		ImageURL:       p.ImageURL,
		IsActive:       p.IsActive,
	}
	if p.IsSubscription() {
		resp.YearlyPriceCents = domain.MonthlyToYearlyCents(p.PriceCents)
	}
	return resp
}

// ListProducts handles GET /api/catalog
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.productRepo.GetActiveProducts(c.UserContext())
	if err != nil {
		log.Printf("[Catalog] Error fetching products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch products",
		})
	}

	response := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		response = append(response, mapProductToResponse(p))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}

// GetProduct handles GET /api/catalog/:id
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	product, err := h.productRepo.GetByID(c.UserContext(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "product not found",
			})
		}
		log.Printf("[Catalog] Error fetching product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch product",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapProductToResponse(product),
	})
}

// UpsertProductRequest represents the admin create/update payload
type UpsertProductRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Kind           string `json:"kind"` // one_time, subscription
	PriceCents     int64  `json:"price_cents"`
	DurationMonths int    `json:"duration_months"`
	IsActive       *bool  `json:"is_active"`
}

func (r *UpsertProductRequest) validate() string {
	if r.ID == "" {
		return "id is required"
	}
	if r.Name == "" {
		return "name is required"
	}
	if r.Kind != domain.ProductKindOneTime && r.Kind != domain.ProductKindSubscription {
		return "kind must be one_time or subscription"
	}
	if r.PriceCents <= 0 {
		return "price_cents must be positive"
	}
	return ""
}

// CreateProduct handles POST /api/admin/catalog
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req UpsertProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   msg,
		})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	durationMonths := req.DurationMonths
	if req.Kind == domain.ProductKindSubscription && durationMonths <= 0 {
		durationMonths = 1
	}

	product := &domain.Product{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		Kind:           req.Kind,
		PriceCents:     req.PriceCents,
		DurationMonths: durationMonths,
		IsActive:       isActive,
	}

	if err := h.productRepo.Create(c.UserContext(), product); err != nil {
		log.Printf("[Catalog] Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to create product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    mapProductToResponse(product),
	})
}

// UpdateProduct handles PUT /api/admin/catalog/:id
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	productID := c.Params("id")

	product, err := h.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "product not found",
			})
		}
		log.Printf("[Catalog] Error fetching product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch product",
		})
	}

	var req UpsertProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.PriceCents > 0 {
		product.PriceCents = req.PriceCents
	}
	if req.DurationMonths > 0 {
		product.DurationMonths = req.DurationMonths
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productRepo.Update(ctx, product); err != nil {
		log.Printf("[Catalog] Error updating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update product",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapProductToResponse(product),
	})
}

// UploadProductImage handles POST /api/admin/catalog/:id/image
func (h *CatalogHandler) UploadProductImage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	productID := c.Params("id")

	if h.fileRepo == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "image storage is not configured",
		})
	}

	product, err := h.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "product not found",
			})
		}
		log.Printf("[Catalog] Error fetching product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to fetch product",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid multipart form: " + err.Error(),
		})
	}

	files := form.File["image"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "missing 'image' field in form data",
		})
	}
	imageFile := files[0]

	maxBytes := h.maxUploadMB * 1024 * 1024
	if imageFile.Size > maxBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("file size exceeds maximum of %dMB", h.maxUploadMB),
		})
	}

	if !isValidProductImage(imageFile) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid file type, only JPEG, PNG, and WebP images are allowed",
		})
	}

	fileHandle, err := imageFile.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to open uploaded file",
		})
	}
	defer fileHandle.Close()

	imageData, err := io.ReadAll(fileHandle)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to read uploaded file",
		})
	}

	filename := product.ID + filepath.Ext(imageFile.Filename)
	contentType := imageFile.Header.Get("Content-Type")

	url, err := h.fileRepo.Upload(ctx, imageData, filename, contentType)
	if err != nil {
		log.Printf("[Catalog] Error uploading image for %s: %v", product.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to upload image",
		})
	}

	product.ImageURL = url
	if err := h.productRepo.Update(ctx, product); err != nil {
		log.Printf("[Catalog] Error saving image URL for %s: %v", product.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to update product",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    mapProductToResponse(product),
	})
}

// isValidProductImage checks the uploaded file by content type with a
// file extension fallback
func isValidProductImage(file *multipart.FileHeader) bool {
	contentType := file.Header.Get("Content-Type")
	if contentType == "image/jpeg" ||
		contentType == "image/jpg" ||
		contentType == "image/png" ||
		contentType == "image/webp" {
		return true
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp"
}
