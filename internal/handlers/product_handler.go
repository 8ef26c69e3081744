package handlers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"katalog/internal/middleware"
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	images   ImageStore
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, images ImageStore) *ProductHandler {
	return &ProductHandler{
		service:  service,
		images:   images,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. protect guards the user
// actions; admin additionally guards catalog writes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, protect, admin fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", protect, admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", protect, admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", protect, admin, h.HandleDeleteProduct)
	productRoutes.Post("/:id/like", protect, h.HandleToggleLike)
	productRoutes.Post("/:id/cart", protect, h.HandleToggleCart)
	productRoutes.Post("/:id/rate", protect, h.HandleRateProduct)
	productRoutes.Post("/:id/returned", protect, admin, h.HandleToggleReturned)
}

// ProductRequest is the JSON or multipart body of a product write.
type ProductRequest struct {
	Name                 string   `json:"name" form:"name" validate:"required"`
	Price                *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Description          string   `json:"description" form:"description"`
	CategoryID           string   `json:"categoryId" form:"categoryId" validate:"omitempty,uuid"`
	InnerCategoryID      string   `json:"innerCategoryId" form:"innerCategoryId" validate:"omitempty,uuid"`
	ExtraInnerCategoryID string   `json:"extraInnerCategoryId" form:"extraInnerCategoryId" validate:"omitempty,uuid"`
	Discount             float64  `json:"discount" form:"discount" validate:"gte=0"`
}

// RateRequest is the body of a rating submission.
type RateRequest struct {
	Rating Number `json:"rating" form:"rating"`
}

// Number accepts a JSON number or a numeric string. A string that is not a
// number decodes to NaN, which the rating check rejects.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*n = 0
	case float64:
		*n = Number(t)
	case bool:
		*n = 0
		if t {
			*n = 1
		}
	case string:
		return n.UnmarshalText([]byte(t))
	default:
		*n = Number(math.NaN())
	}
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for form values.
func (n *Number) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f = math.NaN()
	}
	*n = Number(f)
	return nil
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, ok, err := h.input(c)
	if !ok {
		return err
	}
	product, err := h.service.CreateProduct(input)
	if err != nil {
		discardImages(h.images, input.Images)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	input, ok, err := h.input(c)
	if !ok {
		return err
	}
	product, err := h.service.UpdateProduct(c.Params("id"), input)
	if err != nil {
		discardImages(h.images, input.Images)
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

// HandleToggleLike toggles the like of the current user.
func (h *ProductHandler) HandleToggleLike(c *fiber.Ctx) error {
	result, err := h.service.ToggleLike(c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"likesCount": result.Count, "liked": result.Active})
}

// HandleToggleCart toggles the product in the cart of the current user.
func (h *ProductHandler) HandleToggleCart(c *fiber.Ctx) error {
	result, err := h.service.ToggleCart(c.Params("id"), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cartCount": result.Count, "inCart": result.Active})
}

// HandleRateProduct records a rating from the current user.
func (h *ProductHandler) HandleRateProduct(c *fiber.Ctx) error {
	var req RateRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}
	result, err := h.service.RateProduct(c.Params("id"), float64(req.Rating))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleToggleReturned flips the returned flag.
func (h *ProductHandler) HandleToggleReturned(c *fiber.Ctx) error {
	returned, err := h.service.ToggleReturned(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"returned": returned})
}

func (h *ProductHandler) input(c *fiber.Ctx) (services.ProductInput, bool, error) {
	var req ProductRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return services.ProductInput{}, false, err
	}
	images, err := saveImages(c, h.images)
	if err != nil {
		return services.ProductInput{}, false, respondError(c, err)
	}
	return services.ProductInput{
		Name:                 req.Name,
		Price:                *req.Price,
		Description:          req.Description,
		CategoryID:           req.CategoryID,
		InnerCategoryID:      req.InnerCategoryID,
		ExtraInnerCategoryID: req.ExtraInnerCategoryID,
		Discount:             req.Discount,
		Images:               images,
	}, true, nil
}
