package handlers

import (
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service  *services.CategoryService
	images   ImageStore
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService, images ImageStore) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		images:   images,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the category routes. Writes require protect
// followed by admin.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, protect, admin fiber.Handler) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/tree", h.HandleGetCategoryTree)
	categoryRoutes.Post("/", protect, admin, h.HandleCreateCategory)
	categoryRoutes.Put("/:id", protect, admin, h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", protect, admin, h.HandleDeleteCategory)
}

// CategoryRequest is the JSON or multipart body of a category write.
type CategoryRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	ParentID    string `json:"parentId" form:"parentId" validate:"omitempty,uuid"`
}

// HandleGetCategories returns the flat category list.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// HandleGetCategoryTree returns the root categories with nested children.
func (h *CategoryHandler) HandleGetCategoryTree(c *fiber.Ctx) error {
	tree, err := h.service.Tree()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tree)
}

// HandleCreateCategory creates a category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	input, ok, err := h.input(c)
	if !ok {
		return err
	}
	category, err := h.service.Create(input)
	if err != nil {
		discardImages(h.images, input.Images)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory updates a category.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	input, ok, err := h.input(c)
	if !ok {
		return err
	}
	category, err := h.service.Update(c.Params("id"), input)
	if err != nil {
		discardImages(h.images, input.Images)
		return respondError(c, err)
	}
	return c.JSON(category)
}

// HandleDeleteCategory deletes a category and promotes its children.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}

func (h *CategoryHandler) input(c *fiber.Ctx) (services.CategoryInput, bool, error) {
	var req CategoryRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return services.CategoryInput{}, false, err
	}
	images, err := saveImages(c, h.images)
	if err != nil {
		return services.CategoryInput{}, false, respondError(c, err)
	}
	return services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		Images:      images,
	}, true, nil
}
