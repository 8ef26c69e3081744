package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImageStore persists uploaded images and returns the stored paths.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(paths []string)
}

// respondError maps a service error to its HTTP status. Unexpected errors are
// logged and answered with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var vErr *services.ValidationError
	status, message := fiber.StatusInternalServerError, "Server error"
	switch {
	case errors.As(err, &vErr):
		status, message = fiber.StatusBadRequest, vErr.Message
	case errors.Is(err, services.ErrDuplicateEmail):
		status, message = fiber.StatusBadRequest, "Email already registered"
	case errors.Is(err, services.ErrInvalidAdminClaim):
		status, message = fiber.StatusBadRequest, "Invalid admin claim"
	case errors.Is(err, services.ErrInvalidCredentials):
		status, message = fiber.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, services.ErrNotFound):
		status, message = fiber.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrUnauthenticated),
		errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrTokenExpired):
		status, message = fiber.StatusUnauthorized, "Not authorized"
	default:
		zap.S().Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// parseBody decodes the JSON or form body into req and validates it. It
// writes the 400 response itself and returns false when the body is unusable.
func parseBody(c *fiber.Ctx, validate *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		zap.S().Debugf("error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, respondError(c, err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// saveImages stores the files sent in the "images" multipart field. Requests
// that are not multipart carry no images.
func saveImages(c *fiber.Ctx, store ImageStore) ([]string, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, &services.ValidationError{Message: "invalid multipart form"}
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, nil
	}
	if store == nil {
		return nil, errors.New("image uploads are not configured")
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := store.Save(fh)
		if err != nil {
			store.Remove(paths)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// discardImages removes uploads whose owning write failed.
func discardImages(store ImageStore, paths []string) {
	if store != nil && len(paths) > 0 {
		store.Remove(paths)
	}
}
