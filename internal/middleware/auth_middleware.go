package middleware

import (
	"errors"
	"strings"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by AuthRequired.
const (
	LocalUser      = "user"
	LocalTokenRole = "token_role"
)

// TokenCookie is the cookie consulted when no bearer header is sent.
const TokenCookie = "token"

// TokenVerifier resolves a token to the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (*services.Identity, error)
}

// UserLookup loads the current user record without its password hash.
type UserLookup interface {
	GetProfileByID(id string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that accepts a token signed with either
// role secret and attaches the stored user to the request.
func AuthRequired(verifier TokenVerifier, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, no token",
			})
		}

		identity, err := verifier.Verify(tokenString)
		if err != nil {
			zap.S().Debugf("token verification failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token invalid",
			})
		}

		user, err := users.GetProfileByID(identity.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			zap.S().Debugf("token subject %s no longer exists", identity.ID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		if err != nil {
			zap.S().Errorw("failed to load token subject", "id", identity.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Server error",
			})
		}

		// The stored record is authoritative for the role from here on.
		c.Locals(LocalUser, user)
		c.Locals(LocalTokenRole, identity.Role)

		return c.Next()
	}
}

// AdminOnly rejects requests whose authenticated user is not an admin. It
// must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized",
			})
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Admin only",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}

func bearerToken(c *fiber.Ctx) string {
	// Expected format: "Bearer <token>"
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Cookies(TokenCookie)
}
