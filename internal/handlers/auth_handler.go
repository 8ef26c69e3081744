package handlers

import (
	"context"
	"time"

	"katalog/internal/middleware"
	"katalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const oauthStateCookie = "oauth_state"

// FederatedProvider runs the external sign-in handshake.
type FederatedProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*services.FederatedProfile, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	google      FederatedProvider
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. google may be nil when federated
// login is not configured.
func NewAuthHandler(authService *services.AuthService, google FederatedProvider) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		google:      google,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes. protect guards the
// routes that need a signed-in user.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/admin/login", h.HandleAdminLogin)
	authRoutes.Get("/google", h.HandleGoogleLogin)
	authRoutes.Get("/google/callback", h.HandleGoogleCallback)
	authRoutes.Get("/me", protect, h.HandleMe)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name        string `json:"name" form:"name" validate:"required"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required"`
	Phone       string `json:"phone" form:"phone"`
	AdminSecret string `json:"adminSecret" form:"adminSecret"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.Register(services.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		zap.S().Infof("registration rejected for %s: %v", req.Email, err)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleLogin handles user login and issues a token for the stored role.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		zap.S().Infof("login failed for %s: %v", req.Email, err)
		return respondError(c, err)
	}
	return c.JSON(result)
}

// AdminLoginRequest represents the request body for admin login.
type AdminLoginRequest struct {
	Phone       string `json:"phone" form:"phone"`
	Password    string `json:"password" form:"password"`
	AdminSecret string `json:"adminSecret" form:"adminSecret"`
}

// HandleAdminLogin handles admin login by phone.
func (h *AuthHandler) HandleAdminLogin(c *fiber.Ctx) error {
	var req AdminLoginRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.AdminLogin(req.Phone, req.Password, req.AdminSecret)
	if err != nil {
		zap.S().Infof("admin login failed for phone %s: %v", req.Phone, err)
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleGoogleLogin redirects to the Google consent page.
func (h *AuthHandler) HandleGoogleLogin(c *fiber.Ctx) error {
	if h.google == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Google login is not configured"})
	}
	state := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.google.AuthCodeURL(state), fiber.StatusFound)
}

// HandleGoogleCallback completes Google sign-in and returns a user token.
func (h *AuthHandler) HandleGoogleCallback(c *fiber.Ctx) error {
	if h.google == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Google login is not configured"})
	}
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Google auth failed"})
	}
	c.ClearCookie(oauthStateCookie)

	profile, err := h.google.Exchange(c.UserContext(), c.Query("code"))
	if err != nil {
		zap.S().Warnf("google exchange failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Google auth failed"})
	}

	result, err := h.authService.FederatedLogin(*profile)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleMe returns the authenticated user as currently stored.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return respondError(c, services.ErrUnauthenticated)
	}
	return c.JSON(fiber.Map{
		"user":      services.Summarize(user),
		"tokenRole": c.Locals(middleware.LocalTokenRole),
	})
}
