package services

import (
	"errors"
	"fmt"
	"strings"

	"katalog/internal/models"
	"katalog/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used for stored password hashes.
const PasswordCost = 10

// AuthConfig holds the server-side secrets that gate admin access.
type AuthConfig struct {
	AdminSecret       string
	AllowedAdminPhone string
}

// RegisterInput is the data accepted by Register.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	AdminSecret string
}

// FederatedProfile is the identity returned by an external provider after a
// completed handshake.
type FederatedProfile struct {
	ProviderID string
	Email      string
	Name       string
}

// UserSummary is the public view of a user returned by the login flows.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// AuthResult pairs the authenticated user with a freshly issued token.
type AuthResult struct {
	User  UserSummary `json:"user"`
	Token string      `json:"token"`
}

// AuthService handles registration and every login path. Each path decides
// the token role on its own terms.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	cfg      *AuthConfig
	events   EventPublisher
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, cfg *AuthConfig, events EventPublisher) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		cfg:      cfg,
		events:   events,
	}
}

// Register creates an account. A supplied admin secret promotes the account
// to admin only when both the secret and the phone match the server config.
func (s *AuthService) Register(in RegisterInput) (*AuthResult, error) {
	email := strings.TrimSpace(in.Email)
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, invalid("name, email, password required")
	}

	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	role := models.RoleUser
	if in.AdminSecret != "" {
		if in.AdminSecret != s.cfg.AdminSecret {
			return nil, fmt.Errorf("%w: admin secret mismatch", ErrInvalidAdminClaim)
		}
		if in.Phone == "" || in.Phone != s.cfg.AllowedAdminPhone {
			return nil, fmt.Errorf("%w: admin phone mismatch", ErrInvalidAdminClaim)
		}
		role = models.RoleAdmin
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         in.Name,
		Email:        &email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		// A concurrent registration won the unique email index.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	zap.S().Infof("registered user %s with role %s", user.ID, role)
	publish(s.events, EventUserRegistered, map[string]interface{}{"id": user.ID, "role": role, "provider": "password"})

	return s.result(user, role)
}

// Login authenticates by email and password. The token carries the stored
// role of the user.
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, invalid("email and password required")
	}
	user, err := s.userRepo.GetByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Do not reveal whether the email exists.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.result(user, user.Role)
}

// AdminLogin authenticates an admin by phone, password and the server admin
// secret. The token is always signed for the admin role.
func (s *AuthService) AdminLogin(phone, password, adminSecret string) (*AuthResult, error) {
	if adminSecret == "" || adminSecret != s.cfg.AdminSecret {
		return nil, fmt.Errorf("%w: admin secret invalid", ErrInvalidAdminClaim)
	}
	if phone == "" || password == "" {
		return nil, invalid("phone and password required")
	}
	user, err := s.userRepo.GetAdminByPhone(phone)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.result(user, models.RoleAdmin)
}

// FederatedLogin finds or creates the user behind profile, linking the
// provider id to an existing email match. The token is always a user-role
// token, whatever the stored role is.
func (s *AuthService) FederatedLogin(profile FederatedProfile) (*AuthResult, error) {
	if profile.ProviderID == "" {
		return nil, invalid("provider profile has no id")
	}

	user, err := s.userRepo.GetByGoogleID(profile.ProviderID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if user == nil && profile.Email != "" {
		user, err = s.userRepo.GetByEmail(profile.Email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	switch {
	case user == nil:
		name := profile.Name
		if name == "" {
			name = "Google User"
		}
		providerID := profile.ProviderID
		user = &models.User{
			Name:         name,
			GoogleID:     &providerID,
			Role:         models.RoleUser,
			PasswordHash: unusablePasswordHash(),
		}
		if profile.Email != "" {
			email := profile.Email
			user.Email = &email
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create federated user: %w", err)
		}
		zap.S().Infof("created federated user %s", user.ID)
		publish(s.events, EventUserRegistered, map[string]interface{}{"id": user.ID, "role": models.RoleUser, "provider": "google"})
	case user.GoogleID == nil:
		providerID := profile.ProviderID
		user.GoogleID = &providerID
		if err := s.userRepo.Update(user); err != nil {
			return nil, fmt.Errorf("failed to link federated identity: %w", err)
		}
		zap.S().Infof("linked google account to user %s", user.ID)
	}

	return s.result(user, models.RoleUser)
}

func (s *AuthService) result(user *models.User, tokenRole string) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, tokenRole)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: Summarize(user), Token: token}, nil
}

// Summarize returns the public fields of user.
func Summarize(user *models.User) UserSummary {
	return UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.EmailValue(),
		Phone: user.Phone,
		Role:  user.Role,
	}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// unusablePasswordHash returns a value that is not a bcrypt hash, so no
// password can ever match it.
func unusablePasswordHash() string {
	return "!" + uuid.New().String()
}
