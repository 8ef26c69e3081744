package services_test

import (
	"fmt"
	"testing"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testServerAdminSecret = "server_admin_secret"
	testAdminPhone        = "+15550001111"
)

func newAuthService(repo *MockUserRepository) (*services.AuthService, *services.TokenService) {
	tokens := services.NewTokenService(testUserSecret, testAdminSecret)
	cfg := &services.AuthConfig{
		AdminSecret:       testServerAdminSecret,
		AllowedAdminPhone: testAdminPhone,
	}
	return services.NewAuthService(repo, tokens, cfg, nil), tokens
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func strPtr(s string) *string { return &s }

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	mockRepo.On("GetByEmail", "test@example.com").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
		user.ID = "user-1"
	}).Return(nil).Once()

	result, err := authService.Register(services.RegisterInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, models.RoleUser, result.User.Role)

	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, models.RoleUser, identity.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo)

	mockRepo.On("GetByEmail", "exists@example.com").Return(&models.User{ID: "user-1"}, nil).Once()

	_, err := authService.Register(services.RegisterInput{
		Name:     "Someone",
		Email:    "exists@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_Register_LosesEmailRace(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo)

	// The lookup misses, but a concurrent registration commits first.
	mockRepo.On("GetByEmail", "race@example.com").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)).Once()

	_, err := authService.Register(services.RegisterInput{
		Name:     "Racer",
		Email:    "race@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo)

	_, err := authService.Register(services.RegisterInput{Name: "No Email", Password: "password123"})

	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything)
}

func TestAuthService_Register_AdminClaim(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		phone    string
		wantRole string
		wantErr  error
	}{
		{name: "matching secret and phone", secret: testServerAdminSecret, phone: testAdminPhone, wantRole: models.RoleAdmin},
		{name: "wrong phone", secret: testServerAdminSecret, phone: "+15559999999", wantErr: services.ErrInvalidAdminClaim},
		{name: "missing phone", secret: testServerAdminSecret, wantErr: services.ErrInvalidAdminClaim},
		{name: "wrong secret", secret: "guess", phone: testAdminPhone, wantErr: services.ErrInvalidAdminClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			authService, tokens := newAuthService(mockRepo)

			mockRepo.On("GetByEmail", "admin@example.com").Return(nil, notFoundErr("user")).Once()
			if tt.wantErr == nil {
				mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
					args.Get(0).(*models.User).ID = "admin-1"
				}).Return(nil).Once()
			}

			result, err := authService.Register(services.RegisterInput{
				Name:        "Admin",
				Email:       "admin@example.com",
				Password:    "password123",
				Phone:       tt.phone,
				AdminSecret: tt.secret,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mockRepo.AssertNotCalled(t, "Create", mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, result.User.Role)
			identity, err := tokens.Verify(result.Token)
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, identity.Role)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	user := &models.User{
		ID:           "user-1",
		Name:         "Test User",
		Email:        strPtr("test@example.com"),
		PasswordHash: hashed(t, "password123"),
		Role:         models.RoleUser,
	}
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()

	result, err := authService.Login("test@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, "test@example.com", result.User.Email)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login_UsesStoredRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	admin := &models.User{
		ID:           "admin-1",
		Name:         "Admin",
		Email:        strPtr("admin@example.com"),
		PasswordHash: hashed(t, "password123"),
		Role:         models.RoleAdmin,
	}
	mockRepo.On("GetByEmail", "admin@example.com").Return(admin, nil).Once()

	result, err := authService.Login("admin@example.com", "password123")

	require.NoError(t, err)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestAuthService_Login_DoesNotRevealAccounts(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo)

	user := &models.User{
		ID:           "user-1",
		Email:        strPtr("test@example.com"),
		PasswordHash: hashed(t, "password123"),
		Role:         models.RoleUser,
	}
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("GetByEmail", "test@example.com").Return(user, nil).Once()

	_, unknownErr := authService.Login("nobody@example.com", "password123")
	_, wrongPasswordErr := authService.Login("test@example.com", "wrongpassword")

	assert.ErrorIs(t, unknownErr, services.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPasswordErr, services.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPasswordErr.Error())
}

func TestAuthService_Login_FederatedAccountHasNoPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo)

	var created *models.User
	mockRepo.On("GetByGoogleID", "google-1").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("GetByEmail", "g@example.com").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*models.User)
		created.ID = "user-g"
	}).Return(nil).Once()

	_, err := authService.FederatedLogin(services.FederatedProfile{ProviderID: "google-1", Email: "g@example.com"})
	require.NoError(t, err)
	require.NotNil(t, created)

	for _, guess := range []string{"", created.PasswordHash, "password"} {
		mockRepo.On("GetByEmail", "g@example.com").Return(created, nil).Once()
		_, err := authService.Login("g@example.com", guess)
		assert.Error(t, err)
	}
}

func TestAuthService_AdminLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	admin := &models.User{
		ID:           "admin-1",
		Phone:        testAdminPhone,
		PasswordHash: hashed(t, "password123"),
		Role:         models.RoleAdmin,
	}
	mockRepo.On("GetAdminByPhone", testAdminPhone).Return(admin, nil)
	mockRepo.On("GetAdminByPhone", "+15550000000").Return(nil, notFoundErr("user"))

	result, err := authService.AdminLogin(testAdminPhone, "password123", testServerAdminSecret)
	require.NoError(t, err)
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", identity.ID)
	assert.Equal(t, models.RoleAdmin, identity.Role)

	_, err = authService.AdminLogin(testAdminPhone, "password123", "guess")
	assert.ErrorIs(t, err, services.ErrInvalidAdminClaim)

	_, err = authService.AdminLogin(testAdminPhone, "wrongpassword", testServerAdminSecret)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = authService.AdminLogin("+15550000000", "password123", testServerAdminSecret)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_FederatedLogin_Idempotent(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	var created *models.User
	mockRepo.On("GetByGoogleID", "google-1").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("GetByEmail", "g@example.com").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*models.User)
		created.ID = "user-g"
	}).Return(nil).Once()

	profile := services.FederatedProfile{ProviderID: "google-1", Email: "g@example.com"}
	first, err := authService.FederatedLogin(profile)
	require.NoError(t, err)
	assert.Equal(t, "Google User", first.User.Name)

	mockRepo.On("GetByGoogleID", "google-1").Return(created, nil).Once()
	second, err := authService.FederatedLogin(profile)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)

	identity, err := tokens.Verify(second.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
}

func TestAuthService_FederatedLogin_LinksExistingEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	existing := &models.User{
		ID:           "admin-1",
		Name:         "Admin",
		Email:        strPtr("admin@example.com"),
		PasswordHash: hashed(t, "password123"),
		Role:         models.RoleAdmin,
	}
	mockRepo.On("GetByGoogleID", "google-2").Return(nil, notFoundErr("user")).Once()
	mockRepo.On("GetByEmail", "admin@example.com").Return(existing, nil).Once()
	mockRepo.On("Update", existing).Return(nil).Once()

	result, err := authService.FederatedLogin(services.FederatedProfile{
		ProviderID: "google-2",
		Email:      "admin@example.com",
		Name:       "Admin Google",
	})

	require.NoError(t, err)
	assert.Equal(t, "admin-1", result.User.ID)
	require.NotNil(t, existing.GoogleID)
	assert.Equal(t, "google-2", *existing.GoogleID)

	// Federated sessions never carry the admin role.
	identity, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}
