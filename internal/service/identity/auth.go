package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"autohub/internal/config"
	"autohub/internal/domain"
	models "autohub/internal/domain/models/identity"
	identityRepo "autohub/internal/domain/repositories/identity"
	identitySvc "autohub/internal/domain/services/identity"
)

// TokenIssuer mints access tokens for authenticated users. Only the local
// HS256 service implements it; in jwks mode no issuer is configured and
// password login stays disabled.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

type authService struct {
	userRepo         identityRepo.UserRepository
	registrationRepo identityRepo.RegistrationRepository
	issuer           TokenIssuer
	throttle         LoginThrottle
	cfg              *config.Config
	logger           *slog.Logger
}

// NewAuthService creates a new authentication service. issuer may be nil
// when an external IdP issues tokens.
func NewAuthService(
	userRepo identityRepo.UserRepository,
	registrationRepo identityRepo.RegistrationRepository,
	issuer TokenIssuer,
	throttle LoginThrottle,
	cfg *config.Config,
	logger *slog.Logger,
) identitySvc.AuthService {
	return &authService{
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
		issuer:           issuer,
		throttle:         throttle,
		cfg:              cfg,
		logger:           logger,
	}
}

// Login verifies credentials and issues an access token. Failed attempts
// count against the caller's IP; once the window fills up, further attempts
// are rejected before touching the password hash.
func (s *authService) Login(ctx context.Context, req *identitySvc.LoginRequest, clientIP string) (*identitySvc.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateLoginRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if s.issuer == nil {
		return nil, &domain.ForbiddenError{Message: "password login is disabled in jwks auth mode"}
	}

	blocked, err := s.throttle.IsBlocked(ctx, clientIP)
	if err != nil {
		return nil, fmt.Errorf("check login throttle: %w", err)
	}
	if blocked {
		return nil, &domain.ThrottledError{Message: "Too many failed attempts. Please try again later."}
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load user for login: %w", err)
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		attempts, recErr := s.throttle.RecordFailure(ctx, clientIP)
		if recErr != nil {
			s.logger.Error("failed to record login failure", "ip", clientIP, "error", recErr)
		}
		s.logger.Warn("login failed", "email", req.Email, "ip", clientIP, "attempt", attempts)
		return nil, &domain.UnauthorizedError{Message: "Incorrect email or password"}
	}

	if err := s.throttle.Reset(ctx, clientIP); err != nil {
		s.logger.Error("failed to reset login throttle", "ip", clientIP, "error", err)
	}

	token, err := s.issuer.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", "user_id", user.ID, "email", user.Email, "ip", clientIP)

	return &identitySvc.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

// Register files a registration request for developer review. The password
// is hashed immediately so the review queue never holds plaintext.
func (s *authService) Register(ctx context.Context, req *identitySvc.RegisterRequest) (*models.RegistrationRequest, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.CompanyTitle = strings.TrimSpace(req.CompanyTitle)
	if err := validateRegisterRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, &domain.ValidationError{Message: "Email already registered"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if _, err := s.registrationRepo.GetPendingByEmail(ctx, req.Email); err == nil {
		return nil, &domain.ValidationError{Message: "Registration request already pending"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check pending registration: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	registration := &models.RegistrationRequest{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		CompanyTitle: req.CompanyTitle,
		Status:       models.RegistrationPending,
	}
	if err := s.registrationRepo.Create(ctx, registration); err != nil {
		return nil, err
	}

	s.logger.Info("registration request created",
		"id", registration.ID,
		"email", registration.Email,
	)

	return registration, nil
}

// GetUser loads a user by ID
func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// EnsureDemoDeveloper guarantees at least one developer account exists.
// When none does, an account matching the configured demo email is upgraded
// in place, otherwise a fresh developer is created.
func (s *authService) EnsureDemoDeveloper(ctx context.Context) error {
	count, err := s.userRepo.CountByRole(ctx, models.RoleDeveloper)
	if err != nil {
		return fmt.Errorf("count developers: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DemoDeveloperPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo developer password: %w", err)
	}

	email := normalizeEmail(s.cfg.DemoDeveloperEmail)
	avatar := avatarFor(s.cfg.DemoDeveloperName, "-")
	title := s.cfg.DemoDeveloperCompanyTitle

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("look up demo developer: %w", err)
	}

	if existing != nil {
		existing.Role = models.RoleDeveloper
		existing.PasswordHash = string(hash)
		existing.Name = s.cfg.DemoDeveloperName
		existing.CompanyTitle = &title
		if existing.AvatarURL == nil {
			existing.AvatarURL = &avatar
		}
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return err
		}
		s.logger.Info("existing account upgraded to demo developer",
			"user_id", existing.ID,
			"email", existing.Email,
		)
		return nil
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         s.cfg.DemoDeveloperName,
		Role:         models.RoleDeveloper,
		CompanyTitle: &title,
		AvatarURL:    &avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("demo developer created", "user_id", user.ID, "email", user.Email)
	return nil
}

// normalizeEmail lowercases and trims an address so lookups and uniqueness
// checks all see the same spelling.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// avatarFor returns a dicebear avatar URL seeded from the display name,
// with spaces replaced by spaceReplacement.
func avatarFor(name, spaceReplacement string) string {
	seed := strings.ReplaceAll(strings.ToLower(name), " ", spaceReplacement)
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}
