package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/identity"
	identityRepo "autohub/internal/domain/repositories/identity"
	wrRepo "autohub/internal/domain/repositories/workrequest"
	identitySvc "autohub/internal/domain/services/identity"
	treeSvc "autohub/internal/domain/services/scripttree"
)

type userService struct {
	userRepo         identityRepo.UserRepository
	registrationRepo identityRepo.RegistrationRepository
	requestRepo      wrRepo.RequestRepository
	treeService      treeSvc.TreeService
	logger           *slog.Logger
}

// NewUserService creates a new user administration service
func NewUserService(
	userRepo identityRepo.UserRepository,
	registrationRepo identityRepo.RegistrationRepository,
	requestRepo wrRepo.RequestRepository,
	treeService treeSvc.TreeService,
	logger *slog.Logger,
) identitySvc.UserService {
	return &userService{
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
		requestRepo:      requestRepo,
		treeService:      treeService,
		logger:           logger,
	}
}

// ListUsers retrieves all accounts
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// CreateUser provisions an account directly, bypassing the registration
// queue. Same credential rules as self-service signup.
func (s *userService) CreateUser(ctx context.Context, actor *models.User, req *identitySvc.CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.CompanyTitle = strings.TrimSpace(req.CompanyTitle)
	if err := validateCreateUserRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, &domain.ValidationError{Message: "Email already registered"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	avatar := avatarFor(req.Name, "")
	title := req.CompanyTitle
	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		CompanyTitle: &title,
		AvatarURL:    &avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"role", user.Role,
		"created_by", actor.ID,
	)

	return user, nil
}

// PromoteUser raises an employee to developer
func (s *userService) PromoteUser(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleDeveloper {
		return nil, &domain.ValidationError{Message: "User is already a developer"}
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, models.RoleDeveloper)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user promoted", "user_id", updated.ID, "promoted_by", actor.ID)
	return updated, nil
}

// DemoteUser lowers a developer to employee. The last developer and the
// acting developer themselves cannot be demoted.
func (s *userService) DemoteUser(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleDeveloper {
		return nil, &domain.ValidationError{Message: "User is not a developer"}
	}

	count, err := s.userRepo.CountByRole(ctx, models.RoleDeveloper)
	if err != nil {
		return nil, fmt.Errorf("count developers: %w", err)
	}
	if count <= 1 {
		return nil, &domain.ValidationError{Message: "Cannot demote the last developer account"}
	}
	if user.ID == actor.ID {
		return nil, &domain.ValidationError{Message: "Cannot demote your own account"}
	}

	updated, err := s.userRepo.UpdateRole(ctx, id, models.RoleEmployee)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user demoted", "user_id", updated.ID, "demoted_by", actor.ID)
	return updated, nil
}

// DeleteUser removes an account along with every request it filed and the
// script tree nodes linked to those requests. Comments the user left on
// other requests survive with a null author ID.
func (s *userService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return &domain.ValidationError{Message: "Cannot delete your own account"}
	}

	if user.Role == models.RoleDeveloper {
		count, err := s.userRepo.CountByRole(ctx, models.RoleDeveloper)
		if err != nil {
			return fmt.Errorf("count developers: %w", err)
		}
		if count <= 1 {
			return &domain.ValidationError{Message: "Cannot delete the last developer account"}
		}
	}

	requests, err := s.requestRepo.List(ctx, "", user.ID)
	if err != nil {
		return fmt.Errorf("list requests for user %s: %w", user.ID, err)
	}

	for i := range requests {
		if err := s.treeService.RemoveRequestNodes(ctx, requests[i].ID); err != nil {
			return err
		}
		if err := s.requestRepo.Delete(ctx, requests[i].ID); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		"user_id", user.ID,
		"deleted_by", actor.ID,
		"requests_removed", len(requests),
	)

	return nil
}

// ListRegistrations retrieves signup requests, optionally filtered by status
func (s *userService) ListRegistrations(ctx context.Context, status string) ([]models.RegistrationRequest, error) {
	return s.registrationRepo.List(ctx, status)
}

// ApproveRegistration turns a pending signup into an employee account
func (s *userService) ApproveRegistration(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	registration, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if registration.Status != models.RegistrationPending {
		return nil, &domain.ValidationError{Message: "Request already processed"}
	}

	avatar := avatarFor(registration.Name, "")
	title := registration.CompanyTitle
	user := &models.User{
		Email:        registration.Email,
		PasswordHash: registration.PasswordHash,
		Name:         registration.Name,
		Role:         models.RoleEmployee,
		CompanyTitle: &title,
		AvatarURL:    &avatar,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if _, err := s.registrationRepo.Review(ctx, id, models.RegistrationApproved, actor.ID); err != nil {
		return nil, err
	}

	s.logger.Info("registration approved",
		"request_id", id,
		"user_id", user.ID,
		"reviewed_by", actor.ID,
	)

	return user, nil
}

// RejectRegistration marks a pending signup rejected
func (s *userService) RejectRegistration(ctx context.Context, actor *models.User, id string) (*models.RegistrationRequest, error) {
	registration, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if registration.Status != models.RegistrationPending {
		return nil, &domain.ValidationError{Message: "Request already processed"}
	}

	updated, err := s.registrationRepo.Review(ctx, id, models.RegistrationRejected, actor.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration rejected", "request_id", id, "reviewed_by", actor.ID)
	return updated, nil
}
