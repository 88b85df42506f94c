package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/identity"
	treeModels "autohub/internal/domain/models/scripttree"
	wrModels "autohub/internal/domain/models/workrequest"
	identitySvc "autohub/internal/domain/services/identity"
	treeSvc "autohub/internal/domain/services/scripttree"
)

// fakeWorkRepo is a minimal in-memory RequestRepository. User administration
// only lists and deletes requests, so the rest is bookkeeping.
type fakeWorkRepo struct {
	requests []wrModels.Request
}

func (f *fakeWorkRepo) Create(ctx context.Context, req *wrModels.Request) error {
	f.requests = append(f.requests, *req)
	return nil
}

func (f *fakeWorkRepo) GetByID(ctx context.Context, id string) (*wrModels.Request, error) {
	for i := range f.requests {
		if f.requests[i].ID == id {
			copied := f.requests[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
}

func (f *fakeWorkRepo) List(ctx context.Context, status, requesterID string) ([]wrModels.Request, error) {
	var out []wrModels.Request
	for i := range f.requests {
		if status != "" && f.requests[i].Status != status {
			continue
		}
		if requesterID != "" && f.requests[i].RequesterID != requesterID {
			continue
		}
		out = append(out, f.requests[i])
	}
	return out, nil
}

func (f *fakeWorkRepo) Update(ctx context.Context, req *wrModels.Request) error {
	for i := range f.requests {
		if f.requests[i].ID == req.ID {
			f.requests[i] = *req
			return nil
		}
	}
	return fmt.Errorf("request %s: %w", req.ID, domain.ErrNotFound)
}

func (f *fakeWorkRepo) Delete(ctx context.Context, id string) error {
	for i := range f.requests {
		if f.requests[i].ID == id {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
}

func (f *fakeWorkRepo) AddResultFiles(ctx context.Context, requestID string, files []wrModels.ResultFile) ([]wrModels.ResultFile, error) {
	return files, nil
}

func (f *fakeWorkRepo) DeleteResultFile(ctx context.Context, requestID, fileID string) error {
	return nil
}

func (f *fakeWorkRepo) AddSubmissionEvent(ctx context.Context, event *wrModels.SubmissionEvent) error {
	return nil
}

func (f *fakeWorkRepo) AddAttachments(ctx context.Context, requestID string, attachments []wrModels.Attachment) ([]wrModels.Attachment, error) {
	return attachments, nil
}

func (f *fakeWorkRepo) BumpUpdatedAt(ctx context.Context, id string) error {
	return nil
}

// fakeTreeService records which request subtrees were removed.
type fakeTreeService struct {
	removedRequestIDs []string
}

func (f *fakeTreeService) GetTree(ctx context.Context, actorID string) (*treeModels.TreeNode, error) {
	return nil, nil
}

func (f *fakeTreeService) Synchronize(ctx context.Context, actorID string) error { return nil }

func (f *fakeTreeService) CreateFolder(ctx context.Context, actorID string, req *treeSvc.CreateFolderRequest) (*treeModels.Node, error) {
	return nil, nil
}

func (f *fakeTreeService) LinkFile(ctx context.Context, actorID string, req *treeSvc.LinkFileRequest) (*treeModels.Node, error) {
	return nil, nil
}

func (f *fakeTreeService) UpdateNode(ctx context.Context, id string, req *treeSvc.UpdateNodeRequest) (*treeModels.Node, error) {
	return nil, nil
}

func (f *fakeTreeService) DeleteNode(ctx context.Context, id string) error { return nil }

func (f *fakeTreeService) RemoveRequestNodes(ctx context.Context, requestID string) error {
	f.removedRequestIDs = append(f.removedRequestIDs, requestID)
	return nil
}

func (f *fakeTreeService) ExportArchive(ctx context.Context, actorID string, w io.Writer) error {
	return nil
}

func newTestUserService(userRepo *fakeUserRepo, registrationRepo *fakeRegistrationRepo, workRepo *fakeWorkRepo, tree *fakeTreeService) identitySvc.UserService {
	return NewUserService(userRepo, registrationRepo, workRepo, tree, testLogger())
}

func assertValidationMessage(t *testing.T, err error, want string) {
	t.Helper()
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Message != want {
		t.Errorf("expected message %q, got %q", want, validationErr.Message)
	}
}

func TestCreateUser_Succeeds(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

	user, err := service.CreateUser(context.Background(), actor, &identitySvc.CreateUserRequest{
		Email:        " Maya@Demo.Local ",
		Password:     "Maya12345",
		Name:         "Maya Lindqvist",
		Role:         models.RoleEmployee,
		CompanyTitle: "Interior Lead",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if user.Email != "maya@demo.local" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != models.RoleEmployee {
		t.Errorf("expected EMPLOYEE role, got %q", user.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Maya12345")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
	if user.AvatarURL == nil || !strings.HasSuffix(*user.AvatarURL, "seed=mayalindqvist") {
		t.Errorf("expected avatar seeded from the name, got %v", user.AvatarURL)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	userRepo.addUser(t, "maya@demo.local", "Maya12345", models.RoleEmployee)
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

	_, err := service.CreateUser(context.Background(), actor, &identitySvc.CreateUserRequest{
		Email:        "maya@demo.local",
		Password:     "Maya12345",
		Name:         "Maya Again",
		Role:         models.RoleEmployee,
		CompanyTitle: "Interior Lead",
	})
	assertValidationMessage(t, err, "Email already registered")
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

	_, err := service.CreateUser(context.Background(), actor, &identitySvc.CreateUserRequest{
		Email:        "maya@demo.local",
		Password:     "Maya12345",
		Name:         "Maya Lindqvist",
		Role:         "ADMIN",
		CompanyTitle: "Interior Lead",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for unknown role, got %v", err)
	}
}

func TestPromoteUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	employee := userRepo.addUser(t, "maya@demo.local", "Maya12345", models.RoleEmployee)
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

	updated, err := service.PromoteUser(context.Background(), actor, employee.ID)
	if err != nil {
		t.Fatalf("PromoteUser failed: %v", err)
	}
	if updated.Role != models.RoleDeveloper {
		t.Errorf("expected DEVELOPER role, got %q", updated.Role)
	}

	_, err = service.PromoteUser(context.Background(), actor, employee.ID)
	assertValidationMessage(t, err, "User is already a developer")
}

func TestDemoteUser_Guards(t *testing.T) {
	t.Run("not a developer", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
		employee := userRepo.addUser(t, "maya@demo.local", "Maya12345", models.RoleEmployee)
		service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

		_, err := service.DemoteUser(context.Background(), actor, employee.ID)
		assertValidationMessage(t, err, "User is not a developer")
	})

	t.Run("last developer", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
		service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

		_, err := service.DemoteUser(context.Background(), actor, actor.ID)
		assertValidationMessage(t, err, "Cannot demote the last developer account")
	})

	t.Run("own account", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
		userRepo.addUser(t, "priya@demo.local", "Priya12345", models.RoleDeveloper)
		service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

		_, err := service.DemoteUser(context.Background(), actor, actor.ID)
		assertValidationMessage(t, err, "Cannot demote your own account")
	})
}

func TestDemoteUser_Succeeds(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	other := userRepo.addUser(t, "priya@demo.local", "Priya12345", models.RoleDeveloper)
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

	updated, err := service.DemoteUser(context.Background(), actor, other.ID)
	if err != nil {
		t.Fatalf("DemoteUser failed: %v", err)
	}
	if updated.Role != models.RoleEmployee {
		t.Errorf("expected EMPLOYEE role, got %q", updated.Role)
	}
}

func TestDeleteUser_Guards(t *testing.T) {
	t.Run("own account", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
		userRepo.addUser(t, "priya@demo.local", "Priya12345", models.RoleDeveloper)
		service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

		err := service.DeleteUser(context.Background(), actor, actor.ID)
		assertValidationMessage(t, err, "Cannot delete your own account")
	})

	t.Run("last developer", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		onlyDev := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
		service := newTestUserService(userRepo, newFakeRegistrationRepo(), &fakeWorkRepo{}, &fakeTreeService{})

		actor := &models.User{ID: "someone-else", Role: models.RoleDeveloper}
		err := service.DeleteUser(context.Background(), actor, onlyDev.ID)
		assertValidationMessage(t, err, "Cannot delete the last developer account")
	})
}

func TestDeleteUser_CascadesRequestsAndNodes(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	employee := userRepo.addUser(t, "maya@demo.local", "Maya12345", models.RoleEmployee)

	workRepo := &fakeWorkRepo{requests: []wrModels.Request{
		{ID: "req-001", Title: "Renumber sheets", RequesterID: employee.ID, Status: wrModels.StatusPending},
		{ID: "req-002", Title: "Batch export", RequesterID: employee.ID, Status: wrModels.StatusCompleted},
		{ID: "req-003", Title: "Someone else's", RequesterID: actor.ID, Status: wrModels.StatusPending},
	}}
	tree := &fakeTreeService{}
	service := newTestUserService(userRepo, newFakeRegistrationRepo(), workRepo, tree)

	if err := service.DeleteUser(context.Background(), actor, employee.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := userRepo.GetByID(context.Background(), employee.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected user to be gone, got err=%v", err)
	}
	if len(tree.removedRequestIDs) != 2 {
		t.Fatalf("expected 2 request subtree removals, got %v", tree.removedRequestIDs)
	}
	remaining, _ := workRepo.List(context.Background(), "", "")
	if len(remaining) != 1 || remaining[0].ID != "req-003" {
		t.Errorf("expected only the other user's request to survive, got %+v", remaining)
	}
}

func TestApproveRegistration(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	registrationRepo := newFakeRegistrationRepo()
	registration := &models.RegistrationRequest{
		Email:        "tomas@demo.local",
		PasswordHash: "$2a$04$registrationhash",
		Name:         "Tomas Eklund",
		CompanyTitle: "Site Engineer",
		Status:       models.RegistrationPending,
	}
	if err := registrationRepo.Create(context.Background(), registration); err != nil {
		t.Fatalf("failed to seed registration: %v", err)
	}
	service := newTestUserService(userRepo, registrationRepo, &fakeWorkRepo{}, &fakeTreeService{})

	user, err := service.ApproveRegistration(context.Background(), actor, registration.ID)
	if err != nil {
		t.Fatalf("ApproveRegistration failed: %v", err)
	}

	if user.Role != models.RoleEmployee {
		t.Errorf("expected EMPLOYEE role, got %q", user.Role)
	}
	if user.PasswordHash != registration.PasswordHash {
		t.Error("expected the registration hash to carry over to the account")
	}

	reviewed, err := registrationRepo.GetByID(context.Background(), registration.ID)
	if err != nil {
		t.Fatalf("failed to reload registration: %v", err)
	}
	if reviewed.Status != models.RegistrationApproved {
		t.Errorf("expected APPROVED status, got %q", reviewed.Status)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != actor.ID {
		t.Errorf("expected reviewer %s, got %v", actor.ID, reviewed.ReviewedBy)
	}

	_, err = service.ApproveRegistration(context.Background(), actor, registration.ID)
	assertValidationMessage(t, err, "Request already processed")
}

func TestRejectRegistration(t *testing.T) {
	userRepo := newFakeUserRepo()
	actor := userRepo.addUser(t, "dev@demo.local", "Dev12345", models.RoleDeveloper)
	registrationRepo := newFakeRegistrationRepo()
	registration := &models.RegistrationRequest{
		Email:        "tomas@demo.local",
		PasswordHash: "$2a$04$registrationhash",
		Name:         "Tomas Eklund",
		CompanyTitle: "Site Engineer",
		Status:       models.RegistrationPending,
	}
	if err := registrationRepo.Create(context.Background(), registration); err != nil {
		t.Fatalf("failed to seed registration: %v", err)
	}
	service := newTestUserService(userRepo, registrationRepo, &fakeWorkRepo{}, &fakeTreeService{})

	rejected, err := service.RejectRegistration(context.Background(), actor, registration.ID)
	if err != nil {
		t.Fatalf("RejectRegistration failed: %v", err)
	}
	if rejected.Status != models.RegistrationRejected {
		t.Errorf("expected REJECTED status, got %q", rejected.Status)
	}

	if _, err := userRepo.GetByEmail(context.Background(), "tomas@demo.local"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected no account to be created on rejection, got err=%v", err)
	}

	_, err = service.RejectRegistration(context.Background(), actor, registration.ID)
	assertValidationMessage(t, err, "Request already processed")
}
