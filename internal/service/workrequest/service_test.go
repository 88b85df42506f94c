package workrequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"autohub/internal/domain"
	identityModels "autohub/internal/domain/models/identity"
	treeModels "autohub/internal/domain/models/scripttree"
	models "autohub/internal/domain/models/workrequest"
	"autohub/internal/domain/repositories"
	"autohub/internal/domain/services"
	treeSvc "autohub/internal/domain/services/scripttree"
	wrSvc "autohub/internal/domain/services/workrequest"
	"autohub/internal/notify"
)

// fakeRequestRepo is an in-memory RequestRepository. Child collections
// live on the stored request; reads return copies.
type fakeRequestRepo struct {
	requests map[string]*models.Request
	nextID   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.Request)}
}

func (f *fakeRequestRepo) stamp() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Minute)
}

func (f *fakeRequestRepo) Create(ctx context.Context, req *models.Request) error {
	f.nextID++
	req.ID = fmt.Sprintf("req-%03d", f.nextID)
	req.CreatedAt = f.stamp()
	req.UpdatedAt = req.CreatedAt
	stored := copyRequest(req)
	f.requests[req.ID] = stored
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.Request, error) {
	stored, ok := f.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return copyRequest(stored), nil
}

func (f *fakeRequestRepo) List(ctx context.Context, status, requesterID string) ([]models.Request, error) {
	var out []models.Request
	// Newest first
	for i := f.nextID; i >= 1; i-- {
		stored, ok := f.requests[fmt.Sprintf("req-%03d", i)]
		if !ok {
			continue
		}
		if status != "" && stored.Status != status {
			continue
		}
		if requesterID != "" && stored.RequesterID != requesterID {
			continue
		}
		out = append(out, *copyRequest(stored))
	}
	return out, nil
}

func (f *fakeRequestRepo) Update(ctx context.Context, req *models.Request) error {
	stored, ok := f.requests[req.ID]
	if !ok {
		return fmt.Errorf("request %s: %w", req.ID, domain.ErrNotFound)
	}
	updated := copyRequest(req)
	updated.ResultFiles = stored.ResultFiles
	updated.Attachments = stored.Attachments
	updated.SubmissionEvents = stored.SubmissionEvents
	updated.UpdatedAt = f.stamp()
	f.requests[req.ID] = updated
	return nil
}

func (f *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.requests[id]; !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRequestRepo) AddResultFiles(ctx context.Context, requestID string, files []models.ResultFile) ([]models.ResultFile, error) {
	stored, ok := f.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	out := make([]models.ResultFile, len(files))
	for i, file := range files {
		file.ID = fmt.Sprintf("file-%s-%d", requestID, len(stored.ResultFiles)+1)
		file.RequestID = requestID
		file.UploadedAt = f.stamp()
		stored.ResultFiles = append(stored.ResultFiles, file)
		out[i] = file
	}
	return out, nil
}

func (f *fakeRequestRepo) DeleteResultFile(ctx context.Context, requestID, fileID string) error {
	stored, ok := f.requests[requestID]
	if !ok {
		return fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	for i := range stored.ResultFiles {
		if stored.ResultFiles[i].ID == fileID {
			stored.ResultFiles = append(stored.ResultFiles[:i], stored.ResultFiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("result file %s: %w", fileID, domain.ErrNotFound)
}

func (f *fakeRequestRepo) AddSubmissionEvent(ctx context.Context, event *models.SubmissionEvent) error {
	stored, ok := f.requests[event.RequestID]
	if !ok {
		return fmt.Errorf("request %s: %w", event.RequestID, domain.ErrNotFound)
	}
	event.ID = fmt.Sprintf("event-%s-%d", event.RequestID, len(stored.SubmissionEvents)+1)
	event.CreatedAt = f.stamp()
	stored.SubmissionEvents = append(stored.SubmissionEvents, *event)
	return nil
}

func (f *fakeRequestRepo) AddAttachments(ctx context.Context, requestID string, attachments []models.Attachment) ([]models.Attachment, error) {
	stored, ok := f.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	out := make([]models.Attachment, len(attachments))
	for i, att := range attachments {
		att.ID = fmt.Sprintf("att-%s-%d", requestID, len(stored.Attachments)+1)
		att.RequestID = requestID
		att.CreatedAt = f.stamp()
		stored.Attachments = append(stored.Attachments, att)
		out[i] = att
	}
	return out, nil
}

func (f *fakeRequestRepo) BumpUpdatedAt(ctx context.Context, id string) error {
	stored, ok := f.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	f.nextID++
	stored.UpdatedAt = f.stamp()
	return nil
}

func copyRequest(req *models.Request) *models.Request {
	copied := *req
	copied.ResultFiles = append([]models.ResultFile(nil), req.ResultFiles...)
	copied.Attachments = append([]models.Attachment(nil), req.Attachments...)
	copied.SubmissionEvents = append([]models.SubmissionEvent(nil), req.SubmissionEvents...)
	return &copied
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	comments []models.Comment
	nextID   int
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	f.nextID++
	comment.ID = fmt.Sprintf("comment-%03d", f.nextID)
	comment.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Minute)
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeCommentRepo) ListByRequest(ctx context.Context, requestID string) ([]models.Comment, error) {
	var out []models.Comment
	for i := range f.comments {
		if f.comments[i].RequestID == requestID {
			out = append(out, f.comments[i])
		}
	}
	return out, nil
}

// fakeUserDirectory is an in-memory UserRepository keyed by ID.
type fakeUserDirectory struct {
	users map[string]*identityModels.User
}

func newFakeUserDirectory(users ...*identityModels.User) *fakeUserDirectory {
	f := &fakeUserDirectory{users: make(map[string]*identityModels.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserDirectory) Create(ctx context.Context, user *identityModels.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserDirectory) GetByID(ctx context.Context, id string) (*identityModels.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserDirectory) GetByEmail(ctx context.Context, email string) (*identityModels.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (f *fakeUserDirectory) List(ctx context.Context) ([]identityModels.User, error) {
	var out []identityModels.User
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, nil
}

func (f *fakeUserDirectory) UpdateRole(ctx context.Context, id, role string) (*identityModels.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	user.Role = role
	copied := *user
	return &copied, nil
}

func (f *fakeUserDirectory) Update(ctx context.Context, user *identityModels.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserDirectory) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserDirectory) CountByRole(ctx context.Context, role string) (int, error) {
	count := 0
	for _, user := range f.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

// fakeTreeService records request subtree removals.
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

// fakeNotifier records outbound messages.
type fakeNotifier struct {
	sent    []services.EmailMessage
	sendErr error
}

func (f *fakeNotifier) Send(ctx context.Context, msg *services.EmailMessage) (*services.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, *msg)
	return &services.SendResult{Status: "sent", To: msg.To, Method: "smtp"}, nil
}

// fakeAnalyzer returns a canned verdict.
type fakeAnalyzer struct {
	enabled    bool
	verdict    string
	analyzeErr error
	analyzed   []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req *models.Request) (string, error) {
	f.analyzed = append(f.analyzed, req.ID)
	if f.analyzeErr != nil {
		return "", f.analyzeErr
	}
	return f.verdict, nil
}

func (f *fakeAnalyzer) Enabled() bool { return f.enabled }

type fakeTxManager struct{}

func (f *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func developer(id, name string) *identityModels.User {
	return &identityModels.User{ID: id, Email: id + "@demo.local", Name: name, Role: identityModels.RoleDeveloper}
}

func employee(id, name string) *identityModels.User {
	return &identityModels.User{ID: id, Email: id + "@demo.local", Name: name, Role: identityModels.RoleEmployee}
}

type testEnv struct {
	service     wrSvc.RequestService
	requestRepo *fakeRequestRepo
	commentRepo *fakeCommentRepo
	userRepo    *fakeUserDirectory
	tree        *fakeTreeService
	notifier    *fakeNotifier
	analyzer    *fakeAnalyzer
}

func newTestEnv(t *testing.T, users ...*identityModels.User) *testEnv {
	t.Helper()
	templates, err := notify.NewTemplateRegistry()
	if err != nil {
		t.Fatalf("NewTemplateRegistry failed: %v", err)
	}
	env := &testEnv{
		requestRepo: newFakeRequestRepo(),
		commentRepo: &fakeCommentRepo{},
		userRepo:    newFakeUserDirectory(users...),
		tree:        &fakeTreeService{},
		notifier:    &fakeNotifier{},
		analyzer:    &fakeAnalyzer{enabled: true, verdict: `{"complexity_score":3}`},
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	env.service = NewRequestService(
		env.requestRepo,
		env.commentRepo,
		env.userRepo,
		env.tree,
		env.notifier,
		templates,
		env.analyzer,
		&fakeTxManager{},
		logger,
	)
	return env
}

func strPtr(s string) *string { return &s }

func TestCreateRequest_EmployeeFilesForSelf(t *testing.T) {
	actor := employee("user-emp", "Maya Lindqvist")
	env := newTestEnv(t, actor)

	created, err := env.service.CreateRequest(context.Background(), actor, &wrSvc.CreateRequestRequest{
		Title:       "  Renumber sheets  ",
		Description: "Renumber all sheets by level",
		// Privileged fields an employee must not control
		RequesterID:    strPtr("user-somebody-else"),
		Status:         strPtr(models.StatusCompleted),
		DeveloperNotes: strPtr("preset notes"),
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if created.Title != "Renumber sheets" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}
	if created.RequesterID != actor.ID {
		t.Errorf("expected requester forced to actor %s, got %s", actor.ID, created.RequesterID)
	}
	if created.RequesterName != actor.Name {
		t.Errorf("expected requester name %q, got %q", actor.Name, created.RequesterName)
	}
	if created.Status != models.StatusPending {
		t.Errorf("expected PENDING status, got %q", created.Status)
	}
	if created.DeveloperNotes != nil {
		t.Errorf("expected developer notes to be dropped, got %v", *created.DeveloperNotes)
	}
	if created.Priority != "medium" {
		t.Errorf("expected default priority medium, got %q", created.Priority)
	}
}

func TestCreateRequest_DeveloperFilesOnBehalf(t *testing.T) {
	actor := developer("user-dev", "Priya Sharma")
	owner := employee("user-emp", "Maya Lindqvist")
	env := newTestEnv(t, actor, owner)

	created, err := env.service.CreateRequest(context.Background(), actor, &wrSvc.CreateRequestRequest{
		Title:       "Batch export",
		Description: "Export all views as PDF",
		RequesterID: strPtr(owner.ID),
		Status:      strPtr(models.StatusCompleted),
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if created.RequesterID != owner.ID {
		t.Errorf("expected requester %s, got %s", owner.ID, created.RequesterID)
	}
	if created.RequesterName != owner.Name {
		t.Errorf("expected requester name %q, got %q", owner.Name, created.RequesterName)
	}
	if created.Status != models.StatusCompleted {
		t.Errorf("expected preset COMPLETED status, got %q", created.Status)
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	actor := developer("user-dev", "Priya Sharma")

	tests := []struct {
		name string
		req  *wrSvc.CreateRequestRequest
	}{
		{
			name: "title too short",
			req:  &wrSvc.CreateRequestRequest{Title: "ab", Description: "Long enough description"},
		},
		{
			name: "missing description",
			req:  &wrSvc.CreateRequestRequest{Title: "Renumber sheets", Description: "  "},
		},
		{
			name: "unknown status",
			req:  &wrSvc.CreateRequestRequest{Title: "Renumber sheets", Description: "Renumber all sheets", Status: strPtr("DONE")},
		},
		{
			name: "attachment without data",
			req: &wrSvc.CreateRequestRequest{
				Title:       "Renumber sheets",
				Description: "Renumber all sheets",
				Attachments: []wrSvc.AttachmentUpload{{Name: "plan.png"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, actor)
			_, err := env.service.CreateRequest(context.Background(), actor, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateRequest_StoresAttachments(t *testing.T) {
	actor := employee("user-emp", "Maya Lindqvist")
	env := newTestEnv(t, actor)

	created, err := env.service.CreateRequest(context.Background(), actor, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
		Attachments: []wrSvc.AttachmentUpload{
			{Name: "plan.png", MimeType: "image/png", Data: "aGVsbG8="},
			{Name: "sample.rvt", Data: "d29ybGQ="},
		},
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if len(created.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(created.Attachments))
	}
	if created.Attachments[0].MimeType != "image/png" {
		t.Errorf("expected image/png, got %q", created.Attachments[0].MimeType)
	}
	if created.Attachments[1].MimeType != "application/octet-stream" {
		t.Errorf("expected fallback mime type, got %q", created.Attachments[1].MimeType)
	}
}

func TestGetRequest_VisibilityWall(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	other := employee("user-other", "Tomas Eklund")
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, owner, other, dev)

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if _, err := env.service.GetRequest(context.Background(), owner, created.ID); err != nil {
		t.Errorf("expected owner to see the request, got %v", err)
	}
	if _, err := env.service.GetRequest(context.Background(), dev, created.ID); err != nil {
		t.Errorf("expected developer to see the request, got %v", err)
	}

	// Another employee reads it as not found, not forbidden
	_, err = env.service.GetRequest(context.Background(), other, created.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for another employee, got %v", err)
	}
}

func TestListRequests_ScopedByRole(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	other := employee("user-other", "Tomas Eklund")
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, owner, other, dev)

	for _, setup := range []struct {
		actor *identityModels.User
		title string
	}{
		{owner, "Renumber sheets"},
		{other, "Batch export"},
	} {
		if _, err := env.service.CreateRequest(context.Background(), setup.actor, &wrSvc.CreateRequestRequest{
			Title:       setup.title,
			Description: "Something useful",
		}); err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
	}

	mine, err := env.service.ListRequests(context.Background(), owner, "")
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Renumber sheets" {
		t.Errorf("expected employee to see only their request, got %+v", mine)
	}

	all, err := env.service.ListRequests(context.Background(), dev, "")
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected developer to see 2 requests, got %d", len(all))
	}

	completed, err := env.service.ListRequests(context.Background(), dev, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("expected no completed requests, got %d", len(completed))
	}
}

func TestUpdateRequest_EmployeePrivilegedFieldsDropped(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	env := newTestEnv(t, owner)

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	updated, err := env.service.UpdateRequest(context.Background(), owner, created.ID, &wrSvc.UpdateRequestRequest{
		Title:          strPtr("  Renumber sheets v2  "),
		Status:         strPtr(models.StatusCompleted),
		DeveloperNotes: wrSvc.OptionalField{Present: true, Value: strPtr("sneaky")},
		AIAnalysis:     wrSvc.OptionalField{Present: true, Value: strPtr("{}")},
	})
	if err != nil {
		t.Fatalf("UpdateRequest failed: %v", err)
	}

	if updated.Title != "Renumber sheets v2" {
		t.Errorf("expected trimmed updated title, got %q", updated.Title)
	}
	if updated.Status != models.StatusPending {
		t.Errorf("expected status unchanged for employee, got %q", updated.Status)
	}
	if updated.DeveloperNotes != nil {
		t.Errorf("expected developer notes untouched, got %v", *updated.DeveloperNotes)
	}
	if updated.AIAnalysis != nil {
		t.Errorf("expected ai analysis untouched, got %v", *updated.AIAnalysis)
	}
}

func TestUpdateRequest_TriStateFields(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
		ProjectName: strPtr("Tower A"),
		ToolVersion: strPtr("2026"),
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	updated, err := env.service.UpdateRequest(context.Background(), dev, created.ID, &wrSvc.UpdateRequestRequest{
		ProjectName: wrSvc.OptionalField{Present: true, Value: strPtr("Tower B")},
		ToolVersion: wrSvc.OptionalField{Present: true, Value: nil},
		// DueDate absent: unchanged
	})
	if err != nil {
		t.Fatalf("UpdateRequest failed: %v", err)
	}

	if updated.ProjectName == nil || *updated.ProjectName != "Tower B" {
		t.Errorf("expected project name Tower B, got %v", updated.ProjectName)
	}
	if updated.ToolVersion != nil {
		t.Errorf("expected tool version cleared, got %v", *updated.ToolVersion)
	}
}

func TestUpdateRequest_EmployeeCannotReachOthers(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	other := employee("user-other", "Tomas Eklund")
	env := newTestEnv(t, owner, other)

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	_, err = env.service.UpdateRequest(context.Background(), other, created.ID, &wrSvc.UpdateRequestRequest{
		Title: strPtr("Hijacked"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSubmitResultFiles(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, owner, dev)

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	first, err := env.service.SubmitResultFiles(context.Background(), dev, created.ID, []wrSvc.ResultFileUpload{
		{Name: "renumber.py", Data: "cHJpbnQoIm9rIikK"},
	})
	if err != nil {
		t.Fatalf("SubmitResultFiles failed: %v", err)
	}

	if len(first.ResultFiles) != 1 {
		t.Fatalf("expected 1 result file, got %d", len(first.ResultFiles))
	}
	if first.ResultFiles[0].MimeType != "text/plain" {
		t.Errorf("expected fallback mime text/plain, got %q", first.ResultFiles[0].MimeType)
	}
	if len(first.SubmissionEvents) != 1 || first.SubmissionEvents[0].Kind != models.EventSubmission {
		t.Errorf("expected one SUBMISSION event, got %+v", first.SubmissionEvents)
	}

	second, err := env.service.SubmitResultFiles(context.Background(), dev, created.ID, []wrSvc.ResultFileUpload{
		{Name: "helpers.py", MimeType: "text/x-python", Data: "cHJpbnQoIm9rIikK"},
	})
	if err != nil {
		t.Fatalf("second SubmitResultFiles failed: %v", err)
	}

	if len(second.ResultFiles) != 2 {
		t.Errorf("expected 2 result files, got %d", len(second.ResultFiles))
	}
	if len(second.SubmissionEvents) != 2 || second.SubmissionEvents[1].Kind != models.EventResubmission {
		t.Errorf("expected second event RESUBMISSION, got %+v", second.SubmissionEvents)
	}

	if len(env.notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(env.notifier.sent))
	}
	msg := env.notifier.sent[0]
	if msg.To != owner.Email {
		t.Errorf("expected notification to %s, got %s", owner.Email, msg.To)
	}
	if !strings.Contains(msg.Subject, "Renumber sheets") {
		t.Errorf("expected subject to mention the request, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Hi Maya Lindqvist") || !strings.Contains(msg.Body, "1 result file(s)") {
		t.Errorf("expected rendered body with requester name and count, got %q", msg.Body)
	}
}

func TestSubmitResultFiles_RequiresFiles(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	_, err = env.service.SubmitResultFiles(context.Background(), dev, created.ID, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty upload, got %v", err)
	}
}

func TestSubmitResultFiles_NotifierFailureDoesNotFail(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, owner, dev)
	env.notifier.sendErr = errors.New("smtp: connection refused")

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if _, err := env.service.SubmitResultFiles(context.Background(), dev, created.ID, []wrSvc.ResultFileUpload{
		{Name: "renumber.py", Data: "cHJpbnQoIm9rIikK"},
	}); err != nil {
		t.Errorf("expected submit to survive notifier failure, got %v", err)
	}
}

func TestDeleteResultFile(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	submitted, err := env.service.SubmitResultFiles(context.Background(), dev, created.ID, []wrSvc.ResultFileUpload{
		{Name: "renumber.py", Data: "cHJpbnQoIm9rIikK"},
	})
	if err != nil {
		t.Fatalf("SubmitResultFiles failed: %v", err)
	}

	if err := env.service.DeleteResultFile(context.Background(), created.ID, submitted.ResultFiles[0].ID); err != nil {
		t.Fatalf("DeleteResultFile failed: %v", err)
	}

	reloaded, err := env.service.GetRequest(context.Background(), dev, created.ID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if len(reloaded.ResultFiles) != 0 {
		t.Errorf("expected no result files, got %d", len(reloaded.ResultFiles))
	}
}

func TestDeleteRequest_RemovesTreeNodes(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if err := env.service.DeleteRequest(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteRequest failed: %v", err)
	}

	if len(env.tree.removedRequestIDs) != 1 || env.tree.removedRequestIDs[0] != created.ID {
		t.Errorf("expected tree cleanup for %s, got %v", created.ID, env.tree.removedRequestIDs)
	}
	if _, err := env.service.GetRequest(context.Background(), dev, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected request gone, got err=%v", err)
	}
}

func TestComments(t *testing.T) {
	owner := employee("user-owner", "Maya Lindqvist")
	other := employee("user-other", "Tomas Eklund")
	env := newTestEnv(t, owner, other)

	created, err := env.service.CreateRequest(context.Background(), owner, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	comment, err := env.service.AddComment(context.Background(), owner, created.ID, &wrSvc.AddCommentRequest{
		Content: "  Any update on this?  ",
	})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.Content != "Any update on this?" {
		t.Errorf("expected trimmed content, got %q", comment.Content)
	}
	if comment.AuthorName != owner.Name {
		t.Errorf("expected author name snapshot %q, got %q", owner.Name, comment.AuthorName)
	}
	if comment.UserID == nil || *comment.UserID != owner.ID {
		t.Errorf("expected author id %s, got %v", owner.ID, comment.UserID)
	}

	comments, err := env.service.ListComments(context.Background(), owner, created.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Errorf("expected 1 comment, got %d", len(comments))
	}

	// Non-owners cannot read or write the thread
	if _, err := env.service.ListComments(context.Background(), other, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for non-owner list, got %v", err)
	}
	if _, err := env.service.AddComment(context.Background(), other, created.ID, &wrSvc.AddCommentRequest{
		Content: "Let me in",
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for non-owner comment, got %v", err)
	}

	_, err = env.service.AddComment(context.Background(), owner, created.ID, &wrSvc.AddCommentRequest{Content: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for blank comment, got %v", err)
	}
}

func TestAnalyzeRequest(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	analyzed, err := env.service.AnalyzeRequest(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("AnalyzeRequest failed: %v", err)
	}

	if analyzed.AIAnalysis == nil || *analyzed.AIAnalysis != `{"complexity_score":3}` {
		t.Errorf("expected stored verdict, got %v", analyzed.AIAnalysis)
	}
	if len(env.analyzer.analyzed) != 1 || env.analyzer.analyzed[0] != created.ID {
		t.Errorf("expected analyzer to see %s, got %v", created.ID, env.analyzer.analyzed)
	}
}

func TestAnalyzeRequest_Disabled(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)
	env.analyzer.enabled = false

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	_, err = env.service.AnalyzeRequest(context.Background(), created.ID)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Message != "AI analysis is disabled" {
		t.Errorf("unexpected message: %q", validationErr.Message)
	}
}

func TestAnalyzeRequest_ProviderError(t *testing.T) {
	dev := developer("user-dev", "Priya Sharma")
	env := newTestEnv(t, dev)
	env.analyzer.analyzeErr = errors.New("quota exceeded")

	created, err := env.service.CreateRequest(context.Background(), dev, &wrSvc.CreateRequestRequest{
		Title:       "Renumber sheets",
		Description: "Renumber all sheets by level",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	_, err = env.service.AnalyzeRequest(context.Background(), created.ID)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected provider error to surface, got %v", err)
	}
}
