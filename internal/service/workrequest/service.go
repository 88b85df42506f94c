package workrequest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"autohub/internal/domain"
	identityModels "autohub/internal/domain/models/identity"
	models "autohub/internal/domain/models/workrequest"
	"autohub/internal/domain/repositories"
	identityRepo "autohub/internal/domain/repositories/identity"
	wrRepo "autohub/internal/domain/repositories/workrequest"
	"autohub/internal/domain/services"
	treeSvc "autohub/internal/domain/services/scripttree"
	wrSvc "autohub/internal/domain/services/workrequest"
	"autohub/internal/notify"
)

type requestService struct {
	requestRepo wrRepo.RequestRepository
	commentRepo wrRepo.CommentRepository
	userRepo    identityRepo.UserRepository
	treeService treeSvc.TreeService
	notifier    services.Notifier
	templates   *notify.TemplateRegistry
	analyzer    services.RequestAnalyzer
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewRequestService creates a new work request service
func NewRequestService(
	requestRepo wrRepo.RequestRepository,
	commentRepo wrRepo.CommentRepository,
	userRepo identityRepo.UserRepository,
	treeService treeSvc.TreeService,
	notifier services.Notifier,
	templates *notify.TemplateRegistry,
	analyzer services.RequestAnalyzer,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) wrSvc.RequestService {
	return &requestService{
		requestRepo: requestRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		treeService: treeService,
		notifier:    notifier,
		templates:   templates,
		analyzer:    analyzer,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateRequest files a new request. Employees always file for themselves;
// developers may file on behalf of another user.
func (s *requestService) CreateRequest(ctx context.Context, actor *identityModels.User, req *wrSvc.CreateRequestRequest) (*models.Request, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if strings.TrimSpace(req.Priority) == "" {
		req.Priority = "medium"
	}
	if !actor.IsDeveloper() {
		// Requester identity and privileged fields come from the session,
		// not the payload.
		if req.RequesterID != nil && *req.RequesterID != actor.ID {
			s.logger.Warn("impersonation attempt blocked",
				"actor_id", actor.ID,
				"requested_id", *req.RequesterID,
			)
		}
		req.RequesterID = nil
		req.Status = nil
		req.DeveloperNotes = nil
	}
	if err := validateCreateRequestRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	requesterID := actor.ID
	requesterName := actor.Name
	if req.RequesterID != nil && *req.RequesterID != actor.ID {
		requester, err := s.userRepo.GetByID(ctx, *req.RequesterID)
		if err != nil {
			return nil, err
		}
		requesterID = requester.ID
		requesterName = requester.Name
	}

	status := models.StatusPending
	if req.Status != nil {
		status = *req.Status
	}

	request := &models.Request{
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		Priority:       req.Priority,
		ProjectName:    req.ProjectName,
		ToolVersion:    req.ToolVersion,
		RequesterID:    requesterID,
		RequesterName:  requesterName,
		DueDate:        req.DueDate,
		DeveloperNotes: req.DeveloperNotes,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return err
		}
		if len(req.Attachments) == 0 {
			return nil
		}
		attachments := make([]models.Attachment, len(req.Attachments))
		for i, a := range req.Attachments {
			attachments[i] = models.Attachment{
				Name:     a.Name,
				MimeType: defaultMime(a.MimeType, "application/octet-stream"),
				Data:     a.Data,
			}
		}
		stored, err := s.requestRepo.AddAttachments(txCtx, request.ID, attachments)
		if err != nil {
			return err
		}
		request.Attachments = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request created",
		"request_id", request.ID,
		"created_by", actor.ID,
		"requester_id", requesterID,
	)

	return request, nil
}

// GetRequest retrieves a request. Employees only see their own; anything
// else reads as not found so request IDs don't leak.
func (s *requestService) GetRequest(ctx context.Context, actor *identityModels.User, id string) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, request) {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return request, nil
}

// ListRequests retrieves visible requests newest first
func (s *requestService) ListRequests(ctx context.Context, actor *identityModels.User, status string) ([]models.Request, error) {
	requesterID := ""
	if !actor.IsDeveloper() {
		requesterID = actor.ID
	}
	return s.requestRepo.List(ctx, status, requesterID)
}

// UpdateRequest applies a partial update. Employee actors only reach their
// own requests, and their privileged fields are dropped before applying.
func (s *requestService) UpdateRequest(ctx context.Context, actor *identityModels.User, id string, req *wrSvc.UpdateRequestRequest) (*models.Request, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	if !actor.IsDeveloper() {
		req.Status = nil
		req.DeveloperNotes = wrSvc.OptionalField{}
		req.ResultScript = wrSvc.OptionalField{}
		req.ResultFileName = wrSvc.OptionalField{}
		req.AIAnalysis = wrSvc.OptionalField{}
	}
	if err := validateUpdateRequestRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, request) {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	applyUpdate(request, req)

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("request updated", "request_id", id, "updated_by", actor.ID)

	return s.requestRepo.GetByID(ctx, id)
}

// DeleteRequest removes a request and the script tree nodes linked to it.
// Child rows (files, attachments, events, comments) cascade in storage.
func (s *requestService) DeleteRequest(ctx context.Context, id string) error {
	if _, err := s.requestRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.treeService.RemoveRequestNodes(ctx, id); err != nil {
		return err
	}
	if err := s.requestRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("request deleted", "request_id", id)
	return nil
}

// SubmitResultFiles appends delivered files and records the submission
// event: the first delivery is a SUBMISSION, later ones RESUBMISSIONs.
// The requester is notified best-effort.
func (s *requestService) SubmitResultFiles(ctx context.Context, actor *identityModels.User, id string, files []wrSvc.ResultFileUpload) (*models.Request, error) {
	if err := validateResultFileUploads(files); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	kind := models.EventSubmission
	if request.SubmissionCount() > 0 {
		kind = models.EventResubmission
	}

	resultFiles := make([]models.ResultFile, len(files))
	for i, f := range files {
		resultFiles[i] = models.ResultFile{
			Name:     f.Name,
			MimeType: defaultMime(f.MimeType, "text/plain"),
			Data:     f.Data,
		}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if _, err := s.requestRepo.AddResultFiles(txCtx, id, resultFiles); err != nil {
			return err
		}
		event := &models.SubmissionEvent{
			RequestID:  id,
			Kind:       kind,
			AddedFiles: len(files),
		}
		if err := s.requestRepo.AddSubmissionEvent(txCtx, event); err != nil {
			return err
		}
		return s.requestRepo.BumpUpdatedAt(txCtx, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("result files submitted",
		"request_id", id,
		"submitted_by", actor.ID,
		"count", len(files),
		"event", kind,
	)

	s.notifyRequester(ctx, request, len(files))

	return s.requestRepo.GetByID(ctx, id)
}

// DeleteResultFile removes one delivered file
func (s *requestService) DeleteResultFile(ctx context.Context, requestID, fileID string) error {
	if err := s.requestRepo.DeleteResultFile(ctx, requestID, fileID); err != nil {
		return err
	}
	if err := s.requestRepo.BumpUpdatedAt(ctx, requestID); err != nil {
		return err
	}

	s.logger.Info("result file deleted", "request_id", requestID, "file_id", fileID)
	return nil
}

// ListComments retrieves a request's comments oldest first
func (s *requestService) ListComments(ctx context.Context, actor *identityModels.User, requestID string) ([]models.Comment, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, request) {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}
	return s.commentRepo.ListByRequest(ctx, requestID)
}

// AddComment appends a comment, snapshotting the actor's display name so
// the thread stays readable after the account is gone.
func (s *requestService) AddComment(ctx context.Context, actor *identityModels.User, requestID string, req *wrSvc.AddCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validateAddCommentRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canSee(actor, request) {
		return nil, fmt.Errorf("request %s: %w", requestID, domain.ErrNotFound)
	}

	userID := actor.ID
	comment := &models.Comment{
		RequestID:  requestID,
		UserID:     &userID,
		AuthorName: actor.Name,
		Content:    req.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment added", "request_id", requestID, "comment_id", comment.ID)
	return comment, nil
}

// AnalyzeRequest runs the AI analysis and stores the verdict on the request
func (s *requestService) AnalyzeRequest(ctx context.Context, id string) (*models.Request, error) {
	if s.analyzer == nil || !s.analyzer.Enabled() {
		return nil, &domain.ValidationError{Message: "AI analysis is disabled"}
	}

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	verdict, err := s.analyzer.Analyze(ctx, request)
	if err != nil {
		s.logger.Error("ai analysis failed", "request_id", id, "error", err)
		return nil, fmt.Errorf("ai analysis failed: %w", err)
	}

	request.AIAnalysis = &verdict
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("ai analysis stored", "request_id", id)
	return s.requestRepo.GetByID(ctx, id)
}

// canSee reports whether the actor may read a request
func (s *requestService) canSee(actor *identityModels.User, request *models.Request) bool {
	return actor.IsDeveloper() || request.RequesterID == actor.ID
}

// notifyRequester emails the request owner about a delivery. Notification
// failures never fail the submit; they are logged and dropped.
func (s *requestService) notifyRequester(ctx context.Context, request *models.Request, fileCount int) {
	if s.notifier == nil || s.templates == nil {
		return
	}

	owner, err := s.userRepo.GetByID(ctx, request.RequesterID)
	if err != nil {
		s.logger.Warn("skipping delivery notification, requester lookup failed",
			"request_id", request.ID,
			"error", err,
		)
		return
	}

	subject, body, err := s.templates.Render(notify.TemplateResultDelivered, map[string]string{
		"title": request.Title,
		"name":  owner.Name,
		"count": strconv.Itoa(fileCount),
	})
	if err != nil {
		s.logger.Warn("delivery notification template failed",
			"request_id", request.ID,
			"error", err,
		)
		return
	}

	msg := &services.EmailMessage{To: owner.Email, Subject: subject, Body: body}
	if _, err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("delivery notification failed",
			"request_id", request.ID,
			"to", owner.Email,
			"error", err,
		)
	}
}

// applyUpdate copies set fields from the partial update onto the request
func applyUpdate(request *models.Request, req *wrSvc.UpdateRequestRequest) {
	if req.Title != nil {
		request.Title = *req.Title
	}
	if req.Description != nil {
		request.Description = *req.Description
	}
	if req.Priority != nil {
		request.Priority = *req.Priority
	}
	if req.Status != nil {
		request.Status = *req.Status
	}
	if req.ProjectName.Present {
		request.ProjectName = req.ProjectName.Value
	}
	if req.ToolVersion.Present {
		request.ToolVersion = req.ToolVersion.Value
	}
	if req.DueDate.Present {
		request.DueDate = req.DueDate.Value
	}
	if req.DeveloperNotes.Present {
		request.DeveloperNotes = req.DeveloperNotes.Value
	}
	if req.ResultScript.Present {
		request.ResultScript = req.ResultScript.Value
	}
	if req.ResultFileName.Present {
		request.ResultFileName = req.ResultFileName.Value
	}
	if req.AIAnalysis.Present {
		request.AIAnalysis = req.AIAnalysis.Value
	}
}

// defaultMime substitutes fallback when the client sent no content type
func defaultMime(mime, fallback string) string {
	if strings.TrimSpace(mime) == "" {
		return fallback
	}
	return mime
}
