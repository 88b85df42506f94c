package scriptfolder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"autohub/internal/config"
	"autohub/internal/domain"
	models "autohub/internal/domain/models/scriptfolder"
	wrModels "autohub/internal/domain/models/workrequest"
	sfRepo "autohub/internal/domain/repositories/scriptfolder"
	wrRepo "autohub/internal/domain/repositories/workrequest"
	sfSvc "autohub/internal/domain/services/scriptfolder"
)

type folderService struct {
	folderRepo  sfRepo.FolderRepository
	requestRepo wrRepo.RequestRepository
	logger      *slog.Logger
}

// NewFolderService creates a new script collection service
func NewFolderService(
	folderRepo sfRepo.FolderRepository,
	requestRepo wrRepo.RequestRepository,
	logger *slog.Logger,
) sfSvc.FolderService {
	return &folderService{
		folderRepo:  folderRepo,
		requestRepo: requestRepo,
		logger:      logger,
	}
}

// ListFolders retrieves all collections, newest first
func (s *folderService) ListFolders(ctx context.Context) ([]models.ScriptFolder, error) {
	return s.folderRepo.List(ctx)
}

// CreateFolder creates a new collection
func (s *folderService) CreateFolder(ctx context.Context, actorID string, req *sfSvc.CreateFolderRequest) (*models.ScriptFolder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	color := req.Color
	if color == nil {
		c := models.DefaultColor
		color = &c
	}

	folder := &models.ScriptFolder{
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
		CreatedBy:   actorID,
	}
	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("script folder created", "id", folder.ID, "name", folder.Name)
	return folder, nil
}

// DeleteFolder removes a collection and its memberships
func (s *folderService) DeleteFolder(ctx context.Context, id string) error {
	if err := s.folderRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("script folder deleted", "id", id)
	return nil
}

// AddRequest puts a request into a collection
func (s *folderService) AddRequest(ctx context.Context, folderID, requestID string) error {
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		return err
	}
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		return err
	}

	if err := s.folderRepo.AddItem(ctx, folderID, requestID); err != nil {
		return err
	}

	s.logger.Info("request added to script folder", "folder_id", folderID, "request_id", requestID)
	return nil
}

// RemoveRequest takes a request out of a collection
func (s *folderService) RemoveRequest(ctx context.Context, folderID, requestID string) error {
	if err := s.folderRepo.RemoveItem(ctx, folderID, requestID); err != nil {
		return err
	}

	s.logger.Info("request removed from script folder", "folder_id", folderID, "request_id", requestID)
	return nil
}

// ListFolderRequests retrieves the member requests of a collection
func (s *folderService) ListFolderRequests(ctx context.Context, folderID string) ([]wrModels.Request, error) {
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		return nil, err
	}

	ids, err := s.folderRepo.ListRequestIDs(ctx, folderID)
	if err != nil {
		return nil, err
	}

	requests := make([]wrModels.Request, 0, len(ids))
	for _, id := range ids {
		req, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			// Membership rows cascade with their request, so a miss here
			// is a racing delete
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		requests = append(requests, *req)
	}

	return requests, nil
}

// validateCreateRequest validates a collection creation request
func (s *folderService) validateCreateRequest(req *sfSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
		),
	)
}
