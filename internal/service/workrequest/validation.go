package workrequest

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	models "autohub/internal/domain/models/workrequest"
	wrSvc "autohub/internal/domain/services/workrequest"
)

func validateCreateRequestRequest(req *wrSvc.CreateRequestRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&req.Description, validation.Required, validation.Length(3, 0)),
		validation.Field(&req.Status,
			validation.In(models.StatusPending, models.StatusCompleted).Error("must be PENDING or COMPLETED"),
		),
	); err != nil {
		return err
	}

	for i := range req.Attachments {
		if req.Attachments[i].Name == "" {
			return fmt.Errorf("attachments: entry %d has no name", i)
		}
		if req.Attachments[i].Data == "" {
			return fmt.Errorf("attachments: entry %d has no data", i)
		}
	}

	return nil
}

func validateUpdateRequestRequest(req *wrSvc.UpdateRequestRequest) error {
	if req.Title != nil {
		if err := validation.Validate(*req.Title, validation.Required, validation.Length(3, 200)); err != nil {
			return fmt.Errorf("title: %v", err)
		}
	}
	if req.Description != nil {
		if err := validation.Validate(*req.Description, validation.Required, validation.Length(3, 0)); err != nil {
			return fmt.Errorf("description: %v", err)
		}
	}
	if req.Status != nil {
		if err := validation.Validate(*req.Status,
			validation.In(models.StatusPending, models.StatusCompleted).Error("must be PENDING or COMPLETED"),
		); err != nil {
			return fmt.Errorf("status: %v", err)
		}
	}
	return nil
}

func validateResultFileUploads(files []wrSvc.ResultFileUpload) error {
	if len(files) == 0 {
		return errors.New("files: cannot be empty")
	}
	for i := range files {
		if files[i].Name == "" {
			return fmt.Errorf("files: entry %d has no name", i)
		}
		if files[i].Data == "" {
			return fmt.Errorf("files: entry %d has no data", i)
		}
	}
	return nil
}

func validateAddCommentRequest(req *wrSvc.AddCommentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, 4000)),
	)
}
