package scripttree

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"autohub/internal/config"
	treeSvc "autohub/internal/domain/services/scripttree"
)

// Node names double as archive path segments, so slashes are rejected.
var nodeNamePattern = regexp.MustCompile(`^[^/]+$`)

// validateCreateFolderRequest validates a folder creation request
func validateCreateFolderRequest(req *treeSvc.CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nodeNamePattern).Error("name cannot contain slashes"),
		),
	)
}

// validateLinkFileRequest validates a file link request
func validateLinkFileRequest(req *treeSvc.LinkFileRequest) error {
	rules := []*validation.FieldRules{
		validation.Field(&req.RequestID, validation.Required),
	}

	if req.Name != nil {
		rules = append(rules,
			validation.Field(&req.Name,
				validation.Length(1, config.MaxNodeNameLength),
				validation.Match(nodeNamePattern).Error("name cannot contain slashes"),
			),
		)
	}

	return validation.ValidateStruct(req, rules...)
}

// validateUpdateNodeRequest validates a combined move/rename request
func validateUpdateNodeRequest(req *treeSvc.UpdateNodeRequest) error {
	// At least one field must be provided
	if req.Name == nil && req.ParentID == nil {
		return fmt.Errorf("at least one field must be provided")
	}

	if req.Name != nil {
		return validation.ValidateStruct(req,
			validation.Field(&req.Name,
				validation.Required,
				validation.Length(1, config.MaxNodeNameLength),
				validation.Match(nodeNamePattern).Error("name cannot contain slashes"),
			),
		)
	}

	return nil
}
