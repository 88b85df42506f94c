package scripttree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"autohub/internal/domain"
	models "autohub/internal/domain/models/scripttree"
	wrModels "autohub/internal/domain/models/workrequest"
	"autohub/internal/domain/repositories"
	treeRepo "autohub/internal/domain/repositories/scripttree"
	wrRepo "autohub/internal/domain/repositories/workrequest"
	treeSvc "autohub/internal/domain/services/scripttree"
)

type treeService struct {
	nodeRepo    treeRepo.NodeRepository
	requestRepo wrRepo.RequestRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewTreeService creates a new script tree service
func NewTreeService(
	nodeRepo treeRepo.NodeRepository,
	requestRepo wrRepo.RequestRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) treeSvc.TreeService {
	return &treeService{
		nodeRepo:    nodeRepo,
		requestRepo: requestRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// GetTree synchronizes completed requests into the library and returns the
// nested view rooted at the Scripts folder.
func (s *treeService) GetTree(ctx context.Context, actorID string) (*models.TreeNode, error) {
	view, _, err := s.loadView(ctx, actorID)
	return view, err
}

// Synchronize folds every completed request into the library inside one
// serialized transaction. Safe to call any number of times.
func (s *treeService) Synchronize(ctx context.Context, actorID string) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}
		_, _, err := s.synchronizeLocked(txCtx, actorID)
		return err
	})
}

// CreateFolder creates a new FOLDER node; parent defaults to the root
func (s *treeService) CreateFolder(ctx context.Context, actorID string, req *treeSvc.CreateFolderRequest) (*models.Node, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if err := validateCreateFolderRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var node *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}

		parent, err := s.resolveParentFolder(txCtx, req.ParentID, actorID)
		if err != nil {
			return err
		}

		node = &models.Node{
			ParentID:  &parent.ID,
			Name:      req.Name,
			NodeType:  models.NodeTypeFolder,
			CreatedBy: actorID,
		}
		return s.nodeRepo.Insert(txCtx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", node.ID,
		"name", node.Name,
		"parent_id", *node.ParentID,
	)

	return node, nil
}

// LinkFile links a request's deliverable into a folder as a FILE node.
// Parent defaults to the root; name defaults to the request title.
func (s *treeService) LinkFile(ctx context.Context, actorID string, req *treeSvc.LinkFileRequest) (*models.Node, error) {
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			req.Name = nil
		} else {
			req.Name = &trimmed
		}
	}
	if err := validateLinkFileRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var node *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}

		parent, err := s.resolveParentFolder(txCtx, req.ParentID, actorID)
		if err != nil {
			return err
		}

		request, err := s.requestRepo.GetByID(txCtx, req.RequestID)
		if err != nil {
			return err
		}

		// Duplicate-link guard: one FILE per request per folder
		existing, err := s.nodeRepo.GetFileByRequest(txCtx, parent.ID, request.ID)
		if err == nil {
			return &domain.ConflictError{
				Message:      "script already linked in this folder",
				ResourceType: "script_node",
				ResourceID:   existing.ID,
			}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		name := request.Title
		if req.Name != nil {
			name = *req.Name
		}

		node = &models.Node{
			ParentID:  &parent.ID,
			Name:      name,
			NodeType:  models.NodeTypeFile,
			RequestID: &request.ID,
			CreatedBy: actorID,
		}
		return s.nodeRepo.Insert(txCtx, node)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("script linked",
		"id", node.ID,
		"name", node.Name,
		"request_id", req.RequestID,
		"parent_id", *node.ParentID,
	)

	return node, nil
}

// UpdateNode moves and/or renames a node in one transaction
func (s *treeService) UpdateNode(ctx context.Context, id string, req *treeSvc.UpdateNodeRequest) (*models.Node, error) {
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validateUpdateNodeRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var updated *models.Node
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}

		node, err := s.nodeRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if node.ParentID == nil {
			return fmt.Errorf("%w: the root folder cannot be renamed or moved", domain.ErrValidation)
		}

		parentID := node.ParentID
		if req.ParentID != nil {
			target, err := s.nodeRepo.GetByID(txCtx, *req.ParentID)
			if err != nil {
				return err
			}
			if target.NodeType != models.NodeTypeFolder {
				return fmt.Errorf("%w: parent must be a folder", domain.ErrValidation)
			}
			if err := s.checkNoCycle(txCtx, node, target); err != nil {
				return err
			}
			parentID = &target.ID
		}

		name := node.Name
		if req.Name != nil {
			name = *req.Name
		}

		updated, err = s.nodeRepo.UpdateParentAndName(txCtx, node.ID, parentID, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("node updated",
		"id", updated.ID,
		"name", updated.Name,
		"parent_id", *updated.ParentID,
	)

	return updated, nil
}

// DeleteNode removes a node and every descendant, children before parents
func (s *treeService) DeleteNode(ctx context.Context, id string) error {
	removed := 0
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}

		node, err := s.nodeRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if node.ParentID == nil {
			return fmt.Errorf("%w: the root folder cannot be deleted", domain.ErrValidation)
		}

		removed, err = s.deleteSubtree(txCtx, node.ID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("node deleted", "id", id, "nodes_removed", removed)
	return nil
}

// RemoveRequestNodes deletes the subtree of every node referencing a
// request. Used by the request and user deletion cascades.
func (s *treeService) RemoveRequestNodes(ctx context.Context, requestID string) error {
	removed := 0
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}

		nodes, err := s.nodeRepo.ListByRequest(txCtx, requestID)
		if err != nil {
			return err
		}

		for _, node := range nodes {
			// A previously deleted subtree may have contained this node
			if _, err := s.nodeRepo.GetByID(txCtx, node.ID); errors.Is(err, domain.ErrNotFound) {
				continue
			} else if err != nil {
				return err
			}

			n, err := s.deleteSubtree(txCtx, node.ID)
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info("request nodes removed", "request_id", requestID, "nodes_removed", removed)
	}
	return nil
}

// loadView synchronizes, then loads every node plus the request index and
// projects them into the nested view.
func (s *treeService) loadView(ctx context.Context, actorID string) (*models.TreeNode, map[string]*wrModels.Request, error) {
	var rootID string
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.nodeRepo.LockTree(txCtx); err != nil {
			return err
		}
		root, _, err := s.synchronizeLocked(txCtx, actorID)
		if err != nil {
			return err
		}
		rootID = root.ID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	nodes, err := s.nodeRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	requests, err := s.loadRequestIndex(ctx)
	if err != nil {
		return nil, nil, err
	}

	view := BuildTree(rootID, nodes, requests)
	if view == nil {
		return nil, nil, fmt.Errorf("root folder %s missing from node list", rootID)
	}
	return view, requests, nil
}

// synchronizeLocked runs the convergence pass: ensure the root and Unsorted
// folders, then give every completed request a folder and a FILE child per
// result file. Existing nodes are never renamed or moved, except orphaned
// request folders, which are reattached under Unsorted. Callers hold the
// tree lock.
func (s *treeService) synchronizeLocked(ctx context.Context, actorID string) (*models.Node, *models.Node, error) {
	root, err := s.ensureRoot(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	unsorted, err := s.ensureUnsortedFolder(ctx, root, actorID)
	if err != nil {
		return nil, nil, err
	}

	completed, err := s.requestRepo.List(ctx, wrModels.StatusCompleted, "")
	if err != nil {
		return nil, nil, err
	}

	created := 0
	healed := 0
	for i := range completed {
		req := &completed[i]

		folder, err := s.nodeRepo.GetFolderByRequest(ctx, req.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			folder = &models.Node{
				ParentID:  &unsorted.ID,
				Name:      req.Title,
				NodeType:  models.NodeTypeFolder,
				RequestID: &req.ID,
				CreatedBy: actorID,
			}
			if err := s.nodeRepo.Insert(ctx, folder); err != nil {
				return nil, nil, err
			}
			created++
		case err != nil:
			return nil, nil, err
		case folder.ParentID == nil && folder.ID != root.ID:
			// Orphaned request folders reattach under Unsorted, same name
			folder, err = s.nodeRepo.UpdateParentAndName(ctx, folder.ID, &unsorted.ID, folder.Name)
			if err != nil {
				return nil, nil, err
			}
			healed++
		}

		children, err := s.nodeRepo.GetChildren(ctx, folder.ID)
		if err != nil {
			return nil, nil, err
		}
		existing := make(map[string]bool, len(children))
		for _, child := range children {
			if child.NodeType == models.NodeTypeFile {
				existing[child.Name] = true
			}
		}

		for _, rf := range req.ResultFiles {
			if existing[rf.Name] {
				continue
			}
			file := &models.Node{
				ParentID:  &folder.ID,
				Name:      rf.Name,
				NodeType:  models.NodeTypeFile,
				RequestID: &req.ID,
				CreatedBy: actorID,
			}
			if err := s.nodeRepo.Insert(ctx, file); err != nil {
				return nil, nil, err
			}
			created++
		}
	}

	if created > 0 || healed > 0 {
		s.logger.Info("script library synchronized",
			"completed_requests", len(completed),
			"nodes_created", created,
			"folders_reattached", healed,
		)
	}

	return root, unsorted, nil
}

// ensureRoot finds or creates the root Scripts folder
func (s *treeService) ensureRoot(ctx context.Context, actorID string) (*models.Node, error) {
	root, err := s.nodeRepo.GetRoot(ctx)
	if err == nil {
		return root, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	root = &models.Node{
		Name:      models.RootFolderName,
		NodeType:  models.NodeTypeFolder,
		CreatedBy: actorID,
	}
	if err := s.nodeRepo.Insert(ctx, root); err != nil {
		return nil, err
	}

	s.logger.Info("root folder created", "id", root.ID)
	return root, nil
}

// ensureUnsortedFolder finds or creates the Unsorted folder under root
func (s *treeService) ensureUnsortedFolder(ctx context.Context, root *models.Node, actorID string) (*models.Node, error) {
	unsorted, err := s.nodeRepo.GetChildFolderByName(ctx, root.ID, models.UnsortedFolderName)
	if err == nil {
		return unsorted, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	unsorted = &models.Node{
		ParentID:  &root.ID,
		Name:      models.UnsortedFolderName,
		NodeType:  models.NodeTypeFolder,
		CreatedBy: actorID,
	}
	if err := s.nodeRepo.Insert(ctx, unsorted); err != nil {
		return nil, err
	}

	s.logger.Info("unsorted folder created", "id", unsorted.ID)
	return unsorted, nil
}

// resolveParentFolder loads the requested parent, defaulting to the root
// when no ID is given. The parent must be a FOLDER.
func (s *treeService) resolveParentFolder(ctx context.Context, parentID *string, actorID string) (*models.Node, error) {
	if parentID == nil {
		return s.ensureRoot(ctx, actorID)
	}

	parent, err := s.nodeRepo.GetByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent.NodeType != models.NodeTypeFolder {
		return nil, fmt.Errorf("%w: parent must be a folder", domain.ErrValidation)
	}
	return parent, nil
}

// checkNoCycle rejects moves that would make a node its own ancestor. The
// target's ancestor chain is walked up to the root; the moved node must not
// appear in it.
func (s *treeService) checkNoCycle(ctx context.Context, node, target *models.Node) error {
	if target.ID == node.ID {
		return fmt.Errorf("%w: cannot move a folder into itself or its own descendant", domain.ErrValidation)
	}

	ancestors, err := s.nodeRepo.GetAncestors(ctx, target.ID)
	if err != nil {
		return err
	}
	for _, ancestor := range ancestors {
		if ancestor.ID == node.ID {
			return fmt.Errorf("%w: cannot move a folder into itself or its own descendant", domain.ErrValidation)
		}
	}
	return nil
}

// deleteSubtree removes a node and its descendants depth-first, children
// before parents, and reports how many rows went.
func (s *treeService) deleteSubtree(ctx context.Context, id string) (int, error) {
	children, err := s.nodeRepo.GetChildren(ctx, id)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, child := range children {
		n, err := s.deleteSubtree(ctx, child.ID)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	if err := s.nodeRepo.Delete(ctx, id); err != nil {
		return removed, err
	}
	return removed + 1, nil
}

// loadRequestIndex loads every request keyed by ID for view building
func (s *treeService) loadRequestIndex(ctx context.Context) (map[string]*wrModels.Request, error) {
	requests, err := s.requestRepo.List(ctx, "", "")
	if err != nil {
		return nil, err
	}

	index := make(map[string]*wrModels.Request, len(requests))
	for i := range requests {
		index[requests[i].ID] = &requests[i]
	}
	return index, nil
}
