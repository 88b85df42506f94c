package scripttree

import (
	"sort"
	"strings"

	models "autohub/internal/domain/models/scripttree"
	wrModels "autohub/internal/domain/models/workrequest"
)

// BuildTree projects a flat node list into the nested view rooted at
// rootID. Pure: inputs are read, never mutated, and the same inputs always
// marshal to the same bytes. Returns nil when rootID is not in the list.
func BuildTree(rootID string, nodes []models.Node, requests map[string]*wrModels.Request) *models.TreeNode {
	// Pass 1: a view per folder
	folders := make(map[string]*models.TreeNode)
	for i := range nodes {
		node := &nodes[i]
		if node.NodeType != models.NodeTypeFolder {
			continue
		}
		folders[node.ID] = &models.TreeNode{
			ID:        node.ID,
			Name:      node.Name,
			NodeType:  node.NodeType,
			ParentID:  node.ParentID,
			RequestID: node.RequestID,
			CreatedBy: node.CreatedBy,
			CreatedAt: node.CreatedAt,
			UpdatedAt: node.UpdatedAt,
			Children:  []*models.TreeNode{},
		}
	}

	root, ok := folders[rootID]
	if !ok {
		return nil
	}

	// Pass 2: nest folders under their parents. Nodes whose parent is not
	// a known folder stay unreachable.
	for i := range nodes {
		node := &nodes[i]
		if node.NodeType != models.NodeTypeFolder || node.ID == rootID || node.ParentID == nil {
			continue
		}
		if parent, ok := folders[*node.ParentID]; ok {
			parent.Children = append(parent.Children, folders[node.ID])
		}
	}

	// Pass 3: attach file leaves with their request snapshots
	for i := range nodes {
		node := &nodes[i]
		if node.NodeType != models.NodeTypeFile || node.ParentID == nil {
			continue
		}
		parent, ok := folders[*node.ParentID]
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, &models.TreeNode{
			ID:        node.ID,
			Name:      node.Name,
			NodeType:  node.NodeType,
			ParentID:  node.ParentID,
			RequestID: node.RequestID,
			CreatedBy: node.CreatedBy,
			CreatedAt: node.CreatedAt,
			UpdatedAt: node.UpdatedAt,
			Request:   fileSource(node, requests),
		})
	}

	sortChildren(root)
	return root
}

// fileSource builds the denormalized request snapshot for a FILE node.
// A file whose request no longer resolves carries a nil snapshot.
func fileSource(node *models.Node, requests map[string]*wrModels.Request) *models.FileSource {
	if node.RequestID == nil {
		return nil
	}
	req, ok := requests[*node.RequestID]
	if !ok {
		return nil
	}

	refs := make([]models.ResultFileRef, 0, len(req.ResultFiles))
	for _, rf := range req.ResultFiles {
		refs = append(refs, models.ResultFileRef{
			ID:       rf.ID,
			Name:     rf.Name,
			MimeType: rf.MimeType,
		})
	}

	return &models.FileSource{
		ID:          req.ID,
		Title:       req.Title,
		Status:      req.Status,
		ResultFiles: refs,
	}
}

// sortChildren orders every child list recursively: folders before files,
// each group ascending by case-insensitive name, ties by exact name then id.
func sortChildren(node *models.TreeNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		return lessNode(node.Children[i], node.Children[j])
	})
	for _, child := range node.Children {
		if child.NodeType == models.NodeTypeFolder {
			sortChildren(child)
		}
	}
}

func lessNode(a, b *models.TreeNode) bool {
	if a.NodeType != b.NodeType {
		return a.NodeType == models.NodeTypeFolder
	}
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
