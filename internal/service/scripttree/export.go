package scripttree

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	models "autohub/internal/domain/models/scripttree"
	wrModels "autohub/internal/domain/models/workrequest"
)

// ExportArchive synchronizes the library, then streams it as a zip.
// Entries follow the sorted view order and carry no per-entry timestamps,
// so two exports of identical state produce identical bytes.
func (s *treeService) ExportArchive(ctx context.Context, actorID string, w io.Writer) error {
	view, requests, err := s.loadView(ctx, actorID)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, child := range view.Children {
		if err := writeArchiveEntry(zw, child, "", requests); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	s.logger.Info("library exported", "actor_id", actorID)
	return nil
}

// writeArchiveEntry adds one node to the archive. Empty folders become
// explicit directory entries; non-empty ones exist only through their
// children's paths. Files without a resolvable result are skipped.
func writeArchiveEntry(zw *zip.Writer, node *models.TreeNode, basePath string, requests map[string]*wrModels.Request) error {
	path := node.Name
	if basePath != "" {
		path = basePath + "/" + node.Name
	}

	if node.NodeType == models.NodeTypeFolder {
		if len(node.Children) == 0 {
			if _, err := zw.Create(path + "/"); err != nil {
				return fmt.Errorf("failed to add directory entry %q: %w", path, err)
			}
			return nil
		}
		for _, child := range node.Children {
			if err := writeArchiveEntry(zw, child, path, requests); err != nil {
				return err
			}
		}
		return nil
	}

	payload, ok := resolvePayload(node, requests)
	if !ok {
		return nil
	}

	entry, err := zw.Create(path)
	if err != nil {
		return fmt.Errorf("failed to add archive entry %q: %w", path, err)
	}
	if _, err := entry.Write(payload); err != nil {
		return fmt.Errorf("failed to write archive entry %q: %w", path, err)
	}
	return nil
}

// resolvePayload picks the result file backing a FILE node: the one whose
// name matches the node, else the request's first file. False when the
// request or its files are gone.
func resolvePayload(node *models.TreeNode, requests map[string]*wrModels.Request) ([]byte, bool) {
	if node.RequestID == nil {
		return nil, false
	}
	req, ok := requests[*node.RequestID]
	if !ok || len(req.ResultFiles) == 0 {
		return nil, false
	}

	file := &req.ResultFiles[0]
	for i := range req.ResultFiles {
		if req.ResultFiles[i].Name == node.Name {
			file = &req.ResultFiles[i]
			break
		}
	}

	return decodeResultData(file.Data), true
}

// decodeResultData turns stored result content into raw bytes. Data URLs
// decode the part after the first comma; bare strings decode as plain
// base64. Content that fails to decode is written out verbatim.
func decodeResultData(data string) []byte {
	encoded := data
	if idx := strings.Index(data, ","); idx >= 0 {
		encoded = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return []byte(data)
	}
	return decoded
}
