package scripttree

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	wrModels "autohub/internal/domain/models/workrequest"
	treeSvc "autohub/internal/domain/services/scripttree"
)

func TestExportArchive(t *testing.T) {
	nodeRepo := newFakeNodeRepo()
	requestRepo := &fakeRequestRepo{requests: []wrModels.Request{
		completedRequest("req-1", "Renumber sheets", "renumber.py"),
	}}
	service := newTestTreeService(nodeRepo, requestRepo)

	// A custom folder with a linked copy, and an empty folder
	tools, err := service.CreateFolder(context.Background(), "dev-1", &treeSvc.CreateFolderRequest{Name: "Tools"})
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	linkName := "renumber.py"
	if _, err := service.LinkFile(context.Background(), "dev-1", &treeSvc.LinkFileRequest{
		RequestID: "req-1",
		ParentID:  &tools.ID,
		Name:      &linkName,
	}); err != nil {
		t.Fatalf("LinkFile failed: %v", err)
	}
	if _, err := service.CreateFolder(context.Background(), "dev-1", &treeSvc.CreateFolderRequest{Name: "Empty"}); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}

	var buf bytes.Buffer
	if err := service.ExportArchive(context.Background(), "dev-1", &buf); err != nil {
		t.Fatalf("ExportArchive failed: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}

	entries := make(map[string]*zip.File, len(reader.File))
	for _, file := range reader.File {
		entries[file.Name] = file
	}

	for _, want := range []string{
		"Empty/",
		"Tools/renumber.py",
		"Unsorted/Renumber sheets/renumber.py",
	} {
		if _, ok := entries[want]; !ok {
			names := make([]string, 0, len(reader.File))
			for _, f := range reader.File {
				names = append(names, f.Name)
			}
			t.Fatalf("expected entry %q, archive has %v", want, names)
		}
	}

	rc, err := entries["Tools/renumber.py"].Open()
	if err != nil {
		t.Fatalf("failed to open entry: %v", err)
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("failed to read entry: %v", err)
	}
	if string(content) != "print(\"ok\")\n" {
		t.Errorf("expected decoded script content, got %q", content)
	}
}

func TestExportArchive_Deterministic(t *testing.T) {
	nodeRepo := newFakeNodeRepo()
	requestRepo := &fakeRequestRepo{requests: []wrModels.Request{
		completedRequest("req-1", "Renumber sheets", "renumber.py", "helpers.py"),
		completedRequest("req-2", "Count elements", "count.py"),
	}}
	service := newTestTreeService(nodeRepo, requestRepo)

	var first, second bytes.Buffer
	if err := service.ExportArchive(context.Background(), "dev-1", &first); err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if err := service.ExportArchive(context.Background(), "dev-1", &second); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("expected identical exports for identical state")
	}
}

func TestExportArchive_SkipsFilesWithoutResults(t *testing.T) {
	nodeRepo := newFakeNodeRepo()
	requestRepo := &fakeRequestRepo{requests: []wrModels.Request{
		completedRequest("req-1", "No deliverables yet"),
	}}
	service := newTestTreeService(nodeRepo, requestRepo)

	if _, err := service.LinkFile(context.Background(), "dev-1", &treeSvc.LinkFileRequest{RequestID: "req-1"}); err != nil {
		t.Fatalf("LinkFile failed: %v", err)
	}

	var buf bytes.Buffer
	if err := service.ExportArchive(context.Background(), "dev-1", &buf); err != nil {
		t.Fatalf("ExportArchive failed: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	for _, file := range reader.File {
		if file.Name == "No deliverables yet" {
			t.Errorf("expected file without results to be skipped, found %q", file.Name)
		}
	}
}

func TestDecodeResultData(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bare base64", "cHJpbnQoIm9rIikK", "print(\"ok\")\n"},
		{"data url", "data:text/x-python;base64,cHJpbnQoIm9rIikK", "print(\"ok\")\n"},
		{"invalid base64 passes through", "not base64!!", "not base64!!"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeResultData(tt.data)
			if string(got) != tt.want {
				t.Errorf("decodeResultData(%q) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}
