package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestBlobImportBoundary ensures only the output writer and the CLI depend
// on artifact storage. Pipeline packages must stay storage-agnostic.
func TestBlobImportBoundary(t *testing.T) {
	const blobPath = "retentionos/internal/blob"
	allowed := map[string]bool{
		"retentionos/cmd/retentionos": true,
		"retentionos/internal/output": true,
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "retentionos/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		if pkg.PkgPath == blobPath || allowed[pkg.PkgPath] {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == blobPath || strings.HasPrefix(importPath, blobPath+"/") {
				violations = append(violations, pkg.PkgPath+" imports "+importPath)
			}
		}
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("forbidden blob import: %s", v)
	}
}
