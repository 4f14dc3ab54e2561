package check

import (
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"
)

// TestSinglePackageComment keeps the package documentation in doc.go.
func TestSinglePackageComment(t *testing.T) {
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var documented []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(token.NewFileSet(), name, nil, parser.PackageClauseOnly|parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if file.Doc != nil {
			documented = append(documented, name)
			if !strings.HasPrefix(file.Doc.Text(), "Package check ") {
				t.Fatalf("%s package comment must start with \"Package check\"", name)
			}
		}
	}
	if len(documented) != 1 || documented[0] != "doc.go" {
		t.Fatalf("package comments in %v, want only doc.go", documented)
	}
}
