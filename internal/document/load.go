package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/modelmirror/internal/ctxlog"
)

// Load reads a document file, dispatching on extension: .json or .hcl.
func Load(ctx context.Context, path string) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading document.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".json":
		return DecodeJSON(bytes.NewReader(src))
	case ".hcl":
		return DecodeHCL(src, path)
	default:
		return nil, fmt.Errorf("unsupported document extension %q (want .json or .hcl)", filepath.Ext(path))
	}
}
