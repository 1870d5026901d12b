package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/chatkit"
)

const (
	// MaxResults caps the number of paths returned to the model.
	MaxResults = 100
	// maxScanBytes bounds how much of each file the contains filter reads.
	maxScanBytes = 1 << 20
)

type searchArgs struct {
	Pattern  string `json:"pattern"`
	Contains string `json:"contains"`
}

// Search finds files under root matching a doublestar pattern. Paths are
// reported relative to root; patterns cannot escape it.
func Search(ctx context.Context, root string, args json.RawMessage) (*chatkit.ToolResult, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if a.Pattern == "" {
		return domainError("pattern is required"), nil
	}
	a.Pattern = strings.TrimPrefix(filepath.ToSlash(a.Pattern), "./")
	if !doublestar.ValidatePattern(a.Pattern) || !iofs.ValidPath(strings.TrimSuffix(a.Pattern, "/")) {
		return domainError(fmt.Sprintf("invalid glob pattern: %s", a.Pattern)), nil
	}
	if root == "" {
		return domainError("no search root is configured; set one in settings"), nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return domainError(fmt.Sprintf("failed to access search root: %s", err)), nil
	}
	if !info.IsDir() {
		return domainError("search root must be a directory"), nil
	}

	fsys := os.DirFS(root)
	var matches []string
	total := 0
	err = doublestar.GlobWalk(fsys, a.Pattern, func(path string, d iofs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if a.Contains != "" {
			ok, err := fileContains(fsys, path, a.Contains)
			if err != nil || !ok {
				return nil
			}
		}
		total++
		if len(matches) < MaxResults {
			matches = append(matches, filepath.FromSlash(path))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("search: %w", ctx.Err())
		}
		return domainError(fmt.Sprintf("error matching pattern: %s", err)), nil
	}

	if total == 0 {
		return textResult("no matches found"), nil
	}
	out := strings.Join(matches, "\n")
	if total > len(matches) {
		out += fmt.Sprintf("\n... and %d more", total-len(matches))
	}
	return textResult(out), nil
}

func fileContains(fsys iofs.FS, path, needle string) (bool, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxScanBytes))
	if err != nil {
		return false, err
	}
	return bytes.Contains(data, []byte(needle)), nil
}
