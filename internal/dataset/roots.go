package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Restricted only resolves paths inside one of Roots. Anything else is
// reported as not found without touching the disk.
type Restricted struct {
	Roots []string
	Next  Catalog
}

func NewRestricted(next Catalog, roots ...string) *Restricted {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, filepath.Clean(r))
		}
	}
	return &Restricted{Roots: cleaned, Next: next}
}

func (r *Restricted) Count(ctx context.Context, p string) (int, error) {
	if !r.Allowed(p) {
		return 0, fmt.Errorf("%w: %s is outside the dataset roots", ErrNotFound, p)
	}
	return r.Next.Count(ctx, filepath.Clean(p))
}

// Allowed reports whether p lies at or below a configured root.
func (r *Restricted) Allowed(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" {
		return false
	}
	p = filepath.Clean(p)
	for _, root := range r.Roots {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}
