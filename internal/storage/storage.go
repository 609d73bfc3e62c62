// Package storage holds uploaded document blobs under paths namespaced by
// tenant id, so a file's owner is always derivable from its path.
package storage

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the blob storage contract: save, open, and remove by path.
type Store interface {
	Save(filePath string, r io.Reader) (int64, error)
	Open(filePath string) (io.ReadCloser, error)
	Remove(filePath string) error
}

// BuildPath generates a unique tenant-namespaced path for an uploaded file:
// <tenant_id>/<unix_ms>_<rand>.<ext>.
func BuildPath(tenantID uint, fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	if ext != "" {
		name = name + "." + strings.ToLower(ext)
	}
	return fmt.Sprintf("%d/%s", tenantID, name)
}

// TenantOwns reports whether filePath lives in the given tenant's namespace.
func TenantOwns(tenantID uint, filePath string) bool {
	return strings.HasPrefix(filePath, fmt.Sprintf("%d/", tenantID))
}
