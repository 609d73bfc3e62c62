package tenantscope

import (
	"time"

	"licity-service/pkg/cache"

	"gorm.io/gorm"
)

// Service bundles the directory and the selector behind one entry point.
type Service struct {
	Directory *Directory
	Selector  *Selector
}

var service *Service

// Init wires the tenant-scoping subsystem against the database and cache.
// Must be called once at startup before any handler runs.
func Init(db *gorm.DB, c cache.Cache, ttl time.Duration) {
	dir := NewDirectory(gormSource{db: db}, c, ttl)
	service = &Service{
		Directory: dir,
		Selector:  NewSelector(dir, gormStore{db: db}),
	}
}

// Default returns the process-wide tenant scope service.
func Default() *Service {
	return service
}
