package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantOwnedBy scopes a query to one tenant.
type TenantOwnedBy struct {
	TenantID uuid.UUID
}

func (s TenantOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// ByDocumentId filters rows belonging to a document.
type ByDocumentId struct {
	DocumentID uuid.UUID
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

// ByVersionId filters rows belonging to a document version.
type ByVersionId struct {
	VersionID uuid.UUID
}

func (s ByVersionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("version_id = ?", s.VersionID)
}

// ByStatus filters by a single status value.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// NonTerminalJob matches jobs that may still transition (queued, processing,
// retry_ready).
type NonTerminalJob struct{}

func (s NonTerminalJob) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{"queued", "processing", "retry_ready"})
}

// ForUpdate takes a row lock, serializing the read against concurrent
// lifecycle updates committed by other transactions.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
