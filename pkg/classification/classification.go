// Package classification validates tenant document classifications and
// derives the side effects a classification change has on stored artifacts.
package classification

import (
	"fmt"

	"hebelki-knowledge-be/internal/constant"
	"hebelki-knowledge-be/internal/entity"

	"github.com/google/uuid"
)

// InvalidEnumError reports a classification field holding a value outside its
// allowed set.
type InvalidEnumError struct {
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// InvalidScopeError reports a scope_type / scope_id pair that violates the
// pairing rule (global carries no id, every other scope requires one).
type InvalidScopeError struct {
	ScopeType string
	HasId     bool
}

func (e *InvalidScopeError) Error() string {
	if e.HasId {
		return fmt.Sprintf("scope_type %q must not carry a scope_id", e.ScopeType)
	}
	return fmt.Sprintf("scope_type %q requires a scope_id", e.ScopeType)
}

// Validate checks every enum field and the scope pairing rule.
func Validate(c *entity.Classification) error {
	if !constant.ValidAudiences[c.Audience] {
		return &InvalidEnumError{Field: "audience", Value: c.Audience}
	}
	if !constant.ValidScopeTypes[c.ScopeType] {
		return &InvalidEnumError{Field: "scope_type", Value: c.ScopeType}
	}
	if !constant.ValidDataClasses[c.DataClass] {
		return &InvalidEnumError{Field: "data_class", Value: c.DataClass}
	}
	if !constant.ValidAuthorityLevels[c.AuthorityLevel] {
		return &InvalidEnumError{Field: "authority_level", Value: c.AuthorityLevel}
	}

	if c.ScopeType == constant.ScopeTypeGlobal {
		if c.ScopeId != nil {
			return &InvalidScopeError{ScopeType: c.ScopeType, HasId: true}
		}
	} else if c.ScopeId == nil {
		return &InvalidScopeError{ScopeType: c.ScopeType, HasId: false}
	}
	return nil
}

// ApplyDefaults fills unset classification fields and forces the tabular
// policy: spreadsheet-like uploads are never embedded and are treated as
// containing personal data until a reviewer says otherwise. The extension is
// the lower-cased one of the uploaded filename, empty for scraped pages.
func ApplyDefaults(c *entity.Classification, ext string) {
	if c.Audience == "" {
		c.Audience = constant.AudienceInternal
	}
	if c.ScopeType == "" {
		c.ScopeType = constant.ScopeTypeGlobal
	}
	if c.AuthorityLevel == "" {
		c.AuthorityLevel = constant.AuthorityNormal
	}

	if constant.TabularFormats[ext] {
		c.DataClass = constant.DataClassStoredOnly
		c.ContainsPii = true
		return
	}
	if c.DataClass == "" {
		c.DataClass = constant.DataClassKnowledge
	}
}

// Plan is the set of side effects a classification transition requires.
type Plan struct {
	// TeardownChunks drops the chunks and embeddings of the active version.
	TeardownChunks bool
	// EnqueueReingest schedules a fresh ingestion for the active version.
	EnqueueReingest bool
	// CancelActiveJobs terminates in-flight jobs for the active version.
	CancelActiveJobs bool
}

func (p Plan) IsNoop() bool {
	return !p.TeardownChunks && !p.EnqueueReingest && !p.CancelActiveJobs
}

// Transition computes the side effects of moving from one classification to
// another. Only the data_class axis changes stored artifacts; audience,
// scope and authority are metadata updates with no pipeline effect.
func Transition(before, after *entity.Classification) Plan {
	if before.DataClass == after.DataClass {
		return Plan{}
	}
	if after.DataClass == constant.DataClassStoredOnly {
		return Plan{TeardownChunks: true, CancelActiveJobs: true}
	}
	// stored_only -> knowledge
	return Plan{EnqueueReingest: true}
}

// ScopeRef is a convenience for callers building a scoped classification.
func ScopeRef(id uuid.UUID) *uuid.UUID {
	return &id
}
