// Package disclosure decides how much of an intake result a principal may see.
package disclosure

import (
	"time"

	"github.com/google/uuid"

	"salesintake/internal/config"
	"salesintake/internal/domain"
)

// Policy computes per-request disclosure for principals.
type Policy struct {
	elevatedRoles []string
}

// NewPolicy creates a policy granting itemized validation results to the
// configured elevated roles.
func NewPolicy(cfg config.DisclosureConfig) *Policy {
	roles := make([]string, len(cfg.ElevatedRoles))
	copy(roles, cfg.ElevatedRoles)
	return &Policy{elevatedRoles: roles}
}

// Compute derives what p may see. A nil principal sees nothing.
func (pol *Policy) Compute(p *domain.Principal) domain.Disclosure {
	internal := p.IsInternal()
	return domain.Disclosure{
		CanViewPreview:           internal,
		CanViewValidationDetails: internal && p.HasRole(pol.elevatedRoles...),
	}
}

// ValidationView is the disclosed part of a validation report.
type ValidationView struct {
	OK         bool     `json:"ok"`
	RowCount   int      `json:"row_count"`
	IssueCount *int     `json:"issue_count,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// ItemView is an intake item as rendered for one viewer.
type ItemView struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	SizeBytes  int64             `json:"size_bytes"`
	Status     domain.ItemStatus `json:"status"`
	Progress   int               `json:"progress"`
	Error      string            `json:"error,omitempty"`
	Validation *ValidationView   `json:"validation,omitempty"`
	Preview    *domain.Preview   `json:"preview,omitempty"`
	CanUpload  bool              `json:"can_upload"`
	CreatedAt  time.Time         `json:"created_at"`
}

// View renders item under d. Mechanical failures are always visible;
// validation issues only to entitled viewers. Upload eligibility does not
// depend on d, only on the item and whether uploads are configured.
func View(item *domain.IntakeItem, d domain.Disclosure, uploadsEnabled bool) ItemView {
	v := ItemView{
		ID:        item.ID,
		Name:      item.Name,
		SizeBytes: item.SizeBytes,
		Status:    item.Status,
		Progress:  item.Progress,
		Error:     item.Error,
		CanUpload: uploadsEnabled && item.Uploadable(),
		CreatedAt: item.CreatedAt,
	}

	if rep := item.Validation; rep != nil {
		switch {
		case d.CanViewValidationDetails:
			n := len(rep.Errors)
			errs := make([]string, n)
			copy(errs, rep.Errors)
			v.Validation = &ValidationView{OK: rep.OK, RowCount: rep.RowCount, IssueCount: &n, Errors: errs}
		case rep.OK:
			v.Validation = &ValidationView{OK: true, RowCount: rep.RowCount}
		}
	}

	if d.CanViewPreview && item.Preview != nil {
		v.Preview = item.Preview
	}
	return v
}
