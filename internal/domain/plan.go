package domain

import "sort"

// Plan is a yearly procurement budget owning one or more versions.
type Plan struct {
	ID        int64     `json:"id"`
	Name      string    `json:"plan_name"`
	Year      int       `json:"year"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt Timestamp `json:"created_at"`
	Versions  []Version `json:"versions"`
}

// Version is a snapshot of a plan's line items.
type Version struct {
	ID               int64       `json:"id"`
	PlanID           int64       `json:"plan_id"`
	Number           int         `json:"version_number"`
	Status           PlanStatus  `json:"status"`
	TotalAmount      Amount      `json:"total_amount"`
	ImportPercentage Amount      `json:"import_percentage"`
	KtpPercentage    Amount      `json:"ktp_percentage"`
	VCPercentage     Amount      `json:"vc_percentage"`
	VCAmount         Amount      `json:"vc_amount"`
	VCMean           Amount      `json:"vc_mean"`
	VCMedian         Amount      `json:"vc_median"`
	IsActive         bool        `json:"is_active"`
	IsExecuted       bool        `json:"is_executed"`
	CreatedAt        Timestamp   `json:"created_at"`
	Creator          *UserLookup `json:"creator,omitempty"`
	Items            []Item      `json:"items,omitempty"`
}

// ActiveVersion returns the version flagged active, if any.
func (p *Plan) ActiveVersion() (*Version, bool) {
	for i := range p.Versions {
		if p.Versions[i].IsActive {
			return &p.Versions[i], true
		}
	}
	return nil, false
}

// LatestVersion returns the version with the highest number.
func (p *Plan) LatestVersion() (*Version, bool) {
	var latest *Version
	for i := range p.Versions {
		if latest == nil || p.Versions[i].Number > latest.Number {
			latest = &p.Versions[i]
		}
	}
	return latest, latest != nil
}

// SortedVersions returns versions ordered by number, newest first.
func (p *Plan) SortedVersions() []Version {
	out := make([]Version, len(p.Versions))
	copy(out, p.Versions)
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out
}

// CanDelete reports whether the whole plan may be deleted: every version
// must still be a draft.
func (p *Plan) CanDelete() bool {
	for _, v := range p.Versions {
		if v.Status != StatusDraft {
			return false
		}
	}
	return true
}

// CanDeleteLatestVersion reports whether the newest version may be dropped.
// The first version can never be removed this way.
func (p *Plan) CanDeleteLatestVersion() bool {
	v, ok := p.LatestVersion()
	return ok && v.Status == StatusDraft && v.Number > 1
}

// CanCreateVersion reports whether a new draft can be cloned from the
// active version.
func (p *Plan) CanCreateVersion() bool {
	v, ok := p.ActiveVersion()
	return ok && v.Status != StatusDraft
}

// IsEditable reports whether items of the active version may change.
func (p *Plan) IsEditable() bool {
	v, ok := p.ActiveVersion()
	return ok && v.Editable()
}

// DisplayStatus returns the status shown to users; an executed version
// displays as executed regardless of its workflow status.
func (p *Plan) DisplayStatus() PlanStatus {
	v, ok := p.ActiveVersion()
	if !ok {
		return StatusDraft
	}
	return v.DisplayStatus()
}

// ActiveTotal returns the active version's total or zero.
func (p *Plan) ActiveTotal() Amount {
	if v, ok := p.ActiveVersion(); ok {
		return v.TotalAmount
	}
	return 0
}

// Editable reports whether the version accepts item changes.
func (v *Version) Editable() bool {
	return v.IsActive && v.Status == StatusDraft
}

func (v *Version) DisplayStatus() PlanStatus {
	if v.IsExecuted {
		return StatusExecuted
	}
	return v.Status
}

// LiveItemCount counts items that are not soft-deleted.
func (v *Version) LiveItemCount() int {
	n := 0
	for _, it := range v.Items {
		if !it.IsDeleted {
			n++
		}
	}
	return n
}

// FindItem returns the item with the given id in this version.
func (v *Version) FindItem(id int64) (*Item, bool) {
	for i := range v.Items {
		if v.Items[i].ID == id {
			return &v.Items[i], true
		}
	}
	return nil, false
}
