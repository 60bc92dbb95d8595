package domain

import "time"

// ProjectPatch carries a partial project update. Nil fields are left
// untouched by the remote service and by the local merge.
type ProjectPatch struct {
	Name         *string
	Description  *string
	Category     *ProjectCategory
	Status       *ProjectStatus
	StartDate    *time.Time
	EndDate      *time.Time
	Budget       *float64
	CurrencyCode *string
	Location     *string
}

// Fields returns the patch as field-keyed values for the record service.
func (p ProjectPatch) Fields() map[string]any {
	out := map[string]any{}
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Category != nil {
		out["category"] = string(*p.Category)
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.StartDate != nil {
		out["start_date"] = p.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if p.EndDate != nil {
		out["end_date"] = p.EndDate.UTC().Format(time.RFC3339Nano)
	}
	if p.Budget != nil {
		out["budget"] = *p.Budget
	}
	if p.CurrencyCode != nil {
		out["currency_code"] = *p.CurrencyCode
	}
	if p.Location != nil {
		out["location"] = *p.Location
	}
	return out
}

// CharterSectionPatch carries a partial charter section update.
type CharterSectionPatch struct {
	Title     *string
	Content   *string
	Position  *int
	Completed *bool
	Source    *Source
}

// Fields returns the patch as field-keyed values for the record service.
func (p CharterSectionPatch) Fields() map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Content != nil {
		out["content"] = *p.Content
	}
	if p.Position != nil {
		out["position"] = *p.Position
	}
	if p.Completed != nil {
		out["completed"] = *p.Completed
	}
	if p.Source != nil {
		out["source"] = string(*p.Source)
	}
	return out
}

// RiskPatch carries a partial risk entry update. Probability and impact feed
// the stored score; the risk store recomputes it whenever either is present.
type RiskPatch struct {
	Title       *string
	Description *string
	Category    *RiskCategory
	Probability *int
	Impact      *int
	Status      *RiskStatus
	Mitigation  *string
	Source      *Source
}

// Fields returns the patch as field-keyed values for the record service.
func (p RiskPatch) Fields() map[string]any {
	out := map[string]any{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Category != nil {
		out["category"] = string(*p.Category)
	}
	if p.Probability != nil {
		out["probability"] = *p.Probability
	}
	if p.Impact != nil {
		out["impact"] = *p.Impact
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.Mitigation != nil {
		out["mitigation"] = *p.Mitigation
	}
	if p.Source != nil {
		out["source"] = string(*p.Source)
	}
	return out
}
