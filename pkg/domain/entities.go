// Package domain defines the persistent entities, value types, and errors
// shared by the plancore stores.
package domain

import "time"

// Collection names a record collection at the remote record service.
type Collection string

// Collections the core reads and writes. Every remote call is scoped to one
// of these plus an owner or project filter.
const (
	// CollectionProjects holds project records.
	CollectionProjects Collection = "projects"
	// CollectionTasks holds task records, read only for progress enrichment.
	CollectionTasks Collection = "tasks"
	// CollectionCharterSections holds per-project charter sections.
	CollectionCharterSections Collection = "charter_sections"
	// CollectionRiskEntries holds per-project risk register entries.
	CollectionRiskEntries Collection = "risk_entries"
)

// ProjectCategory classifies a project by domain type.
type ProjectCategory string

// Supported project categories.
const (
	CategoryResidential    ProjectCategory = "residential"
	CategoryCommercial     ProjectCategory = "commercial"
	CategoryIndustrial     ProjectCategory = "industrial"
	CategoryInfrastructure ProjectCategory = "infrastructure"
	CategoryRenovation     ProjectCategory = "renovation"
)

// ProjectStatus captures the project lifecycle state.
type ProjectStatus string

// Canonical project lifecycle statuses.
const (
	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"
)

// TaskStatus captures the workflow state of a task record.
type TaskStatus string

// Canonical task statuses.
const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// RiskCategory classifies a risk register entry.
type RiskCategory string

// Supported risk categories.
const (
	RiskTechnical  RiskCategory = "technical"
	RiskSchedule   RiskCategory = "schedule"
	RiskCost       RiskCategory = "cost"
	RiskSafety     RiskCategory = "safety"
	RiskRegulatory RiskCategory = "regulatory"
	RiskExternal   RiskCategory = "external"
)

// RiskStatus captures the mitigation state of a risk entry.
type RiskStatus string

// Canonical risk statuses.
const (
	RiskOpen       RiskStatus = "open"
	RiskMitigating RiskStatus = "mitigating"
	RiskClosed     RiskStatus = "closed"
)

// Source records the provenance of a feature record.
type Source string

// Record provenance values.
const (
	// SourceHuman marks a record authored by a user.
	SourceHuman Source = "human"
	// SourceGenerated marks a record produced by an assistant.
	SourceGenerated Source = "generated"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordID returns the record identifier.
func (b Base) RecordID() string { return b.ID }

// Project identifies a unit of work a user plans against.
type Project struct {
	Base
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Category     ProjectCategory `json:"category"`
	Status       ProjectStatus   `json:"status"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	Budget       *float64        `json:"budget,omitempty"`
	CurrencyCode string          `json:"currency_code,omitempty"`
	Location     *string         `json:"location,omitempty"`
	OwnerID      string          `json:"owner_id"`

	// Derived at load time from task records, never persisted.
	Progress  int `json:"-"`
	TaskCount int `json:"-"`
}

// Task is the minimal task shape the core reads to derive project progress.
type Task struct {
	Base
	ProjectID string     `json:"project_id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
}

// RecordProjectID returns the owning project id.
func (t Task) RecordProjectID() string { return t.ProjectID }

// CharterSection is one ordered section of a project charter.
type CharterSection struct {
	Base
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Position  int    `json:"position"`
	Completed bool   `json:"completed"`
	Source    Source `json:"source"`
}

// RecordProjectID returns the owning project id.
func (s CharterSection) RecordProjectID() string { return s.ProjectID }

// RiskEntry is one row of a project risk register. Score is always
// Probability times Impact; it is stored so the remote service can order by
// it, and recomputed on every write that touches either factor.
type RiskEntry struct {
	Base
	ProjectID   string       `json:"project_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    RiskCategory `json:"category"`
	Probability int          `json:"probability"`
	Impact      int          `json:"impact"`
	Score       int          `json:"score"`
	Status      RiskStatus   `json:"status"`
	Mitigation  string       `json:"mitigation,omitempty"`
	Source      Source       `json:"source"`
}

// RecordProjectID returns the owning project id.
func (r RiskEntry) RecordProjectID() string { return r.ProjectID }

// ComputeScore returns probability times impact.
func (r RiskEntry) ComputeScore() int { return r.Probability * r.Impact }
