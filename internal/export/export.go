// Package export writes project snapshots to blob storage as JSON
// documents suitable for sharing or archival.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"plancore/internal/blob"
	"plancore/pkg/domain"
)

// Document is the exported snapshot of a single project and its tool data.
type Document struct {
	Project    domain.Project          `json:"project"`
	Sections   []domain.CharterSection `json:"charter_sections,omitempty"`
	Risks      []domain.RiskEntry      `json:"risks,omitempty"`
	ExportedAt time.Time               `json:"exported_at"`
}

// Exporter serializes project snapshots into a blob store.
type Exporter struct {
	store blob.Store
	nowFn func() time.Time
}

// NewExporter returns an Exporter writing to store.
func NewExporter(store blob.Store) *Exporter {
	return &Exporter{store: store, nowFn: time.Now}
}

// SetClock overrides the exporter clock; intended for tests.
func (e *Exporter) SetClock(now func() time.Time) {
	if now != nil {
		e.nowFn = now
	}
}

// Export writes a snapshot document and returns its blob info. Keys are
// derived from the project name so exports stay human-navigable.
func (e *Exporter) Export(ctx context.Context, project domain.Project, sections []domain.CharterSection, risks []domain.RiskEntry) (blob.Info, error) {
	if project.ID == "" {
		return blob.Info{}, fmt.Errorf("export requires a persisted project")
	}
	now := e.nowFn().UTC()
	doc := Document{
		Project:    project,
		Sections:   sections,
		Risks:      risks,
		ExportedAt: now,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode export: %w", err)
	}
	key := Key(project.Name, now)
	info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"project_id":   project.ID,
			"project_name": project.Name,
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store export: %w", err)
	}
	return info, nil
}

// Key builds the blob key for a project export.
func Key(projectName string, at time.Time) string {
	name := slug.Make(projectName)
	if name == "" {
		name = "project"
	}
	return fmt.Sprintf("exports/%s-%s.json", name, at.UTC().Format("20060102T150405Z"))
}

// Read decodes a previously exported document.
func Read(ctx context.Context, store blob.Store, key string) (Document, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	defer rc.Close()
	var doc Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode export %s: %w", key, err)
	}
	return doc, nil
}
