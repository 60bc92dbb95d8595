// Package selection owns the process-wide project selection: the list of
// projects available to the current user, the single selected project id,
// and loading/error status. It is the only writer of the selected id.
package selection

import (
	"context"
	"math"
	"sync"
	"time"

	"plancore/internal/observe"
	"plancore/internal/prefs"
	"plancore/internal/recordsvc"
	"plancore/internal/session"
	"plancore/pkg/domain"
)

// State is an immutable snapshot published to subscribers.
type State struct {
	Projects   []domain.Project
	SelectedID string
	Loading    bool
	Err        string
}

// Store is the single source of truth for which project is active.
type Store struct {
	mu       sync.Mutex
	projects []domain.Project
	selected string
	loading  bool
	err      string
	loadGen  uint64

	projectsCol recordsvc.Collection[domain.Project]
	tasksCol    recordsvc.Collection[domain.Task]
	sess        session.Provider
	state       *prefs.File
	log         observe.Logger
	metrics     observe.MetricsRecorder

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New constructs a selection store over the given backend and session. When
// a prefs file is configured, the persisted selection is restored.
func New(backend recordsvc.Backend, sess session.Provider, opts ...Option) *Store {
	s := &Store{
		projectsCol: recordsvc.NewCollection[domain.Project](backend, string(domain.CollectionProjects)),
		tasksCol:    recordsvc.NewCollection[domain.Task](backend, string(domain.CollectionTasks)),
		sess:        sess,
		log:         observe.NopLogger{},
		metrics:     observe.NopMetrics{},
		subs:        make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state != nil {
		s.selected = s.state.SelectedProject()
	}
	return s
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// LoadProjects fetches all projects owned by the current user, newest first,
// enriching each with derived task progress. A failed enrichment is isolated
// per project; a failed top-level fetch records the error and leaves the
// list unchanged. Responses from loads that were superseded by a newer call
// are discarded.
func (s *Store) LoadProjects(ctx context.Context) error {
	start := time.Now()
	ident, err := s.sess.Identity(ctx)
	if err != nil {
		s.recordErr(err)
		s.observe(ctx, "load_projects", start, err)
		return err
	}

	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.notify()

	rows, err := s.projectsCol.Select(ctx,
		recordsvc.Filter{"owner_id": ident},
		recordsvc.Order{Field: "created_at", Descending: true})
	if err != nil {
		s.mu.Lock()
		if gen == s.loadGen {
			s.loading = false
			s.err = err.Error()
		}
		s.mu.Unlock()
		s.notify()
		s.observe(ctx, "load_projects", start, err)
		return err
	}
	for i := range rows {
		s.enrich(ctx, &rows[i])
	}

	s.mu.Lock()
	if gen != s.loadGen {
		// A newer load owns the state; drop this response.
		s.mu.Unlock()
		s.observe(ctx, "load_projects", start, nil)
		return nil
	}
	s.projects = rows
	s.loading = false
	if s.selected == "" && len(rows) > 0 {
		s.selected = rows[0].ID
		s.persistSelectionLocked()
	}
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "load_projects", start, nil)
	return nil
}

// enrich computes derived progress and task count for one project. Lookup
// failures are logged and defaulted, never surfaced.
func (s *Store) enrich(ctx context.Context, p *domain.Project) {
	tasks, err := s.tasksCol.Select(ctx,
		recordsvc.Filter{"project_id": p.ID}, recordsvc.Order{})
	if err != nil {
		s.log.Warn("task progress lookup failed", "project", p.ID, "error", err)
		p.Progress = 0
		p.TaskCount = 0
		return
	}
	p.TaskCount = len(tasks)
	if len(tasks) == 0 {
		p.Progress = 0
		return
	}
	var sum int
	for _, t := range tasks {
		sum += t.Progress
	}
	p.Progress = int(math.Round(float64(sum) / float64(len(tasks))))
}

// Select sets the selection unconditionally; an empty id clears it. The id
// is not validated against the loaded list: the URL is treated as shareable
// context and a stale id simply selects a project with no loaded records.
func (s *Store) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.persistSelectionLocked()
	s.mu.Unlock()
	s.notify()
}

// Create inserts a new project under the current user, prepends it to the
// list, and makes it the selection. Validation is the caller's concern.
func (s *Store) Create(ctx context.Context, p domain.Project) (domain.Project, error) {
	start := time.Now()
	ident, err := s.sess.Identity(ctx)
	if err != nil {
		s.recordErr(err)
		s.observe(ctx, "create_project", start, err)
		return domain.Project{}, err
	}
	p.OwnerID = ident
	inserted, err := s.projectsCol.Insert(ctx, []domain.Project{p})
	if err != nil {
		s.recordErr(err)
		s.observe(ctx, "create_project", start, err)
		return domain.Project{}, err
	}
	created := inserted[0]
	created.Progress = 0
	created.TaskCount = 0

	s.mu.Lock()
	s.projects = append([]domain.Project{created}, s.projects...)
	s.selected = created.ID
	s.persistSelectionLocked()
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "create_project", start, nil)
	return created, nil
}

// Update verifies local ownership, issues the remote update, and merges the
// patch into the local record unconditionally on success. No server row is
// re-read.
func (s *Store) Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	start := time.Now()
	ident, err := s.sess.Identity(ctx)
	if err != nil {
		s.recordErr(err)
		s.observe(ctx, "update_project", start, err)
		return domain.Project{}, err
	}
	if err := s.checkOwnership(id, ident); err != nil {
		s.recordErr(err)
		s.observe(ctx, "update_project", start, err)
		return domain.Project{}, err
	}
	if err := s.projectsCol.Update(ctx,
		recordsvc.Filter{"id": id, "owner_id": ident},
		recordsvc.Patch(patch.Fields())); err != nil {
		s.recordErr(err)
		s.observe(ctx, "update_project", start, err)
		return domain.Project{}, err
	}

	var updated domain.Project
	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			mergeProject(&s.projects[i], patch)
			s.projects[i].UpdatedAt = time.Now().UTC()
			updated = s.projects[i]
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "update_project", start, nil)
	return updated, nil
}

// Delete verifies ownership, issues the remote delete, then removes the
// record locally, clearing the selection if it was the one removed. Both
// local effects land in a single state update.
func (s *Store) Delete(ctx context.Context, id string) error {
	start := time.Now()
	ident, err := s.sess.Identity(ctx)
	if err != nil {
		s.recordErr(err)
		s.observe(ctx, "delete_project", start, err)
		return err
	}
	if err := s.checkOwnership(id, ident); err != nil {
		s.recordErr(err)
		s.observe(ctx, "delete_project", start, err)
		return err
	}
	if err := s.projectsCol.Delete(ctx,
		recordsvc.Filter{"id": id, "owner_id": ident}); err != nil {
		s.recordErr(err)
		s.observe(ctx, "delete_project", start, err)
		return err
	}

	s.mu.Lock()
	kept := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.projects = kept
	if s.selected == id {
		s.selected = ""
		s.persistSelectionLocked()
	}
	s.mu.Unlock()
	s.notify()
	s.observe(ctx, "delete_project", start, nil)
	return nil
}

// SelectedID returns the currently selected project id, empty when none.
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Selected returns the currently selected project from the loaded list.
func (s *Store) Selected() (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == s.selected {
			return p, true
		}
	}
	return domain.Project{}, false
}

// ProjectByID returns a project from the loaded list.
func (s *Store) ProjectByID(id string) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// Projects returns a copy of the loaded project list.
func (s *Store) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// State returns a snapshot of the store.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := make([]domain.Project, len(s.projects))
	copy(projects, s.projects)
	return State{
		Projects:   projects,
		SelectedID: s.selected,
		Loading:    s.loading,
		Err:        s.err,
	}
}

func (s *Store) checkOwnership(id, ident string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			if p.OwnerID != ident {
				return domain.AccessDeniedError{Collection: domain.CollectionProjects, ID: id}
			}
			return nil
		}
	}
	return domain.NotFoundError{Collection: domain.CollectionProjects, ID: id}
}

func (s *Store) persistSelectionLocked() {
	if s.state == nil {
		return
	}
	if err := s.state.SetSelectedProject(s.selected); err != nil {
		s.log.Warn("persist selection failed", "error", err)
	}
}

func (s *Store) recordErr(err error) {
	s.mu.Lock()
	s.err = err.Error()
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	state := s.State()
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

func mergeProject(p *domain.Project, patch domain.ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.StartDate != nil {
		p.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = patch.EndDate
	}
	if patch.Budget != nil {
		p.Budget = patch.Budget
	}
	if patch.CurrencyCode != nil {
		p.CurrencyCode = *patch.CurrencyCode
	}
	if patch.Location != nil {
		p.Location = patch.Location
	}
}
