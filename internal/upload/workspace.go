package upload

import (
	"sync"

	"github.com/google/uuid"

	"salesintake/internal/domain"
)

// Workspace holds the single active intake item of each principal.
type Workspace struct {
	mu    sync.Mutex
	items map[string]*domain.IntakeItem
}

// NewWorkspace creates an empty Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{items: make(map[string]*domain.IntakeItem)}
}

// Stage makes item the owner's active item, replacing any previous one.
func (w *Workspace) Stage(owner string, item *domain.IntakeItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items[owner] = item
}

// Current returns a copy of the owner's active item.
func (w *Workspace) Current(owner string) (domain.IntakeItem, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item, ok := w.items[owner]
	if !ok {
		return domain.IntakeItem{}, false
	}
	return *item, true
}

// Discard drops the owner's active item.
func (w *Workspace) Discard(owner string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.items, owner)
}

// BeginUpload moves the owner's active item to uploading and returns a
// snapshot to hand to the orchestrator.
func (w *Workspace) BeginUpload(owner string) (*domain.IntakeItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item, ok := w.items[owner]
	if !ok {
		return nil, domain.ErrNoActiveItem
	}
	if item.Status == domain.ItemStatusUploading {
		return nil, domain.ErrUploadInProgress
	}
	if err := item.CheckUploadable(); err != nil {
		return nil, err
	}
	item.Status = domain.ItemStatusUploading
	item.Progress = 0
	item.Error = ""
	snapshot := *item
	return &snapshot, nil
}

// SetProgress records upload progress on the item if it is still active.
func (w *Workspace) SetProgress(owner string, id uuid.UUID, pct int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if item, ok := w.active(owner, id); ok && pct > item.Progress {
		item.Progress = pct
	}
}

// Finish settles an upload. Success clears the active item; failure leaves it
// in error with a message so the user can retry.
func (w *Workspace) Finish(owner string, id uuid.UUID, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item, ok := w.active(owner, id)
	if !ok {
		return
	}
	if err == nil {
		delete(w.items, owner)
		return
	}
	item.Status = domain.ItemStatusError
	item.Error = err.Error()
}

// Track mirrors op onto the owner's item until it finishes.
func (w *Workspace) Track(owner string, id uuid.UUID, op *Operation) (*domain.UploadResult, error) {
	for pct := range op.Progress() {
		w.SetProgress(owner, id, pct)
	}
	result, err := op.Wait()
	w.Finish(owner, id, err)
	return result, err
}

func (w *Workspace) active(owner string, id uuid.UUID) (*domain.IntakeItem, bool) {
	item, ok := w.items[owner]
	if !ok || item.ID != id {
		return nil, false
	}
	return item, true
}
