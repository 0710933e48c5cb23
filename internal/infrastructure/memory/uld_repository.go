package memory

import (
	"sync"
	"time"

	"uld-tracker/internal/domain/uld"
)

// ULDRepository is the in-memory asset registry. The zero value is not usable;
// construct it with NewULDRepository.
type ULDRepository struct {
	mu    sync.RWMutex
	items map[string]*uld.ULD
	order []string
	now   func() time.Time
}

func NewULDRepository() *ULDRepository {
	return &ULDRepository{
		items: make(map[string]*uld.ULD),
		now:   time.Now,
	}
}

// WithClock overrides the timestamp source; used by tests.
func (r *ULDRepository) WithClock(now func() time.Time) *ULDRepository {
	r.now = now
	return r
}

func (r *ULDRepository) Create(u *uld.ULD) error {
	if u == nil || u.ID == "" {
		return &uld.ValidationError{Field: "id", Message: "id is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.ID]; exists {
		return uld.ErrULDAlreadyExists
	}

	stored := u.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	if stored.LastUpdate.IsZero() {
		stored.LastUpdate = stored.CreatedAt
	}

	r.items[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *ULDRepository) Get(id string) (uld.ULD, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return uld.ULD{}, uld.ErrULDNotFound
	}
	return u.Clone(), nil
}

func (r *ULDRepository) List() []uld.ULD {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uld.ULD, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out
}

func (r *ULDRepository) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *ULDRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ApplyReport validates the whole patch first so an invalid field never leaves
// the stored ULD half-written.
func (r *ULDRepository) ApplyReport(id string, patch *uld.Patch) (uld.ULD, error) {
	if err := patch.Validate(); err != nil {
		return uld.ULD{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return uld.ULD{}, uld.ErrULDNotFound
	}

	patch.Apply(u, r.now())
	return u.Clone(), nil
}

// Update runs fn against a scratch copy and commits it only if fn returns
// normally, so a panicking mutation leaves the stored ULD untouched.
func (r *ULDRepository) Update(id string, fn func(u *uld.ULD)) (uld.ULD, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return uld.ULD{}, uld.ErrULDNotFound
	}

	scratch := u.Clone()
	fn(&scratch)
	scratch.ID = u.ID
	scratch.Type = u.Type
	scratch.Airport = u.Airport
	scratch.CreatedAt = u.CreatedAt
	scratch.LastUpdate = r.now()

	*u = scratch
	return u.Clone(), nil
}
