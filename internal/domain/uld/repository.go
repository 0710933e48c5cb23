package uld

// Repository is the authoritative store of ULD state.
//
// Implementations hand out copies; callers never hold a pointer into the store.
// List preserves insertion order. ApplyReport and Update return ErrULDNotFound for
// unknown ids and never create a ULD implicitly.
type Repository interface {
	Create(u *ULD) error
	Get(id string) (ULD, error)
	List() []ULD
	IDs() []string
	Count() int
	ApplyReport(id string, patch *Patch) (ULD, error)
	Update(id string, fn func(u *ULD)) (ULD, error)
}
