package view

// ViewModel owns the front-end state: the cache, the active query and the
// container last rendered from them. It is used from a single event loop
// and is not safe for concurrent use.
type ViewModel struct {
	cache     FileCache
	query     string
	container Fragment

	issued  uint64
	applied uint64
}

// NewViewModel returns a view model with an empty cache and the placeholder
// rendered.
func NewViewModel() *ViewModel {
	vm := &ViewModel{}
	vm.cache.Replace(nil)
	vm.rerender()
	return vm
}

// NextTicket numbers a list request. Pass it back to ApplyListing with the
// response.
func (vm *ViewModel) NextTicket() uint64 {
	vm.issued++
	return vm.issued
}

// ApplyListing replaces the cache with names and re-renders, unless a
// listing from a later request has already been applied. Responses can
// complete out of order; an older one must not overwrite a newer one.
func (vm *ViewModel) ApplyListing(ticket uint64, names []string) bool {
	if ticket < vm.applied {
		return false
	}
	vm.applied = ticket
	vm.cache.Replace(names)
	vm.rerender()
	return true
}

// SetQuery changes the filter and re-renders.
func (vm *ViewModel) SetQuery(query string) {
	vm.query = query
	vm.rerender()
}

// Query returns the active filter text.
func (vm *ViewModel) Query() string {
	return vm.query
}

// Names returns the cached names, unfiltered.
func (vm *ViewModel) Names() []string {
	return vm.cache.Names()
}

// Visible returns the names that pass the active filter.
func (vm *ViewModel) Visible() []string {
	return Filter(vm.cache.Names(), vm.query)
}

// Container returns the last rendered fragment.
func (vm *ViewModel) Container() Fragment {
	return vm.container
}

func (vm *ViewModel) rerender() {
	vm.container = Render(Filter(vm.cache.names, vm.query))
}
