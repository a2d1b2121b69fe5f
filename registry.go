package brewsvc

// Registry holds the last successfully parsed snapshot.
//
// It is owned by the engine loop and is not safe for concurrent use.
type Registry struct {
	snapshot Snapshot
	loaded   bool
	index    map[string]int
}

// NewRegistry returns an empty registry with no snapshot
func NewRegistry() *Registry {
	return &Registry{}
}

// Replace installs a new snapshot. If a name repeats, Lookup returns the
// first occurrence.
func (r *Registry) Replace(s Snapshot) {
	if s == nil {
		s = Snapshot{}
	}
	r.snapshot = s
	r.loaded = true
	r.index = make(map[string]int, len(s))
	for i, svc := range s {
		if _, dup := r.index[svc.Name]; !dup {
			r.index[svc.Name] = i
		}
	}
}

// Snapshot returns the current snapshot and whether one has been loaded
func (r *Registry) Snapshot() (Snapshot, bool) {
	return r.snapshot, r.loaded
}

// Loaded reports whether at least one poll succeeded
func (r *Registry) Loaded() bool {
	return r.loaded
}

// Len returns the number of services in the current snapshot
func (r *Registry) Len() int {
	return len(r.snapshot)
}

// Lookup returns the record named name
func (r *Registry) Lookup(name string) (ServiceRecord, bool) {
	i, ok := r.index[name]
	if !ok {
		return ServiceRecord{}, false
	}
	return r.snapshot[i], true
}
