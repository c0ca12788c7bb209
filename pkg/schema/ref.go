package schema

// Resolver looks up the qualified name registered for a structure id.
type Resolver interface {
	Resolve(id string) (string, bool)
}

// NameTable relates structure ids found in a document to qualified names
// such as "table" or "table.column".
type NameTable struct {
	names map[string]string
}

// NewNameTable returns an empty table.
func NewNameTable() *NameTable {
	return &NameTable{names: make(map[string]string)}
}

// Register records name for id, replacing any earlier registration.
func (t *NameTable) Register(id, name string) {
	t.names[id] = name
}

// Resolve implements Resolver.
func (t *NameTable) Resolve(id string) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Len returns the number of registered ids.
func (t *NameTable) Len() int {
	return len(t.names)
}

// SymbolicRef is a reference to a structure by id. It is resolved against its
// table every time it is read, so ids registered after the reference was
// created still resolve. Unknown ids resolve to themselves.
type SymbolicRef struct {
	ID       string
	resolver Resolver
}

// NewRef returns a reference to id resolved through r.
func NewRef(id string, r Resolver) *SymbolicRef {
	return &SymbolicRef{ID: id, resolver: r}
}

// String returns the resolved name.
func (r *SymbolicRef) String() string {
	if r.resolver != nil {
		if name, ok := r.resolver.Resolve(r.ID); ok {
			return name
		}
	}
	return r.ID
}

// Equal compares resolved names.
func (r *SymbolicRef) Equal(other *SymbolicRef) bool {
	return r.String() == other.String()
}

// Less orders references by resolved name.
func (r *SymbolicRef) Less(other *SymbolicRef) bool {
	return r.String() < other.String()
}
