package commands

// RegisterAll registers the full built-in command set on a registry.
func RegisterAll(r *Registry) {
	r.Register(&WriteOutput{})
	r.Register(&WhereObject{})
	r.Register(&ForEachObject{})
	r.Register(&SelectObject{})
	r.Register(&SortObject{})
	r.Register(&GroupObject{})
	r.Register(&GetProcess{})
	r.Register(&GetChildItem{})
	r.Register(&GetContent{})
	r.Register(&SetContent{})
	r.Register(&NewItem{})
	r.Register(&RemoveItem{})
	r.Register(&TestPath{})
	r.Register(&GetDate{})
	r.Register(&NewGuid{})
}

// DefaultRegistry returns a registry preloaded with every built-in.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterAll(r)
	return r
}
