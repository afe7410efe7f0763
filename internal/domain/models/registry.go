package models

// Registry is the keyed collection of instrument records. Lookup is by
// symbol; enumeration follows registration order, which is what keeps the
// ranking stable for tied decision values.
type Registry struct {
	byName  map[string]*Instrument
	ordered []*Instrument
	cfg     InstrumentConfig
}

// NewRegistry creates an empty registry; cfg is captured by every
// instrument registered through it.
func NewRegistry(cfg InstrumentConfig) *Registry {
	return &Registry{
		byName: make(map[string]*Instrument),
		cfg:    cfg,
	}
}

// GetOrCreate returns the record for symbol, creating it from the first
// observed value when absent. The second return reports creation.
func (r *Registry) GetOrCreate(symbol string, value float64) (*Instrument, bool) {
	if in, ok := r.byName[symbol]; ok {
		return in, false
	}
	in := NewInstrument(symbol, len(r.ordered), value, r.cfg)
	r.byName[symbol] = in
	r.ordered = append(r.ordered, in)
	return in, true
}

// Get returns the record for symbol, nil when absent.
func (r *Registry) Get(symbol string) *Instrument {
	return r.byName[symbol]
}

// ForEach visits every record in registration order.
func (r *Registry) ForEach(fn func(*Instrument)) {
	for _, in := range r.ordered {
		fn(in)
	}
}

// All returns the records in registration order; the slice is shared, not a
// copy.
func (r *Registry) All() []*Instrument {
	return r.ordered
}

// Len returns the number of registered instruments.
func (r *Registry) Len() int {
	return len(r.ordered)
}
