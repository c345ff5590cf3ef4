package render

// Descriptor pairs an engine with the priority it was registered under.
type Descriptor struct {
	Engine   Engine
	Priority int
}

// Name returns the engine name, or "" for an empty descriptor.
func (d Descriptor) Name() string {
	if d.Engine == nil {
		return ""
	}
	return d.Engine.Name()
}

// DescriptorOption customises a Descriptor built with Describe.
type DescriptorOption func(*Descriptor)

// WithPriority sets an explicit priority, overriding Prioritized.
func WithPriority(priority int) DescriptorOption {
	return func(d *Descriptor) {
		d.Priority = priority
	}
}

// WithFallbackPriority sets the priority used when the engine does not
// implement Prioritized. Options apply in order, so a later WithPriority
// replaces it.
func WithFallbackPriority(priority int) DescriptorOption {
	return func(d *Descriptor) {
		if _, ok := d.Engine.(Prioritized); !ok {
			d.Priority = priority
		}
	}
}

// Describe builds a descriptor for engine. Priority comes from the options,
// then from Prioritized, then DefaultPriority.
func Describe(engine Engine, options ...DescriptorOption) Descriptor {
	d := Descriptor{Engine: engine, Priority: DefaultPriority}
	if p, ok := engine.(Prioritized); ok {
		d.Priority = p.Priority()
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&d)
	}
	return d
}

// Provider enumerates engine descriptors. Registries call every provider once
// at construction.
type Provider func() []Descriptor

// Engines returns a Provider describing each engine with its own priority.
func Engines(engines ...Engine) Provider {
	return func() []Descriptor {
		out := make([]Descriptor, 0, len(engines))
		for _, engine := range engines {
			if engine == nil {
				continue
			}
			out = append(out, Describe(engine))
		}
		return out
	}
}

// EnginesAt is Engines with priority in place of DefaultPriority for engines
// that do not declare one.
func EnginesAt(priority int, engines ...Engine) Provider {
	return func() []Descriptor {
		out := make([]Descriptor, 0, len(engines))
		for _, engine := range engines {
			if engine == nil {
				continue
			}
			out = append(out, Describe(engine, WithFallbackPriority(priority)))
		}
		return out
	}
}

// Descriptors returns a Provider yielding the supplied descriptors as-is.
func Descriptors(descriptors ...Descriptor) Provider {
	return func() []Descriptor {
		return append([]Descriptor(nil), descriptors...)
	}
}
