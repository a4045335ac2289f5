package effects

import "fmt"

// EffectType is the capability set an effect implementation provides:
// its parameter metadata and a per-frame process step. Process operates
// on RGBA8 buffers sized width*height*4 — the CPU-side equivalent of the
// GPU ping-pong pass described by the automation spec's `process(in,
// out, params_snapshot, timing)` contract; every effect in this engine
// runs through it.
type EffectType interface {
	Name() string
	ParamsMetadata() []ParamMeta
	Process(in, out []byte, width, height int, params map[string]ParamValue)
}

// EffectInstance is one entry in an EffectStack: a stable ID, the
// registered effect type, user-assigned name, live parameters and
// bypass/solo flags.
type EffectInstance struct {
	ID       uint32
	TypeName string
	Name     string
	Params   []*Param
	Bypassed bool
	Soloed   bool

	impl EffectType
}

// ParamByName looks up a live parameter by its metadata name.
func (e *EffectInstance) ParamByName(name string) *Param {
	for _, p := range e.Params {
		if p.Meta.Name == name {
			return p
		}
	}
	return nil
}

// EffectStack is an ordered list of EffectInstances attached to one
// scope (environment, a layer, or a clip slot).
type EffectStack struct {
	Scope     string
	instances []*EffectInstance
	nextID    uint32
}

// NewEffectStack returns an empty stack for the given scope label
// ("environment", "layer", or "clip" — used only for logging/debugging).
func NewEffectStack(scope string) *EffectStack {
	return &EffectStack{Scope: scope}
}

// Append registers a new EffectInstance built from the named effect
// type via the package Registry, with a fresh ID unique within the
// stack.
func (s *EffectStack) Append(typeName, name string) (*EffectInstance, error) {
	factory, ok := Registry[typeName]
	if !ok {
		return nil, fmt.Errorf("effects: unknown effect type %q", typeName)
	}
	impl := factory()
	inst := &EffectInstance{
		ID:       s.nextID,
		TypeName: typeName,
		Name:     name,
		impl:     impl,
	}
	s.nextID++
	for _, meta := range impl.ParamsMetadata() {
		inst.Params = append(inst.Params, &Param{Meta: meta, Value: meta.Default})
	}
	s.instances = append(s.instances, inst)
	return inst, nil
}

// RemoveByID removes the instance with the given ID, returning false if
// no such instance exists.
func (s *EffectStack) RemoveByID(id uint32) bool {
	for i, inst := range s.instances {
		if inst.ID == id {
			s.instances = append(s.instances[:i], s.instances[i+1:]...)
			return true
		}
	}
	return false
}

// Instances returns the stack's entries in append order.
func (s *EffectStack) Instances() []*EffectInstance {
	return s.instances
}

// ActiveSet implements the solo/bypass rule: the active set is every
// non-bypassed instance, intersected with the soloed subset if any
// instance is soloed.
func (s *EffectStack) ActiveSet() []*EffectInstance {
	anySoloed := false
	for _, inst := range s.instances {
		if inst.Soloed && !inst.Bypassed {
			anySoloed = true
			break
		}
	}

	var active []*EffectInstance
	for _, inst := range s.instances {
		if inst.Bypassed {
			continue
		}
		if anySoloed && !inst.Soloed {
			continue
		}
		active = append(active, inst)
	}
	return active
}

// Resolve computes each active instance's parameter snapshot for the
// current frame, running every automated parameter's source.
func (s *EffectStack) Resolve(t Timing) map[uint32]map[string]ParamValue {
	out := make(map[uint32]map[string]ParamValue)
	for _, inst := range s.ActiveSet() {
		snapshot := make(map[string]ParamValue, len(inst.Params))
		for _, p := range inst.Params {
			v := p.Value
			if p.Automation != nil {
				lo, hi := p.Meta.Min, p.Meta.Max
				if !p.Meta.HasMinMax {
					lo, hi = 0, 1
				}
				v = p.Automation.Effective(p.Value, lo, hi, t)
			}
			snapshot[p.Meta.Name] = v
		}
		out[inst.ID] = snapshot
	}
	return out
}

// Process runs the stack's active effects over `input` (an RGBA8 buffer
// width*height*4 bytes), ping-ponging through the pool described in
// pingpong.go, and returns the final output buffer. An empty active set
// is a pass-through: `input` is returned unmodified (copied), matching
// "a dedicated copy pipeline handles pass-through when no effects are
// active".
func (s *EffectStack) Process(input []byte, width, height int, t Timing) []byte {
	active := s.ActiveSet()
	if len(active) == 0 {
		out := make([]byte, len(input))
		copy(out, input)
		return out
	}

	params := s.Resolve(t)
	pool := NewPool(width, height)
	return pool.Run(input, active, params)
}
