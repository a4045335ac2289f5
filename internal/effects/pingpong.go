package effects

// Pool is a two-buffer ping-pong pool sized to one effect stack's scope
// dimensions: effect k reads pool[k%2] and writes pool[(k+1)%2]; the
// first effect reads the stack's input, the last effect writes the
// stack's output. This is the CPU-buffer equivalent of a GPU ping-pong
// texture pool; internal/compositor runs every effect stack through it.
type Pool struct {
	width, height int
	buffers       [2][]byte
}

// NewPool allocates a ping-pong pool for width x height RGBA8 frames.
func NewPool(width, height int) *Pool {
	size := width * height * 4
	return &Pool{
		width: width, height: height,
		buffers: [2][]byte{make([]byte, size), make([]byte, size)},
	}
}

// Run processes `input` through each active effect instance in order,
// returning the final buffer. If exactly one effect is active, the pool
// is bypassed (direct input -> output), per spec.
func (p *Pool) Run(input []byte, active []*EffectInstance, params map[uint32]map[string]ParamValue) []byte {
	if len(active) == 1 {
		out := make([]byte, len(input))
		active[0].impl.Process(input, out, p.width, p.height, params[active[0].ID])
		return out
	}

	copy(p.buffers[0], input)
	src, dst := 0, 1
	for _, inst := range active {
		inst.impl.Process(p.buffers[src], p.buffers[dst], p.width, p.height, params[inst.ID])
		src, dst = dst, src
	}

	out := make([]byte, len(input))
	copy(out, p.buffers[src])
	return out
}
