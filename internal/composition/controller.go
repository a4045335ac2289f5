package composition

// Command is a mutation request delivered from a UI/API goroutine to the
// render thread. The render loop drains pending commands once per tick,
// before advancing transitions.
type Command interface {
	apply(c *Composition)
}

type triggerCmd struct {
	layerID uint32
	column  int
}

func (cmd triggerCmd) apply(c *Composition) { _ = c.Trigger(cmd.layerID, cmd.column) }

type releaseCmd struct {
	layerID uint32
	column  int
}

func (cmd releaseCmd) apply(c *Composition) { c.Release(cmd.layerID, cmd.column) }

type stopCmd struct{ layerID uint32 }

func (cmd stopCmd) apply(c *Composition) { c.Stop(cmd.layerID) }

// TriggerCommand builds a Command that triggers (layerID, column).
func TriggerCommand(layerID uint32, column int) Command { return triggerCmd{layerID, column} }

// ReleaseCommand builds a Command that releases a Flash trigger.
func ReleaseCommand(layerID uint32, column int) Command { return releaseCmd{layerID, column} }

// StopCommand builds a Command that stops a layer's active slot.
func StopCommand(layerID uint32) Command { return stopCmd{layerID} }

// Controller owns the bounded command channel feeding a Composition. It is
// safe to call Enqueue from any goroutine; Drain must only be called from
// the render thread, immediately before Tick.
type Controller struct {
	comp     *Composition
	commands chan Command
}

// NewController wraps comp with a bounded command queue of the given depth.
func NewController(comp *Composition, queueDepth int) *Controller {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Controller{comp: comp, commands: make(chan Command, queueDepth)}
}

// Composition returns the wrapped composition.
func (ctl *Controller) Composition() *Composition { return ctl.comp }

// Enqueue blocks until the command channel has room; the queue is
// small and bounded, and producers are expected to block rather than
// the render thread accepting unbounded backlog.
func (ctl *Controller) Enqueue(cmd Command) { ctl.commands <- cmd }

// Drain applies every currently-queued command without blocking, then
// returns. Call once per frame before Tick.
func (ctl *Controller) Drain() {
	for {
		select {
		case cmd := <-ctl.commands:
			cmd.apply(ctl.comp)
		default:
			return
		}
	}
}
