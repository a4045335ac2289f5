package clipplayer

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/immersive-av/immersive-server/internal/composition"
)

const maxDecodeRetries = 5

type cmdKind int

const (
	cmdTogglePause cmdKind = iota
	cmdRestart
	cmdSeek
)

type playerCmd struct {
	kind   cmdKind
	seekTo float64
}

// SpeedFunc resolves the clip's current effective playback speed
// (slot.speed × composition.master_speed) each decode step, so a live
// speed change takes effect without restarting the decoder thread.
type SpeedFunc func() float64

// ClipPlayer owns one decode goroutine for a single active video clip:
// one thread per active clip, never shared.
type ClipPlayer struct {
	decoder FrameDecoder
	mailbox Mailbox
	loop    composition.LoopMode
	speed   SpeedFunc
	log     *logrus.Entry

	cmds chan playerCmd
	done chan struct{}

	paused   atomic.Bool
	startRef atomic.Int64 // UnixNano at decode-thread start / last restart
}

// NewClipPlayer creates a player around an already-open decoder. Start
// must be called to begin decoding.
func NewClipPlayer(decoder FrameDecoder, loop composition.LoopMode, speed SpeedFunc, log *logrus.Entry) *ClipPlayer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if speed == nil {
		speed = func() float64 { return 1 }
	}
	return &ClipPlayer{
		decoder: decoder,
		loop:    loop,
		speed:   speed,
		log:     log,
		cmds:    make(chan playerCmd, 4),
		done:    make(chan struct{}),
	}
}

// Start launches the decode goroutine at the given native frame rate.
// fps <= 0 means "static source" (image/generator): decode at a fixed
// 30 Hz instead of a native cadence.
func (p *ClipPlayer) Start(fps float64) {
	p.startRef.Store(time.Now().UnixNano())
	interval := time.Second / 30
	if fps > 0 {
		interval = time.Duration(float64(time.Second) / fps)
	}
	go p.run(interval)
}

// Stop terminates the decode goroutine and releases the decoder.
func (p *ClipPlayer) Stop() {
	close(p.done)
}

// Mailbox returns the player's frame mailbox for the compositor to read.
func (p *ClipPlayer) Mailbox() *Mailbox { return &p.mailbox }

// TogglePause flips paused/running without blocking the caller.
func (p *ClipPlayer) TogglePause() { p.enqueue(playerCmd{kind: cmdTogglePause}) }

// Restart resets presentation time to zero.
func (p *ClipPlayer) Restart() { p.enqueue(playerCmd{kind: cmdRestart}) }

// Seek jumps presentation time to t seconds.
func (p *ClipPlayer) Seek(t float64) { p.enqueue(playerCmd{kind: cmdSeek, seekTo: t}) }

func (p *ClipPlayer) enqueue(cmd playerCmd) {
	select {
	case p.cmds <- cmd:
	default:
		// SPSC channel full: drop the stale command the way the mailbox
		// drops a stale frame — the next one supersedes it anyway.
	}
}

func (p *ClipPlayer) run(interval time.Duration) {
	defer p.decoder.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var elapsed float64
	var direction float64 = 1
	retries := 0

	for {
		select {
		case <-p.done:
			return
		case cmd := <-p.cmds:
			switch cmd.kind {
			case cmdTogglePause:
				p.paused.Store(!p.paused.Load())
			case cmdRestart:
				elapsed = 0
				direction = 1
			case cmdSeek:
				elapsed = cmd.seekTo
			}
			continue
		case <-ticker.C:
		}

		if p.paused.Load() {
			continue
		}

		elapsed += interval.Seconds() * p.speed() * direction

		dur := p.decoder.Duration()
		if dur > 0 {
			elapsed, direction = applyLoopMode(p.loop, elapsed, dur, direction)
		}

		frame, err := p.decoder.DecodeAt(elapsed)
		if err != nil {
			retries++
			if retries > maxDecodeRetries {
				p.log.WithError(err).Warn("clip decode failed, posting error frame")
				p.mailbox.Post(&Frame{Error: true, PTS: elapsed})
				retries = 0
				continue
			}
			time.Sleep(time.Duration(retries) * 10 * time.Millisecond)
			continue
		}
		retries = 0
		p.mailbox.Post(frame)
	}
}

// applyLoopMode folds elapsed back into [0, dur] for one of the three
// loop modes (LoopLoop wraps into [0, dur)), returning the adjusted
// position and direction (direction only changes under PingPong).
func applyLoopMode(mode composition.LoopMode, elapsed, dur, direction float64) (float64, float64) {
	switch mode {
	case composition.LoopLoop:
		for elapsed >= dur {
			elapsed -= dur
		}
		for elapsed < 0 {
			elapsed += dur
		}
		return elapsed, direction
	case composition.LoopPingPong:
		for elapsed > dur {
			elapsed = 2*dur - elapsed
			direction = -direction
		}
		for elapsed < 0 {
			elapsed = -elapsed
			direction = -direction
		}
		return elapsed, direction
	default: // LoopNone: freeze at the last frame
		if elapsed > dur {
			elapsed = dur
		}
		if elapsed < 0 {
			elapsed = 0
		}
		return elapsed, direction
	}
}
