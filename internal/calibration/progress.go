package calibration

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Progress prints calibrator state-machine transitions to an io.Writer.
// When w is a terminal it redraws a single status line in place with
// carriage returns, sized to the terminal's current width; otherwise
// (piped to a file or log collector) it falls back to one line per
// transition, since in-place redraws only make sense on a live tty.
type Progress struct {
	w     io.Writer
	start time.Time

	fd       int
	terminal bool
}

// NewProgress wraps w (typically os.Stdout).
func NewProgress(w io.Writer) *Progress {
	p := &Progress{w: w, start: time.Now()}
	if f, ok := w.(*os.File); ok {
		p.fd = int(f.Fd())
		p.terminal = term.IsTerminal(p.fd)
	}
	return p
}

// Report prints one state transition line.
func (p *Progress) Report(state State, detail string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	line := fmt.Sprintf("[%s] %s", elapsed, state)
	if detail != "" {
		line += ": " + detail
	}

	if !p.terminal {
		fmt.Fprintln(p.w, line)
		return
	}

	width, _, err := term.GetSize(p.fd)
	if err != nil || width <= 0 {
		width = 80
	}
	if len(line) > width {
		line = line[:width]
	} else {
		line += strings.Repeat(" ", width-len(line))
	}
	fmt.Fprint(p.w, "\r"+line)
	if state == StateIdle {
		// Session.Run returns to StateIdle exactly once, on completion or
		// abort, so that's the one transition that should leave the
		// redrawn line in place rather than getting overwritten by the
		// next \r.
		fmt.Fprint(p.w, "\n")
	}
}
