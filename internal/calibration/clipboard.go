package calibration

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardOK   bool
)

func clipboardInit() bool {
	clipboardOnce.Do(func() {
		clipboardOK = clipboard.Init() == nil
	})
	return clipboardOK
}

// CopySummary formats results as one line per projector (index, sample
// count, homography fit status) and copies it to the system clipboard,
// so an operator can paste the outcome straight into a run log. It is a
// no-op returning false when no clipboard is available (headless CI,
// missing X/Wayland display).
func CopySummary(results []ProjectorResult) bool {
	if !clipboardInit() {
		return false
	}
	var b strings.Builder
	for _, r := range results {
		status := "fit failed"
		if r.HomographyOK {
			status = "fit ok"
		}
		fmt.Fprintf(&b, "projector %d: %d correspondences, %s\n", r.Index, len(r.Correspondences), status)
	}
	clipboard.Write(clipboard.FmtText, []byte(b.String()))
	return true
}
