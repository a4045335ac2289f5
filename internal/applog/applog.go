// Package applog provides the process-wide structured logger every
// subsystem pulls a component-scoped entry from, grounded on
// sonic0214-CreativeStudioServer and yourflock-roost both using logrus
// as their only logger.
package applog

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	base = logrus.New()
)

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects the base logger's output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// SetLevel parses and applies a logrus level name, falling back to Info
// on a bad value rather than failing startup over a typo'd config.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(lvl)
}

// For returns a component-scoped entry, e.g. applog.For("compositor").
func For(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	return base.WithField("component", component)
}

// Discard is a convenience entry for tests that don't want log noise.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}
