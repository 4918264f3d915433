package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/cccteam/eduauth/sessionstate"
)

var _ sessionstate.Navigator = &consoleNavigator{}

// consoleNavigator tracks a route for a terminal session and reports redirects.
type consoleNavigator struct {
	w io.Writer

	mu       sync.Mutex
	location string
}

func newConsoleNavigator(w io.Writer, location string) *consoleNavigator {
	return &consoleNavigator{w: w, location: location}
}

func (n *consoleNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.location
}

func (n *consoleNavigator) HardRedirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.location = path
	fmt.Fprintf(n.w, "redirect: %s\n", path)
}
