package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays a progress animation. Start and Stop may be called any
// number of times, in any order, from any goroutine.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a new spinner.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
	}
}

// Start starts the animation if it is not already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.stop, s.stopped)
}

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	<-s.stopped
	fmt.Fprint(s.w, "\r\033[K")
}

// Running reports whether the animation is active.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Follow starts the spinner while loading is true and stops it when false.
// It is shaped to be passed to a bool subscription.
func (s *Spinner) Follow(loading bool) {
	if loading {
		s.Start()
	} else {
		s.Stop()
	}
}

func (s *Spinner) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
