package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Spinner provides a simple command-line spinner for long-running operations
type Spinner struct {
	chars   []string
	message string
	out     io.Writer
	animate bool
	active  bool
	mu      sync.Mutex
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to stderr. It animates only when
// stderr is a terminal and NO_COLOR is unset.
func NewSpinner(message string) *Spinner {
	return NewSpinnerTo(os.Stderr, message, isTerminal() && os.Getenv("NO_COLOR") == "")
}

// NewSpinnerTo creates a spinner writing to out. Without animation each
// Start and Stop prints a single line.
func NewSpinnerTo(out io.Writer, message string, animate bool) *Spinner {
	return &Spinner{
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		out:     out,
		animate: animate,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins spinning, showing feedback within 100ms
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.mu.Unlock()

	if !s.animate {
		fmt.Fprintf(s.out, "%s...\n", s.message)
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				fmt.Fprintf(s.out, "\r\033[K")
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s %s", s.chars[i], s.message)
				s.mu.Unlock()
				i = (i + 1) % len(s.chars)
			}
		}
	}()
}

// Stop stops the spinner and optionally shows a final message
func (s *Spinner) Stop(finalMessage string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	close(s.done)
	<-s.stopped

	if finalMessage != "" {
		if s.animate {
			fmt.Fprintf(s.out, "\r\033[K%s\n", finalMessage)
		} else {
			fmt.Fprintln(s.out, finalMessage)
		}
	}
}

// Update changes the spinner message while it's running
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Progress returns a callback that reports batch progress through the
// spinner message, e.g. "Converting 3/10 NCT00000102.xml".
func (s *Spinner) Progress(verb string) func(done, total int, source string) {
	return func(done, total int, source string) {
		s.Update(fmt.Sprintf("%s %d/%d %s", verb, done, total, filepath.Base(source)))
	}
}

// isTerminal checks if output is to a terminal
func isTerminal() bool {
	fileInfo, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShowSpinner is a convenience function for simple spinner usage
func ShowSpinner(message string, fn func() error) error {
	spinner := NewSpinner(message)
	spinner.Start()
	err := fn()
	if err != nil {
		spinner.Stop(fmt.Sprintf("✗ %s", err.Error()))
	} else {
		spinner.Stop("✓ Done")
	}
	return err
}
