package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Progress displays a simple in-place counter for long imports. Outside a
// TTY it stays silent until Done.
type Progress struct {
	message string
	current int
	mu      sync.Mutex
}

// NewProgress creates a new progress indicator.
func NewProgress(message string) *Progress {
	return &Progress{message: message}
}

// Increment increments the progress by one.
func (p *Progress) Increment() {
	p.mu.Lock()
	p.current++
	current := p.current
	p.mu.Unlock()
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("\r%s %s", p.message, Muted.Render(fmt.Sprintf("(%d)", current)))
	}
}

// Done clears the indicator line.
func (p *Progress) Done() {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print("\r\033[K")
	}
}

// DoneWithMessage clears the indicator and prints a final message.
func (p *Progress) DoneWithMessage(message string) {
	p.Done()
	fmt.Println(message)
}
