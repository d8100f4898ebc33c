// Package speech voices tokens as they are shown.
package speech

import (
	"os/exec"
	"sync"

	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/logger"
)

// Noop is a Speaker that says nothing.
type Noop struct{}

var _ domain.Speaker = Noop{}

func (Noop) Speak(string) {}
func (Noop) Stop()        {}
func (Noop) Shutdown()    {}

// Command voices each token by running an external program, such as
// espeak or say, with the token as its last argument. Starting a new token
// kills the previous utterance.
type Command struct {
	name string
	args []string
	log  *logger.Logger

	mu     sync.Mutex
	cur    *exec.Cmd
	closed bool
}

var _ domain.Speaker = (*Command)(nil)

// NewCommand returns a speaker running name with args. It does not check
// that the program exists; LookPath does.
func NewCommand(name string, args []string, log *logger.Logger) *Command {
	return &Command{name: name, args: args, log: log}
}

// LookPath reports whether the speech program can be found.
func (c *Command) LookPath() error {
	_, err := exec.LookPath(c.name)
	return err
}

// Speak starts voicing word and returns immediately.
func (c *Command) Speak(word string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.killLocked()

	cmd := exec.Command(c.name, append(append([]string(nil), c.args...), word)...)
	if err := cmd.Start(); err != nil {
		c.log.Warn("speech: %s: %v", c.name, err)
		return
	}
	c.cur = cmd
	go func() {
		// Reap the process; a kill shows up here as an error.
		_ = cmd.Wait()
	}()
}

// Stop cuts off the current utterance.
func (c *Command) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killLocked()
}

// Shutdown stops speaking for good.
func (c *Command) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.killLocked()
	c.closed = true
}

func (c *Command) killLocked() {
	if c.cur == nil {
		return
	}
	// Kill fails with os.ErrProcessDone once the utterance has ended.
	_ = c.cur.Process.Kill()
	c.cur = nil
}

// New picks a speaker: a Command when name is set and found, Noop
// otherwise.
func New(name string, args []string, log *logger.Logger) domain.Speaker {
	if name == "" {
		return Noop{}
	}
	c := NewCommand(name, args, log)
	if err := c.LookPath(); err != nil {
		log.Warn("speech: %v, speech disabled", err)
		return Noop{}
	}
	return c
}
