package speech

import (
	"io"
	"os/exec"
	"testing"

	"github.com/metcalfc/rsvp/internal/logger"
)

func quiet() *logger.Logger { return logger.New(logger.LevelOff, io.Discard) }

func TestNewFallsBackToNoop(t *testing.T) {
	if _, ok := New("", nil, quiet()).(Noop); !ok {
		t.Error("empty command should be Noop")
	}
	if _, ok := New("rsvp-no-such-speech-program", nil, quiet()).(Noop); !ok {
		t.Error("missing program should be Noop")
	}
}

func TestCommandSpeakAndStop(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	// The token becomes an extra operand to sleep; Stop must kill it
	// without blocking.
	c := NewCommand("sleep", []string{"5"}, quiet())
	c.Speak("1")
	c.Speak("2")
	c.Stop()
	c.Shutdown()
	c.Speak("3")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		t.Error("speak after shutdown started a process")
	}
}
