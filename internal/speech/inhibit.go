package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Inhibitor holds a systemd sleep inhibitor lock for as long as a
// background systemd-inhibit process lives.
type Inhibitor struct {
	cmd    *exec.Cmd
	binary string
	args   []string
	mu     sync.Mutex
}

// NewInhibitor creates a wake lock that blocks sleep and idle on behalf of who.
func NewInhibitor(who string) *Inhibitor {
	return &Inhibitor{
		binary: "systemd-inhibit",
		args: []string{
			"--what=sleep:idle",
			"--who=" + who,
			"--why=Announcing payment",
			"--mode=block",
			"sleep", "infinity",
		},
	}
}

// Acquire starts the inhibitor process. It is a no-op while already held.
func (i *Inhibitor) Acquire(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cmd != nil {
		return nil
	}

	// Not tied to ctx: the lock lives until Release.
	cmd := exec.Command(i.binary, i.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", i.binary, err)
	}
	i.cmd = cmd
	return nil
}

// Release stops the inhibitor process. It is a no-op when not held.
func (i *Inhibitor) Release(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cmd == nil {
		return nil
	}
	cmd := i.cmd
	i.cmd = nil

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop %s: %w", i.binary, err)
	}
	// Wait reports the kill signal as an error; only reaping matters here.
	_ = cmd.Wait()
	return nil
}
