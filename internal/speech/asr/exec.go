package asr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// exitNoPermission is sysexits' EX_NOPERM, used by recognizer commands to
// signal that the microphone is not accessible.
const exitNoPermission = 77

// ExecRecognizer runs an external speech-to-text command per session. The
// command records one utterance and prints the transcript; the last
// non-empty line of its stdout is taken as the result.
type ExecRecognizer struct {
	path string
	args []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	handler Handler
	gen     uint64
}

func NewExecRecognizer(command string, args ...string) (*ExecRecognizer, error) {
	if command == "" {
		return nil, errors.New("asr.command is not set")
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("recognizer command not found: %w", err)
	}
	return &ExecRecognizer{path: path, args: args}, nil
}

func (r *ExecRecognizer) Start(h Handler) error {
	r.mu.Lock()
	if r.cmd != nil {
		r.mu.Unlock()
		return ErrBusy
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(r.path, r.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		if errors.Is(err, os.ErrPermission) {
			return ErrPermissionDenied
		}
		return fmt.Errorf("failed to start recognizer: %w", err)
	}
	r.gen++
	gen := r.gen
	r.cmd = cmd
	r.handler = h
	r.mu.Unlock()

	go func() {
		err := cmd.Wait()

		r.mu.Lock()
		current := r.gen == gen
		if current {
			r.cmd = nil
			r.handler = Handler{}
		}
		r.mu.Unlock()

		// Stop already reported the end of this session
		if !current {
			return
		}
		if err != nil {
			h.fail(classifyExit(err, stderr.String()))
			return
		}
		if text := lastLine(stdout.String()); text != "" {
			h.result(text)
		}
		h.end()
	}()

	return nil
}

func (r *ExecRecognizer) Stop() error {
	r.mu.Lock()
	cmd, h := r.cmd, r.handler
	r.cmd = nil
	r.handler = Handler{}
	r.gen++
	r.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		logrus.WithError(err).Debug("Recognizer process already gone")
	}
	h.end()
	return nil
}

func classifyExit(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitNoPermission {
		return ErrPermissionDenied
	}
	if strings.Contains(strings.ToLower(stderr), "permission denied") {
		return ErrPermissionDenied
	}
	return fmt.Errorf("recognizer failed: %w", err)
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
