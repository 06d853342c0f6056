package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// DefaultLocalBinary is the local model runner used when none is configured.
const DefaultLocalBinary = "llama/main"

// LocalProcessBackend runs a local model binary as `<binary> -p <prompt>`
// and returns its trimmed standard output.
type LocalProcessBackend struct {
	binary string
}

// NewLocalProcessBackend creates a backend that shells out to binary.
func NewLocalProcessBackend(binary string) *LocalProcessBackend {
	if binary == "" {
		binary = DefaultLocalBinary
	}
	return &LocalProcessBackend{binary: binary}
}

func (b *LocalProcessBackend) Kind() BackendKind { return KindLocal }

// Binary returns the executable this backend invokes.
func (b *LocalProcessBackend) Binary() string { return b.binary }

// Complete ignores Params; the local runner takes only the prompt.
func (b *LocalProcessBackend) Complete(ctx context.Context, prompt string, _ Params) (string, error) {
	cmd := exec.CommandContext(ctx, b.binary, "-p", prompt)

	// Own process group so cancellation can take down the whole runner.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", ClassifyError("local", fmt.Errorf("%s exited with code %d: %s",
				b.binary, exitErr.ExitCode(), strings.TrimSpace(stderr.String())))
		}
		return "", &BackendError{BaseError: BaseError{Message: "running " + b.binary, Cause: err}, Backend: "local"}
	}
	return strings.TrimSpace(stdout.String()), nil
}
