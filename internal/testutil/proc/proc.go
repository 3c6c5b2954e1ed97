// Package proc runs a child process and reports what it wrote and how it
// exited. Tests use it to observe real terminate calls.
package proc

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
)

// Result is what a child process produced.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int32
}

// ExecRunner executes commands on the local host. Env entries are added to
// the parent environment.
type ExecRunner struct {
	Env []string
}

// Run returns a non-nil error only when the process could not be started
// or was killed by a signal; a non-zero exit status is reported in Result.
func (r ExecRunner) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), r.Env...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = int32(exitErr.ExitCode())
		if res.ExitCode < 0 {
			return res, err
		}
		return res, nil
	}

	res.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	}
	return res, err
}

// Self re-runs the current test binary with no tests selected, so only
// TestMain-level helpers execute.
func Self(r ExecRunner) (Result, error) {
	return r.Run(os.Args[0], "-test.run=^$")
}
