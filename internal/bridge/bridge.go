// # internal/bridge/bridge.go
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pyoutline/internal/shared/observability"
)

// AnalysisError reports a failed round trip through the external analyzer.
type AnalysisError struct {
	Reason string
	Err    error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Inspect runs the worker binary against a source file and returns the
// decoded module tree. The worker's single line of stdout is the artifact
// path; the artifact is deleted before Inspect returns, whether or not
// decoding succeeded. A spawned worker is never killed: cancellation only
// stops waiting for it, and any artifact it still produces is removed once
// it exits.
func Inspect(ctx context.Context, workerPath, filePath string) (*ASTNode, error) {
	cmd := exec.Command(workerPath, filePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		observability.WorkerRunsTotal.WithLabelValues("spawn_error").Inc()
		return nil, &AnalysisError{Reason: "failed to run external analyzer", Err: err}
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		go func() {
			<-done
			removeArtifact(&stdout)
		}()
		observability.WorkerRunsTotal.WithLabelValues("spawn_error").Inc()
		return nil, &AnalysisError{Reason: "failed to run external analyzer", Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			// A dying worker should print nothing, but if it got as far
			// as reporting a path the artifact must not be left behind.
			removeArtifact(&stdout)
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			observability.WorkerRunsTotal.WithLabelValues("spawn_error").Inc()
			return nil, &AnalysisError{Reason: "failed to run external analyzer", Err: err}
		}
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		observability.WorkerRunsTotal.WithLabelValues("spawn_error").Inc()
		return nil, &AnalysisError{
			Reason: "failed to run external analyzer",
			Err:    errors.New("worker reported no artifact path"),
		}
	}
	defer os.Remove(path)

	root, err := ReadArtifact(path)
	if err != nil {
		observability.WorkerRunsTotal.WithLabelValues("artifact_error").Inc()
		return nil, &AnalysisError{Reason: "unexpected artifact shape", Err: err}
	}
	if root.Type != NodeModule {
		observability.WorkerRunsTotal.WithLabelValues("artifact_error").Inc()
		return nil, &AnalysisError{
			Reason: "unexpected artifact shape",
			Err:    fmt.Errorf("artifact root is %q, want %q", root.Type, NodeModule),
		}
	}
	observability.WorkerRunsTotal.WithLabelValues("ok").Inc()
	return root, nil
}

// removeArtifact best-effort deletes whatever artifact a failed or abandoned
// worker reported on stdout. Only called after the worker has exited.
func removeArtifact(stdout *bytes.Buffer) {
	if path := strings.TrimSpace(stdout.String()); path != "" {
		os.Remove(path)
	}
}
