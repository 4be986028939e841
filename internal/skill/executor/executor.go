// Package executor runs skill scripts as isolated child processes.
// Each invocation spawns a fresh process with its working directory set
// to the skill root, passes the parameter object as a single JSON
// argument, and parses the trailing JSON value on stdout as the result.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/yorulabs/skills-mcp/internal/skill"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// DefaultTimeout bounds a script invocation unless the request carries
// its own override.
const DefaultTimeout = 30 * time.Second

// Executor spawns skill scripts. Invocations are independent; there is
// no pooling and no shared state between calls.
type Executor struct {
	registry *skill.Registry
	timeout  time.Duration

	// sem caps concurrent executions when non-nil. Excess requests are
	// rejected, not queued.
	sem *semaphore.Weighted
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultTimeout overrides the default per-invocation timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxConcurrent sets a ceiling on concurrent executions. Zero or
// negative means unlimited.
func WithMaxConcurrent(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates an executor over the given registry.
func New(registry *skill.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one script invocation. The returned result is non-nil
// whenever a process was started, so callers get stderr and timing even
// on failure; the error classifies the fault.
func (e *Executor) Execute(ctx context.Context, req skill.ExecutionRequest) (*skill.ExecutionResult, error) {
	rec, err := e.registry.Get(req.Skill)
	if err != nil {
		return nil, err
	}

	scriptPath, err := resolveScript(rec, req.Script)
	if err != nil {
		return nil, err
	}

	if e.sem != nil {
		if !e.sem.TryAcquire(1) {
			return nil, skill.Errorf(skill.KindExecutorBusy, "executor at capacity, rejecting %s/%s", req.Skill, req.Script)
		}
		defer e.sem.Release(1)
	}

	params := req.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, skill.WrapErr(skill.KindExecutionFailed, err, "parameters are not JSON-serializable")
	}

	timeout := e.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execID := uuid.New().String()
	logger.Debugf("Executing %s/%s (id=%s, timeout=%s)", req.Skill, req.Script, execID, timeout)

	name, args := commandFor(scriptPath)
	cmd := exec.CommandContext(ctx, name, append(args, string(paramsJSON))...)
	cmd.Dir = rec.Root
	cmd.Env = append(os.Environ(),
		"SKILL_NAME="+rec.Name,
		"SKILL_ROOT="+rec.Root,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Run the script in its own process group so a timeout kill reaps
	// descendants as well; cmd.Wait below guarantees no zombie remains
	// on any exit path.
	setProcessGroup(cmd)
	setProcessGroupKill(cmd)

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	result := &skill.ExecutionResult{
		ID:       execID,
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
	}

	if classifyErr := classifyRunError(runErr, ctx.Err(), req.Script, timeout, stderr.String()); classifyErr != nil {
		return result, classifyErr
	}

	payload, ok := lastJSONValue(stdout.Bytes())
	if !ok {
		return result, skill.Errorf(skill.KindMalformedOutput, "script %s printed no parseable JSON result", req.Script)
	}

	result.Payload = payload
	logger.Debugf("Execution %s finished in %s", execID, duration)
	return result, nil
}

// classifyRunError maps a finished invocation onto the error taxonomy.
// A run that completed successfully is never reclassified: the deadline
// expiring while the result is collected must not turn a success into a
// timeout.
func classifyRunError(runErr, ctxErr error, script string, timeout time.Duration, stderr string) error {
	if runErr == nil {
		return nil
	}

	if ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return skill.Errorf(skill.KindExecutionTimeout, "script %s timed out after %s", script, timeout)
		}
		return skill.WrapErr(skill.KindExecutionTimeout, ctxErr, "script %s cancelled", script)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return skill.Errorf(skill.KindExecutionFailed, "script %s exited with code %d: %s", script, exitErr.ExitCode(), stderr)
	}
	return skill.WrapErr(skill.KindExecutionFailed, runErr, "failed to run script %s", script)
}

// resolveScript maps a requested script path onto a file under the
// skill's scripts/ subtree, with the same lexical escape defense as the
// resource resolver. A leading "scripts/" segment is accepted.
func resolveScript(rec *skill.Record, scriptPath string) (string, error) {
	if scriptPath == "" {
		return "", skill.Errorf(skill.KindScriptNotFound, "script path is required")
	}

	rel := strings.TrimPrefix(filepath.ToSlash(scriptPath), "/")
	rel = strings.TrimPrefix(rel, "scripts/")
	rel = path.Clean(rel)

	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", skill.Errorf(skill.KindPathEscape, "script path %q escapes the skill root", scriptPath)
	}

	full := filepath.Join(rec.Root, "scripts", filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", skill.Errorf(skill.KindScriptNotFound, "script %q not found in skill %q", scriptPath, rec.Name)
	}

	return full, nil
}

// commandFor picks the interpreter by extension. Anything unknown is
// executed directly and must carry its own shebang and exec bit.
func commandFor(scriptPath string) (string, []string) {
	switch filepath.Ext(scriptPath) {
	case ".py":
		return "python3", []string{scriptPath}
	case ".sh":
		return "bash", []string{scriptPath}
	default:
		return scriptPath, nil
	}
}
