package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorulabs/skills-mcp/internal/skill"
)

// testRegistry builds a skills root with a single skill whose scripts/
// directory holds the given bash scripts.
func testRegistry(t *testing.T, scripts map[string]string) *skill.Registry {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test scripts require bash")
	}

	root := t.TempDir()
	dir := filepath.Join(root, "demo")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))

	descriptor := "---\nname: demo\ndescription: Test skill.\n---\nInstructions.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skill.DescriptorFile), []byte(descriptor), 0o644))

	for name, body := range scripts {
		path := filepath.Join(dir, "scripts", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\n"+body), 0o755))
	}

	return skill.NewRegistry(root)
}

func TestExecuteSuccess(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"ok.sh": `echo '{"status":"success","value":42}'`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "ok.sh"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 0, res.ExitCode)
	assert.JSONEq(t, `{"status":"success","value":42}`, string(res.Payload))
}

func TestExecutePassesParamsAndEnv(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"echo.sh": `printf '{"params":%s,"skill":"%s","cwd_is_root":%s}\n' "$1" "$SKILL_NAME" "$([ -f SKILL.md ] && echo true || echo false)"`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{
		Skill:  "demo",
		Script: "echo.sh",
		Params: map[string]interface{}{"message": "hi"},
	})
	require.NoError(t, err)

	var out struct {
		Params    map[string]string `json:"params"`
		Skill     string            `json:"skill"`
		CwdIsRoot bool              `json:"cwd_is_root"`
	}
	require.NoError(t, json.Unmarshal(res.Payload, &out))
	assert.Equal(t, "hi", out.Params["message"])
	assert.Equal(t, "demo", out.Skill)
	assert.True(t, out.CwdIsRoot)
}

func TestExecuteNilParamsBecomeEmptyObject(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"args.sh": `printf '{"arg":%s}\n' "$1"`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "args.sh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"arg":{}}`, string(res.Payload))
}

func TestExecuteScriptsPrefixAccepted(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"ok.sh": `echo '{"ok":true}'`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "scripts/ok.sh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(res.Payload))
}

func TestExecuteLastJSONWins(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"noisy.sh": `echo "starting up"
echo '{"intermediate":true}'
echo "progress: 50%"
echo '{"final":"result"}'`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "noisy.sh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"final":"result"}`, string(res.Payload))
}

func TestExecuteMultilineJSON(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"pretty.sh": `echo "log line"
printf '{\n  "pretty": true,\n  "n": 1\n}\n'`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "pretty.sh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pretty":true,"n":1}`, string(res.Payload))
}

func TestExecuteMalformedOutput(t *testing.T) {
	t.Run("no JSON", func(t *testing.T) {
		reg := testRegistry(t, map[string]string{
			"text.sh": `echo "just some text"`,
		})
		ex := New(reg)

		res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "text.sh"})
		require.Error(t, err)
		assert.True(t, skill.IsKind(err, skill.KindMalformedOutput))
		require.NotNil(t, res)
		assert.Equal(t, 0, res.ExitCode)
	})

	t.Run("empty stdout with zero exit", func(t *testing.T) {
		reg := testRegistry(t, map[string]string{
			"silent.sh": `exit 0`,
		})
		ex := New(reg)

		_, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "silent.sh"})
		require.Error(t, err)
		assert.True(t, skill.IsKind(err, skill.KindMalformedOutput))
	})
}

func TestExecuteFailure(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"fail.sh": `echo "boom" >&2
exit 1`,
	})
	ex := New(reg)

	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "fail.sh"})
	require.Error(t, err)
	assert.True(t, skill.IsKind(err, skill.KindExecutionFailed))
	assert.Contains(t, err.Error(), "boom")
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "boom")
}

func TestExecuteTimeout(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"slow.sh": `sleep 10
echo '{"done":true}'`,
	})
	ex := New(reg)

	start := time.Now()
	res, err := ex.Execute(context.Background(), skill.ExecutionRequest{
		Skill:   "demo",
		Script:  "slow.sh",
		Timeout: 200 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, skill.IsKind(err, skill.KindExecutionTimeout))
	assert.Less(t, elapsed, 5*time.Second)
	require.NotNil(t, res)
}

func TestExecuteScriptNotFound(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"ok.sh": `echo '{}'`,
	})
	ex := New(reg)

	_, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "missing.sh"})
	require.Error(t, err)
	assert.True(t, skill.IsKind(err, skill.KindScriptNotFound))
}

func TestExecuteSkillNotFound(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"ok.sh": `echo '{}'`,
	})
	ex := New(reg)

	_, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "nope", Script: "ok.sh"})
	require.Error(t, err)
	assert.True(t, skill.IsKind(err, skill.KindSkillNotFound))
}

func TestExecutePathEscape(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"ok.sh": `echo '{}'`,
	})
	ex := New(reg)

	for _, p := range []string{"../ok.sh", "../../etc/passwd", "scripts/../../ok.sh"} {
		_, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: p})
		require.Error(t, err, p)
		assert.True(t, skill.IsKind(err, skill.KindPathEscape), p)
	}
}

func TestClassifyRunError(t *testing.T) {
	t.Run("success is never reclassified", func(t *testing.T) {
		assert.NoError(t, classifyRunError(nil, nil, "ok.sh", time.Second, ""))

		// Deadline expired while the result was being collected; the
		// run itself completed.
		assert.NoError(t, classifyRunError(nil, context.DeadlineExceeded, "ok.sh", time.Second, ""))
		assert.NoError(t, classifyRunError(nil, context.Canceled, "ok.sh", time.Second, ""))
	})

	t.Run("failure after deadline is a timeout", func(t *testing.T) {
		err := classifyRunError(errors.New("signal: killed"), context.DeadlineExceeded, "slow.sh", time.Second, "")
		require.Error(t, err)
		assert.True(t, skill.IsKind(err, skill.KindExecutionTimeout))
		assert.Contains(t, err.Error(), "timed out after")
	})

	t.Run("failure after cancellation", func(t *testing.T) {
		err := classifyRunError(errors.New("signal: killed"), context.Canceled, "slow.sh", time.Second, "")
		require.Error(t, err)
		assert.True(t, skill.IsKind(err, skill.KindExecutionTimeout))
	})

	t.Run("plain failure", func(t *testing.T) {
		err := classifyRunError(errors.New("fork/exec: permission denied"), nil, "bad.sh", time.Second, "boom")
		require.Error(t, err)
		assert.True(t, skill.IsKind(err, skill.KindExecutionFailed))
	})
}

func TestExecuteConcurrent(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"echo.sh": `printf '{"got":%s}\n' "$1"`,
	})
	ex := New(reg)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	payloads := make([]json.RawMessage, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := ex.Execute(context.Background(), skill.ExecutionRequest{
				Skill:  "demo",
				Script: "echo.sh",
				Params: map[string]interface{}{"i": i},
			})
			errs[i] = err
			if res != nil {
				payloads[i] = res.Payload
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i], "execution %d", i)
		assert.JSONEq(t, fmt.Sprintf(`{"got":{"i":%d}}`, i), string(payloads[i]), "execution %d", i)
	}
}

func TestExecuteBusy(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"slow.sh": `sleep 2
echo '{}'`,
		"ok.sh": `echo '{}'`,
	})
	ex := New(reg, WithMaxConcurrent(1))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "slow.sh"})
		close(done)
	}()

	<-started
	// Give the first execution time to acquire the slot.
	var busyErr error
	for i := 0; i < 50; i++ {
		time.Sleep(20 * time.Millisecond)
		_, err := ex.Execute(context.Background(), skill.ExecutionRequest{Skill: "demo", Script: "ok.sh"})
		if skill.IsKind(err, skill.KindExecutorBusy) {
			busyErr = err
			break
		}
	}
	require.Error(t, busyErr)
	assert.True(t, skill.IsKind(busyErr, skill.KindExecutorBusy))
	<-done
}
