//go:build unix

package executor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorulabs/skills-mcp/internal/skill"
)

func TestExecuteTimeoutReapsProcessTree(t *testing.T) {
	reg := testRegistry(t, map[string]string{
		"spawn.sh": `sleep 30 > /dev/null 2>&1 &
echo $! > child.pid
sleep 30`,
	})
	ex := New(reg)

	_, err := ex.Execute(context.Background(), skill.ExecutionRequest{
		Skill:   "demo",
		Script:  "spawn.sh",
		Timeout: 300 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, skill.IsKind(err, skill.KindExecutionTimeout))

	data, err := os.ReadFile(filepath.Join(reg.Root(), "demo", "child.pid"))
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)

	// The group SIGKILL is delivered on cancellation but reaping is not
	// synchronous with Execute returning.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, 0) != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	assert.Error(t, syscall.Kill(pid, 0), "background child %d still running after timeout", pid)
}
