//go:build unix

package prevent

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminateRunningProcess(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	term := NewTerminator(nil)
	res := term.Terminate(int32(cmd.Process.Pid))
	assert.Equal(t, OutcomeTerminated, res.Outcome)
	assert.NoError(t, res.Detail)
}

func TestTerminateMissingProcess(t *testing.T) {
	term := NewTerminator(nil)

	// PID near the 32-bit max is vanishingly unlikely to exist.
	res := term.Terminate(1<<31 - 2)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestTerminateExitedChild(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	// Until Wait reaps it, the child lingers as a zombie.
	deadline := time.Now().Add(2 * time.Second)
	var res Result
	term := NewTerminator(nil)
	for {
		res = term.Terminate(int32(pid))
		if res.Outcome == OutcomeZombie || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, OutcomeZombie, res.Outcome)

	require.NoError(t, cmd.Wait())
}
