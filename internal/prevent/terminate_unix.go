//go:build unix

package prevent

import (
	"errors"
	"slices"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

func terminate(pid int32) Result {
	p, err := process.NewProcess(pid)
	if err != nil {
		return Result{Outcome: OutcomeNotFound, Detail: err}
	}

	// A zombie has already exited; signalling it accomplishes nothing and
	// its entry only disappears once the parent reaps it.
	if statuses, err := p.Status(); err == nil && slices.Contains(statuses, process.Zombie) {
		return Result{Outcome: OutcomeZombie}
	}

	if err := unix.Kill(int(pid), unix.SIGTERM); err != nil {
		switch {
		case errors.Is(err, unix.ESRCH):
			return Result{Outcome: OutcomeNotFound, Detail: err}
		case errors.Is(err, unix.EPERM):
			return Result{Outcome: OutcomeAccessDenied, Detail: err}
		default:
			return Result{Outcome: OutcomeOtherFailure, Detail: err}
		}
	}
	return Result{Outcome: OutcomeTerminated}
}
