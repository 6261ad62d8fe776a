//go:build windows

package prevent

import (
	"errors"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"
)

func terminate(pid int32) Result {
	p, err := process.NewProcess(pid)
	if err != nil {
		return Result{Outcome: OutcomeNotFound, Detail: err}
	}
	if err := p.Terminate(); err != nil {
		switch {
		case errors.Is(err, windows.ERROR_ACCESS_DENIED):
			return Result{Outcome: OutcomeAccessDenied, Detail: err}
		case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
			// OpenProcess reports a reused or vanished PID this way.
			return Result{Outcome: OutcomeNotFound, Detail: err}
		default:
			return Result{Outcome: OutcomeOtherFailure, Detail: err}
		}
	}
	return Result{Outcome: OutcomeTerminated}
}
