package healthcheck

import (
	"context"
	"time"
)

const checkTimeout = 3 * time.Second

// Report is the aggregated health of every registered checker.
type Report struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// Healthy reports whether no check failed. Warnings do not make the
// service unhealthy.
func (r Report) Healthy() bool {
	return r.Status != StatusError
}

// Run evaluates checkers in order under a shared timeout.
func Run(ctx context.Context, checkers ...Checker) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	report := Report{Status: StatusOK, Checks: []CheckResult{}}
	for _, c := range checkers {
		if c == nil {
			continue
		}
		for _, item := range c.ListChecks(ctx) {
			report.Checks = append(report.Checks, item)
			switch item.Status {
			case StatusError:
				report.Status = StatusError
			case StatusWarn:
				if report.Status == StatusOK {
					report.Status = StatusWarn
				}
			}
		}
	}
	return report
}
