package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler computes the weekly submission instant and blocks until it
// arrives. The instant is a cron occurrence (seconds granularity) shifted
// by a sub-second offset, e.g. "59 59 13 * * WED" plus 750ms.
type Scheduler struct {
	schedule cron.Schedule
	offset   time.Duration
	logger   *logrus.Entry
	out      io.Writer
}

func New(spec string, offset time.Duration, logger *logrus.Entry, out io.Writer) (*Scheduler, error) {
	if offset < 0 || offset >= time.Second {
		return nil, fmt.Errorf("sub-second offset must be in [0s, 1s), got %s", offset)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid submission cron spec %q: %w", spec, err)
	}

	return &Scheduler{
		schedule: schedule,
		offset:   offset,
		logger:   logger,
		out:      out,
	}, nil
}

// NextTarget returns the first scheduled instant strictly after now. Asking
// cron from now minus the offset keeps the sub-second part of the target
// intact: cron itself only thinks in whole seconds, so an instant due later
// within the current second is still found rather than pushed a week out.
func (s *Scheduler) NextTarget(now time.Time) time.Time {
	return s.schedule.Next(now.Add(-s.offset)).Add(s.offset)
}

// WaitUntil blocks until the target instant, printing a live countdown. The
// polling interval tightens as the target approaches so the final wake-up
// lands within a few milliseconds of the target. Returns the context error
// when the wait is cancelled.
func (s *Scheduler) WaitUntil(ctx context.Context, target time.Time) error {
	remaining := time.Until(target)
	if remaining <= 0 {
		fmt.Fprintln(s.out, "目標時間已過，將立即執行提交。")
		return nil
	}

	divider := strings.Repeat("=", 60)
	fmt.Fprintln(s.out, "\n"+divider)
	fmt.Fprintln(s.out, "已設定排程，將在以下時間點提交表單：")
	fmt.Fprintf(s.out, "   %s\n", target.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintln(s.out, divider)
	s.logger.WithField("target", target.Format(time.RFC3339Nano)).Debug("Submission wait armed")

	for remaining > 0 {
		s.printCountdown(remaining)

		var pause time.Duration
		switch {
		case remaining > time.Minute:
			pause = time.Second
		case remaining > 5*time.Second:
			pause = 100 * time.Millisecond
		case remaining > 500*time.Millisecond:
			pause = 10 * time.Millisecond
		default:
			// Close enough, sleep out the exact remainder.
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			fmt.Fprintln(s.out)
			return ctx.Err()
		case <-timer.C:
		}

		if pause == remaining {
			break
		}
		remaining = time.Until(target)
	}

	fmt.Fprintln(s.out, "\n時間到達，立即開始提交！")
	return nil
}

func (s *Scheduler) printCountdown(remaining time.Duration) {
	total := int64(remaining / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	fmt.Fprintf(s.out, "距離提交還有: %d天 %02d時 %02d分 %02d秒\r", days, hours, mins, secs)
}
