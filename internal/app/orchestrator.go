// internal/app/orchestrator.go
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"leave_form_bot/internal/domain/form"
	"leave_form_bot/internal/domain/summary"
	"leave_form_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Waiter blocks until the weekly submission instant.
type Waiter interface {
	NextTarget(now time.Time) time.Time
	WaitUntil(ctx context.Context, target time.Time) error
}

// Orchestrator drives a full run through its phases: prepare every requested
// day concurrently, wait for the scheduled instant (live mode only), fire
// all submissions at once, then summarize and notify.
type Orchestrator struct {
	preparer  *PreparationService
	submitter form.Submitter
	waiter    Waiter
	sinks     []summary.Sink
	out       io.Writer
	logger    *logrus.Entry
}

func NewOrchestrator(
	preparer *PreparationService,
	submitter form.Submitter,
	waiter Waiter,
	sinks []summary.Sink,
	out io.Writer,
	logger *logrus.Entry,
) *Orchestrator {
	return &Orchestrator{
		preparer:  preparer,
		submitter: submitter,
		waiter:    waiter,
		sinks:     sinks,
		out:       out,
		logger:    logger,
	}
}

// Run executes one complete submission run and returns its summary record.
// Per-day failures are folded into the record and never abort the run; the
// only error returned is cancellation before the submission phase.
func (o *Orchestrator) Run(ctx context.Context, req *config.Request, mode form.Mode) (*summary.Record, error) {
	o.logger.WithFields(logrus.Fields{"mode": mode.String(), "days": len(req.Days)}).Info("Run started")

	prepared, prepFailed := o.prepareAll(ctx, req, mode)

	if len(prepared) > 0 {
		fmt.Fprintln(o.out, "\n部分或所有表單資料已準備完成！")
	} else {
		fmt.Fprintln(o.out, "\n所有表單資料準備失敗，沒有可提交的任務。")
	}
	if len(prepFailed) > 0 {
		fmt.Fprintf(o.out, "有 %d 個表單因已關閉或錯誤而無法準備。\n", len(prepFailed))
	}

	if err := ctx.Err(); err != nil {
		o.logger.Info("Run cancelled during preparation")
		return nil, err
	}

	if mode == form.ModeLive {
		target := o.waiter.NextTarget(time.Now())
		if err := o.waiter.WaitUntil(ctx, target); err != nil {
			fmt.Fprintln(o.out, "\n使用者中斷等待，程式結束。")
			o.logger.Info("Run cancelled while waiting for the submission instant")
			return nil, err
		}
	} else {
		fmt.Fprintln(o.out, "\n測試模式，立即開始提交...")
	}

	outcomes := o.submitAll(ctx, prepared)

	rec := buildRecord(req, prepFailed, outcomes)
	o.printSummary(rec, len(prepFailed))

	o.notifyAll(ctx, rec)

	o.logger.WithField("all_success", rec.AllSuccess).Info("Run finished")
	return rec, nil
}

// prepareAll fans preparation out to one goroutine per requested day and
// partitions the results. Collection follows completion order; nothing
// downstream depends on it.
func (o *Orchestrator) prepareAll(ctx context.Context, req *config.Request, mode form.Mode) (prepared, prepFailed []*form.Descriptor) {
	divider := strings.Repeat("=", 60)
	fmt.Fprintln(o.out, "\n"+divider)
	fmt.Fprintln(o.out, "開始預先準備所有表單資料...")
	fmt.Fprintln(o.out, divider)

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, day := range req.Days {
		eg.Go(func() error {
			d := o.preparer.Prepare(egCtx, mode, day, req.Name, req.Reason(day))
			mu.Lock()
			defer mu.Unlock()
			if d.Status == form.StatusPrepared {
				prepared = append(prepared, d)
			} else {
				prepFailed = append(prepFailed, d)
			}
			return nil
		})
	}
	_ = eg.Wait() // workers classify failures instead of returning them
	return prepared, prepFailed
}

// submitAll posts every prepared descriptor concurrently. A lost day must
// not cancel its siblings, so the workers report failures through outcomes
// rather than error returns.
func (o *Orchestrator) submitAll(ctx context.Context, prepared []*form.Descriptor) []form.Outcome {
	fmt.Fprintln(o.out, "\n"+strings.Repeat("=", 60))

	var mu sync.Mutex
	var outcomes []form.Outcome
	eg, egCtx := errgroup.WithContext(ctx)
	for _, d := range prepared {
		eg.Go(func() error {
			outcome := o.submitter.Submit(egCtx, d)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			if outcome.Success {
				fmt.Fprintf(o.out, "%s 提交成功\n", outcome.Day.Name())
			} else {
				fmt.Fprintf(o.out, "%s 提交失敗\n", outcome.Day.Name())
			}
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

// buildRecord merges preparation and submission failures into the record the
// sinks deliver.
func buildRecord(req *config.Request, prepFailed []*form.Descriptor, outcomes []form.Outcome) *summary.Record {
	rec := &summary.Record{}

	for _, day := range req.Days {
		rec.SubmittedDays = append(rec.SubmittedDays, day.Name())
	}
	if req.HasDay(form.Saturday) {
		rec.ReasonSaturday = req.ReasonSaturday
	}
	if req.HasDay(form.Sunday) {
		rec.ReasonSunday = req.ReasonSunday
	}

	for _, d := range prepFailed {
		rec.Failed = append(rec.Failed, summary.FailedTask{DayName: d.Day.Name(), Stage: summary.StagePreparation})
	}
	for _, outcome := range outcomes {
		if outcome.Success {
			rec.SuccessfulDays = append(rec.SuccessfulDays, outcome.Day.Name())
		} else {
			rec.Failed = append(rec.Failed, summary.FailedTask{DayName: outcome.Day.Name(), Stage: summary.StageSubmission})
		}
	}

	rec.AllSuccess = len(rec.Failed) == 0
	return rec
}

func (o *Orchestrator) printSummary(rec *summary.Record, prepFailures int) {
	successCount := len(rec.SuccessfulDays)
	failCount := len(rec.Failed)
	divider := strings.Repeat("=", 60)

	fmt.Fprintln(o.out, "\n"+divider)
	fmt.Fprintln(o.out, "提交總結")
	fmt.Fprintln(o.out, divider)
	fmt.Fprintf(o.out, "成功：%d 個表單\n", successCount)
	fmt.Fprintf(o.out, "失敗：%d 個表單\n", failCount)
	if prepFailures > 0 {
		fmt.Fprintf(o.out, "  - 其中準備階段失敗：%d 個\n", prepFailures)
		fmt.Fprintf(o.out, "  - 其中提交階段失敗：%d 個\n", failCount-prepFailures)
	}
	fmt.Fprintf(o.out, "總計：%d 個表單\n", successCount+failCount)

	if failCount > 0 {
		names := make([]string, 0, failCount)
		for _, task := range rec.Failed {
			names = append(names, task.DayName)
		}
		fmt.Fprintf(o.out, "\n失敗的表單列表：%s\n", strings.Join(names, "、"))
	}
	fmt.Fprintln(o.out, divider)
}

// notifyAll hands the record to every sink. Sink failures are logged and
// swallowed: the run's outcome is already decided.
func (o *Orchestrator) notifyAll(ctx context.Context, rec *summary.Record) {
	if len(o.sinks) == 0 {
		return
	}

	divider := strings.Repeat("=", 60)
	fmt.Fprintln(o.out, divider)
	fmt.Fprintln(o.out, "正在準備並發送總結通知...")
	fmt.Fprintln(o.out, divider)

	for _, sink := range o.sinks {
		if err := sink.Deliver(ctx, rec); err != nil {
			o.logger.WithError(err).Error("Failed to deliver the summary notification")
			fmt.Fprintln(o.out, "發送總結通知失敗，請檢查日誌。")
		} else {
			fmt.Fprintln(o.out, "總結通知已成功發送。")
		}
	}
}
