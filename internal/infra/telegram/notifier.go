// internal/infra/telegram/notifier.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"leave_form_bot/internal/domain/summary"

	"gopkg.in/telebot.v3"
)

// SummaryNotifier implements the summary sink over the gopkg.in/telebot.v3
// library. It is the optional secondary channel next to the mail sink.
type SummaryNotifier struct {
	bot    *telebot.Bot
	chatID int64
}

func NewSummaryNotifier(b *telebot.Bot, chatID int64) *SummaryNotifier {
	return &SummaryNotifier{bot: b, chatID: chatID}
}

// Deliver sends the run summary as a plain text message to the configured
// chat.
func (n *SummaryNotifier) Deliver(ctx context.Context, rec *summary.Record) error {
	recipient := &telebot.User{ID: n.chatID}
	_, err := n.bot.Send(recipient, formatRecord(rec), &telebot.SendOptions{})
	return err
}

func formatRecord(rec *summary.Record) string {
	var b strings.Builder
	b.WriteString("表單提交總結報告\n\n")
	fmt.Fprintf(&b, "本次提交的表單：%s\n", strings.Join(rec.SubmittedDays, "、"))
	if rec.ReasonSaturday != "" {
		fmt.Fprintf(&b, "星期六原因：%s\n", rec.ReasonSaturday)
	}
	if rec.ReasonSunday != "" {
		fmt.Fprintf(&b, "星期日原因：%s\n", rec.ReasonSunday)
	}

	if rec.AllSuccess {
		b.WriteString("\n全數成功，已提交所有指定表單。")
		return b.String()
	}

	fmt.Fprintf(&b, "\n成功：%s\n", joinOrNone(rec.SuccessfulDays))
	b.WriteString("失敗：\n")
	for _, task := range rec.Failed {
		fmt.Fprintf(&b, "  - %s（%s）\n", task.DayName, failureLabel(task.Stage))
	}
	return b.String()
}

func joinOrNone(days []string) string {
	if len(days) == 0 {
		return "無"
	}
	return strings.Join(days, "、")
}

func failureLabel(stage summary.FailureStage) string {
	switch stage {
	case summary.StagePreparation:
		return "資料準備失敗"
	case summary.StageSubmission:
		return "提交失敗"
	}
	return "未知失敗"
}
