package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"leave_form_bot/internal/app"
	"leave_form_bot/internal/domain/form"
	"leave_form_bot/internal/domain/summary"
	"leave_form_bot/internal/infra/config"
	"leave_form_bot/internal/infra/console"
	"leave_form_bot/internal/infra/gforms"
	"leave_form_bot/internal/infra/logger"
	"leave_form_bot/internal/infra/mail"
	"leave_form_bot/internal/infra/scheduler"
	"leave_form_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

var (
	flagRequestFile string
	flagMode        string
	flagEnvFile     string
	flagYes         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "leave-form-bot",
		Short:         "Fills and submits the weekly day-off Google Forms at the scheduled instant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().StringVar(&flagRequestFile, "request", "", "path to the leave request file (default from REQUEST_FILE, else data.txt)")
	rootCmd.Flags().StringVar(&flagMode, "mode", "", `run mode: "test" or "live" (prompts when omitted)`)
	rootCmd.Flags().StringVar(&flagEnvFile, "env", "", "extra dotenv file loaded before the environment is read")
	rootCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the interactive confirmation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	divider := strings.Repeat("=", 60)

	fmt.Fprintln(out, "\n"+divider)
	fmt.Fprintln(out, "Google 表單自動填寫工具")
	fmt.Fprintln(out, divider)

	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return fmt.Errorf("could not load application configuration: %w", err)
	}

	log := logger.New(cfg)
	baseLogger := logrus.NewEntry(log)

	requestFile := cfg.RequestFile
	if flagRequestFile != "" {
		requestFile = flagRequestFile
	}

	req, err := config.LoadRequest(requestFile)
	if err != nil {
		return fmt.Errorf("invalid leave request: %w", err)
	}

	fmt.Fprintln(out, req.Describe())

	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid leave request: %w", err)
	}

	prompter := console.NewPrompter(cmd.InOrStdin(), out)
	if !flagYes {
		ok, err := prompter.Confirm("\n請確認以上設定是否正確 (Y/n): ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "\n使用者取消操作")
			return nil
		}
	}

	mode, err := pickMode(prompter)
	if err != nil {
		return err
	}
	baseLogger.WithField("mode", mode.String()).Info("Run mode selected")

	resolver := gforms.NewListResolver(cfg.URLsFileTest, cfg.URLsFileLive, cfg.HTTPTimeout, baseLogger.WithField("component", "resolver"))
	inspector := gforms.NewPageInspector(cfg.HTTPTimeout, baseLogger.WithField("component", "inspector"))
	submitter := gforms.NewFormSubmitter(cfg.HTTPTimeout, baseLogger.WithField("component", "submitter"))
	preparer := app.NewPreparationService(resolver, inspector, cfg.LeaveOption, baseLogger.WithField("component", "preparer"))

	sched, err := scheduler.New(cfg.SubmitCron, cfg.SubmitOffset, baseLogger.WithField("component", "scheduler"), out)
	if err != nil {
		return err
	}

	sinks := []summary.Sink{
		mail.NewSummaryMailer(mail.Settings{
			Sender:     cfg.SenderEmail,
			Recipients: cfg.RecipientEmail,
			Password:   cfg.MailPassword,
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
		}, baseLogger.WithField("component", "mailer")),
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		bot, err := telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken})
		if err != nil {
			baseLogger.WithError(err).Error("Could not create the Telegram bot, continuing without the Telegram sink")
		} else {
			sinks = append(sinks, telegram.NewSummaryNotifier(bot, cfg.TelegramChatID))
		}
	}

	orchestrator := app.NewOrchestrator(preparer, submitter, sched, sinks, out, baseLogger.WithField("component", "orchestrator"))

	if _, err := orchestrator.Run(cmd.Context(), req, mode); err != nil {
		// An operator interrupt is a clean stop, not a failure exit.
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	fmt.Fprintln(out, "\n所有任務已完成！")
	return nil
}

func pickMode(prompter *console.Prompter) (form.Mode, error) {
	switch strings.ToLower(flagMode) {
	case "test":
		return form.ModeTest, nil
	case "live":
		return form.ModeLive, nil
	case "":
		return prompter.SelectMode()
	}
	return form.ModeTest, fmt.Errorf(`invalid --mode %q: use "test" or "live"`, flagMode)
}
