package services

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finworks/accrual-engine-go/internal/config"
	"github.com/finworks/accrual-engine-go/internal/models"
	"github.com/finworks/accrual-engine-go/internal/telemetry"
)

// maxSummaryCategories caps how many categories a run summary lists.
const maxSummaryCategories = 8

// CategoryDegradation flags a category whose mean percentage error exceeded
// the alert threshold in an accuracy run.
type CategoryDegradation struct {
	Category     string
	MeanPctError float64
	WorstMethod  models.ForecastMethod
}

// TelegramNotifier sends ops alerts about forecast runs and accuracy
// degradation to one configured chat. Every method is a no-op when the bot
// token or chat ID is missing, so callers never need to gate on it.
type TelegramNotifier struct {
	bot     *bot.Bot
	chatID  int64
	logger  *logrus.Logger
	tracer  *telemetry.BusinessTracer
	printer *message.Printer
	titler  cases.Caser
}

// NewTelegramNotifier creates a notifier from the Telegram configuration.
// An empty bot token disables delivery without failing startup.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *logrus.Logger) *TelegramNotifier {
	if logger == nil {
		logger = logrus.New()
	}

	var telegramBot *bot.Bot
	if cfg.BotToken != "" {
		b, err := bot.New(cfg.BotToken)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Telegram bot, notifications disabled")
		} else {
			telegramBot = b
		}
	}

	return &TelegramNotifier{
		bot:     telegramBot,
		chatID:  cfg.ChatID,
		logger:  logger,
		tracer:  telemetry.NewBusinessTracer(),
		printer: message.NewPrinter(language.English),
		titler:  cases.Title(language.English),
	}
}

// Enabled reports whether the notifier has a working bot and a destination
// chat.
func (n *TelegramNotifier) Enabled() bool {
	return n.bot != nil && n.chatID != 0
}

// NotifyRunSummary sends a digest of a completed forecast run: period,
// version ID and the recommended amount per category.
func (n *TelegramNotifier) NotifyRunSummary(ctx context.Context, version *models.ForecastVersion) error {
	if !n.Enabled() {
		return nil
	}

	ctx, span := n.tracer.TraceNotification(ctx, "run_summary", "telegram")
	defer span.End()

	err := n.send(ctx, n.formatRunSummary(version))
	n.tracer.RecordNotificationResult(span, err == nil, err)
	return err
}

// NotifyDegradation alerts that one or more categories crossed the accuracy
// degradation threshold when a period was scored.
func (n *TelegramNotifier) NotifyDegradation(ctx context.Context, period models.Period, degraded []CategoryDegradation) error {
	if !n.Enabled() || len(degraded) == 0 {
		return nil
	}

	ctx, span := n.tracer.TraceNotification(ctx, "degradation_alert", "telegram")
	defer span.End()

	err := n.send(ctx, n.formatDegradation(period, degraded))
	n.tracer.RecordNotificationResult(span, err == nil, err)
	return err
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// formatRunSummary creates a formatted message for a completed forecast run
func (n *TelegramNotifier) formatRunSummary(version *models.ForecastVersion) string {
	msg := fmt.Sprintf("📊 *Forecast Run %s*\n\n", version.Period.Key())
	if version.Label != "" {
		msg += fmt.Sprintf("Label: %s\n", version.Label)
	}
	msg += fmt.Sprintf("Version: `%s`\n", version.ID)
	msg += fmt.Sprintf("Categories: %d\n\n", len(version.Categories))

	shown := 0
	failed := 0
	for _, cat := range version.Categories {
		if cat.Recommendation == nil {
			failed++
			continue
		}
		if shown >= maxSummaryCategories {
			shown++
			continue
		}
		msg += fmt.Sprintf("• *%s*: %s (%s confidence, %s)\n",
			cat.Category,
			n.formatAmount(cat.Recommendation.Amount),
			n.titler.String(string(cat.Recommendation.Confidence)),
			string(cat.Recommendation.Trend))
		shown++
	}

	if shown > maxSummaryCategories {
		msg += fmt.Sprintf("...and %d more categories\n", shown-maxSummaryCategories)
	}
	if failed > 0 {
		msg += fmt.Sprintf("\n⚠️ %d categories produced no recommendation\n", failed)
	}

	return msg
}

// formatDegradation creates a formatted message for an accuracy degradation alert
func (n *TelegramNotifier) formatDegradation(period models.Period, degraded []CategoryDegradation) string {
	msg := fmt.Sprintf("🚨 *Accuracy Degradation %s*\n\n", period.Key())
	msg += fmt.Sprintf("%d categories exceeded the error threshold:\n\n", len(degraded))

	for _, d := range degraded {
		msg += fmt.Sprintf("• *%s*: mean error %.1f%% (worst: %s)\n",
			d.Category,
			d.MeanPctError*100,
			n.titler.String(string(d.WorstMethod)))
	}

	msg += "\nReview the category forecasts before the next run."
	return msg
}

// formatAmount renders a monetary value with grouped digits, e.g. 12,345.67.
func (n *TelegramNotifier) formatAmount(amount decimal.Decimal) string {
	return n.printer.Sprintf("%.2f", amount.InexactFloat64())
}
