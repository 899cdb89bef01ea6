package service

import (
	"fmt"
	"strings"
	"time"

	"macd_scanner/internal/helper"
	"macd_scanner/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// istZone — вселенная NSE, время в алертах показываем по Калькутте.
var istZone = time.FixedZone("IST", 5*3600+30*60)

// FormatBatch — одно сообщение на весь батч: шапка, секция 4H, секция 1D.
func FormatBatch(scannedAt time.Time, events []models.TransitionEvent) string {
	var b strings.Builder

	b.WriteString("📈 *MACD Crossover Summary*\n")
	fmt.Fprintf(&b, "🕒 *Scanned at:* %s IST\n", scannedAt.In(istZone).Format("02 Jan 2006, 03:04 PM"))

	writeSection(&b, "⏱ *4H Timeframe*", models.TF4H, events)
	writeSection(&b, "📅 *1D Timeframe*", models.TF1D, events)

	return b.String()
}

func writeSection(b *strings.Builder, title string, tf models.Timeframe, events []models.TransitionEvent) {
	first := true
	for _, ev := range events {
		if ev.Key.Timeframe != tf {
			continue
		}
		if first {
			b.WriteString("\n" + title + "\n")
			first = false
		}
		fmt.Fprintf(b, "• %s → %s\n", helper.StripProviderSuffix(ev.Key.Symbol), ev.Next)
	}
}

// BatchKeyboard — кнопки на график TradingView, по две в ряд.
func BatchKeyboard(events []models.TransitionEvent) tgbot.InlineKeyboardMarkup {
	seen := make(map[string]bool)
	var rows [][]tgbot.InlineKeyboardButton
	var row []tgbot.InlineKeyboardButton

	for _, ev := range events {
		sym := helper.StripProviderSuffix(ev.Key.Symbol)
		if seen[sym] {
			continue
		}
		seen[sym] = true

		row = append(row, tgbot.NewInlineKeyboardButtonURL("🔗 "+sym, helper.ChartURL(ev.Key.Symbol)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}
