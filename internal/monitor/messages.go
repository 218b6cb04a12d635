package monitor

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"crouswatch/internal/config"
	"crouswatch/internal/domain"
)

var titleCaser = cases.Title(language.French)

func startedMessage(cfg config.Settings) string {
	city := titleCaser.String(strings.TrimSpace(cfg.City))
	return fmt.Sprintf("🤖 <b>CROUS %s Monitor Started</b>\n\nChecking for %s listings every %g minute(s).",
		city, city, cfg.Interval)
}

func stoppedMessage(cfg config.Settings, reason domain.StopReason) string {
	city := titleCaser.String(strings.TrimSpace(cfg.City))
	if reason == domain.StopFatal {
		return fmt.Sprintf("❌ <b>CROUS %s Monitor Stopped</b>\n\nMonitoring has stopped unexpectedly.", city)
	}
	return fmt.Sprintf("🛑 <b>CROUS %s Monitor Stopped</b>\n\nMonitoring has been stopped by user.", city)
}
