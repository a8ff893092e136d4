package common

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const defaultLevel = "info"

// NewLogger builds the console logger used for the running narrative of a run
func NewLogger(level string) arbor.ILogger {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = defaultLevel
	}

	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}).WithLevelFromString(level)
}
