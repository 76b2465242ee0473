package intercept

import (
	"context"
	"log/slog"
)

// consolePrinter forwards console output of page scripts to the logger at
// debug level.
type consolePrinter struct {
	logger *slog.Logger
}

func (p consolePrinter) Log(msg string)   { p.print("log", msg) }
func (p consolePrinter) Warn(msg string)  { p.print("warn", msg) }
func (p consolePrinter) Error(msg string) { p.print("error", msg) }

func (p consolePrinter) print(level, msg string) {
	p.logger.DebugContext(context.Background(), "page console",
		slog.String("console", level),
		slog.String("message", msg),
	)
}
