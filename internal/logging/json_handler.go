package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Console lines use local wall-clock time; JSON lines use UTC so audit and log
// timestamps compare directly.
const consoleTimestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimestampLayout)
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: jsonAttr,
	})
}

// jsonAttr renames the built-in keys to ts/level/msg/source and flattens
// their values. Grouped attributes pass through.
func jsonAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	case "error":
		if err, ok := attr.Value.Any().(error); ok && err != nil {
			attr.Value = slog.StringValue(err.Error())
		}
	}
	return attr
}
