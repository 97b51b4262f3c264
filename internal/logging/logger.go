// Package logging builds the JSON line logger shared by the server, migrations and tracing setup.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// New returns a logger that writes one JSON object per line to w.
// Timestamps are emitted under "ts" in loc and levels are lowercased.
func New(w io.Writer, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			}
			return a
		},
	})
	return slog.New(h)
}
