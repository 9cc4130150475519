package service

import "log/slog"

// LogReporter is the default Reporter: it writes reported errors to the
// structured log. A hosted error tracker can replace it at wiring time
// without touching the services.
type LogReporter struct {
	Logger *slog.Logger
}

func (r *LogReporter) Report(err error) {
	if err == nil {
		return
	}
	r.Logger.Error("reported error", slog.String("error", err.Error()))
}
