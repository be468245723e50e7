package core

import "context"

type contextKey string

const ctxKeyTrigger contextKey = "run_trigger"

// Triggers name what started a validation run. They appear in run logs.
const (
	TriggerCLI      = "cli"
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
	TriggerWatch    = "watch"
)

// ContextWithTrigger records what started the run.
func ContextWithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, ctxKeyTrigger, trigger)
}

// TriggerFromContext returns the run trigger, or "" if none was set.
func TriggerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyTrigger).(string); ok {
		return v
	}
	return ""
}
