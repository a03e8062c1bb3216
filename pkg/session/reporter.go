package session

import "context"

// ErrorReporter receives storage, crypto and tamper failures. It is called
// synchronously on the failing path.
type ErrorReporter interface {
	Report(ctx context.Context, op string, err error)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(ctx context.Context, op string, err error)

func (f ErrorReporterFunc) Report(ctx context.Context, op string, err error) {
	f(ctx, op, err)
}

type noopReporter struct{}

func (noopReporter) Report(context.Context, string, error) {}
