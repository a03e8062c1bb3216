package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Account records the authentication subject under the key "account".
// Empty accounts produce an empty Attr.
func Account(account string) slog.Attr {
	if account == "" {
		return slog.Attr{}
	}
	return slog.String("account", account)
}

// Status records a session status under the key "status".
func Status(status any) slog.Attr {
	return slog.Any("status", status)
}

// Transition records the from/to pair of a state change under "transition".
func Transition(from, to any) slog.Attr {
	return Group("transition", slog.Any("from", from), slog.Any("to", to))
}

// DocumentID records a sealed document identifier under the key "document_id".
func DocumentID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("document_id", id)
}

// WaitTime records a throttling delay under the key "wait".
func WaitTime(d time.Duration) slog.Attr {
	return slog.Duration("wait", d)
}

// Backend records a storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
