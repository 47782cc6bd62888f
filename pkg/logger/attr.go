package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// Nil errors yield an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// EventType records a billing event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// ThumbnailID records the thumbnail identifier under the key "thumbnail_id".
func ThumbnailID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("thumbnail_id", id)
}

// Backend records a generation backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Attempt records a retry attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
