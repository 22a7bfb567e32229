package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{
			name: "no logger falls back to default",
			ctx:  context.Background(),
			want: slog.Default(),
		},
		{
			name: "logger stored with WithLogger",
			ctx:  WithLogger(context.Background(), custom),
			want: custom,
		},
		{
			name: "wrong value type falls back to default",
			ctx:  context.WithValue(context.Background(), loggerKey, "not a logger"),
			want: slog.Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("LoggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}

func TestTokenFromContext(t *testing.T) {
	if _, ok := TokenFromContext(context.Background()); ok {
		t.Error("TokenFromContext() on empty context should report false")
	}
	if _, ok := TokenFromContext(WithToken(context.Background(), "")); ok {
		t.Error("TokenFromContext() with empty token should report false")
	}
	token, ok := TokenFromContext(WithToken(context.Background(), "abc"))
	if !ok || token != "abc" {
		t.Errorf("TokenFromContext() = %q, %v, want abc, true", token, ok)
	}
}
