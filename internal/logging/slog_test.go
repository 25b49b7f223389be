package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBufLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newBufLogger(slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "k", "v")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")

	out := buf.String()
	require.Contains(t, out, "dbg")
	require.Contains(t, out, "k=v")
	require.Contains(t, out, "inf")
	require.Contains(t, out, "wrn")
	require.Contains(t, out, "err")
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newBufLogger(slog.LevelInfo)

	child := log.With("space_id", "abc")
	child.Info(context.Background(), "saved")

	require.Contains(t, buf.String(), "space_id=abc")
	require.Contains(t, buf.String(), "saved")
}
