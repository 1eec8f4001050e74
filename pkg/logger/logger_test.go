package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelsRouteToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Init("test")

	Info("sent message %s", "m1")
	Warn("slow subscriber %d", 3)
	Error("boom: %v", "disk")
	Debug("detail")

	entries := logs.All()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, "sent message m1", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "boom: disk", entries[2].Message)
		assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
	}
}

func TestWithAttachesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Init("test")

	With("user", "owner-a", "channel", "conv-1").Warn("send queue full")

	entries := logs.FilterMessage("send queue full").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "owner-a", fields["user"])
		assert.Equal(t, "conv-1", fields["channel"])
	}
}
