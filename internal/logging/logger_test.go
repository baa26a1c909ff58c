package logging

import (
	"errors"
	"testing"

	"github.com/fadedpez/reverseroulette/internal/types"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level.zapLevel())
	return &Logger{sugar: zap.New(core).Sugar(), level: level}, logs
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ParseLevel(tc.in), "input %q", tc.in)
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := newObserved(WARN)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Error("shown %d", 4)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "shown 3", entries[0].Message)
		assert.Equal(t, "shown 4", entries[1].Message)
	}
}

func TestLogErrorExpandsGameError(t *testing.T) {
	logger, logs := newObserved(DEBUG)

	logger.LogError(types.WrapError(types.ErrRemoteUnavailable, "publish failed", errors.New("503")))
	logger.LogError(errors.New("boom"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Contains(t, entries[0].Message, "Code: REMOTE_UNAVAILABLE")
		assert.Contains(t, entries[0].Message, "Cause: 503")
		assert.Equal(t, "Unexpected error: boom", entries[1].Message)
	}
}

func TestNamedKeepsLevel(t *testing.T) {
	logger, logs := newObserved(INFO)

	logger.Named("host").With("game", "abc").Info("tick")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "host", entries[0].LoggerName)
		assert.Equal(t, "abc", entries[0].ContextMap()["game"])
	}
}
