package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	t.Run("Levels", func(t *testing.T) {
		var buf bytes.Buffer
		l := newLogger(&buf, false)
		l.Debug("hidden")
		l.Info("shown", "key", "value")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
		assert.Contains(t, buf.String(), "key=value")

		buf.Reset()
		newLogger(&buf, true).Debug("details")
		assert.Contains(t, buf.String(), "details")
	})

	t.Run("Context", func(t *testing.T) {
		assert.Same(t, log.Default(), loggerFromContext(context.Background()))
		l := newLogger(&bytes.Buffer{}, false)
		assert.Same(t, l, loggerFromContext(withLogger(context.Background(), l)))
	})

	t.Run("Slog", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := withLogger(context.Background(), newLogger(&buf, false))
		slogger(ctx).Info("from library", "rows", 3)
		assert.Contains(t, buf.String(), "from library")
		assert.Contains(t, buf.String(), "rows=3")
	})

	t.Run("Progress", func(t *testing.T) {
		var buf bytes.Buffer
		newProgress(newLogger(&buf, false)).done("finished", "types", 2)
		assert.Contains(t, buf.String(), "finished")
		assert.Contains(t, buf.String(), "types=2")
		assert.Contains(t, buf.String(), "elapsed=")
	})
}
