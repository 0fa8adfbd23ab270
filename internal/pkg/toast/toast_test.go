package toast

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	Success(c, "Added to cart")
	Error(c, "Could not update quantity: %s", "out of stock")
	Info(c, "Showing your saved cart")

	assert.Equal(t, "✓ Added to cart\n✗ Could not update quantity: out of stock\n· Showing your saved cart\n", out.String())
}

func TestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := NewLog(logger)

	Error(l, "Could not delete review")
	Success(l, "Review deleted")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.WarnLevel, entries[0].Level)
	assert.Equal(t, "error", entries[0].Data["toast"])
	assert.Equal(t, logrus.DebugLevel, entries[1].Level)
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, b}

	Error(m, "failed")
	Success(m, "done")

	for _, r := range []*Recorder{a, b} {
		assert.Equal(t, 1, r.Count(LevelError))
		assert.Equal(t, 1, r.Count(LevelSuccess))
		toasts := r.Toasts()
		require.Len(t, toasts, 2)
		assert.Equal(t, "failed", toasts[0].Message)
		assert.False(t, toasts[0].At.IsZero())
	}
}

func TestNilNotifier(t *testing.T) {
	assert.NotPanics(t, func() { Error(nil, "ignored") })
}
