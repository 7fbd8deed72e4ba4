package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("keeps attributes bound with With", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "yield_engine").Warn("bad cell", "row", 3)

		rec, ok := handler.FindMessage("bad cell")
		require.True(t, ok)
		assert.Equal(t, "yield_engine", rec.Attrs["component"])
		assert.Equal(t, int64(3), rec.Attrs["row"])
	})

	t.Run("derived loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("a", 1).Info("one")
		logger.WithGroup("g").Info("two", "k", "v")

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("g.k", "v"))
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("important message", slog.String("component", "test"))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)
	})
}

func TestSourcesBuilder(t *testing.T) {
	src := NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "0"}).
		LinkedDealer("GI25", "4.10", "2026-03-10").
		NominalDealer("GC30", "30", "2026-03-09").
		Build()

	require.NotNil(t, src.Dealer)
	assert.Equal(t, 1, src.Reference.Len())
	assert.Equal(t, "R2030", src.Exchange.Cell(0, src.Exchange.ColumnIndex("Benchmark")))
	assert.Equal(t, "4.10", src.Dealer.Linked.Cell(0, 1))
	assert.Equal(t, "30", src.Dealer.Nominal.Cell(0, src.Dealer.Nominal.ColumnIndex("Spread")))
}
