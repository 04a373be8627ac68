package testlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/logx"
)

func TestRecorder_WithKeepsBaseFields(t *testing.T) {
	rec := New()
	l := rec.Logger().With(logx.OrderID("o-1"))

	l.Info("order created", logx.String("event", "order_created"))
	l.Warn("late fix ignored", logx.String("event", "location_ignored"))

	require.Len(t, rec.Entries(), 2)
	require.Equal(t, []string{"order_created", "location_ignored"}, rec.Events())

	got := rec.Find("order created")
	require.Len(t, got, 1)
	v, ok := got[0].Field("order_id")
	require.True(t, ok)
	require.Equal(t, "o-1", v)
	require.Equal(t, "info", got[0].Level)
}
