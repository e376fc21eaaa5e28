package log_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	applog "honeydesk/internal/log"
)

func TestAuditAndErrorEntries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	applog.Set(zap.New(core))
	t.Cleanup(func() { applog.Set(zap.NewNop()) })

	fields := map[string]any{"order_id": int64(7)}
	applog.Audit(nil, "admin.order.approve", fields)
	applog.Error(nil, "notify.fail", errors.New("unreachable"), map[string]any{"to": "42"})
	applog.Security(nil, "admin.superadmin.block", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "admin.order.approve", entries[0].Message)
	assert.Equal(t, true, entries[0].ContextMap()["audit"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["order_id"])
	_, mutated := fields["audit"]
	assert.False(t, mutated)

	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "unreachable", entries[1].ContextMap()["error"])

	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, "security", entries[2].ContextMap()["kind"])
}
