package workers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"diligence/pkg/errors"
)

func TestBaseWorker_HealthBookkeeping(t *testing.T) {
	w := NewBaseWorker("report_regenerator", time.Hour, true)

	w.RecordRun(2 * time.Second)
	w.RecordError(errors.New("profile dir unreadable"), 4*time.Second)

	health := w.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Equal(t, 4*time.Second, health.LastDuration)
	assert.Equal(t, 3*time.Second, health.AvgDuration)
	assert.Error(t, health.LastError)
	assert.False(t, health.LastRun.IsZero())

	w.RecordRun(time.Second)
	assert.NoError(t, w.Health().LastError)
}

func TestBaseWorker_SetEnabled(t *testing.T) {
	w := NewBaseWorker("report_regenerator", time.Hour, true)
	assert.True(t, w.Enabled())

	w.SetEnabled(false)
	assert.False(t, w.Enabled())
}
