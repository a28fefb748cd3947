package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.SLA.EscalationIntervalSeconds)
	assert.Equal(t, 5*time.Minute, cfg.SLA.EscalationInterval())
	assert.Equal(t, 7, cfg.SLA.AutoCloseDays)
	assert.Equal(t, "MONDAY", cfg.SLA.WeeklyReportDay)
	assert.Equal(t, 9, cfg.SLA.WeeklyReportHour)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLA_ESCALATION_INTERVAL_SECONDS", "60")
	t.Setenv("AUTO_CLOSE_DAYS", "14")
	t.Setenv("WEEKLY_REPORT_DAY", "friday")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.SLA.EscalationInterval())
	assert.Equal(t, 14, cfg.SLA.AutoCloseDays)
	assert.Equal(t, "FRIDAY", cfg.SLA.WeeklyReportDay)
}

func TestLoadRejectsNonPositiveCadences(t *testing.T) {
	t.Setenv("SLA_ESCALATION_INTERVAL_SECONDS", "0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SLA_ESCALATION_INTERVAL_SECONDS", "300")
	t.Setenv("AUTO_CLOSE_DAYS", "-1")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsBadWeeklyReportSchedule(t *testing.T) {
	t.Setenv("WEEKLY_REPORT_DAY", "SOMEDAY")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("WEEKLY_REPORT_DAY", "SUNDAY")
	t.Setenv("WEEKLY_REPORT_HOUR", "24")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("WEEKLY_REPORT_HOUR", "-1")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("WEEKLY_REPORT_HOUR", "23")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 23, cfg.SLA.WeeklyReportHour)
}

func TestAppAddr(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9090"}
	assert.Equal(t, "127.0.0.1:9090", app.Addr())
}
