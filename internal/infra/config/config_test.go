package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"PORTAL_USERNAME":     "user@example.com",
		"PORTAL_PASSWORD":     "secret",
		"PORTAL_PROFILE_NAME": "Jane Doe",
		"PORTAL_ORGANIZATION": "Shell CPR, LLC.",
		"MAIL_API_KEY":        "key",
		"MAIL_SENDER_EMAIL":   "noreply@example.com",
		"OVERSIGHT_EMAIL":     "oversight@example.com",
	}
}

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "https://atlas-api-gateway.heart.org/classManagement/v2", cfg.Portal.ClassAPIURL)
	assert.Equal(t, int64(18260), cfg.Portal.ParentID)
	assert.Equal(t, 100, cfg.Portal.PageSize)
	assert.Equal(t, "userToken", cfg.Portal.TokenStorageKey)
	assert.Equal(t, time.Second, cfg.Portal.CourtesyDelayMin)
	assert.Equal(t, 3*time.Second, cfg.Portal.CourtesyDelayMax)
	assert.Equal(t, MailBrevo, cfg.Mail.Provider)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	assert.Equal(t, "data/done_classes.txt", cfg.Store.FilePath)
	assert.Equal(t, ScheduleInterval, cfg.Schedule.Mode)
	assert.Equal(t, 12*time.Hour, cfg.Schedule.Interval)
	assert.Equal(t, []int{9, 21}, cfg.Schedule.AnchorHours)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.True(t, cfg.Browser.Headless)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(env map[string]string)
		wantErr string
	}{
		{name: "missing username", mutate: func(e map[string]string) { delete(e, "PORTAL_USERNAME") }, wantErr: "PORTAL_USERNAME"},
		{name: "missing oversight", mutate: func(e map[string]string) { delete(e, "OVERSIGHT_EMAIL") }, wantErr: "OVERSIGHT_EMAIL"},
		{name: "api key required for brevo", mutate: func(e map[string]string) { delete(e, "MAIL_API_KEY") }, wantErr: "MAIL_API_KEY"},
		{name: "unknown provider", mutate: func(e map[string]string) { e["MAIL_PROVIDER"] = "pigeon" }, wantErr: "MAIL_PROVIDER"},
		{name: "postgres without url", mutate: func(e map[string]string) { e["NOTIFIED_STORE"] = "postgres" }, wantErr: "DATABASE_URL"},
		{name: "bad anchor hour", mutate: func(e map[string]string) { e["SCHEDULE_ANCHOR_HOURS"] = "9,25" }, wantErr: "SCHEDULE_ANCHOR_HOURS"},
		{name: "bad zone", mutate: func(e map[string]string) { e["SCHEDULE_TIMEZONE"] = "Mars/Olympus" }, wantErr: "SCHEDULE_TIMEZONE"},
		{name: "bad mode", mutate: func(e map[string]string) { e["SCHEDULE_MODE"] = "hourly" }, wantErr: "SCHEDULE_MODE"},
		{name: "inverted courtesy delay", mutate: func(e map[string]string) { e["COURTESY_DELAY_MIN"] = "5s" }, wantErr: "COURTESY_DELAY_MAX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mutate(env)
			_, err := FromEnv(lookup(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromEnv_ConsoleProviderNeedsNoKey(t *testing.T) {
	env := baseEnv()
	delete(env, "MAIL_API_KEY")
	env["MAIL_PROVIDER"] = "Console"
	env["SCHEDULE_MODE"] = "anchors"
	env["SCHEDULE_ANCHOR_HOURS"] = " 21, 9 ,9"

	cfg, err := FromEnv(lookup(env))
	require.NoError(t, err)
	assert.Equal(t, MailConsole, cfg.Mail.Provider)
	assert.Equal(t, []int{21, 9}, cfg.Schedule.AnchorHours)
}
