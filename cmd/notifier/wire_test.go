package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"enrollment_notifier/internal/infra/config"
	"enrollment_notifier/internal/infra/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.StoreConfig
	}{
		{name: "file", cfg: config.StoreConfig{Backend: config.StoreFile, FilePath: filepath.Join(dir, "done.txt")}},
		{name: "sqlite", cfg: config.StoreConfig{Backend: config.StoreSQLite, SQLitePath: filepath.Join(dir, "notified.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			store, closer, err := openStore(ctx, tt.cfg)
			require.NoError(t, err)

			require.NoError(t, store.Add(ctx, "C1"))
			ok, err := store.Contains(ctx, "C1")
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, closer())
		})
	}

	_, _, err := openStore(testContext(t), config.StoreConfig{Backend: "redis"})
	assert.Error(t, err)
}

func TestNewSender(t *testing.T) {
	cfg := &config.AppConfig{Mail: config.MailConfig{Provider: config.MailConsole}}
	s, err := newSender(cfg)
	require.NoError(t, err)
	assert.IsType(t, &mail.ConsoleSender{}, s)

	cfg.Mail.Provider = config.MailSendGrid
	s, err = newSender(cfg)
	require.NoError(t, err)
	assert.IsType(t, &mail.SendGridSender{}, s)

	cfg.Mail.Provider = "pigeon"
	_, err = newSender(cfg)
	assert.Error(t, err)
}

func TestNotifiedCommands(t *testing.T) {
	cfg := &config.AppConfig{Store: config.StoreConfig{Backend: config.StoreFile, FilePath: filepath.Join(t.TempDir(), "done.txt")}}
	cfgFn := func() *config.AppConfig { return cfg }

	run := func(args ...string) string {
		t.Helper()
		cmd := newNotifiedCmd(cfgFn)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	assert.Equal(t, "false\n", run("has", "C7"))
	assert.Equal(t, "added C7\n", run("add", "C7"))
	assert.Equal(t, "true\n", run("has", "C7"))
}
