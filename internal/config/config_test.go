package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9999
  data_dir: /tmp/jobscout
scoring:
  model: gpt-4o
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.App.Port)
	assert.Equal(t, "gpt-4o", cfg.Scoring.Model)
	assert.Equal(t, 60, cfg.Scheduler.ScanSeconds, "untouched fields keep defaults")
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.App.Port = -1
	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Error(t, res.Err())
}

func TestValidateEmailFieldsTravelTogether(t *testing.T) {
	cfg := Default()
	cfg.Email.IMAPHost = "imap.example.com"
	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, res.Err().Error(), "email.imap_port")
	assert.Contains(t, res.Err().Error(), "email.username")

	cfg.Email.IMAPPort = 993
	cfg.Email.Username = "me@example.com"
	cfg.Email.Mailbox = ""
	out, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.Equal(t, "INBOX", out.Email.Mailbox, "mailbox defaults when host is set")
}

func TestEnsureUserConfigWritesDefaultsOnce(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	path, err := EnsureUserConfig(dataDir)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().App.Port, cfg.App.Port)

	// second call must not clobber user edits
	cfg.App.Port = 12345
	require.NoError(t, SaveAtomic(path, cfg))
	again, err := EnsureUserConfig(dataDir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.App.Port)
}

func TestSaveAtomicRefusesInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.ScanSeconds = 0
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	assert.Error(t, err)
}
