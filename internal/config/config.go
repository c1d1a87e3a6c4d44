package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Scheduler struct {
		// how often the due-scan wakes up to look for runnable automations
		ScanSeconds int `yaml:"scan_seconds"`
	} `yaml:"scheduler"`

	Scoring struct {
		Model string `yaml:"model"`
	} `yaml:"scoring"`

	Resilience struct {
		MaxAttempts         int `yaml:"max_attempts"`
		BreakerFailures     int `yaml:"breaker_failures"`
		BreakerDelaySeconds int `yaml:"breaker_delay_seconds"`
		CallTimeoutSeconds  int `yaml:"call_timeout_seconds"`
		MaxConcurrent       int `yaml:"max_concurrent"`
	} `yaml:"resilience"`

	Email struct {
		IMAPHost string `yaml:"imap_host"`
		IMAPPort int    `yaml:"imap_port"`
		Username string `yaml:"username"`
		Mailbox  string `yaml:"mailbox"`
	} `yaml:"email"`

	Boards struct {
		Remotive struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"remotive"`
		TheMuse struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"themuse"`
	} `yaml:"boards"`
}

// Default is the config an empty file resolves to.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38500
	cfg.App.DataDir = "data"
	cfg.Scheduler.ScanSeconds = 60
	cfg.Email.Mailbox = "INBOX"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func SaveAtomic(path string, cfg Config) error {
	if _, res := NormalizeAndValidate(cfg); !res.OK() {
		return res.Err()
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
