package config

import (
	"errors"
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Warnings never block startup.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if strings.TrimSpace(out.App.DataDir) == "" {
		res.addErr("app.data_dir is required")
	}

	if out.Scheduler.ScanSeconds <= 0 {
		res.addErr("scheduler.scan_seconds must be > 0")
	} else if out.Scheduler.ScanSeconds < 10 {
		res.addWarn("scheduler.scan_seconds is very low (%d); the due-scan is cheap but not free.", out.Scheduler.ScanSeconds)
	}

	if out.Resilience.MaxAttempts < 0 {
		res.addErr("resilience.max_attempts must be >= 0")
	}
	if out.Resilience.MaxConcurrent < 0 {
		res.addErr("resilience.max_concurrent must be >= 0")
	}

	// email fields are optional overall but must be complete together
	out.Email.IMAPHost = strings.TrimSpace(out.Email.IMAPHost)
	out.Email.Username = strings.TrimSpace(out.Email.Username)
	if out.Email.IMAPHost != "" {
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.imap_host is set")
		}
		if out.Email.Username == "" {
			res.addErr("email.username is required when email.imap_host is set")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			out.Email.Mailbox = "INBOX"
		}
	}

	return out, res
}
