package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSetting  = errors.New("unknown setting")
	ErrInvalidCurrency = errors.New("invalid currency")
)

// Toggle keys accepted by Settings.Toggle.
const (
	SettingBudgetAlerts   = "budget_alerts"
	SettingAutoCategorize = "auto_categorize"
	SettingEmailSync      = "email_sync"
)

// Settings is a value record. Updates produce a new record which callers
// persist wholesale; nothing mutates a stored Settings in place.
type Settings struct {
	Currency       string `json:"currency"`
	BudgetAlerts   bool   `json:"budget_alerts"`
	AutoCategorize bool   `json:"auto_categorize"`
	EmailSync      bool   `json:"email_sync"`
}

func DefaultSettings() Settings {
	return Settings{
		Currency:       "INR",
		BudgetAlerts:   true,
		AutoCategorize: true,
		EmailSync:      true,
	}
}

// Toggle returns a copy of s with the named flag inverted.
func (s Settings) Toggle(key string) (Settings, error) {
	switch key {
	case SettingBudgetAlerts:
		s.BudgetAlerts = !s.BudgetAlerts
	case SettingAutoCategorize:
		s.AutoCategorize = !s.AutoCategorize
	case SettingEmailSync:
		s.EmailSync = !s.EmailSync
	default:
		return s, fmt.Errorf("%w %q", ErrUnknownSetting, key)
	}
	return s, nil
}

func (s Settings) Validate() error {
	c := strings.TrimSpace(s.Currency)
	if len(c) != 3 || strings.ToUpper(c) != c {
		return fmt.Errorf("%w %q: must be a 3 letter ISO code", ErrInvalidCurrency, s.Currency)
	}
	return nil
}
