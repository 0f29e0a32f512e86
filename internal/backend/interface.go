// Package backend wires storage, messaging, caches, mailbox and services
// from configuration. Every binary builds its dependencies through here.
package backend

import (
	"errors"

	"momentum/internal/amqp"
	"momentum/internal/cache"
	"momentum/internal/config"
	"momentum/internal/finance"
	"momentum/internal/log"
	"momentum/internal/services"
	"momentum/internal/storage"
)

// CleanupFunc releases one resource.
type CleanupFunc func() error

// App holds the wired dependencies. AMQP is nil when messaging is disabled
// or unreachable.
type App struct {
	Config *config.Config
	Logger *log.Logger

	Repo      *storage.SQLiteRepository
	AMQP      *amqp.Client
	Summaries *cache.LRU[finance.Summary]

	Transactions *services.TransactionService
	Habits       *services.HabitService
	Budgets      *services.BudgetService
	Settings     *services.SettingsService
	Ingest       *services.IngestService

	cleanups []CleanupFunc
}

func (a *App) onClose(fn CleanupFunc) {
	a.cleanups = append(a.cleanups, fn)
}

// Close runs the cleanups in reverse order of registration.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
