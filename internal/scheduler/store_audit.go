package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// ItemAuditor reports ids whose stored value is invalid.
type ItemAuditor interface {
	Audit(ctx context.Context) ([]string, error)
}

// AuditReport is the outcome of the most recent audit run.
type AuditReport struct {
	LastRun    time.Time `json:"last_run"`
	InvalidIDs []string  `json:"invalid_ids"`
	Error      string    `json:"error,omitempty"`
}

// StoreAuditor checks the item store at startup, then periodically and on demand.
// It never repairs anything; invalid ids are logged and kept in the report.
type StoreAuditor struct {
	items         ItemAuditor
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.RWMutex
	report AuditReport
}

// NewStoreAuditor creates an auditor. interval <= 0 disables periodic runs.
func NewStoreAuditor(items ItemAuditor, log logger.Logger, interval time.Duration, manualTrigger chan struct{}) *StoreAuditor {
	return &StoreAuditor{
		items:         items,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs one audit immediately, then serves ticks and manual triggers.
func (a *StoreAuditor) Start(ctx context.Context) error {
	if err := a.Run(ctx); err != nil {
		a.logger.Warn("initial store audit failed", logger.Error(err))
	}

	var tick <-chan time.Time
	if a.interval > 0 {
		ticker := time.NewTicker(a.interval)
		tick = ticker.C
		go func() {
			<-a.stopCh
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-tick:
				if err := a.Run(ctx); err != nil {
					a.logger.Error("store audit failed", logger.Error(err))
				}
			case <-a.manualTrigger:
				a.logger.Info("manual store audit triggered")
				if err := a.Run(ctx); err != nil {
					a.logger.Error("store audit failed", logger.Error(err))
				}
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the auditor. It is safe to call more than once.
func (a *StoreAuditor) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

// Run performs one audit and records the report.
func (a *StoreAuditor) Run(ctx context.Context) error {
	bad, err := a.items.Audit(ctx)

	rep := AuditReport{LastRun: time.Now(), InvalidIDs: bad}
	if rep.InvalidIDs == nil {
		rep.InvalidIDs = []string{}
	}
	if err != nil {
		rep.Error = err.Error()
	}
	a.mu.Lock()
	a.report = rep
	a.mu.Unlock()

	if err != nil {
		return err
	}
	if len(bad) > 0 {
		a.logger.Warn("store audit found invalid items",
			logger.Int("count", len(bad)),
			logger.Strings("ids", bad))
	} else {
		a.logger.Debug("store audit clean")
	}
	return nil
}

// Report returns a copy of the latest report.
func (a *StoreAuditor) Report() AuditReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rep := a.report
	rep.InvalidIDs = append([]string(nil), a.report.InvalidIDs...)
	return rep
}
