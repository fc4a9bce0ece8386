package utils

import (
	"sync"
	"time"
)

// Metrics holds in-process application counters
type Metrics struct {
	mu sync.RWMutex

	// Payment metrics
	TotalPayments        int64
	ZeroPayments         int64
	PartialPayments      int64
	TotalAmountCollected float64
	LastPaymentTime      time.Time

	// Liquidation metrics
	LiquidationsCreated int64
	LiquidationsSkipped int64
	BackfilledDays      int64
	LastLiquidationTime time.Time

	// Credit metrics
	CreditsCreated  int64
	CreditsRenewed  int64
	CreditsSettled  int64
	CreditsWritten  int64 // written off as irrecoverable

	// Error metrics
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics returns the metrics singleton
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordPayment records an applied payment
func (m *Metrics) RecordPayment(amount float64, partial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalPayments++
	m.TotalAmountCollected += amount
	m.LastPaymentTime = time.Now()

	if amount == 0 {
		m.ZeroPayments++
	}
	if partial {
		m.PartialPayments++
	}
}

// RecordLiquidation records a liquidation attempt
func (m *Metrics) RecordLiquidation(created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if created {
		m.LiquidationsCreated++
	} else {
		m.LiquidationsSkipped++
	}
	m.LastLiquidationTime = time.Now()
}

// RecordBackfilledDay records one day produced by the historical walk
func (m *Metrics) RecordBackfilledDay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackfilledDays++
}

// RecordCreditOperation records a credit lifecycle event
func (m *Metrics) RecordCreditOperation(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch operation {
	case "create":
		m.CreditsCreated++
	case "renew":
		m.CreditsRenewed++
	case "settle":
		m.CreditsSettled++
	case "writeoff":
		m.CreditsWritten++
	}
}

// RecordError records an error occurrence
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot returns a copy of the current counters
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_payments":         m.TotalPayments,
		"zero_payments":          m.ZeroPayments,
		"partial_payments":       m.PartialPayments,
		"total_amount_collected": m.TotalAmountCollected,
		"liquidations_created":   m.LiquidationsCreated,
		"liquidations_skipped":   m.LiquidationsSkipped,
		"backfilled_days":        m.BackfilledDays,
		"credits_created":        m.CreditsCreated,
		"credits_renewed":        m.CreditsRenewed,
		"credits_settled":        m.CreditsSettled,
		"credits_written_off":    m.CreditsWritten,
		"error_count":            m.ErrorCount,
		"last_error_time":        m.LastErrorTime,
		"error_types":            m.ErrorTypes,
	}
}

// ResetMetrics clears all counters
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalPayments = 0
	m.ZeroPayments = 0
	m.PartialPayments = 0
	m.TotalAmountCollected = 0
	m.LiquidationsCreated = 0
	m.LiquidationsSkipped = 0
	m.BackfilledDays = 0
	m.CreditsCreated = 0
	m.CreditsRenewed = 0
	m.CreditsSettled = 0
	m.CreditsWritten = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
