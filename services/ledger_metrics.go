package services

import "sync"

// LedgerSnapshot is a point-in-time copy of the ledger counters.
type LedgerSnapshot struct {
	TipsInitiated          int64 `json:"tips_initiated"`
	GatewayFailures        int64 `json:"gateway_failures"`
	ConfirmationsApplied   int64 `json:"confirmations_applied"`
	DuplicateConfirmations int64 `json:"duplicate_confirmations"`
	RejectedConfirmations  int64 `json:"rejected_confirmations"`
}

// LedgerMetrics counts ledger outcomes since process start.
type LedgerMetrics struct {
	mutex sync.Mutex
	s     LedgerSnapshot
}

func NewLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{}
}

// inc must only be called on a non-nil receiver.
func (m *LedgerMetrics) inc(field *int64) {
	m.mutex.Lock()
	*field++
	m.mutex.Unlock()
}

func (m *LedgerMetrics) tipInitiated() {
	if m != nil {
		m.inc(&m.s.TipsInitiated)
	}
}

func (m *LedgerMetrics) gatewayFailure() {
	if m != nil {
		m.inc(&m.s.GatewayFailures)
	}
}

func (m *LedgerMetrics) confirmationApplied() {
	if m != nil {
		m.inc(&m.s.ConfirmationsApplied)
	}
}

func (m *LedgerMetrics) duplicateConfirmation() {
	if m != nil {
		m.inc(&m.s.DuplicateConfirmations)
	}
}

func (m *LedgerMetrics) rejectedConfirmation() {
	if m != nil {
		m.inc(&m.s.RejectedConfirmations)
	}
}

// Snapshot returns the current counters.
func (m *LedgerMetrics) Snapshot() LedgerSnapshot {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.s
}
