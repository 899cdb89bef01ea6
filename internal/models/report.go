package models

import "time"

// ScanOutcome — структурированный итог по инструменту за один проход.
// Хосту этого достаточно, чтобы показать кто и почему пропущен: нехватка
// истории — не сбой, ошибки провайдера изолированы по инструменту.
type ScanOutcome string

const (
	OutcomeOK                  ScanOutcome = "ok"
	OutcomeInsufficientHistory ScanOutcome = "insufficient_history"
	OutcomeDataUnavailable     ScanOutcome = "data_unavailable"
	OutcomeMalformedBar        ScanOutcome = "malformed_bar"
	OutcomeCancelled           ScanOutcome = "cancelled"
)

type InstrumentStatus struct {
	Key     InstrumentKey `json:"key"`
	Outcome ScanOutcome   `json:"outcome"`
	Err     string        `json:"err,omitempty"`
	State   SignalState   `json:"state,omitempty"`
}

// ScanReport — результат одного прохода сканера.
type ScanReport struct {
	StartedAt         time.Time          `json:"startedAt"`
	FinishedAt        time.Time          `json:"finishedAt"`
	Events            []TransitionEvent  `json:"events"`
	Statuses          []InstrumentStatus `json:"statuses"`
	Dispatched        bool               `json:"dispatched"`
	CooldownRemaining time.Duration      `json:"cooldownRemainingNs"`
}

// Skipped — сколько инструментов не дошло до классификации.
func (r *ScanReport) Skipped() int {
	n := 0
	for _, st := range r.Statuses {
		if st.Outcome != OutcomeOK {
			n++
		}
	}
	return n
}
