package domain

type OutcomeStatus string

const (
	OutcomeFullySynced       OutcomeStatus = "fully_synced"
	OutcomePartiallySynced   OutcomeStatus = "partially_synced"
	OutcomePersistenceFailed OutcomeStatus = "persistence_failed"
)

type SideEffectResult string

const (
	// SideEffectOK: the side effect completed.
	SideEffectOK SideEffectResult = "ok"
	// SideEffectFailed: an attempt was made and failed.
	SideEffectFailed SideEffectResult = "failed"
	// SideEffectSkipped: not attempted (not entitled, not requested, no phone).
	SideEffectSkipped SideEffectResult = "skipped"
	// SideEffectUnavailable: not attempted because the adapter is disabled or
	// unauthenticated; the caller may prompt for authentication.
	SideEffectUnavailable SideEffectResult = "unavailable"
)

// Outcome classifies an orchestrator call for the caller, separately from any
// error. A degraded side effect never fails the call; it shows up here.
type Outcome struct {
	Status    OutcomeStatus    `json:"status"`
	Calendar  SideEffectResult `json:"calendar"`
	Messaging SideEffectResult `json:"messaging"`
	Cache     SideEffectResult `json:"cache"`
	Detail    []string         `json:"detail,omitempty"`
}

func (r SideEffectResult) degraded() bool {
	return r == SideEffectFailed || r == SideEffectUnavailable
}

// Classify derives the overall status from the per-side-effect results.
// Skipped side effects do not degrade the outcome.
func (o *Outcome) Classify() {
	if o.Status == OutcomePersistenceFailed {
		return
	}
	if o.Calendar.degraded() || o.Messaging.degraded() || o.Cache.degraded() {
		o.Status = OutcomePartiallySynced
		return
	}
	o.Status = OutcomeFullySynced
}
