package domain

// BrandPromptState tracks the brand-gating dialog for one pending selection.
type BrandPromptState string

const (
	// PromptIdle means no brand prompt is open.
	PromptIdle BrandPromptState = "idle"
	// PromptShown means a selection was blocked on a missing brand and the
	// technician is being asked to pick one.
	PromptShown BrandPromptState = "shown"
)

// BrandPrompt is the session-held state of the brand-gating workflow. At most
// one prompt is open at a time; confirming or cancelling always resets to
// idle so a stale prompt can never block an unrelated selection.
type BrandPrompt struct {
	State         BrandPromptState `json:"state"`
	RateID        string           `json:"rateId,omitempty"`
	ServiceItemID string           `json:"serviceItemId,omitempty"`
}

// NewBrandPrompt returns a prompt in the idle state.
func NewBrandPrompt() BrandPrompt {
	return BrandPrompt{State: PromptIdle}
}

// Open records that a selection attempt was gated on a brand. Opening over an
// existing prompt replaces it; the earlier selection attempt is abandoned.
func (p *BrandPrompt) Open(rateID, serviceItemID string) {
	p.State = PromptShown
	p.RateID = rateID
	p.ServiceItemID = serviceItemID
}

// IsOpen reports whether a prompt is awaiting a brand choice.
func (p *BrandPrompt) IsOpen() bool {
	return p.State == PromptShown
}

// Matches reports whether the open prompt refers to the given selection.
func (p *BrandPrompt) Matches(rateID, serviceItemID string) bool {
	return p.IsOpen() && p.RateID == rateID && p.ServiceItemID == serviceItemID
}

// Close resets the prompt to idle, discarding the pending selection.
func (p *BrandPrompt) Close() {
	*p = NewBrandPrompt()
}
