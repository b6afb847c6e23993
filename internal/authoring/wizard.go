package authoring

import "strings"

// Step identifies one screen of the authoring wizard.
type Step string

const (
	StepShop       Step = "shop"
	StepCategory   Step = "category"
	StepDetails    Step = "details"
	StepVariations Step = "variations"
	StepImages     Step = "images"
	StepDelivery   Step = "delivery"
)

var stepSequence = []Step{
	StepShop,
	StepCategory,
	StepDetails,
	StepVariations,
	StepImages,
	StepDelivery,
}

// Steps returns the wizard's step sequence in order.
func Steps() []Step {
	return append([]Step(nil), stepSequence...)
}

func stepIndex(s Step) int {
	for i, step := range stepSequence {
		if step == s {
			return i
		}
	}
	return -1
}

// Wizard owns current-step state and navigation. Forward movement is gated
// by the active step's completeness predicate against the live draft;
// moving back never re-validates, so a seller can always return to fix
// something. An incomplete step simply refuses to advance; it is never an
// error.
type Wizard struct {
	draft   *ListingDraft
	current int
	history []int
}

func NewWizard(draft *ListingDraft) *Wizard {
	return &Wizard{draft: draft}
}

func (w *Wizard) Current() Step {
	return stepSequence[w.current]
}

// History returns the back-navigation trail, oldest first.
func (w *Wizard) History() []Step {
	out := make([]Step, len(w.history))
	for i, idx := range w.history {
		out[i] = stepSequence[idx]
	}
	return out
}

// StepComplete evaluates a step's completeness predicate against the draft.
func (w *Wizard) StepComplete(s Step) bool {
	d := w.draft
	switch s {
	case StepShop:
		return d.ShopID != ""
	case StepCategory:
		return d.Category != ""
	case StepDetails:
		return strings.TrimSpace(d.Title) != "" &&
			strings.TrimSpace(d.Description) != "" &&
			strings.TrimSpace(d.HandlingNotes) != "" &&
			d.BasePrice > 0 &&
			d.BaseQuantity > 0
	case StepVariations:
		// Optional step. Deliberately lenient: enabling variations does not
		// require any to exist before moving on.
		return true
	case StepImages:
		return len(d.Images) > 0
	case StepDelivery:
		return d.Delivery.complete() && len(d.PaymentMethods) > 0
	}
	return false
}

// Advance moves to the next step when the current one is complete. Returns
// false (and stays put) otherwise, or when already on the last step.
func (w *Wizard) Advance() bool {
	if w.current >= len(stepSequence)-1 {
		return false
	}
	if !w.StepComplete(stepSequence[w.current]) {
		return false
	}
	w.history = append(w.history, w.current)
	w.current++
	return true
}

// Retreat returns to the most recently recorded step. Always succeeds when
// there is history; never re-validates.
func (w *Wizard) Retreat() bool {
	if len(w.history) == 0 {
		return false
	}
	w.current = w.history[len(w.history)-1]
	w.history = w.history[:len(w.history)-1]
	return true
}

// GoTo jumps directly to a step from the step selector. Moving forward
// requires every step from the current one up to (excluding) the target to
// be complete. The current step is included on purpose: otherwise a jump to
// the very next step would bypass Advance's gate. Moving backward is
// unconditional.
func (w *Wizard) GoTo(target Step) bool {
	ti := stepIndex(target)
	if ti < 0 || ti == w.current {
		return ti == w.current
	}

	if ti > w.current {
		for i := w.current; i < ti; i++ {
			if !w.StepComplete(stepSequence[i]) {
				return false
			}
		}
	}

	w.history = append(w.history, w.current)
	w.current = ti
	return true
}
