package model

// ActionKind enumerates the recognized appointment actions.
type ActionKind string

const (
	ActionSchedule   ActionKind = "schedule_appointment"
	ActionCancel     ActionKind = "cancel_appointment"
	ActionReschedule ActionKind = "reschedule_appointment"
	ActionLookup     ActionKind = "lookup_appointment"
	ActionNone       ActionKind = "none"
)

// Confirmation is the verdict when the latest message answers a pending
// yes/no question.
type Confirmation int

const (
	ConfirmNone    Confirmation = iota // no pending question was being answered
	ConfirmYes                         // affirmative keyword matched
	ConfirmNo                          // negative keyword matched
	ConfirmUnclear                     // pending question open, reply matched neither set
)

// ActionIntent is the resolver's verdict for one turn. Transient: it lives
// for the turn only; anything that must survive goes into the conversation's
// pending or draft slot.
type ActionIntent struct {
	Kind      ActionKind
	Params    map[string]string // extracted parameters, e.g. "date", "time"
	Confident bool              // a keyword pattern matched (vs. fallthrough to none)
	Answer    Confirmation
}
