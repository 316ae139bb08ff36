package stats

// State is the completion bucket a translation falls into.
type State string

const (
	StateApproved State = "approved"
	StatePending  State = "pending"
	StateNew      State = "new"
)

// States lists every state in reporting order.
var States = [...]State{StateApproved, StatePending, StateNew}

// ParseState reports whether value names a known state.
func ParseState(value string) (State, bool) {
	for _, state := range States {
		if string(state) == value {
			return state, true
		}
	}
	return "", false
}

// Approval is the reviewer verdict on a translation.
type Approval uint8

const (
	// ApprovalUnreviewed covers both "not reviewed yet" and "not translated yet".
	ApprovalUnreviewed Approval = iota
	ApprovalApproved
	ApprovalRejected
)

// ApprovalFromFlag converts the nullable approved column.
func ApprovalFromFlag(flag *bool) Approval {
	switch {
	case flag == nil:
		return ApprovalUnreviewed
	case *flag:
		return ApprovalApproved
	default:
		return ApprovalRejected
	}
}

// Flag is the inverse of ApprovalFromFlag.
func (a Approval) Flag() *bool {
	switch a {
	case ApprovalApproved:
		v := true
		return &v
	case ApprovalRejected:
		v := false
		return &v
	default:
		return nil
	}
}

func (a Approval) String() string {
	switch a {
	case ApprovalApproved:
		return "approved"
	case ApprovalRejected:
		return "rejected"
	default:
		return "unreviewed"
	}
}

// Classify maps a non-base translation to exactly one state. Rejected and
// drafted-but-unreviewed translations both count as pending.
func Classify(t TranslationFacts) State {
	switch {
	case t.Approval == ApprovalApproved:
		return StateApproved
	case t.Approval == ApprovalRejected:
		return StatePending
	case t.HasCopy:
		return StatePending
	default:
		return StateNew
	}
}

// PendingReason explains why a translation is pending.
type PendingReason uint8

const (
	NotPending PendingReason = iota
	PendingRejected
	PendingAwaitingReview
)

// PendingReasonOf returns the sub-reason behind a pending classification.
// It does not affect counting.
func PendingReasonOf(t TranslationFacts) PendingReason {
	if Classify(t) != StatePending {
		return NotPending
	}
	if t.Approval == ApprovalRejected {
		return PendingRejected
	}
	return PendingAwaitingReview
}
