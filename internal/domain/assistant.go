package domain

import "time"

// AssistantConfig is the immutable per-call snapshot of the remote assistant
// settings. It is read once at the start of each client invocation; later
// reconfiguration never affects an in-progress attempt sequence.
type AssistantConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	RetryCount  int           // attempts, 1..10
	Timeout     time.Duration // per attempt
	BaseBackoff time.Duration // doubled per attempt, capped
}

// AssistantRequest carries one utterance to the remote tier together with
// the game context snapshot taken at dispatch time.
type AssistantRequest struct {
	ID         string
	Utterance  Utterance
	Context    Context
	FEN        string
	LegalMoves []LegalMove
	Config     AssistantConfig
}

// AssistantResponseKind discriminates what the remote tier produced.
type AssistantResponseKind int

const (
	AssistantFreeText AssistantResponseKind = iota
	AssistantAction
)

// AssistantResponse is a successful remote result: either a structured
// action or free text to be spoken back.
type AssistantResponse struct {
	Kind    AssistantResponseKind
	Text    string
	Action  string // "move" or "command" when Kind is AssistantAction
	Move    string // SAN or UCI payload for action "move"
	Command string // command name payload for action "command"
	Arg     string
}

// FailureKind classifies assistant failures for the retry policy.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransient
	FailureAuth
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransient:
		return "transient"
	case FailureAuth:
		return "auth"
	case FailureMalformed:
		return "malformed"
	default:
		return "none"
	}
}
