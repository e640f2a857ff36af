package domain

import "strings"

// PieceType identifies a chess piece kind. The zero value means "not given".
type PieceType int

const (
	PieceNone PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = map[PieceType]string{
	Pawn:   "pawn",
	Knight: "knight",
	Bishop: "bishop",
	Rook:   "rook",
	Queen:  "queen",
	King:   "king",
}

func (p PieceType) String() string {
	if s, ok := pieceNames[p]; ok {
		return s
	}
	return ""
}

// ParsePiece maps a lowercase English piece word to its PieceType.
func ParsePiece(word string) (PieceType, bool) {
	for pt, name := range pieceNames {
		if name == word {
			return pt, true
		}
	}
	return PieceNone, false
}

// Square is a board coordinate in lowercase algebraic form ("e4").
// The empty string means "not given".
type Square string

func (s Square) Valid() bool {
	if len(s) != 2 {
		return false
	}
	return s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func (s Square) File() byte {
	if !s.Valid() {
		return 0
	}
	return s[0]
}

func (s Square) Rank() byte {
	if !s.Valid() {
		return 0
	}
	return s[1]
}

// ParseSquare accepts "e4" style tokens only.
func ParseSquare(tok string) (Square, bool) {
	sq := Square(strings.ToLower(tok))
	if !sq.Valid() {
		return "", false
	}
	return sq, true
}

// CaptureFlag is the tri-state capture constraint of a move description.
type CaptureFlag int

const (
	CaptureUnspecified CaptureFlag = iota
	CaptureRequired
	CaptureForbidden
)

// CastleSide discriminates castling descriptions. CastleNone means the
// utterance was not about castling at all; CastleAny means "castle" was said
// without naming a side.
type CastleSide int

const (
	CastleNone CastleSide = iota
	CastleAny
	CastleKingside
	CastleQueenside
)

func (c CastleSide) String() string {
	switch c {
	case CastleKingside:
		return "king side"
	case CastleQueenside:
		return "queen side"
	case CastleAny:
		return "either side"
	default:
		return ""
	}
}

// PartialMoveSpec is an incompletely constrained description of a move
// extracted from one utterance. Absent fields do not constrain resolution.
// Built once per parse attempt and never mutated afterwards.
type PartialMoveSpec struct {
	Piece     PieceType
	From      Square // full departure square, when spoken
	FromFile  byte   // departure file hint ('a'..'h'), 0 when absent
	FromRank  byte   // departure rank hint ('1'..'8'), 0 when absent
	Target    Square
	Capture   CaptureFlag
	Victim    PieceType // captured piece, when named ("knight takes pawn")
	Promotion PieceType
	Castle    CastleSide
}

// IsZero reports whether the spec constrains nothing.
func (s PartialMoveSpec) IsZero() bool {
	return s == PartialMoveSpec{}
}

// LegalMove is one element of the externally supplied legal-move set.
// The set is fetched fresh from the rules engine before every resolution
// attempt; positions change every ply so it is never cached.
type LegalMove struct {
	Piece     PieceType
	From      Square
	To        Square
	Capture   bool
	Victim    PieceType // zero when the supplier does not know it
	Promotion PieceType
	Castle    CastleSide // CastleNone for ordinary moves
	SAN       string
	UCI       string
}

// Color is the side to move.
type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Context is the caller-held conversation state passed into every parse and
// resolve call. The interpreter itself stays stateless between calls.
type Context struct {
	LastMovedPiece PieceType
	LastMoveTo     Square
	SideToMove     Color
	Editing        bool
}

// Utterance is one turn of user input, from speech or typing.
type Utterance struct {
	Text       string
	Confidence float64 // 0 when the source reports none
}

// CommandKind enumerates the recognized application commands.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdNewGame
	CmdUndo
	CmdRedo
	CmdAnalyze
	CmdHint
	CmdReplay
	CmdShowPuzzles
	CmdPracticePuzzles // carries a theme argument
	CmdPlayOpening     // carries an opening name argument
	CmdLookupOpening   // carries an opening name argument
	CmdEvaluate
	CmdResign
	CmdFlipBoard
	CmdSwitchSides
)

var commandNames = map[CommandKind]string{
	CmdNewGame:         "new_game",
	CmdUndo:            "undo",
	CmdRedo:            "redo",
	CmdAnalyze:         "analyze",
	CmdHint:            "hint",
	CmdReplay:          "replay",
	CmdShowPuzzles:     "show_puzzles",
	CmdPracticePuzzles: "practice_puzzles",
	CmdPlayOpening:     "play_opening",
	CmdLookupOpening:   "lookup_opening",
	CmdEvaluate:        "evaluate",
	CmdResign:          "resign",
	CmdFlipBoard:       "flip_board",
	CmdSwitchSides:     "switch_sides",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseCommandKind maps a command name back to its kind. Used for
// structured assistant replies, which name commands by these strings.
func ParseCommandKind(name string) (CommandKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, s := range commandNames {
		if s == name {
			return k, true
		}
	}
	return CmdUnknown, false
}

// Command is a recognized application command with its optional argument
// (opening name, puzzle theme).
type Command struct {
	Kind CommandKind
	Arg  string
}

// ActionKind tags the single output variant of the pipeline.
type ActionKind int

const (
	ActionUnrecognized ActionKind = iota
	ActionMove
	ActionCommand
	ActionSpeak
)

// Action is the one value produced per input utterance. Exactly one of the
// payload fields is populated, per Kind. Reason carries human-readable
// feedback on Unrecognized and accompanies Speak.
type Action struct {
	Kind    ActionKind
	Move    *LegalMove
	Command *Command
	Text    string // spoken/displayed payload for ActionSpeak
	Reason  string
}

func MoveAction(mv LegalMove) Action {
	return Action{Kind: ActionMove, Move: &mv}
}

func CommandAction(cmd Command) Action {
	return Action{Kind: ActionCommand, Command: &cmd}
}

func SpeakAction(text string) Action {
	return Action{Kind: ActionSpeak, Text: text}
}

func UnrecognizedAction(reason string) Action {
	return Action{Kind: ActionUnrecognized, Reason: reason}
}
