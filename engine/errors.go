package engine

import "fmt"

// ErrKind is the closed, stable-across-implementations error taxonomy
// from spec.md §7. Callers match on Kind, never on the formatted
// message.
type ErrKind string

const (
	ErrNotYourTurn                ErrKind = "NotYourTurn"
	ErrWrongPhase                 ErrKind = "WrongPhase"
	ErrIllegalMeld                ErrKind = "IllegalMeld"
	ErrOpeningBelowThreshold      ErrKind = "OpeningBelowThreshold"
	ErrNotOpened                  ErrKind = "NotOpened"
	ErrJokerMustBeUsed            ErrKind = "JokerMustBeUsed"
	ErrPickedCardMustBePlayed     ErrKind = "PickedCardMustBePlayed"
	ErrDiscardAttachesToTable     ErrKind = "DiscardAttachesToTable"
	ErrDiscardIsPickedUpCard      ErrKind = "DiscardIsPickedUpCard"
	ErrCannotCloseFirstRound      ErrKind = "CannotCloseFirstRound"
	ErrCannotOpenAndCloseSameTurn ErrKind = "CannotOpenAndCloseSameTurn"
	ErrNoCards                    ErrKind = "NoCards"
	ErrStockEmpty                 ErrKind = "StockEmpty"
	ErrVersionConflict            ErrKind = "VersionConflict"
	ErrStaleState                 ErrKind = "StaleState"
	ErrCorruptState               ErrKind = "CorruptState"
	ErrNotFound                   ErrKind = "NotFound"
)

// MeldErrCode enumerates the IllegalMeld sub-codes from spec.md §7.
type MeldErrCode string

const (
	MeldTooShort              MeldErrCode = "tooShort"
	MeldTooLong               MeldErrCode = "tooLong"
	MeldMultipleJokers        MeldErrCode = "multipleJokers"
	MeldMixedSuitsInSequence  MeldErrCode = "mixedSuitsInSequence"
	MeldSameSuitInCombination MeldErrCode = "sameSuitInCombination"
	MeldNonConsecutive        MeldErrCode = "nonConsecutive"
	MeldWrap                  MeldErrCode = "wrap"
	MeldOnlyJokers            MeldErrCode = "onlyJokers"
	MeldUnknownCard           MeldErrCode = "unknownCard"
)

// RuleError is the typed error every engine-layer validation failure
// returns, so callers can errors.As into it and switch on Kind
// instead of string-matching — spec.md §7 requires error kinds that
// are "stable across implementations".
type RuleError struct {
	Kind      ErrKind
	MeldCode  MeldErrCode // only set when Kind == ErrIllegalMeld
	Detail    string
	Points    int // only set when Kind == ErrOpeningBelowThreshold
}

func (e *RuleError) Error() string {
	if e.Kind == ErrIllegalMeld && e.MeldCode != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Detail, e.MeldCode)
	}
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newErr(kind ErrKind, detail string) *RuleError {
	return &RuleError{Kind: kind, Detail: detail}
}

func newMeldErr(code MeldErrCode, detail string) *RuleError {
	return &RuleError{Kind: ErrIllegalMeld, MeldCode: code, Detail: detail}
}
