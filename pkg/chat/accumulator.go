package chat

import (
	"strings"
)

// TurnSnapshot is an immutable copy of everything accumulated for one turn
type TurnSnapshot struct {
	UserText       string
	Answer         string
	Documents      []Document
	RephrasedQuery string
	RetrievalType  RetrievalType
	Error          string
	HasError       bool
	Final          *FinalMetadata
}

// TurnAccumulator collects partial state from the packets of a single turn
type TurnAccumulator struct {
	userText       string
	answer         strings.Builder
	documents      []Document
	rephrasedQuery string
	retrievalType  RetrievalType
	errorText      string
	hasError       bool
	final          *FinalMetadata
	packetCount    int
}

// NewTurnAccumulator starts a turn. Documents picked by the user ahead of time
// are attached immediately so they survive even if no search happens.
func NewTurnAccumulator(userText string, selected []Document) *TurnAccumulator {
	acc := &TurnAccumulator{
		userText:      userText,
		retrievalType: RetrievalNone,
	}
	if len(selected) > 0 {
		acc.documents = cloneDocuments(selected)
		acc.retrievalType = RetrievalSelectedDocs
	}
	return acc
}

// Apply folds one packet into the accumulator. It returns true when the packet
// brought in a non-empty document set, meaning the most recent answer should
// become the document focus.
func (a *TurnAccumulator) Apply(p Packet) bool {
	a.packetCount++

	switch pkt := p.(type) {
	case AnswerPiece:
		a.answer.WriteString(pkt.Text)
	case DocumentsFound:
		a.documents = cloneDocuments(pkt.Documents)
		a.rephrasedQuery = pkt.RephrasedQuery
		a.retrievalType = RetrievalSearch
		return len(pkt.Documents) > 0
	case StreamError:
		a.errorText = pkt.Message
		a.hasError = true
	case FinalMetadata:
		final := pkt
		final.Documents = cloneDocuments(pkt.Documents)
		a.final = &final
	}
	return false
}

// ApplyBatch folds every packet of a batch and reports whether any of them
// moved the document focus.
func (a *TurnAccumulator) ApplyBatch(packets []Packet) bool {
	focus := false
	for _, p := range packets {
		if a.Apply(p) {
			focus = true
		}
	}
	return focus
}

func (a *TurnAccumulator) Final() *FinalMetadata {
	return a.final
}

func (a *TurnAccumulator) PacketCount() int {
	return a.packetCount
}

func (a *TurnAccumulator) RetrievalType() RetrievalType {
	return a.retrievalType
}

// ReceivedOutput reports whether any answer text or documents arrived
func (a *TurnAccumulator) ReceivedOutput() bool {
	return a.answer.Len() > 0 || len(a.documents) > 0 || a.hasError
}

func (a *TurnAccumulator) Snapshot() TurnSnapshot {
	snap := TurnSnapshot{
		UserText:       a.userText,
		Answer:         a.answer.String(),
		Documents:      cloneDocuments(a.documents),
		RephrasedQuery: a.rephrasedQuery,
		RetrievalType:  a.retrievalType,
		Error:          a.errorText,
		HasError:       a.hasError,
	}
	if a.final != nil {
		final := *a.final
		final.Documents = cloneDocuments(a.final.Documents)
		snap.Final = &final
	}
	return snap
}
