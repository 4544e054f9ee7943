package chat_test

import (
	"github.com/killallgit/scout/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TurnAccumulator", func() {
	var acc *chat.TurnAccumulator

	BeforeEach(func() {
		acc = chat.NewTurnAccumulator("hello", nil)
	})

	It("should start empty with no retrieval", func() {
		snap := acc.Snapshot()

		Expect(snap.UserText).To(Equal("hello"))
		Expect(snap.Answer).To(BeEmpty())
		Expect(snap.RetrievalType).To(Equal(chat.RetrievalNone))
		Expect(snap.Final).To(BeNil())
		Expect(acc.ReceivedOutput()).To(BeFalse())
	})

	It("should concatenate answer pieces in order", func() {
		acc.ApplyBatch([]chat.Packet{
			chat.AnswerPiece{Text: "Hel"},
			chat.AnswerPiece{Text: "lo"},
			chat.AnswerPiece{Text: ""},
			chat.AnswerPiece{Text: "!"},
		})

		Expect(acc.Snapshot().Answer).To(Equal("Hello!"))
		Expect(acc.PacketCount()).To(Equal(4))
		Expect(acc.ReceivedOutput()).To(BeTrue())
	})

	It("should replace documents and switch to search retrieval", func() {
		first := []chat.Document{{DocumentID: "d1"}}
		second := []chat.Document{{DocumentID: "d2"}, {DocumentID: "d3"}}

		Expect(acc.Apply(chat.DocumentsFound{Documents: first, RephrasedQuery: "q1"})).To(BeTrue())
		Expect(acc.Apply(chat.DocumentsFound{Documents: second, RephrasedQuery: "q2"})).To(BeTrue())

		snap := acc.Snapshot()
		Expect(snap.Documents).To(Equal(second))
		Expect(snap.RephrasedQuery).To(Equal("q2"))
		Expect(snap.RetrievalType).To(Equal(chat.RetrievalSearch))
	})

	It("should not move focus for an empty document set", func() {
		Expect(acc.Apply(chat.DocumentsFound{Documents: nil})).To(BeFalse())
		Expect(acc.RetrievalType()).To(Equal(chat.RetrievalSearch))
	})

	It("should keep only the last error", func() {
		acc.Apply(chat.StreamError{Message: "first"})
		acc.Apply(chat.StreamError{Message: "second"})

		snap := acc.Snapshot()
		Expect(snap.HasError).To(BeTrue())
		Expect(snap.Error).To(Equal("second"))
	})

	It("should keep only the last final metadata", func() {
		acc.Apply(chat.FinalMetadata{MessageID: 1})
		acc.Apply(chat.FinalMetadata{MessageID: 2})

		Expect(acc.Final().MessageID).To(Equal(2))
	})

	It("should attach preselected documents", func() {
		selected := []chat.Document{{DocumentID: "mine", DBDocID: chat.IntPtr(3)}}
		acc = chat.NewTurnAccumulator("summarise", selected)

		snap := acc.Snapshot()
		Expect(snap.RetrievalType).To(Equal(chat.RetrievalSelectedDocs))
		Expect(snap.Documents).To(Equal(selected))
	})

	It("should hand out snapshots that do not alias its state", func() {
		acc.Apply(chat.DocumentsFound{Documents: []chat.Document{{DocumentID: "d1"}}})
		snap := acc.Snapshot()
		snap.Documents[0].DocumentID = "changed"

		Expect(acc.Snapshot().Documents[0].DocumentID).To(Equal("d1"))
	})

	It("should report whether a batch moved the focus", func() {
		moved := acc.ApplyBatch([]chat.Packet{
			chat.DocumentsFound{Documents: []chat.Document{{DocumentID: "d1"}}},
			chat.AnswerPiece{Text: "x"},
		})
		Expect(moved).To(BeTrue())
		Expect(acc.ApplyBatch([]chat.Packet{chat.AnswerPiece{Text: "y"}})).To(BeFalse())
	})
})
