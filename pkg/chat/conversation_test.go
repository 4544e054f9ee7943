package chat_test

import (
	"errors"

	"github.com/killallgit/scout/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Conversation", func() {
	var settledConv chat.Conversation

	BeforeEach(func() {
		settledConv = chat.NewConversationFromHistory([]chat.Message{
			{ID: chat.IntPtr(1), Role: chat.RoleUser, Content: "first"},
			{ID: chat.IntPtr(2), Role: chat.RoleAssistant, Content: "answer"},
		})
	})

	Describe("NewConversation", func() {
		It("should create an empty conversation", func() {
			conv := chat.NewConversation()

			Expect(chat.GetMessages(conv)).To(BeEmpty())
			Expect(chat.IsEmpty(conv)).To(BeTrue())
			Expect(chat.InFlight(conv)).To(Equal(0))
		})
	})

	Describe("AddMessage", func() {
		It("should return a new conversation and leave the original alone", func() {
			conv := chat.NewConversation()
			next := chat.AddMessage(conv, chat.NewUserMessage("Hello"))

			Expect(chat.GetMessageCount(conv)).To(Equal(0))
			Expect(chat.GetMessageCount(next)).To(Equal(1))
		})
	})

	Describe("lookups", func() {
		It("should find the last messages by role", func() {
			last, ok := chat.GetLastMessage(settledConv)
			Expect(ok).To(BeTrue())
			Expect(last.Content).To(Equal("answer"))

			user, ok := chat.GetLastUserMessage(settledConv)
			Expect(ok).To(BeTrue())
			Expect(user.Content).To(Equal("first"))

			assistant, ok := chat.GetLastAssistantMessage(settledConv)
			Expect(ok).To(BeTrue())
			Expect(*assistant.ID).To(Equal(2))

			Expect(chat.GetMessagesByRole(settledConv, chat.RoleUser)).To(HaveLen(1))
		})

		It("should report missing messages on an empty conversation", func() {
			_, ok := chat.GetLastMessage(chat.NewConversation())
			Expect(ok).To(BeFalse())
			_, ok = chat.GetLastAssistantMessage(chat.NewConversation())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("LastSuccessfulMessageID", func() {
		It("should return the newest stored assistant id", func() {
			history := append(chat.GetMessages(settledConv),
				chat.Message{Role: chat.RoleUser, Content: "again"},
				chat.Message{Role: chat.RoleAssistant, Content: "streaming"},
			)

			id := chat.LastSuccessfulMessageID(history)
			Expect(id).ToNot(BeNil())
			Expect(*id).To(Equal(2))
		})

		It("should skip error messages", func() {
			history := append(chat.GetMessages(settledConv),
				chat.Message{ID: chat.IntPtr(5), Role: chat.RoleError, Content: "boom"},
			)
			Expect(*chat.LastSuccessfulMessageID(history)).To(Equal(2))
		})

		It("should return nil without a stored answer", func() {
			Expect(chat.LastSuccessfulMessageID(nil)).To(BeNil())
		})
	})

	Describe("a full turn", func() {
		It("should grow the history by exactly two messages", func() {
			conv := chat.AppendProvisional(settledConv, "hello")
			Expect(chat.GetMessageCount(conv)).To(Equal(3))
			Expect(chat.InFlight(conv)).To(Equal(1))

			acc := chat.NewTurnAccumulator("hello", nil)
			for _, piece := range []string{"H", "e", "l", "l", "o"} {
				acc.Apply(chat.AnswerPiece{Text: piece})
				conv = chat.UpdateTrailing(conv, acc.Snapshot())
				Expect(chat.GetMessageCount(conv)).To(Equal(4))
			}

			acc.Apply(chat.FinalMetadata{MessageID: 4, ParentMessageID: chat.IntPtr(3)})
			conv = chat.UpdateTrailing(conv, acc.Snapshot())
			conv = chat.Finalize(conv, *acc.Final())

			messages := chat.GetMessages(conv)
			Expect(messages).To(HaveLen(4))
			Expect(*messages[2].ID).To(Equal(3))
			Expect(messages[2].Content).To(Equal("hello"))
			Expect(*messages[3].ID).To(Equal(4))
			Expect(messages[3].Content).To(Equal("Hello"))
			Expect(chat.InFlight(conv)).To(Equal(0))
		})

		It("should keep identifiers nil until finalized", func() {
			conv := chat.AppendProvisional(settledConv, "hello")
			acc := chat.NewTurnAccumulator("hello", nil)
			acc.Apply(chat.AnswerPiece{Text: "Hi"})
			acc.Apply(chat.FinalMetadata{MessageID: 9})
			conv = chat.UpdateTrailing(conv, acc.Snapshot())

			messages := chat.GetMessages(conv)
			Expect(messages[2].ID).To(BeNil())
			Expect(messages[3].ID).To(BeNil())
		})

		It("should replace the in-flight pair when the turn fails", func() {
			conv := chat.AppendProvisional(settledConv, "hello")
			acc := chat.NewTurnAccumulator("hello", nil)
			acc.Apply(chat.AnswerPiece{Text: "partial"})
			conv = chat.UpdateTrailing(conv, acc.Snapshot())

			conv = chat.FailTurn(conv, "hello", errors.New("connection reset"))

			messages := chat.GetMessages(conv)
			Expect(messages).To(HaveLen(4))
			Expect(messages[2].IsUser()).To(BeTrue())
			Expect(messages[2].ID).To(BeNil())
			Expect(messages[3].IsError()).To(BeTrue())
			Expect(messages[3].Content).To(Equal("connection reset"))
			Expect(messages[3].ID).To(BeNil())
		})

		It("should leave a turn closed without final metadata untouched", func() {
			conv := chat.AppendProvisional(settledConv, "hello")
			acc := chat.NewTurnAccumulator("hello", nil)
			acc.Apply(chat.AnswerPiece{Text: "Hi"})
			conv = chat.CloseTurn(chat.UpdateTrailing(conv, acc.Snapshot()))

			last, _ := chat.GetLastMessage(conv)
			Expect(last.Content).To(Equal("Hi"))
			Expect(last.ID).To(BeNil())
			Expect(chat.InFlight(conv)).To(Equal(0))

			next := chat.AppendProvisional(conv, "second")
			Expect(chat.GetMessageCount(next)).To(Equal(5))
		})
	})
})
