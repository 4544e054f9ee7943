package integration

import (
	"context"
	"testing"
	"time"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

var _ = Describe("Chat against a live backend", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = integrationConfig()
	})

	for _, transport := range []string{config.TransportHTTP, config.TransportWebSocket} {
		transport := transport

		Context("over "+transport, func() {
			It("answers a first message and names the session", func(ctx SpecContext) {
				be := newBackend(cfg, transport)
				engine := chat.NewEngine(be, chat.WithPersona(cfg.Chat.PersonaID))

				result, err := engine.Submit(ctx, chat.Submission{Text: "What is this knowledge base about?"})
				Expect(err).NotTo(HaveOccurred())
				engine.Wait()

				Expect(result.Reply.Role).To(Equal(chat.RoleAssistant), "error: %s", result.Reply.Content)
				Expect(result.Reply.Content).NotTo(BeEmpty())
				Expect(result.Reply.ID).NotTo(BeNil())

				state := engine.Snapshot()
				Expect(state.SessionID).NotTo(BeNil())
				Expect(state.History).To(HaveLen(2))
				Expect(state.History[0].ID).NotTo(BeNil())

				stored, err := be.GetChatSession(ctx, *state.SessionID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.Description).NotTo(BeEmpty())
			}, SpecTimeout(2*time.Minute))

			It("continues the conversation from the last answer", func(ctx SpecContext) {
				engine := chat.NewEngine(newBackend(cfg, transport), chat.WithPersona(cfg.Chat.PersonaID))

				first, err := engine.Submit(ctx, chat.Submission{Text: "Give me one fact from the documents."})
				Expect(err).NotTo(HaveOccurred())
				Expect(first.Reply.ID).NotTo(BeNil())

				second, err := engine.Submit(ctx, chat.Submission{Text: "Tell me more about that."})
				Expect(err).NotTo(HaveOccurred())
				Expect(second.Final).NotTo(BeNil())
				Expect(second.Final.ParentMessageID).NotTo(BeNil())
				Expect(engine.Snapshot().History).To(HaveLen(4))
				engine.Wait()
			}, SpecTimeout(3*time.Minute))

			It("stops early when cancelled", func(ctx SpecContext) {
				engine := chat.NewEngine(newBackend(cfg, transport))
				engine.OnUpdate(func(s chat.State) {
					if lastAssistant(s.History).Content != "" {
						engine.RequestCancel()
					}
				})

				result, err := engine.Submit(ctx, chat.Submission{Text: "Write a long summary of everything you know."})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Cancelled).To(BeTrue())
				Expect(engine.IsStreaming()).To(BeFalse())
				engine.Wait()
			}, SpecTimeout(2*time.Minute))
		})
	}

	It("records feedback for a stored answer", func(ctx SpecContext) {
		engine := chat.NewEngine(newBackend(cfg, config.TransportHTTP))

		result, err := engine.Submit(ctx, chat.Submission{Text: "Hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Reply.ID).NotTo(BeNil())

		Expect(engine.SubmitFeedback(ctx, *result.Reply.ID, chat.FeedbackLike, "integration test")).To(Succeed())
		engine.Wait()
	}, SpecTimeout(2*time.Minute))

	It("reports a readable error for an unknown message", func(ctx SpecContext) {
		engine := chat.NewEngine(newBackend(cfg, config.TransportHTTP))
		_, err := engine.Submit(ctx, chat.Submission{Text: "Hello"})
		Expect(err).NotTo(HaveOccurred())

		err = engine.SubmitFeedback(context.Background(), -1, chat.FeedbackDislike, "")
		var feedbackErr *chat.FeedbackError
		Expect(err).To(BeAssignableToTypeOf(feedbackErr))
		Expect(err.Error()).To(HavePrefix("Failed to submit feedback - "))
		engine.Wait()
	}, SpecTimeout(2*time.Minute))
})
