package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/killallgit/scout/pkg/chat"
)

// StreamPrinter writes a turn's answer to a line-mode terminal as it grows.
// Register Observe with Engine.OnUpdate and bracket each Submit with
// BeginTurn and EndTurn.
type StreamPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	formatter *Formatter

	active    bool
	replyAt   int
	printed   int
	headed    bool
	lastPhase string
	showDocs  bool
}

func NewStreamPrinter(out io.Writer, formatter *Formatter, showDocs bool) *StreamPrinter {
	return &StreamPrinter{
		out:       out,
		formatter: formatter,
		showDocs:  showDocs,
	}
}

// BeginTurn prepares for a turn submitted on top of historyLen settled messages
func (p *StreamPrinter) BeginTurn(historyLen int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.replyAt = historyLen + 1
	p.printed = 0
	p.headed = false
	p.lastPhase = ""
}

// Observe prints whatever answer text arrived since the previous update
func (p *StreamPrinter) Observe(state chat.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || len(state.History) <= p.replyAt {
		return
	}

	reply := state.History[p.replyAt]
	if !reply.IsAssistant() || len(reply.Content) <= p.printed {
		return
	}

	if !p.headed {
		fmt.Fprintln(p.out, p.formatter.styles.AssistantLabel.Render("Scout:"))
		p.headed = true
	}
	fmt.Fprint(p.out, reply.Content[p.printed:])
	p.printed = len(reply.Content)
}

// EndTurn finishes the turn's output: errors, a cancel marker, citations and
// the documents in focus.
func (p *StreamPrinter) EndTurn(state chat.State, result chat.TurnResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false

	if p.printed > 0 {
		fmt.Fprintln(p.out)
	}

	reply := result.Reply
	if reply.IsError() {
		fmt.Fprintln(p.out, p.formatter.RenderMessage(reply))
		return
	}
	if result.Cancelled {
		fmt.Fprintln(p.out, p.formatter.styles.Muted.Render("[stopped]"))
	}
	if p.printed == 0 && !result.Cancelled {
		fmt.Fprintln(p.out, p.formatter.styles.Muted.Render("(no answer)"))
	}

	if citations := p.formatter.RenderCitations(reply); citations != "" {
		fmt.Fprintln(p.out, citations)
	}
	if p.showDocs {
		if msg, ok := state.FocusMessage(); ok && msg.HasDocuments() {
			fmt.Fprintln(p.out, p.formatter.RenderDocuments(msg.Documents))
		}
	}
	if reply.ID != nil {
		fmt.Fprintln(p.out, p.formatter.styles.Muted.Render(fmt.Sprintf("message #%d", *reply.ID)))
	}
}

// PrintStatus writes a phase change once, for non-interactive progress output
func (p *StreamPrinter) PrintStatus(state chat.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	phase := state.Phase.String()
	if phase == p.lastPhase || p.headed {
		return
	}
	p.lastPhase = phase
	if status := p.formatter.RenderStatus(state.Phase); strings.TrimSpace(status) != "" {
		fmt.Fprintln(p.out, status)
	}
}
