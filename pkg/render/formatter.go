package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/logger"
	"github.com/killallgit/scout/pkg/process"
)

// Options controls how a Formatter renders
type Options struct {
	Width        int
	Highlight    bool
	Style        string
	Plain        bool
	MaxDocuments int
}

// Formatter renders transcript messages, documents and citations for the terminal
type Formatter struct {
	styles          *Styles
	chromaFormatter chroma.Formatter
	chromaStyle     *chroma.Style
	highlight       bool
	width           int
	maxDocuments    int
}

func NewFormatter(opts Options) *Formatter {
	f := &Formatter{
		styles:       DefaultStyles(),
		highlight:    opts.Highlight && !opts.Plain,
		width:        opts.Width,
		maxDocuments: opts.MaxDocuments,
	}
	if opts.Plain {
		f.styles = PlainStyles()
	}
	if f.width <= 0 {
		f.width = 80
	}

	f.chromaFormatter = formatters.Get("terminal16m")
	if f.chromaFormatter == nil {
		f.chromaFormatter = formatters.Fallback
	}
	f.chromaStyle = styles.Get(opts.Style)
	if f.chromaStyle == nil {
		f.chromaStyle = styles.Fallback
	}
	return f
}

func (f *Formatter) Styles() *Styles {
	return f.styles
}

// FormatCodeBlock highlights code and draws a box around it
func (f *Formatter) FormatCodeBlock(content, language string) string {
	if content == "" {
		return ""
	}

	highlighted := content
	if f.highlight {
		highlighted = f.highlightCode(content, language)
	}

	boxWidth := f.width - 4
	if boxWidth < 30 {
		boxWidth = 30
	}
	return f.styles.CodeBlock.Width(boxWidth).Render(highlighted)
}

func (f *Formatter) highlightCode(content, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		logger.Debug("Failed to tokenize %s code, using plain text: %v", language, err)
		return content
	}

	var buf strings.Builder
	if err := f.chromaFormatter.Format(&buf, f.chromaStyle, iterator); err != nil {
		logger.Debug("Failed to format code, using plain text: %v", err)
		return content
	}
	return buf.String()
}

// FormatAnswer renders answer text, boxing fenced code blocks
func (f *Formatter) FormatAnswer(content string) string {
	var parts []string
	for _, seg := range SplitFences(content) {
		if seg.Code {
			parts = append(parts, f.FormatCodeBlock(seg.Text, seg.Language))
			continue
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		parts = append(parts, f.styles.AssistantMessage.Width(f.width).Render(strings.Trim(seg.Text, "\n")))
	}
	return strings.Join(parts, "\n")
}

// RenderMessage renders one transcript entry with its role label
func (f *Formatter) RenderMessage(msg chat.Message) string {
	switch msg.Role {
	case chat.RoleUser:
		return f.styles.UserLabel.Render("You: ") + f.styles.UserMessage.Render(msg.Content)
	case chat.RoleError:
		out := f.styles.ErrorLabel.Render("Error: ") + f.styles.ErrorMessage.Render(msg.Content)
		if msg.PartialAnswer != "" {
			out += "\n" + f.styles.Muted.Render("Partial answer before the error:") + "\n" + f.FormatAnswer(msg.PartialAnswer)
		}
		return out
	default:
		header := f.styles.AssistantLabel.Render("Scout:")
		if msg.ID != nil && *msg.ID != 0 {
			header += f.styles.Muted.Render(fmt.Sprintf(" #%d", *msg.ID))
		}
		if msg.Query != "" {
			header += f.styles.Muted.Render(fmt.Sprintf(" (searched: %s)", msg.Query))
		}
		body := f.FormatAnswer(msg.Content)
		if body == "" {
			return header
		}
		return header + "\n" + body
	}
}

// RenderTranscript renders every message in order
func (f *Formatter) RenderTranscript(history []chat.Message) string {
	parts := make([]string, 0, len(history))
	for _, msg := range history {
		parts = append(parts, f.RenderMessage(msg))
	}
	return strings.Join(parts, "\n\n")
}

// RenderDocuments lists retrieved documents, most relevant first as received
func (f *Formatter) RenderDocuments(docs []chat.Document) string {
	if len(docs) == 0 {
		return f.styles.Muted.Render("No documents retrieved.")
	}

	shown := docs
	if f.maxDocuments > 0 && len(shown) > f.maxDocuments {
		shown = shown[:f.maxDocuments]
	}

	lines := make([]string, 0, len(shown)+1)
	for i, doc := range shown {
		line := f.styles.DocumentTitle.Render(fmt.Sprintf("%d. %s", i+1, doc.Title()))
		var meta []string
		if doc.SourceType != "" {
			meta = append(meta, doc.SourceType)
		}
		if doc.UpdatedAt != nil {
			meta = append(meta, "updated "+doc.UpdatedAt.Format("2006-01-02"))
		}
		if doc.Link != "" {
			meta = append(meta, doc.Link)
		}
		if len(meta) > 0 {
			line += " " + f.styles.DocumentMeta.Render("["+strings.Join(meta, " | ")+"]")
		}
		if blurb := strings.TrimSpace(doc.Blurb); blurb != "" {
			line += "\n   " + f.styles.DocumentBlurb.Render(truncate(blurb, f.width-6))
		}
		lines = append(lines, line)
	}
	if hidden := len(docs) - len(shown); hidden > 0 {
		lines = append(lines, f.styles.Muted.Render(fmt.Sprintf("... and %d more", hidden)))
	}

	return f.styles.DocumentBox.Render(strings.Join(lines, "\n"))
}

// RenderCitations lists which documents an answer cites
func (f *Formatter) RenderCitations(msg chat.Message) string {
	cited := chat.CitedDocuments(msg)
	if len(cited) == 0 {
		return ""
	}

	lines := make([]string, 0, len(cited))
	for _, c := range cited {
		line := f.styles.Citation.Render(fmt.Sprintf("[%s]", c.Marker)) + " " + c.Document.Title()
		if c.Document.Link != "" {
			line += " " + f.styles.Muted.Render(c.Document.Link)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderStatus renders the phase indicator shown while a turn runs
func (f *Formatter) RenderStatus(phase process.State) string {
	if !phase.IsActive() {
		return ""
	}
	return f.styles.Status.Render(phase.GetIcon() + " " + phase.GetDisplayName() + "...")
}

func truncate(s string, n int) string {
	if n < 10 {
		n = 10
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
