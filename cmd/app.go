package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/killallgit/scout/pkg/backend"
	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	"github.com/killallgit/scout/pkg/logger"
	"github.com/killallgit/scout/pkg/render"
)

// newBackend builds the backend client; tests swap it for a fake
var newBackend = func(cfg *config.Config) chat.Backend {
	opts := []backend.Option{
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithAPIKey(cfg.Backend.APIKey),
	}
	if cfg.Backend.Transport == config.TransportWebSocket {
		logger.Debug("Using websocket transport for %s", cfg.Backend.URL)
		return backend.NewWebSocketClient(cfg.Backend.URL, opts...)
	}
	return backend.NewClient(cfg.Backend.URL, opts...)
}

// App wires the engine to the terminal for one command invocation
type App struct {
	Config    *config.Config
	Backend   chat.Backend
	Engine    *chat.Engine
	Formatter *render.Formatter
	Printer   *render.StreamPrinter
	out       io.Writer
}

func NewApp(cfg *config.Config, out io.Writer, plain bool) *App {
	be := newBackend(cfg)
	formatter := render.NewFormatter(render.Options{
		Width:        100,
		Highlight:    cfg.Display.Highlight,
		Style:        cfg.Display.Style,
		Plain:        plain,
		MaxDocuments: cfg.Display.MaxDocuments,
	})

	app := &App{
		Config:    cfg,
		Backend:   be,
		Engine:    chat.NewEngine(be, chat.WithPersona(cfg.Chat.PersonaID)),
		Formatter: formatter,
		Printer:   render.NewStreamPrinter(out, formatter, cfg.Display.ShowDocuments),
		out:       out,
	}
	app.Engine.OnUpdate(app.Printer.Observe)
	return app
}

// Filters builds the retrieval filters configured for this run
func (a *App) Filters(now time.Time) (chat.RetrievalFilters, error) {
	timeRange, err := chat.ParseTimeRange(a.Config.Chat.TimeRange)
	if err != nil {
		return chat.RetrievalFilters{}, err
	}
	return chat.BuildFilters(a.Config.Chat.Sources, a.Config.Chat.DocumentSets, timeRange, now), nil
}

// Ask submits one message and streams the answer to the output
func (a *App) Ask(ctx context.Context, text string, selected []chat.Document) (chat.TurnResult, error) {
	filters, err := a.Filters(time.Now())
	if err != nil {
		return chat.TurnResult{}, err
	}

	a.Printer.BeginTurn(len(a.Engine.Snapshot().History))
	result, err := a.Engine.Submit(ctx, chat.Submission{
		Text:              text,
		Filters:           filters,
		SelectedDocuments: selected,
		PromptID:          a.Config.Chat.PromptID,
	})
	if err != nil {
		return result, err
	}
	a.Printer.EndTurn(a.Engine.Snapshot(), result)
	return result, nil
}

// ShowDocuments prints the documents of the focused message
func (a *App) ShowDocuments() {
	state := a.Engine.Snapshot()
	msg, ok := state.FocusMessage()
	if !ok {
		fmt.Fprintln(a.out, a.Formatter.Styles().Muted.Render("No documents in focus."))
		return
	}
	fmt.Fprintln(a.out, a.Formatter.RenderDocuments(msg.Documents))
}

// Close waits for background work such as session naming
func (a *App) Close() {
	a.Engine.Wait()
}

// selectedDocuments turns database ids from the command line into documents
func selectedDocuments(ids []int) []chat.Document {
	docs := make([]chat.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, chat.Document{
			DocumentID:         strconv.Itoa(id),
			DBDocID:            chat.IntPtr(id),
			SemanticIdentifier: fmt.Sprintf("document %d", id),
		})
	}
	return docs
}
