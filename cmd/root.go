package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	"github.com/killallgit/scout/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scout",
		Short: "Chat with your search assistant from the terminal",
		Long: `Scout is a terminal client for a retrieval-augmented search assistant.
Answers stream in as they are generated, together with the documents they were based on.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: runChat,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.scout/settings.yaml)")

	flags.StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", flags.Lookup("log-level"))

	flags.StringP("backend", "b", "http://localhost:8080", "backend API base URL")
	viper.BindPFlag("backend.url", flags.Lookup("backend"))

	flags.String("transport", config.TransportHTTP, "packet transport: http or websocket")
	viper.BindPFlag("backend.transport", flags.Lookup("transport"))

	flags.Int("persona", 0, "persona used for new chat sessions")
	viper.BindPFlag("chat.persona_id", flags.Lookup("persona"))

	flags.StringSlice("source", nil, "only search these source types")
	viper.BindPFlag("chat.sources", flags.Lookup("source"))

	flags.StringSlice("document-set", nil, "only search these document sets")
	viper.BindPFlag("chat.document_sets", flags.Lookup("document-set"))

	flags.String("time-range", "", "only search documents updated within: day, week, month or year")
	viper.BindPFlag("chat.time_range", flags.Lookup("time-range"))

	flags.Bool("show-documents", true, "print retrieved documents after each answer")
	viper.BindPFlag("display.show_documents", flags.Lookup("show-documents"))

	flags.Bool("plain", false, "disable colours and borders")

	rootCmd.Flags().Int("session", 0, "resume an existing chat session")

	rootCmd.AddCommand(newAskCmd(), newSessionCmd(), newFeedbackCmd(), newInitCmd())
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and starts the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(cfgFile); err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	logger.SetQuiet(true)
	logger.Debug("Using config file: %s", config.GetConfigFileUsed())
	return nil
}

func plainOutput(cmd *cobra.Command) bool {
	plain, _ := cmd.Flags().GetBool("plain")
	return plain
}

func runChat(cmd *cobra.Command, args []string) error {
	app := NewApp(config.Get(), cmd.OutOrStdout(), plainOutput(cmd))
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if sessionID, _ := cmd.Flags().GetInt("session"); sessionID > 0 {
		if err := app.Engine.LoadSession(ctx, sessionID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.Formatter.RenderTranscript(app.Engine.Snapshot().History))
	}

	interrupts := newInterruptHandler(app.Engine)
	stop := interrupts.watch()
	defer stop()

	return chatLoop(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout(), interrupts)
}

// readLines scans in on its own goroutine. It stops at EOF or once stopped is
// closed, then reports the scanner error and closes lines.
func readLines(in io.Reader, stopped <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stopped:
				errs <- nil
				return
			}
		}
		errs <- scanner.Err()
	}()
	return lines, errs
}

func chatLoop(ctx context.Context, app *App, in io.Reader, out io.Writer, interrupts *interruptHandler) error {
	muted := app.Formatter.Styles().Muted
	fmt.Fprintln(out, muted.Render("Type a question, /help for commands, /quit to leave."))

	stopped := make(chan struct{})
	defer close(stopped)
	lines, readErr := readLines(in, stopped)

	for {
		fmt.Fprint(out, app.Formatter.Styles().UserLabel.Render("You: "))

		var line string
		select {
		case <-interrupts.Quit():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-readErr
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") || line == "quit" || line == "exit" {
			done, err := runChatCommand(ctx, app, out, line)
			if err != nil {
				fmt.Fprintln(out, app.Formatter.Styles().ErrorMessage.Render(err.Error()))
			}
			if done {
				return nil
			}
			continue
		}

		turnCtx, turnDone := interrupts.turn(ctx)
		_, err := app.Ask(turnCtx, line, nil)
		turnDone()
		if err != nil {
			fmt.Fprintln(out, app.Formatter.Styles().ErrorMessage.Render(err.Error()))
		}
	}
}

const chatHelp = `Commands:
  /docs              show the documents of the focused answer
  /focus <n>         toggle document focus for message n (see /history)
  /history           print the conversation so far
  /like [id] [text]  rate an answer (defaults to the latest one)
  /dislike [id] [text]
  /persona <id>      choose a persona before the first question
  /quit              leave`

// runChatCommand handles a slash command. It reports whether the loop should end.
func runChatCommand(ctx context.Context, app *App, out io.Writer, line string) (bool, error) {
	fields := strings.Fields(line)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	switch name {
	case "quit", "exit", "q":
		return true, nil

	case "help":
		fmt.Fprintln(out, chatHelp)

	case "docs":
		app.ShowDocuments()

	case "focus":
		if len(args) != 1 {
			return false, errors.New("usage: /focus <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid message number %q", args[0])
		}
		focus := app.Engine.ToggleDocuments(n - 1)
		fmt.Fprintln(out, app.Formatter.Styles().Muted.Render("document focus: "+focus.String()))

	case "history":
		history := app.Engine.Snapshot().History
		for i, msg := range history {
			fmt.Fprintf(out, "%d. %s\n", i+1, app.Formatter.RenderMessage(msg))
		}

	case "like", "dislike":
		return false, chatFeedback(ctx, app, out, chat.FeedbackKind(name), args)

	case "persona":
		if len(args) != 1 {
			return false, errors.New("usage: /persona <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid persona id %q", args[0])
		}
		if err := app.Engine.SetPersona(id); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "persona set to %d\n", id)

	default:
		return false, fmt.Errorf("unknown command /%s, try /help", name)
	}
	return false, nil
}

func chatFeedback(ctx context.Context, app *App, out io.Writer, kind chat.FeedbackKind, args []string) error {
	var messageID int
	if len(args) > 0 {
		if id, err := strconv.Atoi(args[0]); err == nil {
			messageID = id
			args = args[1:]
		}
	}
	if messageID == 0 {
		id := chat.LastSuccessfulMessageID(app.Engine.Snapshot().History)
		if id == nil {
			return errors.New("no stored answer to rate yet")
		}
		messageID = *id
	}

	if err := app.Engine.SubmitFeedback(ctx, messageID, kind, strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Fprintf(out, "Thanks for your feedback on message #%d\n", messageID)
	return nil
}
