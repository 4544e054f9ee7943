package cmd

import (
	"errors"
	"strings"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	"github.com/killallgit/scout/pkg/logger"
	"github.com/spf13/cobra"
)

var errAnswerFailed = errors.New("the assistant could not answer")

func newAskCmd() *cobra.Command {
	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the streamed answer",
		Long: `Ask sends one question, streams the answer to stdout and exits.
Use --session to continue an existing conversation and --doc to answer from
specific documents instead of running a search.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	askCmd.Flags().Int("session", 0, "continue an existing chat session")
	askCmd.Flags().IntSlice("doc", nil, "answer from these document ids instead of searching")
	askCmd.Flags().Bool("progress", false, "print progress while waiting for the answer")
	return askCmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	app := NewApp(config.Get(), cmd.OutOrStdout(), plainOutput(cmd))
	defer app.Close()
	ctx := cmd.Context()

	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		app.Engine.OnUpdate(app.Printer.PrintStatus)
	}

	if sessionID, _ := cmd.Flags().GetInt("session"); sessionID > 0 {
		if err := app.Engine.LoadSession(ctx, sessionID); err != nil {
			return err
		}
	}

	interrupts := newInterruptHandler(app.Engine)
	stop := interrupts.watch()
	defer stop()
	turnCtx, turnDone := interrupts.turn(ctx)
	defer turnDone()

	docIDs, _ := cmd.Flags().GetIntSlice("doc")
	result, err := app.Ask(turnCtx, strings.Join(args, " "), selectedDocuments(docIDs))
	if err != nil {
		return err
	}

	if result.Reply.Role == chat.RoleError {
		logger.Error("Answer failed: %s", result.Reply.Content)
		return errAnswerFailed
	}
	return nil
}
