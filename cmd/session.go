package cmd

import (
	"fmt"
	"strconv"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored chat sessions",
	}

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the transcript of a stored session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShow,
	}
	showCmd.Flags().Bool("documents", false, "also print the documents behind each answer")

	sessionCmd.AddCommand(showCmd)
	return sessionCmd
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	sessionID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	app := NewApp(config.Get(), cmd.OutOrStdout(), plainOutput(cmd))
	defer app.Close()

	session, err := app.Backend.GetChatSession(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to load chat session %d: %w", sessionID, err)
	}

	out := cmd.OutOrStdout()
	if session.Description != "" {
		fmt.Fprintln(out, app.Formatter.Styles().DocumentTitle.Render(session.Description))
	}

	history := chat.FromBackendMessages(session.Messages)
	withDocs, _ := cmd.Flags().GetBool("documents")
	if !withDocs {
		fmt.Fprintln(out, app.Formatter.RenderTranscript(history))
		return nil
	}

	for _, msg := range history {
		fmt.Fprintln(out, app.Formatter.RenderMessage(msg))
		if msg.HasDocuments() {
			fmt.Fprintln(out, app.Formatter.RenderDocuments(msg.Documents))
		}
	}
	return nil
}
