package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/killallgit/scout/pkg/chat"
	"github.com/killallgit/scout/pkg/config"
	"github.com/spf13/cobra"
)

func newFeedbackCmd() *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback <message-id> <like|dislike> [details...]",
		Short: "Rate an answer from a stored session",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runFeedback,
	}
	feedbackCmd.Flags().Int("session", 0, "session the message belongs to")
	feedbackCmd.MarkFlagRequired("session")
	return feedbackCmd
}

func runFeedback(cmd *cobra.Command, args []string) error {
	messageID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid message id %q", args[0])
	}
	kind, err := chat.ParseFeedbackKind(args[1])
	if err != nil {
		return err
	}

	app := NewApp(config.Get(), cmd.OutOrStdout(), plainOutput(cmd))
	defer app.Close()

	sessionID, _ := cmd.Flags().GetInt("session")
	if err := app.Engine.LoadSession(cmd.Context(), sessionID); err != nil {
		return err
	}

	if err := app.Engine.SubmitFeedback(cmd.Context(), messageID, kind, strings.Join(args[2:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Thanks for your feedback on message #%d\n", messageID)
	return nil
}
