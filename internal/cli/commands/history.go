package commands

import (
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/sdk/sessions"
)

// pageFlags registers --limit and --offset and returns a reader for them.
func pageFlags(cmd *cobra.Command) func() sessions.PageParams {
	var limit, offset int
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of entries to skip")
	return func() sessions.PageParams {
		var p sessions.PageParams
		if cmd.Flags().Changed("limit") {
			p.Limit = &limit
		}
		if cmd.Flags().Changed("offset") {
			p.Offset = &offset
		}
		return p
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show the message history of a session",
		Args:  cobra.ExactArgs(1),
	}
	page := pageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		messages, err := a.client.History(cmd.Context(), args[0], page())
		if err != nil {
			return err
		}
		return a.formatter.Output(messages)
	}
	return cmd
}

func newDeleteHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-history <session-id>",
		Short: "Clear the message history of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.formatter.Message("Cleared history of session %s", args[0])
			return nil
		},
	}
}

func newSuggestionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions <session-id>",
		Short: "List suggestions produced in a session",
		Args:  cobra.ExactArgs(1),
	}
	page := pageFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		suggestions, err := a.client.Suggestions(cmd.Context(), args[0], page())
		if err != nil {
			return err
		}
		return a.formatter.Output(suggestions)
	}
	return cmd
}
