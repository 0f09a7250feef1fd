package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/cli/ui"
	"github.com/xiaot623/gogo/sdk/sessions"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions", "s"},
		Short:   "Manage sessions",
	}
	cmd.AddCommand(
		newSessionCreateCmd(a),
		newSessionGetCmd(a),
		newSessionListCmd(a),
		newSessionUpdateCmd(a),
		newSessionDeleteCmd(a),
		newChatCmd(a),
		newHistoryCmd(a),
		newDeleteHistoryCmd(a),
		newSuggestionsCmd(a),
	)
	return cmd
}

func newSessionCreateCmd(a *app) *cobra.Command {
	var (
		params   sessions.CreateParams
		metadata string
		budget   int
		overflow string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if params.Metadata, err = parseObject("metadata", metadata); err != nil {
				return err
			}
			if cmd.Flags().Changed("token-budget") {
				params.TokenBudget = &budget
			}
			params.ContextOverflow = domain.ContextOverflow(overflow)

			session, err := a.client.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			a.formatter.Message("Created session %s", session.ID)
			return a.formatter.Output(session)
		},
	}
	cmd.Flags().StringVar(&params.UserID, "user", "", "user UUID (required)")
	cmd.Flags().StringVar(&params.AgentID, "agent", "", "agent UUID (required)")
	cmd.Flags().StringVar(&params.Situation, "situation", "", "situation text")
	cmd.Flags().StringVar(&metadata, "metadata", "", "metadata as a JSON object")
	cmd.Flags().BoolVar(&params.RenderTemplates, "render-templates", false, "render templates in the situation")
	cmd.Flags().IntVar(&budget, "token-budget", 0, "token budget")
	cmd.Flags().StringVar(&overflow, "context-overflow", "", "truncate or adaptive")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func newSessionGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.formatter.Output(session)
		},
	}
}

func newSessionListCmd(a *app) *cobra.Command {
	var (
		limit, offset int
		filter        string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var params sessions.ListParams
			if cmd.Flags().Changed("limit") {
				params.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				params.Offset = &offset
			}
			var err error
			if params.MetadataFilter, err = parseObject("filter", filter); err != nil {
				return err
			}

			list, err := a.client.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return a.formatter.Output(list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of sessions")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of sessions to skip")
	cmd.Flags().StringVar(&filter, "filter", "", "metadata filter as a JSON object")
	return cmd
}

func newSessionUpdateCmd(a *app) *cobra.Command {
	var (
		situation, metadata, overflow string
		budget                        int
		overwrite                     bool
	)
	cmd := &cobra.Command{
		Use:   "update <session-id>",
		Short: "Update a session",
		Long: `Update a session. Without --overwrite the given fields are merged into the
stored session; with it the situation and metadata replace the stored values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := sessions.UpdateParams{Overwrite: overwrite}
			if cmd.Flags().Changed("situation") {
				params.Situation = &situation
			}
			var err error
			if params.Metadata, err = parseObject("metadata", metadata); err != nil {
				return err
			}
			if cmd.Flags().Changed("token-budget") {
				params.TokenBudget = &budget
			}
			if cmd.Flags().Changed("context-overflow") {
				params.ContextOverflow = domain.Ptr(domain.ContextOverflow(overflow))
			}

			session, err := a.client.Update(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			a.formatter.Message("Updated session %s", session.ID)
			return a.formatter.Output(session)
		},
	}
	cmd.Flags().StringVar(&situation, "situation", "", "situation text")
	cmd.Flags().StringVar(&metadata, "metadata", "", "metadata as a JSON object")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace instead of merge")
	cmd.Flags().IntVar(&budget, "token-budget", 0, "token budget")
	cmd.Flags().StringVar(&overflow, "context-overflow", "", "truncate or adaptive")
	return cmd
}

// newSessionDeleteCmd deletes several sessions concurrently, bounded by
// --max-concurrency.
func newSessionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>...",
		Short: "Delete one or more sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			futures := make([]*sessions.Future[struct{}], len(args))
			for i, id := range args {
				futures[i] = a.async.Delete(ctx, id)
			}

			deleted := make([]string, len(args))
			var g errgroup.Group
			for i, f := range futures {
				g.Go(func() error {
					if _, err := f.Result(); err != nil {
						return fmt.Errorf("delete %s: %w", args[i], err)
					}
					deleted[i] = args[i]
					return nil
				})
			}
			err := g.Wait()

			var ids []string
			for _, id := range deleted {
				if id != "" {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)
			if outErr := a.formatter.Output(ui.DeleteResult{Deleted: ids}); outErr != nil {
				return outErr
			}
			return err
		},
	}
}

// parseObject decodes a JSON object flag. An empty value yields nil.
func parseObject(name, value string) (map[string]any, error) {
	if value == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", name, err)
	}
	return m, nil
}
