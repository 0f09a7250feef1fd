package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/sessions"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		system            string
		stream            bool
		remember, recall  bool
		seed, maxTokens   int
		temperature, topP float64
		stop              []string
	)
	cmd := &cobra.Command{
		Use:   "chat <session-id> <message>...",
		Short: "Send a message to a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []domain.ChatMLMessage
			if system != "" {
				messages = append(messages, domain.ChatMLMessage{Role: domain.RoleSystem, Content: system})
			}
			messages = append(messages, domain.ChatMLMessage{Role: domain.RoleUser, Content: strings.Join(args[1:], " ")})

			params := sessions.ChatParams{Messages: messages, Stream: stream, Stop: stop}
			flags := cmd.Flags()
			if flags.Changed("seed") {
				params.Seed = &seed
			}
			if flags.Changed("max-tokens") {
				params.MaxTokens = &maxTokens
			}
			if flags.Changed("temperature") {
				params.Temperature = &temperature
			}
			if flags.Changed("top-p") {
				params.TopP = &topP
			}
			if flags.Changed("remember") {
				params.Remember = &remember
			}
			if flags.Changed("recall") {
				params.Recall = &recall
			}

			result, err := a.client.Chat(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			if result.Stream == nil {
				return a.formatter.Output(result.Response)
			}

			defer result.Stream.Close()
			for chunk, err := range result.Stream.All() {
				if err != nil {
					return err
				}
				if err := a.formatter.Fragment(chunk); err != nil {
					return err
				}
			}
			return a.formatter.EndStream()
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system message sent before the user message")
	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	cmd.Flags().BoolVar(&remember, "remember", false, "let the service remember this exchange")
	cmd.Flags().BoolVar(&recall, "recall", false, "let the service recall earlier context")
	cmd.Flags().IntVar(&seed, "seed", 0, "sampling seed")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "maximum tokens in the reply")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().Float64Var(&topP, "top-p", 0, "nucleus sampling probability")
	cmd.Flags().StringArrayVar(&stop, "stop", nil, "stop sequence (repeatable)")
	return cmd
}
