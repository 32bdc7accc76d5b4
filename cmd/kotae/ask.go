package main

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/spf13/cobra"
)

func newAskCmd(opts *globalOptions) *cobra.Command {
	var (
		serverURL string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question",
		Long: `Routes the question to the documents, the web or both and prints the answer
with its sources. The question is all arguments joined by spaces.`,
		Example: `  kotae ask what does the handbook say about leave
  kotae ask "latest Go release vs the one before" --output json
  kotae ask --server http://localhost:8080 summarize the report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			question := cli.JoinArgs(args)
			if question == "" {
				return errors.New("question is empty")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var result models.AnswerResult
			if serverURL != "" {
				res, err := newAPIClient(serverURL).ask(ctx, question)
				if err != nil {
					return err
				}
				result = *res
			} else {
				a, err := newApp(opts)
				if err != nil {
					return err
				}
				defer a.Close()
				result = a.session.Ask(ctx, question)
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "ask a running server instead of opening the index")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
