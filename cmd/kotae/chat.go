package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/session"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a question and press enter.
  /upload <file>   index a document
  /history         show the conversation
  /quit            leave`

func newChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively in one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runChat(ctx, a.session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat reads commands and questions from in until EOF or /quit.
func runChat(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, chatHelp)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/history":
			cli.WriteMessages(out, s.Messages())
		case strings.HasPrefix(line, "/upload "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload "))
			n, err := uploadPath(ctx, s, path)
			cli.WriteUpload(out, filepath.Base(path), n, err)
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, chatHelp)
		default:
			if err := cli.WriteAnswer(out, s.Ask(ctx, line), cli.OutputText); err != nil {
				return err
			}
		}
		fmt.Fprintln(out)
	}
}

func uploadPath(ctx context.Context, s *session.Session, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.Upload(ctx, filepath.Base(path), f)
}
