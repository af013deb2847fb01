package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/blogkb/pkg/blogkb"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		stream  bool
		sources bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question (interactive when no question is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			engine, err := a.newEngine(st, true)
			if err != nil {
				st.Close()
				return err
			}
			defer engine.Close()

			s := &session{engine: engine, out: cmd.OutOrStdout(), stream: stream, sources: sources}

			// One-shot query mode
			if len(args) > 0 {
				return s.ask(ctx, strings.Join(args, " "))
			}
			return s.repl(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "print the reply as it is generated")
	cmd.Flags().BoolVar(&sources, "sources", true, "list the blogs the answer drew on")
	return cmd
}

// session is one conversation with the assistant.
type session struct {
	engine  *blogkb.Engine
	out     io.Writer
	stream  bool
	sources bool
	history []blogkb.Message
}

func (s *session) repl(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "===========================================")
	fmt.Fprintln(s.out, "  Blog Knowledge Base")
	fmt.Fprintln(s.out, "  Ask about anything in the collection")
	fmt.Fprintln(s.out, "===========================================")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Type your question (Ctrl+D to exit):")
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		if err := s.ask(ctx, question); err != nil {
			fmt.Fprintln(s.out, "Error:", err)
		}
	}

	fmt.Fprintln(s.out, "\nGoodbye!")
	return scanner.Err()
}

func (s *session) ask(ctx context.Context, question string) error {
	req := blogkb.ChatRequest{Message: question, History: s.history}

	var (
		answer *blogkb.Answer
		err    error
	)
	if s.stream {
		answer, err = s.engine.AskStream(ctx, req, func(delta string) error {
			_, werr := fmt.Fprint(s.out, delta)
			return werr
		})
		fmt.Fprintln(s.out)
	} else {
		answer, err = s.engine.Ask(ctx, req)
	}
	if err != nil {
		return err
	}

	if !s.stream {
		fmt.Fprintln(s.out, answer.Response)
	}
	if s.sources && len(answer.Sources) > 0 {
		fmt.Fprintln(s.out, "\nSources:")
		for _, src := range answer.Sources {
			fmt.Fprintf(s.out, "  - %s (%s / %s)\n", src.Title, src.Category, src.Topic)
		}
	}
	fmt.Fprintln(s.out)

	s.history = append(s.history,
		blogkb.Message{Role: blogkb.RoleUser, Content: question},
		blogkb.Message{Role: blogkb.RoleAssistant, Content: answer.Response},
	)
	return nil
}
