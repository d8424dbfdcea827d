package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"chat-relay/client"
	"chat-relay/downstream"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func newChatCommand() *cobra.Command {
	var (
		url    string
		system string
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running relay from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			s := &chatSession{
				client: client.New(url),
				stream: stream,
				out:    cmd.OutOrStdout(),
			}
			if system != "" {
				s.history = append(s.history, downstream.Message{Role: "system", Content: system})
			}
			return s.run(cmd.Context(), line)
		},
	}

	cmd.Flags().StringVar(&url, "url", client.DefaultURL, "relay chat endpoint")
	cmd.Flags().StringVar(&system, "system", "", "system message for the conversation")
	cmd.Flags().BoolVar(&stream, "stream", false, "ask the relay to stream replies")
	return cmd
}

// prompter is the part of liner the chat loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type chatSession struct {
	client  *client.Client
	stream  bool
	out     io.Writer
	history []downstream.Message
}

func (s *chatSession) run(ctx context.Context, p prompter) error {
	fmt.Fprintln(s.out, "Starting chat session (type 'exit' to quit)")
	fmt.Fprintln(s.out, "----------------------------------------")

	for {
		input, err := p.Prompt("You: ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" {
			return nil
		}
		p.AppendHistory(input)

		if err := s.turn(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// turn sends one user message. A failed turn is dropped from the history.
func (s *chatSession) turn(ctx context.Context, input string) error {
	conversation := append(s.history, downstream.Message{Role: "user", Content: input})
	fmt.Fprint(s.out, colorGreen+"AI: "+colorReset)

	var reply string
	if s.stream {
		h := &printHandler{out: s.out}
		if err := s.client.Stream(ctx, conversation, h); err != nil {
			fmt.Fprintln(s.out)
			return err
		}
		reply = h.buf.String()
	} else {
		msg, err := s.client.Send(ctx, conversation)
		if err != nil {
			fmt.Fprintln(s.out)
			return err
		}
		reply = msg.Content
		fmt.Fprintln(s.out, colorCyan+reply+colorReset)
	}

	s.history = append(conversation, downstream.Message{Role: "assistant", Content: reply})
	return nil
}

type printHandler struct {
	out io.Writer
	buf strings.Builder
}

func (h *printHandler) OnContent(content string) {
	h.buf.WriteString(content)
	fmt.Fprint(h.out, colorCyan+content+colorReset)
}

func (h *printHandler) OnError(err error) {
	fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
}

func (h *printHandler) OnComplete() {
	fmt.Fprintln(h.out)
}
