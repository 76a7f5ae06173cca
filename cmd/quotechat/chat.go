package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seenimoa/quotechat/internal/chat"
	"github.com/seenimoa/quotechat/internal/llm"
)

// --- Chat Command ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat mode",
	Long: `Start an interactive chat session in the terminal.

Type a pair ("BTC/USDT", "analyze EUR/USD"), a question, or one of:
  /image <path> [caption]   send a chart screenshot
  /lang <code>              switch reply language
  /quit                     leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		conversation, _ := cmd.Flags().GetString("conversation")
		if conversation == "" {
			conversation = "cli-" + uuid.NewString()
		}
		trace, _ := cmd.Flags().GetBool("trace")

		fmt.Println("💬 quotechat — type /help for commands, /quit to leave")
		return runREPL(cmd.Context(), a.chat, conversation, os.Stdin, os.Stdout, trace)
	},
}

func init() {
	chatCmd.Flags().String("conversation", "", "conversation id (keeps the language preference across sessions with the sqlite store)")
	chatCmd.Flags().Bool("trace", false, "print the state trace after every reply")
}

// runREPL reads lines from in until EOF or /quit and prints each reply.
func runREPL(ctx context.Context, router *chat.Router, conversation string, in io.Reader, out io.Writer, trace bool) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := parseLine(conversation, line)
		if err != nil {
			fmt.Fprintf(out, "⚠️  %v\n", err)
			continue
		}
		reply := router.Handle(ctx, msg)
		fmt.Fprintln(out, reply.Text)
		if trace {
			fmt.Fprintf(out, "   [%s · %s]\n", reply.Kind, reply.TraceString())
		}
	}
}

// parseLine turns a REPL line into an inbound message, loading the file
// named by "/image <path> [caption]".
func parseLine(conversation, line string) (chat.Inbound, error) {
	msg := chat.Inbound{ConversationID: conversation, Text: line}
	rest, ok := strings.CutPrefix(line, "/image")
	if !ok {
		return msg, nil
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return msg, fmt.Errorf("usage: /image <path> [caption]")
	}
	data, err := os.ReadFile(fields[0])
	if err != nil {
		return msg, err
	}
	img, err := llm.NewImage(data, "")
	if err != nil {
		return msg, err
	}
	msg.Image = img
	msg.Text = strings.Join(fields[1:], " ")
	return msg, nil
}

// --- Ask Command ---

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a single message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		lang, _ := cmd.Flags().GetString("lang")
		conversation := "cli-" + uuid.NewString()
		if lang != "" {
			a.chat.Handle(cmd.Context(), chat.Inbound{ConversationID: conversation, Text: "/lang " + lang})
		}
		reply := a.chat.Handle(cmd.Context(), chat.Inbound{ConversationID: conversation, Text: strings.Join(args, " ")})
		fmt.Println(reply.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().String("lang", "", "reply language (en, es, ru, hi)")
}
