package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dompet/internal/backend"
	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/reply"
	"dompet/internal/router"
	"dompet/internal/services"
	"dompet/internal/silence"
	"dompet/internal/store"
)

var (
	chatPhone string
	chatName  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with the interpreter",
	Long: `Read chat lines from stdin and print the replies.

A line ending with a backslash continues the same message, so several
commands can be sent together. Type "exit" to leave.

With the memory backend the phone is registered on the fly; with SQLite
register it first with "dompet-cli user add".`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatPhone, "phone", "628000000000", "phone number of the chatting user")
	chatCmd.Flags().StringVar(&chatName, "name", "Pengguna", "display name used when registering the phone")
}

// messageHandler is the part of the router the REPL drives.
type messageHandler interface {
	Handle(ctx context.Context, msg router.Message) (string, error)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := effectiveConfig()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer res.Close()

	if err := ensureUser(ctx, res.Store, chatPhone, chatName); err != nil {
		return err
	}

	loc := cfg.Location()
	out := cmd.OutOrStdout()
	sender := router.SenderFunc(func(_ context.Context, _ string, text string) error {
		_, err := fmt.Fprintln(out, text)
		return err
	})
	rt := router.New(res.Store,
		services.NewInterpreter(res.Store, services.WithLocation(loc)),
		silence.NewWindow(cfg.SilenceWindow, cfg.SilenceMaxEntries),
		sender,
		reply.Formatter{Location: loc},
		log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentRouter, Output: os.Stderr}))

	fmt.Fprintf(out, "dompet chat as %s (%s backend). Type \"exit\" to leave.\n", chatPhone, bcfg.Type)
	return repl(ctx, cmd.InOrStdin(), out, rt, chatPhone)
}

// ensureUser registers phone on stores that allow it in process.
func ensureUser(ctx context.Context, st store.Store, phone, name string) error {
	_, err := st.FindUserByPhone(ctx, phone)
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	if mem, ok := st.(interface {
		AddUser(phone, name string) core.User
	}); ok {
		mem.AddUser(phone, name)
		return nil
	}
	return fmt.Errorf("phone %s is not registered; run \"dompet-cli user add %s <name>\" first", phone, phone)
}

func repl(ctx context.Context, in io.Reader, out io.Writer, h messageHandler, phone string) error {
	scanner := bufio.NewScanner(in)
	conversationID := "cli-" + phone
	var pending []string

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if len(pending) == 0 && isExit(line) {
			return nil
		}
		if strings.HasSuffix(line, `\`) {
			pending = append(pending, strings.TrimSuffix(line, `\`))
			fmt.Fprint(out, "… ")
			continue
		}
		pending = append(pending, line)
		msg := router.Message{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			Phone:          phone,
			Text:           strings.Join(pending, "\n"),
			ReceivedAt:     time.Now(),
		}
		pending = pending[:0]

		if _, err := h.Handle(ctx, msg); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", ":q":
		return true
	}
	return false
}
