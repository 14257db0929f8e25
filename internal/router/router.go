// Package router turns one inbound chat message into at most one outbound
// reply.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dompet/internal/command"
	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/reply"
	"dompet/internal/silence"
	"dompet/internal/store"
)

// Message is an inbound chat message as delivered by a transport.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Phone          string    `json:"phone"`
	Text           string    `json:"text"`
	FromMe         bool      `json:"from_me"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Sender delivers the aggregated reply to a conversation.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, conversationID, text string) error

func (f SenderFunc) Send(ctx context.Context, conversationID, text string) error {
	return f(ctx, conversationID, text)
}

// Executor runs a parsed command for a user.
type Executor interface {
	Execute(ctx context.Context, user core.User, cmd command.Command) (reply.Reply, error)
}

type Router struct {
	users     store.UserReader
	exec      Executor
	silence   silence.Store
	sender    Sender
	formatter reply.Formatter
	logger    *log.Logger
}

// New builds a router. sender may be nil for callers that only use Respond.
func New(users store.UserReader, exec Executor, silenced silence.Store, sender Sender, formatter reply.Formatter, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Router{
		users:     users,
		exec:      exec,
		silence:   silenced,
		sender:    sender,
		formatter: formatter,
		logger:    logger.WithComponent(log.ComponentRouter),
	}
}

// Handle processes msg and sends at most one message. It returns the text
// that was sent, or "" when the message needs no reply.
//
// Operator messages (FromMe) only start a silence window. Failures inside a
// line are reported in that line's reply and never stop the other lines.
func (r *Router) Handle(ctx context.Context, msg Message) (string, error) {
	text := r.Respond(ctx, msg)
	if text == "" {
		return "", nil
	}
	if r.sender == nil {
		return "", errors.New("router has no sender")
	}
	if err := r.sender.Send(ctx, msg.ConversationID, text); err != nil {
		return "", fmt.Errorf("send reply: %w", err)
	}
	return text, nil
}

// Respond computes the reply text for msg without sending it.
func (r *Router) Respond(ctx context.Context, msg Message) string {
	if msg.FromMe {
		r.silence.MarkManual(msg.ConversationID)
		return ""
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ""
	}
	silenced := r.silence.IsSilenced(msg.ConversationID)

	if help, ok := reply.Help(text); ok {
		return help
	}
	if reply.IsGreeting(text) {
		if silenced {
			return ""
		}
		return reply.Welcome
	}

	lines := splitLines(text)
	type parsedLine struct {
		n   int
		cmd command.Command
	}
	var cmds []parsedLine
	for i, line := range lines {
		if cmd, ok := command.Parse(line); ok {
			cmds = append(cmds, parsedLine{n: i + 1, cmd: cmd})
		}
	}
	if len(cmds) == 0 {
		if len(lines) == 1 && !silenced {
			return reply.NotUnderstood
		}
		return ""
	}

	fields := log.NewFields().WithMessage(msg.ID, msg.ConversationID)
	user, err := r.users.FindUserByPhone(ctx, msg.Phone)
	if errors.Is(err, core.ErrNotFound) {
		r.logger.InfoContext(ctx, "Message from unregistered phone", fields.ToSlice()...)
		return reply.NotRegistered
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "User lookup failed", fields.WithError(err).ToSlice()...)
		return reply.ProcessingFailed
	}

	replies := make([]reply.Reply, 0, len(cmds))
	for _, p := range cmds {
		replies = append(replies, r.execute(ctx, msg, user, p.n, p.cmd))
	}

	r.logger.InfoContext(ctx, "Message processed",
		log.FieldMessageID, msg.ID,
		log.FieldConversationID, msg.ConversationID,
		log.FieldUserID, user.ID,
		log.FieldLineCount, len(cmds))
	return r.formatter.Format(replies)
}

func (r *Router) execute(ctx context.Context, msg Message, user core.User, n int, cmd command.Command) (rep reply.Reply) {
	fields := func() log.LogFields {
		return log.NewFields().
			WithMessage(msg.ID, msg.ConversationID).
			WithCommand(cmd.Verb, n).
			WithOperation(log.OpExecute)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "Command panicked", fields().WithError(fmt.Errorf("panic: %v", p)).ToSlice()...)
			rep = reply.Plain(reply.ProcessingFailed)
		}
	}()

	rep, err := r.exec.Execute(ctx, user, cmd)
	if err != nil {
		r.logger.ErrorContext(ctx, "Command failed", fields().WithError(err).ToSlice()...)
		return reply.Plain(reply.ProcessingFailed)
	}
	if rep == nil {
		return reply.Plain(reply.ProcessingFailed)
	}
	return rep
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
