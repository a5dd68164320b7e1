package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/chat"
	"github.com/carelink/clk/internal/config"
	"github.com/carelink/clk/internal/realtime"
)

var (
	chatJSON   bool
	chatFilter string
	chatGroup  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Staff chat",
	Long: `Staff chat against the CareLink chat endpoints.

Conversations are direct (two people) or group threads. Unread counts and
the conversation list come from the server; "clk chat watch" holds a live
WebSocket connection and renders messages as they arrive.

Examples:
  clk chat list
  clk chat list --filter kofi
  clk chat unread
  clk chat history c-42
  clk chat send c-42 "Patient in bay 3 is ready"
  clk chat start "Kofi Boateng"
  clk chat watch c-42`,
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		store := chat.NewConversationStore(client, cfg.UserID)
		if err := store.Load(ctx); err != nil {
			return fmt.Errorf("loading conversations: %w", err)
		}
		store.RefreshUnreadTotal(ctx)

		list := store.Filter(chatFilter)
		fmt.Print(formatConversationsOutput(list, store, chatJSON))
		return nil
	},
}

var chatUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the unread message count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.UnreadCount(ctx)
		if err != nil {
			return fmt.Errorf("fetching unread count: %w", err)
		}
		if chatJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		switch resp.UnreadCount {
		case 0:
			fmt.Println("No unread messages.")
		case 1:
			fmt.Println("1 unread message.")
		default:
			fmt.Printf("%d unread messages.\n", resp.UnreadCount)
		}
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <conversation-id>",
	Short: "Show a conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.Messages(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		fmt.Print(formatMessagesOutput(resp.Messages, chatJSON))
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <conversation-id> <message>",
	Short: "Send a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(args[1]) == "" {
			return fmt.Errorf("message cannot be empty")
		}

		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		store := chat.NewMessageStore(client, args[0], cfg.UserID, cfg.UserName)
		store.SetComposer(args[1])
		msg, err := store.Send(ctx)
		if err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
		if chatJSON {
			fmt.Print(marshalJSONOrFallback(msg))
			return nil
		}
		fmt.Printf("Sent to %s: %s\n", args[0], msg.Content)
		return nil
	},
}

var chatStartCmd = &cobra.Command{
	Use:   "start <name>...",
	Short: "Start or resume a conversation",
	Long: `Start a conversation with one or more staff members, or resume the
existing one for that participant set.

Each argument is matched against the staff directory; it must resolve to
exactly one person. More than one participant, or --group, makes a group
conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		var participantIDs []string
		for _, query := range args {
			user, err := resolveChatUser(ctx, client, query)
			if err != nil {
				return err
			}
			participantIDs = append(participantIDs, user.ID)
		}

		chatType := "direct"
		if chatGroup || len(participantIDs) > 1 {
			chatType = "group"
		}

		store := chat.NewConversationStore(client, cfg.UserID)
		conv, err := store.CreateOrResume(ctx, chatType, participantIDs)
		if err != nil {
			return fmt.Errorf("starting conversation: %w", err)
		}
		if chatJSON {
			fmt.Print(marshalJSONOrFallback(conv))
			return nil
		}
		fmt.Printf("Conversation %s ready. Run \"clk chat watch %s\" to go live.\n", conv.ID, conv.ID)
		return nil
	},
}

var chatWatchCmd = &cobra.Command{
	Use:   "watch <conversation-id>",
	Short: "Watch a conversation live",
	Long: `Open a conversation and hold a live WebSocket connection.

Incoming messages print as they arrive; lines typed on stdin are sent to
the conversation. Ctrl+C or Ctrl+D exits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := newClient()
		if err != nil {
			return err
		}
		return runChatWatch(cmd.Context(), client, cfg, args[0])
	},
}

func init() {
	chatCmd.PersistentFlags().BoolVar(&chatJSON, "json", false, "Output as JSON")
	chatListCmd.Flags().StringVar(&chatFilter, "filter", "", "Filter conversations by name (case-insensitive)")
	chatStartCmd.Flags().BoolVar(&chatGroup, "group", false, "Create a group conversation")

	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatUnreadCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatStartCmd)
	chatCmd.AddCommand(chatWatchCmd)
}

// resolveChatUser matches a directory search query to exactly one user.
func resolveChatUser(ctx context.Context, client *api.Client, query string) (api.UserSearchResult, error) {
	resp, err := client.SearchUsers(ctx, query)
	if err != nil {
		return api.UserSearchResult{}, fmt.Errorf("searching users: %w", err)
	}
	switch len(resp.Users) {
	case 0:
		return api.UserSearchResult{}, fmt.Errorf("no staff member matches %q", query)
	case 1:
		return resp.Users[0], nil
	}

	// An exact (case-insensitive) name match wins over partial matches.
	var exact []api.UserSearchResult
	for _, u := range resp.Users {
		if strings.EqualFold(u.Name, query) {
			exact = append(exact, u)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%q matches %d staff members:\n", query, len(resp.Users))
	for _, u := range resp.Users {
		fmt.Fprintf(&sb, "  %s  %s", u.ID, u.Name)
		if u.Role != "" {
			fmt.Fprintf(&sb, " (%s)", u.Role)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Narrow the query and try again.")
	return api.UserSearchResult{}, fmt.Errorf("%s", sb.String())
}

func runChatWatch(ctx context.Context, client *api.Client, cfg *config.Config, conversationID string) error {
	session := chat.NewSession(client, cfg.WebSocketURL(), cfg.UserID, cfg.UserName)
	defer session.Close()

	session.OnStateChange(func(s realtime.State) {
		switch s {
		case realtime.Connected:
			fmt.Println("● Live")
		case realtime.Backoff:
			fmt.Println("○ Offline (reconnecting)")
		}
	})

	startCtx, cancelStart := context.WithTimeout(ctx, apiTimeout)
	err := session.Start(startCtx)
	cancelStart()
	if err != nil {
		return fmt.Errorf("starting chat session: %w", err)
	}

	selectCtx, cancelSelect := context.WithTimeout(ctx, apiTimeout)
	err = session.SelectConversation(selectCtx, conversationID)
	cancelSelect()
	if err != nil {
		return fmt.Errorf("opening conversation: %w", err)
	}

	title := conversationID
	if conv, ok := findConversation(session, conversationID); ok {
		title = session.DisplayName(conv)
	}
	fmt.Printf("Watching %s. Type a message and press Enter; Ctrl+C to exit.\n\n", title)

	rendered := 0
	for _, m := range session.Messages() {
		printChatMessage(m, cfg.UserID)
		rendered++
	}

	renderCh := make(chan struct{}, 1)
	session.OnUpdate = func() {
		select {
		case renderCh <- struct{}{}:
		default:
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			fmt.Println("\nLeaving.")
			return nil
		case <-renderCh:
			msgs := session.Messages()
			for ; rendered < len(msgs); rendered++ {
				printChatMessage(msgs[rendered], cfg.UserID)
			}
			if name, ok := session.TypingName(conversationID); ok {
				fmt.Printf("  %s is typing...\n", name)
			}
		case line, ok := <-lines:
			if !ok {
				fmt.Println("Leaving.")
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := submitWatchLine(ctx, session, conversationID, line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v (draft kept)\n", err)
				continue
			}
			msgs := session.Messages()
			for ; rendered < len(msgs); rendered++ {
				printChatMessage(msgs[rendered], cfg.UserID)
			}
		}
	}
}

// submitWatchLine pushes a composed line through the session. The typing
// start goes out before the REST send; the channel throttles repeat
// starts, and the stop fires only once the message is delivered.
func submitWatchLine(ctx context.Context, session *chat.Session, conversationID, line string) error {
	session.NotifyTyping(conversationID, true)
	session.SetComposer(line)
	sendCtx, cancelSend := context.WithTimeout(ctx, apiTimeout)
	defer cancelSend()
	if _, err := session.Send(sendCtx); err != nil {
		return err
	}
	session.NotifyTyping(conversationID, false)
	return nil
}

func findConversation(session *chat.Session, id string) (api.Conversation, bool) {
	for _, c := range session.Conversations() {
		if c.ID == id {
			return c, true
		}
	}
	return api.Conversation{}, false
}

func printChatMessage(m api.Message, selfID string) {
	who := m.SenderName
	if m.SenderID == selfID {
		who = "you"
	}
	ts := ""
	if t, ok := parseTimeBestEffort(m.SentAt); ok {
		ts = t.Local().Format("15:04")
	}
	if ts != "" {
		fmt.Printf("[%s] %s: %s\n", ts, who, m.Content)
	} else {
		fmt.Printf("%s: %s\n", who, m.Content)
	}
}

// formatConversationsOutput formats the conversation list for display.
func formatConversationsOutput(list []api.Conversation, store *chat.ConversationStore, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(map[string]any{
			"conversations": list,
			"unread_total":  store.UnreadTotal(),
		})
	}

	if len(list) == 0 {
		return "No conversations.\n"
	}

	var sb strings.Builder
	for _, c := range list {
		badge := ""
		if c.UnreadCount > 0 {
			badge = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		sb.WriteString(fmt.Sprintf("%s  %s%s\n", c.ID, store.DisplayName(c), badge))
		if c.LastMessage != "" {
			when := ""
			if c.LastMessageAt != "" {
				when = " — " + formatTimeAgo(c.LastMessageAt)
			}
			sb.WriteString(fmt.Sprintf("    %s%s\n", truncate(c.LastMessage, 72), when))
		}
	}
	if total := store.UnreadTotal(); total > 0 {
		sb.WriteString(fmt.Sprintf("\n%d unread in total.\n", total))
	}
	return sb.String()
}

// formatMessagesOutput formats a message history for display.
func formatMessagesOutput(messages []api.Message, asJSON bool) string {
	if asJSON {
		return marshalJSONOrFallback(map[string]any{"messages": messages})
	}

	if len(messages) == 0 {
		return "No messages.\n"
	}

	var sb strings.Builder
	for _, m := range messages {
		when := ""
		if m.SentAt != "" {
			when = " — " + formatTimeAgo(m.SentAt)
		}
		sb.WriteString(fmt.Sprintf("%s%s\n", m.SenderName, when))
		sb.WriteString(fmt.Sprintf("  %s\n", m.Content))
	}
	return sb.String()
}
