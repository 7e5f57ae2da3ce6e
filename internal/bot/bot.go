package bot

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// Bot bridges Discord DMs and the router: inbound DM text drives the
// core, outbound messages are delivered best-effort as DMs.
type Bot struct {
	session *discordgo.Session
	router  *Router
	ready   atomic.Bool

	// Inbound handling is serialized: two messages from the same user (or
	// an admin racing a user) never mutate shared state concurrently.
	mu sync.Mutex
}

func New(token string, router *Router) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{
		session: session,
		router:  router,
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)

	session.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.ready.Store(false)
	return b.session.Close()
}

// Ready reports whether the chat transport is connected.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)
	b.ready.Store(true)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author.Bot {
		return
	}
	// The shop only talks in DMs
	if m.GuildID != "" {
		return
	}
	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}

	b.mu.Lock()
	outbound := b.router.Route(m.Author.ID, text)
	b.mu.Unlock()

	for _, msg := range outbound {
		b.send(msg.Recipient, msg.Text)
	}
}

// send delivers one DM. Delivery failure is logged and never rolls back
// the state change that produced the message.
func (b *Bot) send(recipient, text string) {
	channel, err := b.session.UserChannelCreate(recipient)
	if err != nil {
		log.Printf("Failed to open DM channel to %s: %v", recipient, err)
		return
	}
	if _, err := b.session.ChannelMessageSend(channel.ID, text); err != nil {
		log.Printf("Failed to send DM to %s: %v", recipient, err)
	}
}
