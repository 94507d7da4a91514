package core

import "strings"

// Role identifies the author of a Message.
type Role string

const (
	// RoleSystem carries the agent's role prompt.
	RoleSystem Role = "system"
	// RoleUser carries the problem statement and previous solution.
	RoleUser Role = "user"
	// RoleAssistant carries acknowledgements and raw model replies.
	RoleAssistant Role = "assistant"
)

// Label returns the capitalised prefix used when rendering a prompt.
func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		if r == "" {
			return ""
		}
		return strings.ToUpper(string(r[:1])) + string(r[1:])
	}
}

// Message is one entry of a Conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered, append-only message sequence of a single agent
// invocation.
type Conversation struct {
	messages []Message
}

// NewConversation seeds a conversation with the given messages.
func NewConversation(msgs ...Message) *Conversation {
	c := &Conversation{}
	for _, m := range msgs {
		c.Append(m.Role, m.Content)
	}
	return c
}

// Append adds a message at the end of the conversation.
func (c *Conversation) Append(role Role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// Messages returns a copy of the message sequence.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Render composes the conversation into a single prompt: every message as
// "<Role>: <content>", in order, separated by a blank line.
func (c *Conversation) Render() string {
	var b strings.Builder
	for i, m := range c.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role.Label())
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
