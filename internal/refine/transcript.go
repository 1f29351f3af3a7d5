package refine

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. The JSON shape matches the /chat payload.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the append-only conversation log. The first message is
// always the seeded greeting.
type Transcript struct {
	seed     Message
	messages []Message
}

// NewTranscript seeds a transcript with an assistant greeting.
func NewTranscript(greeting string) *Transcript {
	t := &Transcript{seed: Message{Role: RoleAssistant, Content: greeting}}
	t.Reset()
	return t
}

// Append adds a message to the end of the log.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Reset restores the transcript to just the seed message.
func (t *Transcript) Reset() {
	t.messages = []Message{t.seed}
}

// Messages returns a copy safe to hand to a background request.
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

// LastFrom returns the newest message written by role.
func (t *Transcript) LastFrom(role Role) (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == role {
			return t.messages[i], true
		}
	}
	return Message{}, false
}
