package conversation

import "audible-assistant/clients/ai_bot"

// Exchange is one prompt and, once generated, its reply.
type Exchange struct {
	Prompt  string
	Reply   string
	Replied bool
}

// Transcript is the append-only conversation history.
type Transcript struct {
	exchanges []Exchange
}

// AppendPrompt adds a prompt awaiting its reply and returns its index.
func (t *Transcript) AppendPrompt(prompt string) int {
	t.exchanges = append(t.exchanges, Exchange{Prompt: prompt})

	return len(t.exchanges) - 1
}

// SetReply fills the reply slot of entry i. Entries are written once.
func (t *Transcript) SetReply(i int, reply string) bool {
	if i < 0 || i >= len(t.exchanges) || t.exchanges[i].Replied {
		return false
	}

	t.exchanges[i].Reply = reply
	t.exchanges[i].Replied = true

	return true
}

func (t *Transcript) Len() int {
	return len(t.exchanges)
}

func (t *Transcript) Exchanges() []Exchange {
	return append([]Exchange(nil), t.exchanges...)
}

// History returns the completed exchanges as chat context.
func (t *Transcript) History() []ai_bot.Turn {
	turns := make([]ai_bot.Turn, 0, len(t.exchanges))

	for _, e := range t.exchanges {
		if e.Replied {
			turns = append(turns, ai_bot.Turn{Prompt: e.Prompt, Reply: e.Reply})
		}
	}

	return turns
}
