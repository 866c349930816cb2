package schema

import "time"

// Message is a single chat message in a tab conversation.
type Message struct {
	ID        MessageID `json:"id"`
	TabID     TabID     `json:"tab_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	// Failed marks a message whose stream ended in an error. The content
	// holds whatever tokens arrived before the failure.
	Failed bool `json:"failed,omitempty"`
}

// Streaming reports whether the message is a synthetic placeholder.
func (m Message) Streaming() bool {
	return StreamingID(m.ID)
}

// MessagePage is one page of history returned by the backend, oldest first.
type MessagePage struct {
	Messages []Message `json:"messages"`
	// HasMore reports whether older messages exist beyond this page.
	HasMore bool `json:"has_more"`
}

// MessageWindowSnapshot is the transport view of a tab's cached messages.
type MessageWindowSnapshot struct {
	TabID    TabID     `json:"tab_id"`
	Messages []Message `json:"messages"`
	// Loaded distinguishes "nothing fetched yet" from "fetched and empty".
	Loaded  bool `json:"loaded"`
	HasMore bool `json:"has_more"`
	// Epoch increments whenever the window is reset. Pagination responses
	// from an older epoch are discarded.
	Epoch uint64 `json:"epoch"`
}
