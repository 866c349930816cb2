package core

import "github.com/medhika/skripsihub/schema"

// messageWindow holds the cached slice of a tab's conversation, ordered
// oldest first. Appends are idempotent by message id. The epoch increments
// on every reset so late pagination responses can be discarded.
type messageWindow struct {
	max      int
	messages []schema.Message
	present  map[schema.MessageID]struct{}
	loaded   bool
	hasMore  bool
	epoch    uint64
}

func newMessageWindow(max int) *messageWindow {
	if max <= 0 {
		max = schema.DefaultWindowMaxMessages
	}
	return &messageWindow{
		max:     max,
		present: make(map[schema.MessageID]struct{}),
	}
}

// Reset replaces the window content with a fresh page and bumps the epoch.
func (w *messageWindow) Reset(messages []schema.Message, hasMore bool) {
	w.messages = w.messages[:0]
	w.present = make(map[schema.MessageID]struct{}, len(messages))
	for _, msg := range messages {
		if _, ok := w.present[msg.ID]; ok {
			continue
		}
		w.messages = append(w.messages, msg)
		w.present[msg.ID] = struct{}{}
	}
	w.loaded = true
	w.hasMore = hasMore
	w.epoch++
	w.trimFront()
}

// Append adds a message at the newest end. Re-appending an existing id is a
// no-op and reports false.
func (w *messageWindow) Append(msg schema.Message) bool {
	if _, ok := w.present[msg.ID]; ok {
		return false
	}
	w.messages = append(w.messages, msg)
	w.present[msg.ID] = struct{}{}
	w.loaded = true
	w.trimFront()
	return true
}

// PrependPage splices an older page in front of the current head. Messages
// already present are skipped. Returns how many were added.
func (w *messageWindow) PrependPage(page []schema.Message, hasMore bool) int {
	fresh := make([]schema.Message, 0, len(page))
	for _, msg := range page {
		if _, ok := w.present[msg.ID]; ok {
			continue
		}
		fresh = append(fresh, msg)
	}
	if len(fresh) > 0 {
		w.messages = append(fresh, w.messages...)
		for _, msg := range fresh {
			w.present[msg.ID] = struct{}{}
		}
	}
	w.hasMore = hasMore
	return len(fresh)
}

// Replace swaps the message with the given id for another message, keeping
// its position. Used to exchange a streaming placeholder for the final
// persisted message.
func (w *messageWindow) Replace(id schema.MessageID, msg schema.Message) bool {
	for i := range w.messages {
		if w.messages[i].ID != id {
			continue
		}
		if id != msg.ID {
			if _, ok := w.present[msg.ID]; ok {
				// Final already arrived through another path; drop the
				// placeholder instead of duplicating.
				w.messages = append(w.messages[:i], w.messages[i+1:]...)
				delete(w.present, id)
				return true
			}
			delete(w.present, id)
			w.present[msg.ID] = struct{}{}
		}
		w.messages[i] = msg
		return true
	}
	return false
}

// AppendContent appends delta text to the message with the given id and
// returns the updated message.
func (w *messageWindow) AppendContent(id schema.MessageID, delta string) (schema.Message, bool) {
	for i := range w.messages {
		if w.messages[i].ID == id {
			w.messages[i].Content += delta
			return w.messages[i], true
		}
	}
	return schema.Message{}, false
}

// Remove drops the message with the given id.
func (w *messageWindow) Remove(id schema.MessageID) bool {
	for i := range w.messages {
		if w.messages[i].ID == id {
			w.messages = append(w.messages[:i], w.messages[i+1:]...)
			delete(w.present, id)
			return true
		}
	}
	return false
}

// OldestID returns the anchor for older-page loads.
func (w *messageWindow) OldestID() (schema.MessageID, bool) {
	if len(w.messages) == 0 {
		return "", false
	}
	return w.messages[0].ID, true
}

func (w *messageWindow) Loaded() bool { return w.loaded }

func (w *messageWindow) HasMore() bool { return w.hasMore }

func (w *messageWindow) Epoch() uint64 { return w.epoch }

func (w *messageWindow) Len() int { return len(w.messages) }

// Snapshot returns a copy of the window for transports.
func (w *messageWindow) Snapshot(tabID schema.TabID) schema.MessageWindowSnapshot {
	return schema.MessageWindowSnapshot{
		TabID:    tabID,
		Messages: append([]schema.Message(nil), w.messages...),
		Loaded:   w.loaded,
		HasMore:  w.hasMore,
		Epoch:    w.epoch,
	}
}

func (w *messageWindow) trimFront() {
	if len(w.messages) <= w.max {
		return
	}
	drop := len(w.messages) - w.max
	for _, msg := range w.messages[:drop] {
		delete(w.present, msg.ID)
	}
	w.messages = append(w.messages[:0], w.messages[drop:]...)
	w.hasMore = true
}
