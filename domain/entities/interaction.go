package entities

import "time"

// Interaction is one completed turn: the speaker-attributed input and the
// generated reply. It is handed to the memory write-back path exactly once
// and never retried.
type Interaction struct {
	ID        string    `json:"id,omitempty"`
	Speaker   string    `json:"speaker"`
	Input     string    `json:"input"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// Record renders the interaction the way it is committed to memory.
func (i *Interaction) Record() string {
	return i.Input + "\n\n System Response: " + i.Reply
}

// MemoryMatch is one ranked result of a similarity query against the memory
// store.
type MemoryMatch struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
