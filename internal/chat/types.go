package chat

import "time"

type MessageType string

const (
	TypeUser   MessageType = "user"
	TypeAI     MessageType = "ai"
	TypeSystem MessageType = "system"
)

// Message is immutable once appended to a State.
type Message struct {
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// Session is a snapshot of the message list taken at one save point. ID is
// the creation time in Unix milliseconds and doubles as the lookup key.
type Session struct {
	ID          int64     `json:"id"`
	Messages    []Message `json:"messages"`
	LastUpdated string    `json:"lastUpdated"`
}

func (s Session) Created() time.Time {
	return time.UnixMilli(s.ID)
}

const (
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006/1/2 15:04:05"
)

func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

func FormatDateTime(t time.Time) string {
	return t.Local().Format(DateTimeLayout)
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

func cloneSessions(in []Session) []Session {
	out := make([]Session, len(in))
	copy(out, in)
	return out
}
