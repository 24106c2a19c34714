package notify

import (
	"context"
	"sync"
)

// Message is a message captured by MemorySender.
type Message struct {
	Channel string // "email" or "sms"
	To      string
	Subject string
	Body    string
}

// MemorySender keeps every message in memory. It is safe for concurrent use.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned from every send after the message is recorded.
	Err error
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) SendEmail(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Channel: "email", To: to, Subject: subject, Body: body})
	return s.Err
}

func (s *MemorySender) SendSMS(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Channel: "sms", To: to, Body: body})
	return s.Err
}

// Messages returns a copy of the captured messages.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
