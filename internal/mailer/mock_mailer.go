package mailer

import (
	"sync"
)

// Email is a message captured by MockMailer.
type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer records messages instead of delivering them. When Err is set,
// Send fails with it and records nothing.
type MockMailer struct {
	mu     sync.RWMutex
	emails []Email
	Err    error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// GetSentEmails returns a copy of every recorded message in send order.
func (m *MockMailer) GetSentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emails := make([]Email, len(m.emails))
	copy(emails, m.emails)
	return emails
}

// SentTo returns the messages rendered from templateFile for recipient.
func (m *MockMailer) SentTo(recipient, templateFile string) []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Email
	for _, e := range m.emails {
		if e.Recipient == recipient && e.TemplateFile == templateFile {
			matched = append(matched, e)
		}
	}

	return matched
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = nil
	m.Err = nil
}
