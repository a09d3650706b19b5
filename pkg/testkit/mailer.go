package testkit

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/shashiranjanraj/carby/pkg/mail"
)

// MockMailer is a testify-backed mail.Sender that records every message.
// By default every send succeeds; use FailWith to simulate an outage or
// Mock().On(...) for finer expectations.
type MockMailer struct {
	m    mock.Mock
	mu   sync.Mutex
	sent []*mail.Message
}

// NewMockMailer returns a mailer that accepts every message.
func NewMockMailer() *MockMailer {
	mm := &MockMailer{}
	mm.m.On("Send", mock.Anything).Return(nil).Maybe()
	return mm
}

// Send implements mail.Sender.
func (mm *MockMailer) Send(_ context.Context, msg *mail.Message) error {
	mm.mu.Lock()
	mm.sent = append(mm.sent, msg)
	mm.mu.Unlock()
	return mm.m.Called(msg).Error(0)
}

// FailWith makes every later send return err.
func (mm *MockMailer) FailWith(err error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.m.ExpectedCalls = nil
	mm.m.On("Send", mock.Anything).Return(err).Maybe()
}

// Sent returns a copy of every message passed to Send, including failed ones.
func (mm *MockMailer) Sent() []*mail.Message {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return append([]*mail.Message(nil), mm.sent...)
}

// WasCalled returns how many times Send was called.
func (mm *MockMailer) WasCalled() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.sent)
}

// Mock exposes the embedded testify mock for custom expectations.
func (mm *MockMailer) Mock() *mock.Mock { return &mm.m }
