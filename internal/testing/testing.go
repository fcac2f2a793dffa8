// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/resub/internal/models"
)

// MockSession is a scripted test double for [session.Session].
//
// Outcomes maps entry references to the outcome Subscribe returns; entries
// without a scripted outcome succeed. Every Subscribe and Restart call is
// recorded for assertions.
type MockSession struct {
	Outcomes     map[string]*models.Outcome
	SubscribeErr error
	RestartErr   error

	SubscribeCalls []string // Entry refs in call order
	RestartCalls   int
	CloseCalls     int
}

func (m *MockSession) Subscribe(ctx context.Context, entry models.ChannelEntry) (*models.Outcome, error) {
	m.SubscribeCalls = append(m.SubscribeCalls, entry.Ref())
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	if outcome, ok := m.Outcomes[entry.Ref()]; ok {
		return outcome, nil
	}
	return models.Success(), nil
}

func (m *MockSession) Restart(ctx context.Context) error {
	m.RestartCalls++
	return m.RestartErr
}

func (m *MockSession) Close(ctx context.Context) error {
	m.CloseCalls++
	return nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
