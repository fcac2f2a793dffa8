// Package ui implements the interactive login wait for first-run
// authentication.
//
// The driver opens a visible browser window; the operator completes login
// there while this model polls the driver for a logged-in context and
// persists the storage state once one appears. The terminal shows a spinner,
// the remaining wait budget, and key hints.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// AuthChecker is the slice of the driver client the login wait needs.
type AuthChecker interface {
	CheckAuth(ctx context.Context) (bool, error)
	SaveAuth(ctx context.Context) error
}

// ErrLoginAborted is returned when the operator quits before logging in.
var ErrLoginAborted = fmt.Errorf("login aborted")

// ErrLoginTimeout is returned when the wait budget runs out.
var ErrLoginTimeout = fmt.Errorf("login not detected in time")

const pollInterval = time.Second

// keyMap defines the [key.Binding] mapping for the login wait.
type keyMap struct {
	check key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		check: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "I've logged in")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "abort")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.check, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.check, k.quit}}
}

// MsgKind enumerates all message types in the login wait.
type MsgKind int

// Msg represents all possible messages in the login wait (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgAuthChecked MsgKind = iota
	MsgAuthSaved
	MsgPoll
)

// authCheckedMsg is the constructor for [MsgAuthChecked]
func authCheckedMsg(ok bool, err error) Msg {
	return Msg{
		kind: MsgAuthChecked,
		data: struct {
			ok  bool
			err error
		}{ok, err},
	}
}

// authSavedMsg is the constructor for [MsgAuthSaved]
func authSavedMsg(err error) Msg {
	return Msg{kind: MsgAuthSaved, data: err}
}

// pollMsg is the constructor for [MsgPoll]
func pollMsg() Msg {
	return Msg{kind: MsgPoll}
}

// LoginModel is the bubbletea model for the interactive login wait.
type LoginModel struct {
	ctx      context.Context
	checker  AuthChecker
	spinner  spinner.Model
	keys     keyMap
	help     help.Model
	deadline time.Time
	authed   bool
	saved    bool
	checking bool
	err      error
}

// NewLoginModel creates a LoginModel polling checker until the wait budget
// elapses.
func NewLoginModel(ctx context.Context, checker AuthChecker, wait time.Duration) LoginModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return LoginModel{
		ctx:      ctx,
		checker:  checker,
		spinner:  sp,
		keys:     newKeyMap(),
		help:     help.New(),
		deadline: time.Now().Add(wait),
	}
}

// Err returns the terminal error of the login wait, nil on success.
func (m LoginModel) Err() error {
	return m.err
}

// Authenticated reports whether login completed and the state was persisted.
func (m LoginModel) Authenticated() bool {
	return m.authed && m.saved
}

func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.schedulePoll())
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.err = ErrLoginAborted
			return m, tea.Quit
		case key.Matches(msg, m.keys.check):
			m.checking = true
			return m, m.checkCmd()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.update(msg)
	}

	return m, nil
}

func (m LoginModel) update(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPoll:
		if time.Now().After(m.deadline) {
			m.err = ErrLoginTimeout
			return m, tea.Quit
		}
		if m.checking || m.authed {
			return m, m.schedulePoll()
		}
		m.checking = true
		return m, tea.Batch(m.checkCmd(), m.schedulePoll())

	case MsgAuthChecked:
		data := msg.data.(struct {
			ok  bool
			err error
		})
		m.checking = false
		if data.err != nil {
			// Driver hiccups during login are expected; keep polling
			return m, nil
		}
		if data.ok {
			m.authed = true
			return m, m.saveCmd()
		}
		return m, nil

	case MsgAuthSaved:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.saved = true
		return m, tea.Quit
	}

	return m, nil
}

func (m LoginModel) View() string {
	if m.saved {
		return styles.ok.Render("✓ Login detected, auth state saved") + "\n"
	}
	if m.err != nil {
		return styles.err.Render("✗ "+m.err.Error()) + "\n"
	}

	remaining := time.Until(m.deadline).Round(time.Second)
	body := fmt.Sprintf("%s Waiting for login in the browser window (%s left)", m.spinner.View(), remaining)
	return styles.title.Render("resub — interactive login") + "\n" +
		body + "\n\n" +
		m.help.View(m.keys) + "\n"
}

func (m LoginModel) schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg()
	})
}

func (m LoginModel) checkCmd() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.checker.CheckAuth(m.ctx)
		return authCheckedMsg(ok, err)
	}
}

func (m LoginModel) saveCmd() tea.Cmd {
	return func() tea.Msg {
		return authSavedMsg(m.checker.SaveAuth(m.ctx))
	}
}
