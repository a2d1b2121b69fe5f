package main

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	brewsvc "github.com/axondata/go-brewsvc"
)

// rowsChangedMsg tells the model to re-read the surface
type rowsChangedMsg struct{}

// termSurface receives rows from the engine loop and hands them to the
// bubbletea model. It never blocks the engine: writers take a short lock
// and signal a one-slot wake channel.
type termSurface struct {
	mu    sync.Mutex
	rows  []brewsvc.Row
	alert string

	wake chan struct{}
}

func newTermSurface() *termSurface {
	return &termSurface{wake: make(chan struct{}, 1)}
}

func (s *termSurface) RenderedKeys() []brewsvc.RowKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]brewsvc.RowKey, len(s.rows))
	for i, r := range s.rows {
		keys[i] = r.Key
	}
	return keys
}

func (s *termSurface) Rebuild(rows []brewsvc.Row) {
	s.mu.Lock()
	s.rows = append([]brewsvc.Row(nil), rows...)
	s.mu.Unlock()
	s.signal()
}

// Update replaces the visual fields of the row with the same key. Title and
// position stay as they were.
func (s *termSurface) Update(row brewsvc.Row) {
	s.mu.Lock()
	for i := range s.rows {
		if s.rows[i].Key == row.Key {
			s.rows[i].Color = row.Color
			s.rows[i].Enabled = row.Enabled
			s.rows[i].Loading = row.Loading
			break
		}
	}
	s.mu.Unlock()
	s.signal()
}

// Alert shows a message on the status line until the next key press
func (s *termSurface) Alert(title, detail string) {
	s.mu.Lock()
	s.alert = title
	if detail != "" {
		s.alert += ": " + detail
	}
	s.mu.Unlock()
	s.signal()
}

func (s *termSurface) clearAlert() {
	s.mu.Lock()
	s.alert = ""
	s.mu.Unlock()
}

func (s *termSurface) snapshot() ([]brewsvc.Row, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]brewsvc.Row(nil), s.rows...), s.alert
}

func (s *termSurface) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// waitForChange is re-armed by the model after every rowsChangedMsg
func (s *termSurface) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-s.wake
		return rowsChangedMsg{}
	}
}
