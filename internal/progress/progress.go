// Package progress is the in-process progress bus for OCR sessions.
// Writers push monotone updates keyed by session id; readers poll.
package progress

import (
	"errors"
	"sync"
)

// Status values a session moves through.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusException = "exception"
)

// ErrNotFound signals an unknown session id.
var ErrNotFound = errors.New("progress: session not found")

// State is the poll payload for one session.
type State struct {
	ProductName    string `json:"product_name"`
	TotalFiles     int    `json:"total_files"`
	ProcessedFiles int    `json:"processed_files"`
	OCRTotals      int    `json:"ocr_totals"`
	OCRCompleted   int    `json:"ocr_completed"`
	CurrentFile    string `json:"current_file"`
	Detail         string `json:"detail"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

func (s *State) terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusException
}

// Bus stores per-session state behind one mutex.
type Bus struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{sessions: map[string]*State{}}
}

// Start registers a session in pending state, resetting any previous run.
func (b *Bus) Start(sessionID, productName string, totalFiles int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sessionID] = &State{
		ProductName: productName,
		TotalFiles:  totalFiles,
		Status:      StatusPending,
	}
}

// Update applies fn to the session's state. Counter fields only move
// forward; terminal sessions ignore further updates.
func (b *Bus) Update(sessionID string, fn func(*State)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if state.terminal() {
		return nil
	}

	next := *state
	fn(&next)
	if next.ProcessedFiles < state.ProcessedFiles {
		next.ProcessedFiles = state.ProcessedFiles
	}
	if next.OCRCompleted < state.OCRCompleted {
		next.OCRCompleted = state.OCRCompleted
	}
	if next.Status == StatusPending && state.Status == StatusRunning {
		next.Status = StatusRunning
	}
	*state = next
	return nil
}

// MarkRunning flips a pending session to running.
func (b *Bus) MarkRunning(sessionID string) error {
	return b.Update(sessionID, func(s *State) {
		s.Status = StatusRunning
	})
}

// MarkComplete sets the terminal state. It is the only transition allowed
// to override progress, and after it no Update has any effect.
func (b *Bus) MarkComplete(sessionID string, ok bool, errMsg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, found := b.sessions[sessionID]
	if !found {
		return ErrNotFound
	}
	if ok {
		state.Status = StatusSuccess
		state.Error = ""
	} else {
		state.Status = StatusException
		state.Error = errMsg
	}
	return nil
}

// Get returns a copy of the session's state.
func (b *Bus) Get(sessionID string) (State, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.sessions[sessionID]
	if !ok {
		return State{}, ErrNotFound
	}
	return *state, nil
}

// Cancelled reports whether the session has hit a terminal state, which
// OCR workers check between pages.
func (b *Bus) Cancelled(sessionID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.sessions[sessionID]
	if !ok {
		return true
	}
	return state.terminal()
}

// Remove drops a session's state.
func (b *Bus) Remove(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
}
