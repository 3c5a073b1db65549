package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDisplay records shown frames and can request quit after a number of
// frames.
type MockDisplay struct {
	mu sync.Mutex
	// QuitAfter makes Show report quit on the QuitAfter-th frame when
	// positive.
	QuitAfter int
	shown     int
	closes    int
	last      []byte
	lastSize  [2]int
}

// NewMockDisplay creates a MockDisplay that quits after quitAfter frames,
// or never when quitAfter is 0.
func NewMockDisplay(quitAfter int) *MockDisplay {
	return &MockDisplay{QuitAfter: quitAfter}
}

// Show keeps a copy of frame's pixels.
func (m *MockDisplay) Show(frame *gocv.Mat) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shown++
	m.last = frame.ToBytes()
	m.lastSize = [2]int{frame.Cols(), frame.Rows()}

	return m.QuitAfter > 0 && m.shown >= m.QuitAfter
}

// Close counts the call.
func (m *MockDisplay) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Shown returns the number of frames shown.
func (m *MockDisplay) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// Closes returns the number of Close calls.
func (m *MockDisplay) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Last returns the pixels of the last shown frame with its width and height.
func (m *MockDisplay) Last() (pix []byte, width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.lastSize[0], m.lastSize[1]
}
