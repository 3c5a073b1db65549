package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a Detector whose results are set by tests.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
	closes   int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence makes Detect return seq[i] on its i-th call. Calls past the end
// repeat the last entry.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		if call >= len(m.sequence) {
			call = len(m.sequence) - 1
		}
		return m.sequence[call], nil
	}
	return m.hands, nil
}

// Close counts the call and returns nil.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closes returns the number of Close calls.
func (m *MockDetector) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// HandAt returns an open hand whose wrist sits at (wristX, wristY) and
// whose index-finger base sits at (anchorX, anchorY), all normalized.
// The remaining landmarks are laid out between and above the two.
func HandAt(wristX, wristY, anchorX, anchorY float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}

	h.Points[Wrist] = Point3D{X: wristX, Y: wristY}

	dx, dy := anchorX-wristX, anchorY-wristY
	for i := 1; i < NumLandmarks; i++ {
		finger := float64((i - 1) / 4)
		joint := float64((i-1)%4 + 1)
		h.Points[i] = Point3D{
			X: wristX + dx*(0.6+0.2*finger),
			Y: wristY + dy*(0.5+0.25*joint),
			Z: -0.01 * joint,
		}
	}

	h.Points[IndexMCP] = Point3D{X: anchorX, Y: anchorY}
	return h
}

// SteeringPair returns two hands with index-finger anchors at the given
// pixel positions in a width×height frame. The left hand comes second so
// callers exercise left/right resolution.
func SteeringPair(leftX, leftY, rightX, rightY float64, width, height int) []HandLandmarks {
	w, h := float64(width), float64(height)
	left := HandAt(leftX/w-0.02, leftY/h+0.15, leftX/w, leftY/h)
	left.Handedness = "Left"
	right := HandAt(rightX/w+0.02, rightY/h+0.15, rightX/w, rightY/h)
	return []HandLandmarks{right, left}
}
