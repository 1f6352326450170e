package graphics

// Key identifies the keys the previewer reacts to, independent of the
// windowing library.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyR
	KeyT
	KeySpace
	KeyBackspace
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

// Digit returns the zero based head index selected by a number key, or -1.
func (k Key) Digit() int {
	if k >= Key1 && k <= Key9 {
		return int(k - Key1)
	}
	return -1
}

// Context defines the interface for an OpenGL context.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	SetShouldClose(bool)
	EndFrame()
	GetFramebufferSize() (int, int)
	Time() float64
	// GetMouseInput returns the current mouse state: x, y, clickX, clickY
	GetMouseInput() [4]float32
	// OnKey registers f to be called when key is pressed.
	OnKey(key Key, f func())
	// OnDrop registers f to be called with the paths of files dropped on the window.
	OnDrop(f func(paths []string))
}
