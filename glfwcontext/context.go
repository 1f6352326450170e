package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/glook/graphics"
	options "github.com/richinsley/glook/options"
)

var keyMap = map[glfw.Key]graphics.Key{
	glfw.KeyEscape:    graphics.KeyEscape,
	glfw.KeyR:         graphics.KeyR,
	glfw.KeyT:         graphics.KeyT,
	glfw.KeySpace:     graphics.KeySpace,
	glfw.KeyBackspace: graphics.KeyBackspace,
	glfw.Key1:         graphics.Key1,
	glfw.Key2:         graphics.Key2,
	glfw.Key3:         graphics.Key3,
	glfw.Key4:         graphics.Key4,
	glfw.Key5:         graphics.Key5,
	glfw.Key6:         graphics.Key6,
	glfw.Key7:         graphics.Key7,
	glfw.Key8:         graphics.Key8,
	glfw.Key9:         graphics.Key9,
}

// Context tracks mouse state for the GetMouseInput method.
type Context struct {
	window          *glfw.Window
	lastMouseClickX float64
	lastMouseClickY float64
	mouseWasDown    bool
	// A map to store functions to be called on key presses.
	keyCallbacks map[graphics.Key]func()
	dropCallback func(paths []string)
}

// New creates and initializes a new GLFW window and returns a Context object.
func New(options *options.ShaderOptions, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	var monitor *glfw.Monitor
	if visible && options.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	win, err := glfw.CreateWindow(options.Width, options.Height, options.Title, monitor, nil)
	if err != nil {
		return nil, err
	}
	if visible && monitor == nil && (options.X != 0 || options.Y != 0) {
		win.SetPos(options.X, options.Y)
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[graphics.Key]func()),
	}

	// Set the key callback for the window to be the method on our new context instance.
	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetDropCallback(c.glfwDropCallback)

	return c, nil
}

// OnKey allows the main application to register a function to be
// called when a specific key is pressed.
func (c *Context) OnKey(key graphics.Key, f func()) {
	c.keyCallbacks[key] = f
}

// OnDrop registers the handler for files dropped onto the window.
func (c *Context) OnDrop(f func(paths []string)) {
	c.dropCallback = f
}

// glfwKeyCallback dispatches presses to the registered callbacks.
func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	k, ok := keyMap[key]
	if !ok {
		return
	}
	if callback, ok := c.keyCallbacks[k]; ok {
		callback()
		return
	}
	// Handle the default Escape key behavior
	if k == graphics.KeyEscape {
		w.SetShouldClose(true)
	}
}

func (c *Context) glfwDropCallback(w *glfw.Window, names []string) {
	if c.dropCallback != nil {
		c.dropCallback(names)
	}
}

// GetMouseInput retrieves and processes the current mouse state.
func (c *Context) GetMouseInput() [4]float32 {
	var mouseData [4]float32
	if c.window == nil {
		return mouseData
	}

	fbWidth, fbHeight := c.GetFramebufferSize()
	winWidth, winHeight := c.window.GetSize()
	var scaleX, scaleY float64 = 1.0, 1.0
	if winWidth > 0 && winHeight > 0 {
		scaleX = float64(fbWidth) / float64(winWidth)
		scaleY = float64(fbHeight) / float64(winHeight)
	}

	cursorX, cursorY := c.window.GetCursorPos()
	pixelX := cursorX * scaleX
	pixelY := cursorY * scaleY

	mouseX := float32(pixelX)
	mouseY := float32(fbHeight) - float32(pixelY)

	isMouseDown := c.window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press
	if isMouseDown && !c.mouseWasDown {
		c.lastMouseClickX = pixelX
		c.lastMouseClickY = pixelY
	}
	c.mouseWasDown = isMouseDown

	clickX := float32(c.lastMouseClickX)
	clickY := float32(fbHeight) - float32(c.lastMouseClickY)

	if !isMouseDown {
		clickX = -clickX
		clickY = -clickY
	}

	mouseData = [4]float32{mouseX, mouseY, clickX, clickY}
	return mouseData
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown only destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) SetShouldClose(v bool) {
	c.window.SetShouldClose(v)
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}
