package host

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"
)

// Host is the simulated embedded scripting runtime: the opaque external
// collaborator the bridge talks to. It exposes exactly the surface the
// bridge depends on: a mutable document, a headless flag, and an
// executable path attribute (a "sys.executable"-like attribute).
//
// Host is not safe for concurrent use. Every method must only ever be
// called from the single host worker goroutine; pkg/dispatch is the only
// caller that may touch it.
type Host struct {
	Document   *Document
	Headless   bool
	Executable string
}

// New returns a Host with a freshly created empty document.
func New(headless bool, executable string) *Host {
	return &Host{
		Document:   NewDocument("Untitled"),
		Headless:   headless,
		Executable: executable,
	}
}

// AddCube is the host.add_cube(...) primitive callable from execute_code.
func (h *Host) AddCube(name string, location Vec3) *Object {
	return h.Document.AddCube(name, location)
}

// Sleep is the host.sleep(seconds) primitive callable from execute_code,
// used by the §8 scenario-5 timeout test. It blocks the host worker
// goroutine for the given duration, exactly as a real long-running Python
// call would block the Host's main thread (§5's deliberate no-mid-handler-
// cancellation trade-off).
func (h *Host) Sleep(seconds float64) {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// Screenshot renders a small deterministic PNG standing in for a captured
// viewport image (§4.4's get_viewport_screenshot, §9's Open Question on
// in-memory capture). Fails in headless mode, matching the real Host's
// "viewport operations require interactive mode" restriction.
func (h *Host) Screenshot(maxSize int) (width, height int, pngBytes []byte, err error) {
	if h.Headless {
		return 0, 0, nil, fmt.Errorf("viewport operations require the interactive mode")
	}
	if maxSize <= 0 {
		maxSize = 800
	}
	size := maxSize
	if size > 256 {
		size = 256 // keep the synthetic render small regardless of the requested cap
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	objectCount := h.Document.ObjectCount()
	base := uint8((objectCount*37 + 40) % 256)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{
				R: base,
				G: uint8((x * 255) / maxInt(size, 1)),
				B: uint8((y * 255) / maxInt(size, 1)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, 0, nil, fmt.Errorf("encoding screenshot: %w", err)
	}
	return size, size, buf.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
