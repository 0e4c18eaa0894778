package host

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHostHasEmptyDocument(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	assert.Equal(t, "Untitled", h.Document.Name)
	assert.Equal(t, 0, h.Document.ObjectCount())
}

func TestAddCube(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	obj := h.AddCube("MyCube", Vec3{1, 2, 3})
	assert.Equal(t, "MyCube", obj.Name)
	assert.Equal(t, "MESH", obj.Type)
	assert.Equal(t, Vec3{1, 2, 3}, obj.Location)
	assert.Equal(t, 1, h.Document.ObjectCount())
}

func TestAddCubeAutoNames(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	first := h.AddCube("", Vec3{})
	second := h.AddCube("", Vec3{})
	assert.Equal(t, "Cube", first.Name)
	assert.Equal(t, "Cube.001", second.Name)
}

func TestSleepBlocksForDuration(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	start := time.Now()
	h.Sleep(0.05)
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func TestScreenshotHeadlessErrors(t *testing.T) {
	h := New(true, "/usr/bin/blender")
	_, _, _, err := h.Screenshot(800)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive mode")
}

func TestScreenshotProducesValidPNG(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	width, height, data, err := h.Screenshot(800)
	require.NoError(t, err)
	assert.Equal(t, width, height)
	assert.LessOrEqual(t, width, 256)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, width, img.Bounds().Dx())
}

func TestScreenshotClampsSmallMaxSize(t *testing.T) {
	h := New(false, "/usr/bin/blender")
	width, _, _, err := h.Screenshot(10)
	require.NoError(t, err)
	assert.Equal(t, 10, width)
}
