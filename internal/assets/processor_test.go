package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhotoContext() PhotoContext {
	return PhotoContext{
		ProductName: "Batik Wall Hanging",
		Category:    "Art & Collectibles",
		Subcategory: "Paintings",
		ShopName:    "Ceylon Crafts",
		Position:    0,
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	// Noise-free gradients compress well; fill with something non-uniform so
	// the size comparison is meaningful
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), uint8((x + y) % 256), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))
	return buf.Bytes()
}

func TestProcess_SmallImagePassesThrough(t *testing.T) {
	raw := encodePNG(t, 100, 80)

	out := Process(raw, "photo.png", testPhotoContext())

	assert.False(t, out.Degraded)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 80, out.Height)
	assert.NotEmpty(t, out.Bytes)
}

func TestProcess_OversizedImageIsResampled(t *testing.T) {
	raw := encodeJPEG(t, 3200, 1600)

	out := Process(raw, "photo.jpg", testPhotoContext())

	require.False(t, out.Degraded)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Equal(t, 1600, out.Width)
	assert.Equal(t, 800, out.Height)
	assert.Less(t, len(out.Bytes), len(raw))
}

func TestProcess_PortraitAspectRatioPreserved(t *testing.T) {
	raw := encodeJPEG(t, 1000, 4000)

	out := Process(raw, "tall.jpg", testPhotoContext())

	require.False(t, out.Degraded)
	assert.Equal(t, 1600, out.Height)
	assert.Equal(t, 400, out.Width)
}

func TestProcess_UndecodableBytesFallBack(t *testing.T) {
	raw := []byte("definitely not an image")

	out := Process(raw, "broken.jpg", testPhotoContext())

	assert.True(t, out.Degraded)
	assert.Equal(t, raw, out.Bytes)
	assert.NotEmpty(t, out.ContentType)
	// SEO metadata is still derived
	assert.NotEmpty(t, out.Filename)
	assert.NotEmpty(t, out.AltText)
}

func TestProcess_SEOFilename(t *testing.T) {
	out := Process([]byte("x"), "IMG_1234.JPG", testPhotoContext())
	assert.Equal(t, "batik-wall-hanging-art-collectibles-paintings-1-ceylon-crafts.jpg", out.Filename)
}

func TestProcess_FilenameWithoutSubcategory(t *testing.T) {
	pctx := testPhotoContext()
	pctx.Subcategory = ""
	pctx.Position = 2

	out := Process([]byte("x"), "photo.png", pctx)
	assert.Equal(t, "batik-wall-hanging-art-collectibles-3-ceylon-crafts.png", out.Filename)
}

func TestProcess_MissingExtensionDefaultsToJpg(t *testing.T) {
	out := Process([]byte("x"), "photo", testPhotoContext())
	assert.True(t, len(out.Filename) > 4 && out.Filename[len(out.Filename)-4:] == ".jpg")
}

func TestProcess_AltText(t *testing.T) {
	out := Process([]byte("x"), "photo.jpg", testPhotoContext())
	assert.Equal(t, "Batik Wall Hanging - Art & Collectibles Paintings by Ceylon Crafts, photo 1", out.AltText)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Batik Wall Hanging", "batik-wall-hanging"},
		{"Art & Collectibles", "art-collectibles"},
		{"  spaced  out  ", "spaced-out"},
		{"UPPER_case-123", "upper-case-123"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("listings", "shop-1", now, "photo.jpg")
	assert.Equal(t, "listings/shop-1/2026/03/photo.jpg", key)
}
