package assets

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	// Register the decoders the marketplace accepts.
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Fixed processing ceilings. These are tuning constants, not per-call policy:
// every listing photo gets the same treatment.
const (
	maxEdgePx   = 1600
	jpegQuality = 80
)

// PhotoContext carries the listing fields a photo's SEO metadata is derived
// from.
type PhotoContext struct {
	ProductName string
	Category    string
	Subcategory string
	ShopName    string
	// Position is the zero-based slot position at the time the photo was
	// added. It keeps filenames unique within a listing and numbers the
	// alt text.
	Position int
}

// ProcessedAsset is the output of Process: bytes ready for upload plus the
// derived SEO metadata.
type ProcessedAsset struct {
	Bytes       []byte
	ContentType string
	Filename    string // slugified SEO filename, original extension preserved
	AltText     string
	Width       int
	Height      int

	// Degraded is set when decoding or re-encoding failed and the original
	// bytes were passed through untouched. The caller surfaces a warning;
	// the upload still proceeds.
	Degraded bool
}

// Process decodes, resamples within the fixed ceilings (aspect ratio
// preserved) and re-encodes a single photo, deriving its SEO filename and
// alt text from the listing context. It never fails: when the bytes cannot
// be decoded it falls back to the original payload with a best-effort
// filename so the seller is warned, not blocked.
func Process(raw []byte, originalName string, pctx PhotoContext) ProcessedAsset {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}

	out := ProcessedAsset{
		Filename: seoFilename(pctx, ext),
		AltText:  altText(pctx),
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		out.Bytes = raw
		out.ContentType = http.DetectContentType(raw)
		out.Degraded = true
		return out
	}

	src = resample(src)
	bounds := src.Bounds()
	out.Width = bounds.Dx()
	out.Height = bounds.Dy()

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, src)
		out.ContentType = "image/png"
	case "gif":
		err = gif.Encode(&buf, src, nil)
		out.ContentType = "image/gif"
	default:
		err = jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality})
		out.ContentType = "image/jpeg"
	}
	if err != nil {
		out.Bytes = raw
		out.ContentType = http.DetectContentType(raw)
		out.Degraded = true
		return out
	}

	// Re-encoding tiny or already-optimised photos can grow them. Keep
	// whichever payload is smaller.
	if buf.Len() < len(raw) {
		out.Bytes = buf.Bytes()
	} else {
		out.Bytes = raw
	}

	return out
}

// resample scales the image down so its longest edge is at most maxEdgePx.
// Images already inside the ceiling are returned as-is.
func resample(src image.Image) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h)
	if longest <= maxEdgePx {
		return src
	}

	scale := float64(maxEdgePx) / float64(longest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// seoFilename builds the slugified filename:
// <product>-<category>[-<subcategory>]-<position+1>-<shop><ext>
func seoFilename(pctx PhotoContext, ext string) string {
	parts := []string{pctx.ProductName, pctx.Category}
	if pctx.Subcategory != "" {
		parts = append(parts, pctx.Subcategory)
	}
	parts = append(parts, fmt.Sprintf("%d", pctx.Position+1), pctx.ShopName)

	slugged := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := Slugify(p); s != "" {
			slugged = append(slugged, s)
		}
	}
	return strings.Join(slugged, "-") + ext
}

// altText builds the human-readable description shown to screen readers and
// crawlers.
func altText(pctx PhotoContext) string {
	category := pctx.Category
	if pctx.Subcategory != "" {
		category += " " + pctx.Subcategory
	}
	return fmt.Sprintf("%s - %s by %s, photo %d",
		pctx.ProductName, category, pctx.ShopName, pctx.Position+1)
}

// Slugify lowercases and reduces a string to [a-z0-9] runs joined by single
// hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ObjectKey builds the hierarchical destination key for an upload:
// <kind>/<ownerID>/<year>/<month>/<filename>. The caller owns this layout;
// the uploader just writes where it is told.
func ObjectKey(kind, ownerID string, now time.Time, filename string) string {
	return path.Join(
		kind,
		ownerID,
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		filename,
	)
}
