package kittiresize

// The geometric transforms shared by images and bounding boxes.

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Mode selects the geometric resize strategy.
type Mode int

const (
	// Letterbox scales uniformly to fit the target, padding the residual.
	Letterbox Mode = iota
	// Stretch scales each axis independently to exactly the target size.
	Stretch
)

// ModeFrom maps a mode name to its Mode, or returns an error for unknown names.
func ModeFrom(s string) (Mode, error) {
	switch s {
	case "letterbox":
		return Letterbox, nil
	case "stretch":
		return Stretch, nil
	}
	return 0, fmt.Errorf("unknown resize mode %q", s)
}

func (m Mode) String() string {
	if m == Stretch {
		return "stretch"
	}
	return "letterbox"
}

// InvalidDimensionsError reports a non-positive image or target dimension.
type InvalidDimensionsError struct {
	Width, Height int
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("invalid dimensions %dx%d", e.Width, e.Height)
}

// Descriptor is the reusable scale and offset transform computed once per
// image and applied to both the pixel buffer and every bounding box.
//
// PadX and PadY are kept fractional so that box coordinates stay exact; pixel
// placement floors them, which puts the extra unit of an odd padding residual
// on the right/bottom side.
type Descriptor struct {
	ScaleX, ScaleY float64
	PadX, PadY     float64
	TargetWidth    int
	TargetHeight   int
}

// scaledSize is the pixel size of the resampled source image before padding.
func (d Descriptor) scaledSize(origW, origH int) (int, int) {
	w := int(math.Round(float64(origW) * d.ScaleX))
	h := int(math.Round(float64(origH) * d.ScaleY))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// ComputeDescriptor derives the transform from the original to the target
// frame for the given mode. All dimensions must be positive.
func ComputeDescriptor(origW, origH, targetW, targetH int, mode Mode) (Descriptor, error) {
	if origW <= 0 || origH <= 0 {
		return Descriptor{}, &InvalidDimensionsError{Width: origW, Height: origH}
	}
	if targetW <= 0 || targetH <= 0 {
		return Descriptor{}, &InvalidDimensionsError{Width: targetW, Height: targetH}
	}

	d := Descriptor{TargetWidth: targetW, TargetHeight: targetH}
	switch mode {
	case Stretch:
		d.ScaleX = float64(targetW) / float64(origW)
		d.ScaleY = float64(targetH) / float64(origH)
	case Letterbox:
		scale := math.Min(float64(targetW)/float64(origW), float64(targetH)/float64(origH))
		d.ScaleX = scale
		d.ScaleY = scale
		d.PadX = (float64(targetW) - float64(origW)*scale) / 2
		d.PadY = (float64(targetH) - float64(origH)*scale) / 2
	default:
		return Descriptor{}, fmt.Errorf("unknown resize mode %d", mode)
	}

	return d, nil
}

// letterboxFill is the neutral gray used for letterbox padding.
var letterboxFill = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// ResizeImage resamples img according to d and returns a new image of exactly
// the target size. The source image is never modified.
//
// The resampling filter follows the direction of the operation: box filtering
// (area averaging) when shrinking, linear interpolation when enlarging. For
// letterbox descriptors the resampled image is composited onto a mid-gray
// canvas at the padding offsets.
func ResizeImage(img image.Image, d Descriptor) image.Image {
	bounds := img.Bounds()
	scaledW, scaledH := d.scaledSize(bounds.Dx(), bounds.Dy())

	filter := imaging.Linear
	if scaledW*scaledH < bounds.Dx()*bounds.Dy() {
		filter = imaging.Box
	}
	resized := imaging.Resize(img, scaledW, scaledH, filter)

	if scaledW == d.TargetWidth && scaledH == d.TargetHeight {
		return resized
	}

	canvas := imaging.New(d.TargetWidth, d.TargetHeight, letterboxFill)
	return imaging.Paste(canvas, resized, image.Pt(int(d.PadX), int(d.PadY)))
}

// TransformAnnotation maps the bounding box of a through d and clamps it to
// the region the original frame occupies in the target, so boxes never extend
// into letterbox padding. The second return value is false if the box
// collapses to zero area, in which case the annotation must be dropped rather
// than written. All non-geometric fields are copied unchanged.
func TransformAnnotation(a KITTIAnnotation, d Descriptor) (KITTIAnnotation, bool) {
	out := a
	out.Coords[0] = clamp(a.Coords[0]*d.ScaleX+d.PadX, d.PadX, float64(d.TargetWidth)-d.PadX)
	out.Coords[1] = clamp(a.Coords[1]*d.ScaleY+d.PadY, d.PadY, float64(d.TargetHeight)-d.PadY)
	out.Coords[2] = clamp(a.Coords[2]*d.ScaleX+d.PadX, d.PadX, float64(d.TargetWidth)-d.PadX)
	out.Coords[3] = clamp(a.Coords[3]*d.ScaleY+d.PadY, d.PadY, float64(d.TargetHeight)-d.PadY)

	if out.Coords[2] <= out.Coords[0] || out.Coords[3] <= out.Coords[1] {
		return KITTIAnnotation{}, false
	}
	return out, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// transformAll applies d to img and to every annotation, dropping collapsed
// boxes. Returns the number of dropped annotations for the caller to report.
func transformAll(img image.Image, annotations []KITTIAnnotation, d Descriptor) (
		image.Image, []KITTIAnnotation, int) {

	out := ResizeImage(img, d)
	kept := make([]KITTIAnnotation, 0, len(annotations))
	for _, a := range annotations {
		if t, ok := TransformAnnotation(a, d); ok {
			kept = append(kept, t)
		}
	}

	return out, kept, len(annotations) - len(kept)
}

// ApplyLetterbox resizes img to targetW x targetH with a uniform scale,
// padding the residual with neutral gray, and remaps annotations through the
// same transform. Annotations that collapse outside the visible frame are
// omitted from the result; the count of omissions is returned last.
func ApplyLetterbox(img image.Image, annotations []KITTIAnnotation, targetW, targetH int) (
		image.Image, []KITTIAnnotation, int, error) {

	bounds := img.Bounds()
	d, err := ComputeDescriptor(bounds.Dx(), bounds.Dy(), targetW, targetH, Letterbox)
	if err != nil {
		return nil, nil, 0, err
	}

	out, kept, dropped := transformAll(img, annotations, d)
	return out, kept, dropped, nil
}

// ApplyStretch resizes img to exactly targetW x targetH with independent
// per-axis scales and remaps annotations through the same transform. The
// omission count reports boxes that collapsed to zero area.
func ApplyStretch(img image.Image, annotations []KITTIAnnotation, targetW, targetH int) (
		image.Image, []KITTIAnnotation, int, error) {

	bounds := img.Bounds()
	d, err := ComputeDescriptor(bounds.Dx(), bounds.Dy(), targetW, targetH, Stretch)
	if err != nil {
		return nil, nil, 0, err
	}

	out, kept, dropped := transformAll(img, annotations, d)
	return out, kept, dropped, nil
}
