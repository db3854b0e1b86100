package kittiresize

// KITTI label parsing and serialization.

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// KITTIAnnotation is a single annotation line from a KITTI label file. All
// fields of the fixed 15-field format are carried; only Coords is touched by
// the geometric transforms, everything else passes through unmodified.
type KITTIAnnotation struct {
	Label      string
	Truncated  float64    // Fraction of the object outside the image, in [0, 1].
	Occluded   int        // Occlusion state category.
	Alpha      float64    // Observation angle in radians.
	Coords     [4]float64 // x1, y1, x2, y2
	Dimensions [3]float64 // 3D height, width, length.
	Location   [3]float64 // 3D x, y, z in camera coordinates.
	RotationY  float64    // Rotation around the Y axis in radians.
	Score      float64    // Optional, linear confidence value. No fixed range.
	HasScore   bool
}

// Width is the object width from a.Coords.
func (a KITTIAnnotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a KITTIAnnotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// ParseError reports a malformed KITTI label line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed KITTI line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseKittiAnnotation parses the line of values for a single annotation.
// The line must have at least the 15 fixed KITTI fields; a 16th field is read
// as the optional score and any further fields are ignored.
func ParseKittiAnnotation(line string) (KITTIAnnotation, error) {
	a := KITTIAnnotation{}

	tokens := strings.Fields(line)
	if len(tokens) < 15 {
		return a, &ParseError{Line: line, Err: fmt.Errorf("got %d fields, want at least 15", len(tokens))}
	}

	a.Label = tokens[0]

	// The 14 fields after the label are numeric; collect them in field order.
	values := make([]float64, 14)
	for i, t := range tokens[1:15] {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return a, &ParseError{Line: line, Err: err}
		}
		values[i] = v
	}

	a.Truncated = values[0]
	a.Occluded = int(values[1])
	a.Alpha = values[2]
	copy(a.Coords[:], values[3:7])
	copy(a.Dimensions[:], values[7:10])
	copy(a.Location[:], values[10:13])
	a.RotationY = values[13]

	if len(tokens) >= 16 {
		score, err := strconv.ParseFloat(tokens[15], 64)
		if err != nil {
			return a, &ParseError{Line: line, Err: err}
		}
		a.Score = score
		a.HasScore = true
	}

	return a, nil
}

// FormatKittiAnnotation serializes a single annotation back into a KITTI line
// (without trailing newline). Geometry is printed with two decimals, angles
// with six, which is enough precision to round-trip through ParseKittiAnnotation.
func FormatKittiAnnotation(a KITTIAnnotation) string {
	line := fmt.Sprintf("%s %.2f %d %.6f %.2f %.2f %.2f %.2f %.2f %.2f %.2f %.2f %.2f %.2f %.6f",
		a.Label, a.Truncated, a.Occluded, a.Alpha,
		a.Coords[0], a.Coords[1], a.Coords[2], a.Coords[3],
		a.Dimensions[0], a.Dimensions[1], a.Dimensions[2],
		a.Location[0], a.Location[1], a.Location[2],
		a.RotationY)
	if a.HasScore {
		line += fmt.Sprintf(" %.4f", a.Score)
	}
	return line
}

// ReadKittiLabels reads and parses all annotations from the label file at
// path. Empty lines are ignored; an empty file yields an empty slice.
// Malformed lines are logged and skipped without failing the rest of the file.
func ReadKittiLabels(path string) ([]KITTIAnnotation, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	annotations := make([]KITTIAnnotation, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := ParseKittiAnnotation(line)
		if err != nil {
			log.Printf("Skipping annotation in %q: %v", path, err)
			continue
		}
		annotations = append(annotations, a)
	}

	return annotations, nil
}

// WriteKittiLabels writes one line per annotation to path, replacing any
// existing file. The parent directory must already exist.
func WriteKittiLabels(path string, annotations []KITTIAnnotation) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(file, &err)

	for _, a := range annotations {
		if _, err := fmt.Fprintln(file, FormatKittiAnnotation(a)); err != nil {
			return err
		}
	}

	return nil
}
