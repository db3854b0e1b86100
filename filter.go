package kittiresize

// Annotation filtering, applied before the geometric transform.

// FilterAnnotations filters out annotations which do not match any of the
// given labelNames, or whose bounding box is smaller than minWidth or
// minHeight pixels in the original image. An empty labelNames keeps all
// labels; zero minimum sizes disable the size filter.
func FilterAnnotations(annotations []KITTIAnnotation, labelNames []string,
		minWidth, minHeight float64) []KITTIAnnotation {

	if len(labelNames) == 0 && minWidth <= 0 && minHeight <= 0 {
		return annotations
	}

	inList := func(v string, l []string) bool {
		for _, val := range l {
			if val == v {
				return true
			}
		}
		return false
	}

	kept := make([]KITTIAnnotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Width() < minWidth || a.Height() < minHeight {
			continue
		}
		if len(labelNames) > 0 && !inList(a.Label, labelNames) {
			continue
		}
		kept = append(kept, a)
	}

	return kept
}
