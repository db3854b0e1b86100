package kittiresize

// The dataset pipeline: pairs images with their label files and runs the
// geometric transform over every pair.

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MissingPairError reports an image without a corresponding label file.
type MissingPairError struct {
	ImagePath string
}

func (e *MissingPairError) Error() string {
	return fmt.Sprintf("no label file for image %q", e.ImagePath)
}

// Pipeline resizes a directory of images together with their KITTI labels.
type Pipeline struct {
	ImageDir string // Input images directory.
	LabelDir string // Input labels directory (one .txt per image).
	OutDir   string // Output root; images and labels land in subdirectories.

	TargetWidth  int
	TargetHeight int
	Mode         Mode
	ImageExt     string // Image file extension without the dot, e.g. "jpg".
	JPEGQuality  int

	// Optional annotation filters, applied before the transform.
	FilterLabels []string
	MinBoxWidth  float64
	MinBoxHeight float64
}

// Stats summarizes a pipeline run.
type Stats struct {
	Images       int // Image files found.
	Processed    int // Pairs transformed and written.
	Skipped      int // Pairs skipped due to per-pair errors.
	BoxesDropped int // Annotations dropped as collapsed or filtered out.
}

// Run processes every (image, label) pair. Per-pair failures are logged and
// skipped; only setup-level failures (missing input directories, unusable
// output directory, invalid configuration) return an error.
func (p *Pipeline) Run() (Stats, error) {
	var stats Stats

	if p.TargetWidth <= 0 || p.TargetHeight <= 0 {
		return stats, &InvalidDimensionsError{Width: p.TargetWidth, Height: p.TargetHeight}
	}

	images, err := p.findImages()
	if err != nil {
		return stats, err
	}
	if len(images) == 0 {
		return stats, fmt.Errorf("no images with extension .%s in %q", p.ImageExt, p.ImageDir)
	}
	stats.Images = len(images)

	labelFiles, err := filesByExtInDir(p.LabelDir, ".txt")
	if err != nil {
		return stats, err
	}
	labelsByName := mapFileNamesToPaths(labelFiles)

	// Report label files that have no matching image; they are left untouched.
	imageNames := make(map[string]bool, len(images))
	for _, path := range images {
		if _, baseNoExt, _, err := splitPath(path); err == nil {
			imageNames[baseNoExt] = true
		}
	}
	for name, path := range labelsByName {
		if !imageNames[name] {
			log.Printf("No matching image for label file %q", path)
		}
	}

	outImages := filepath.Join(p.OutDir, "images")
	outLabels := filepath.Join(p.OutDir, "labels")
	for _, dir := range []string{outImages, outLabels} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return stats, fmt.Errorf("cannot create output directory %q: %v", dir, err)
		}
	}

	log.Printf("Processing %d images in %s mode, target size %dx%d",
		len(images), p.Mode, p.TargetWidth, p.TargetHeight)

	for _, imagePath := range images {
		dropped, err := p.processPair(imagePath, labelsByName, outImages, outLabels)
		if err != nil {
			log.Printf("Skipping %q: %v", imagePath, err)
			stats.Skipped++
			continue
		}
		stats.Processed++
		stats.BoxesDropped += dropped
	}

	return stats, nil
}

// findImages lists the input images with the configured extension, matching
// both lower and upper case variants.
func (p *Pipeline) findImages() ([]string, error) {
	lower, err := filesByExtInDir(p.ImageDir, "."+strings.ToLower(p.ImageExt))
	if err != nil {
		return nil, err
	}
	upper, err := filesByExtInDir(p.ImageDir, "."+strings.ToUpper(p.ImageExt))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(lower)+len(upper))
	images := make([]string, 0, len(lower)+len(upper))
	for _, path := range append(lower, upper...) {
		if !seen[path] {
			seen[path] = true
			images = append(images, path)
		}
	}
	sort.Strings(images)

	return images, nil
}

// processPair transforms a single image and its label file. Returns the
// number of annotations that did not survive filtering and transformation.
func (p *Pipeline) processPair(imagePath string, labelsByName map[string]string,
		outImages, outLabels string) (int, error) {

	_, baseNoExt, _, err := splitPath(imagePath)
	if err != nil {
		return 0, err
	}

	labelPath, found := labelsByName[baseNoExt]
	if !found {
		return 0, &MissingPairError{ImagePath: imagePath}
	}

	img, _, err := loadImage(imagePath)
	if err != nil {
		return 0, fmt.Errorf("cannot load image: %v", err)
	}

	annotations, err := ReadKittiLabels(labelPath)
	if err != nil {
		return 0, err
	}

	filtered := FilterAnnotations(annotations, p.FilterLabels, p.MinBoxWidth, p.MinBoxHeight)

	var outImg image.Image
	var out []KITTIAnnotation
	var collapsed int
	switch p.Mode {
	case Stretch:
		outImg, out, collapsed, err = ApplyStretch(img, filtered, p.TargetWidth, p.TargetHeight)
	default:
		outImg, out, collapsed, err = ApplyLetterbox(img, filtered, p.TargetWidth, p.TargetHeight)
	}
	if err != nil {
		return 0, err
	}

	if err := saveImage(filepath.Join(outImages, filepath.Base(imagePath)), outImg, p.JPEGQuality); err != nil {
		return 0, fmt.Errorf("cannot save image: %v", err)
	}
	if err := WriteKittiLabels(filepath.Join(outLabels, baseNoExt+".txt"), out); err != nil {
		return 0, fmt.Errorf("cannot write labels: %v", err)
	}

	return len(annotations) - len(filtered) + collapsed, nil
}
