// Resizes a directory of images together with their KITTI annotations to a
// fixed target size, by stretching or letterboxing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sensorable/kittiresize"
)

var (
	imageDirPath string // The input directory with the labeled images.
	labelDirPath string // The input directory with the KITTI label files.
	outDirPath   string // The output root directory.

	targetWidth  int              // The output canvas width.
	targetHeight int              // The output canvas height.
	resizeMode   kittiresize.Mode // The resize strategy.
	imageExt     string           // The image file extension (without the dot).
	jpegQuality  int              // The JPEG quality for JPEG outputs.

	filterLabels []string // Labels to keep (empty keeps all).
	minBoxWidth  float64  // The minimum bounding box width to keep.
	minBoxHeight float64  // The minimum bounding box height to keep.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr,
			"  Resizes images and their KITTI annotations to a fixed size.")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	// Path arguments.
	flag.StringVar(&imageDirPath, "in_img", "data/images",
		"The `path` to the input images directory")
	flag.StringVar(&labelDirPath, "in_lbl", "data/kitti_annotations",
		"The `path` to the input labels directory")
	flag.StringVar(&outDirPath, "out", "results",
		"The `path` to the output directory")

	// Transform arguments.
	size := flag.String("size", "284,284", "The comma-separated target size (`W,H`)")
	mode := flag.String("mode", "letterbox", "The resize `mode` {letterbox, stretch}")
	flag.StringVar(&imageExt, "img_ext", "jpg",
		"The image file `extension` (without the dot)")
	flag.IntVar(&jpegQuality, "jpeg-quality", 90,
		"The quality to use when encoding JPEGs [1, 100]")

	// Filter arguments.
	labels := flag.String("filter-labels", "",
		"Comma-separated list of labels to keep (empty string keeps all)")
	flag.Float64Var(&minBoxWidth, "min-box-width", 0,
		"The min. required width in `pixels` for bounding boxes (before resizing)")
	flag.Float64Var(&minBoxHeight, "min-box-height", 0,
		"The min. required height in `pixels` for bounding boxes (before resizing)")

	flag.Parse()

	// Parse and validate the target size.
	dims := strings.Split(*size, ",")
	if len(dims) != 2 {
		printUsageAndExit("Invalid -size, expected W,H: ", *size)
	}
	var err error
	if targetWidth, err = strconv.Atoi(strings.TrimSpace(dims[0])); err != nil {
		printUsageAndExit("Invalid target width: ", dims[0])
	}
	if targetHeight, err = strconv.Atoi(strings.TrimSpace(dims[1])); err != nil {
		printUsageAndExit("Invalid target height: ", dims[1])
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		printUsageAndExit("The target size must be positive: ", *size)
	}

	// Validate the mode.
	if resizeMode, err = kittiresize.ModeFrom(*mode); err != nil {
		printUsageAndExit("Invalid -mode: ", *mode)
	}

	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = 92
		log.Print("Invalid JPEG quality, setting it to ", jpegQuality)
	}

	if *labels != "" {
		filterLabels = strings.Split(*labels, ",")
	}

	// Clean path arguments.
	imageDirPath = filepath.Clean(imageDirPath)
	labelDirPath = filepath.Clean(labelDirPath)
	outDirPath = filepath.Clean(outDirPath)
	if imageDirPath == outDirPath || labelDirPath == outDirPath {
		printUsageAndExit("The input and output paths cannot be identical")
	}

	imageExt = strings.TrimPrefix(imageExt, ".")
	if imageExt == "" {
		printUsageAndExit("Missing image file extension")
	}
}

func main() {
	pipeline := &kittiresize.Pipeline{
		ImageDir:     imageDirPath,
		LabelDir:     labelDirPath,
		OutDir:       outDirPath,
		TargetWidth:  targetWidth,
		TargetHeight: targetHeight,
		Mode:         resizeMode,
		ImageExt:     imageExt,
		JPEGQuality:  jpegQuality,
		FilterLabels: filterLabels,
		MinBoxWidth:  minBoxWidth,
		MinBoxHeight: minBoxHeight,
	}

	stats, err := pipeline.Run()
	if err != nil {
		log.Fatal("Resize run failed: ", err)
	}

	if stats.Skipped > 0 {
		log.Printf("Skipped %d of %d images", stats.Skipped, stats.Images)
	}
	if stats.BoxesDropped > 0 {
		log.Printf("Dropped %d bounding boxes", stats.BoxesDropped)
	}
	log.Printf("Successfully processed %d of %d images into %s",
		stats.Processed, stats.Images, outDirPath)
}
