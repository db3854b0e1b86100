package kittiresize

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPair creates an image of the given size and an accompanying KITTI
// label file with the given lines under the dataset root.
func writeTestPair(t *testing.T, root, name string, w, h int, labelLines string) {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
	require.NoError(t, saveImage(filepath.Join(root, "images", name+".jpg"), img, 90))
	require.NoError(t,
		os.WriteFile(filepath.Join(root, "labels", name+".txt"), []byte(labelLines), 0644))
}

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "labels"), 0755))

	return &Pipeline{
		ImageDir:     filepath.Join(root, "images"),
		LabelDir:     filepath.Join(root, "labels"),
		OutDir:       filepath.Join(root, "out"),
		TargetWidth:  64,
		TargetHeight: 64,
		Mode:         Letterbox,
		ImageExt:     "jpg",
		JPEGQuality:  90,
	}, root
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	p, root := newTestPipeline(t)
	writeTestPair(t, root, "frame_000", 80, 60,
		"Car 0.00 0 0.000000 10.00 10.00 40.00 40.00 1.50 1.60 3.80 0.00 1.70 20.00 0.000000\n"+
			"Car 0.00 0 0.000000 90.00 10.00 95.00 40.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n")

	stats, err := p.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Images)
	assert.Equal(t, 1, stats.Processed)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, 1, stats.BoxesDropped) // The box outside the 80px frame.

	// The output image has exactly the target size.
	img, _, err := loadImage(filepath.Join(p.OutDir, "images", "frame_000.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	// The surviving box is contained in the target frame.
	annotations, err := ReadKittiLabels(filepath.Join(p.OutDir, "labels", "frame_000.txt"))
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	a := annotations[0]
	assert.GreaterOrEqual(t, a.Coords[0], 0.0)
	assert.GreaterOrEqual(t, a.Coords[1], 0.0)
	assert.LessOrEqual(t, a.Coords[2], 64.0)
	assert.LessOrEqual(t, a.Coords[3], 64.0)
	assert.Less(t, a.Coords[0], a.Coords[2])
	assert.Less(t, a.Coords[1], a.Coords[3])

	// Passthrough fields survive the pipeline.
	assert.Equal(t, "Car", a.Label)
	assert.InDelta(t, 3.8, a.Dimensions[2], 1e-9)
	assert.InDelta(t, 20.0, a.Location[2], 1e-9)
}

func TestPipelineRunStretch(t *testing.T) {
	t.Parallel()

	p, root := newTestPipeline(t)
	p.Mode = Stretch
	writeTestPair(t, root, "frame_001", 80, 60,
		"Car 0.00 0 0.000000 0.00 0.00 80.00 60.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n")

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	annotations, err := ReadKittiLabels(filepath.Join(p.OutDir, "labels", "frame_001.txt"))
	require.NoError(t, err)
	require.Len(t, annotations, 1)

	// The full-frame box maps onto the full target frame.
	assert.InDelta(t, 0, annotations[0].Coords[0], 1e-6)
	assert.InDelta(t, 0, annotations[0].Coords[1], 1e-6)
	assert.InDelta(t, 64, annotations[0].Coords[2], 1e-6)
	assert.InDelta(t, 64, annotations[0].Coords[3], 1e-6)
}

func TestPipelineSkipsUnpairedImages(t *testing.T) {
	t.Parallel()

	p, root := newTestPipeline(t)
	writeTestPair(t, root, "paired", 40, 40,
		"Car 0.00 0 0.000000 5.00 5.00 20.00 20.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n")

	// An image with no label file.
	img := imaging.New(40, 40, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	require.NoError(t, saveImage(filepath.Join(root, "images", "orphan.jpg"), img, 90))

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Images)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)

	_, err = os.Stat(filepath.Join(p.OutDir, "labels", "orphan.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineEmptyLabelFile(t *testing.T) {
	t.Parallel()

	p, root := newTestPipeline(t)
	writeTestPair(t, root, "empty", 40, 40, "")

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)

	annotations, err := ReadKittiLabels(filepath.Join(p.OutDir, "labels", "empty.txt"))
	require.NoError(t, err)
	assert.Empty(t, annotations)
}

func TestPipelineAnnotationFilter(t *testing.T) {
	t.Parallel()

	p, root := newTestPipeline(t)
	p.FilterLabels = []string{"Car"}
	p.MinBoxWidth = 10
	writeTestPair(t, root, "filtered", 80, 60,
		"Car 0.00 0 0.000000 10.00 10.00 40.00 40.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n"+
			"Car 0.00 0 0.000000 10.00 10.00 15.00 40.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n"+
			"Cyclist 0.00 0 0.000000 10.00 10.00 40.00 40.00 0.00 0.00 0.00 0.00 0.00 0.00 0.000000\n")

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.BoxesDropped)

	annotations, err := ReadKittiLabels(filepath.Join(p.OutDir, "labels", "filtered.txt"))
	require.NoError(t, err)
	require.Len(t, annotations, 1)
	assert.Equal(t, "Car", annotations[0].Label)
	assert.Greater(t, annotations[0].Width(), 10.0)
}

func TestPipelineSetupErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing image directory", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		p := &Pipeline{
			ImageDir:     filepath.Join(root, "nope"),
			LabelDir:     root,
			OutDir:       filepath.Join(root, "out"),
			TargetWidth:  64,
			TargetHeight: 64,
			ImageExt:     "jpg",
		}
		_, err := p.Run()
		assert.Error(t, err)
	})

	t.Run("no matching images", func(t *testing.T) {
		t.Parallel()
		p, _ := newTestPipeline(t)
		_, err := p.Run()
		assert.Error(t, err)
	})

	t.Run("invalid target size", func(t *testing.T) {
		t.Parallel()
		p, root := newTestPipeline(t)
		writeTestPair(t, root, "x", 40, 40, "")
		p.TargetWidth = 0

		_, err := p.Run()
		var dimErr *InvalidDimensionsError
		assert.ErrorAs(t, err, &dimErr)
	})
}
