// Command segtest runs background segmentation and the clean-up loop on an
// ear photo and writes the intermediate masks for inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"earcv/internal/ears"
	earimage "earcv/internal/image"
	"earcv/internal/regions"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to an ear photo (TIFF, PNG, BMP, or JPEG)")
	outDir := flag.String("out", ".", "Directory for output masks")
	maxCOV := flag.Float64("max-cov", 0.35, "Area COV convergence target")
	maxIter := flag.Int("max-iter", 10, "Clean-up iteration budget")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: segtest -image <path> [-out .] [-max-cov 0.35] [-max-iter 10]")
		os.Exit(1)
	}

	img, err := earimage.LoadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	landscape, rotated := earimage.EnsureLandscape(img)
	defer landscape.Close()
	fmt.Printf("Loaded image: %dx%d pixels (rotated: %v)\n",
		landscape.Cols(), landscape.Rows(), rotated)

	mask, err := ears.SegmentBackground(landscape)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Segmentation failed: %v\n", err)
		os.Exit(1)
	}
	defer mask.Close()

	params := ears.DefaultCleanupParams()
	params.MaxCOV = *maxCOV
	params.MaxIterations = *maxIter

	state, err := ears.Cleanup(mask, regions.DefaultFilterSpec(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Clean-up failed: %v\n", err)
		os.Exit(1)
	}
	defer state.Mask.Close()

	fmt.Printf("\nStatus: %s after %d iterations\n", state.Status, state.Iteration)
	fmt.Printf("Area COV: %.3f\n", state.AreaCOV)
	fmt.Printf("Ears found: %d\n", len(state.Regions))
	for i, r := range state.Regions {
		fmt.Printf("  ear %d: area %d px, bbox %dx%d at (%d,%d)\n",
			i+1, r.Area, r.Bounds.Width, r.Bounds.Height, r.Bounds.X, r.Bounds.Y)
	}

	base := strings.TrimSuffix(filepath.Base(*imagePath), filepath.Ext(*imagePath))
	rawPath := filepath.Join(*outDir, base+"_mask_raw.png")
	cleanPath := filepath.Join(*outDir, base+"_mask_clean.png")
	gocv.IMWrite(rawPath, mask)
	gocv.IMWrite(cleanPath, state.Mask)
	fmt.Printf("\nWrote %s and %s\n", rawPath, cleanPath)
}
