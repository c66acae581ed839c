// Command rowtest runs kernel-row counting on a single upright ear image and
// prints the consensus peaks.
package main

import (
	"flag"
	"fmt"
	"os"

	earimage "earcv/internal/image"
	"earcv/internal/rows"
)

func main() {
	imagePath := flag.String("image", "", "Path to an upright ear image (TIFF, PNG, BMP, or JPEG)")
	bands := flag.Int("bands", 6, "Vertical bands; first and last are skipped")
	coarse := flag.Int("coarse-window", 15, "Coarse smoothing window (odd)")
	fine := flag.Int("fine-window", 19, "Starting per-band smoothing window (odd)")
	maxExtrema := flag.Int("max-extrema", 9, "Valley count above which smoothing is retried")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: rowtest -image <path> [-bands 6] [-coarse-window 15] [-fine-window 19]")
		os.Exit(1)
	}

	ear, err := earimage.LoadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	defer ear.Close()

	fmt.Printf("Loaded image: %dx%d pixels\n", ear.Cols(), ear.Rows())

	params := rows.DefaultParams()
	params.Bands = *bands
	params.CoarseWindow = *coarse
	params.FineWindow = *fine
	params.MaxExtrema = *maxExtrema

	res, err := rows.Count(ear, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Row counting failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nKernel rows: %d\n", res.RowCount)
	fmt.Printf("Median gap pre consensus:  %.2f px\n", res.MedianGapPre)
	fmt.Printf("Median gap post consensus: %.2f px\n", res.MedianGapPost)
	fmt.Printf("Coarse valleys: %d\n", len(res.CoarseValleys))
	fmt.Println("\nConsensus peaks (columns):")
	for i, p := range res.Peaks {
		fmt.Printf("  %2d: %.1f\n", i+1, p)
	}
}
