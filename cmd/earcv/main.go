// Command earcv analyzes maize-ear photos: it segments ears from the
// background, cleans the segmentation, and measures each ear, writing one
// CSV row per ear.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"earcv/internal/config"
	"earcv/internal/pipeline"
	"earcv/internal/version"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	outPath := flag.String("out", "earcv.csv", "Output CSV path")
	workers := flag.Int("workers", 0, "Concurrent photos; 0 uses the config value")
	qrScan := flag.Bool("qr", false, "Scan photos for a sample-label QR code")
	qrWindow := flag.Int("qr-window", 0, "QR scan window size in pixels; 0 scans whole image")
	noRows := flag.Bool("no-rows", false, "Skip kernel-row counting")
	tip := flag.Bool("tip", false, "Segment exposed cob at the ear tip")
	bottom := flag.Bool("bottom", false, "Segment the shank at the ear bottom")
	verbose := flag.Bool("v", false, "Debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("earcv %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Println("Usage: earcv [flags] <image>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}
	if *qrScan {
		cfg.QR.Enabled = true
		cfg.QR.WindowSize = *qrWindow
	}
	if *noRows {
		cfg.Rows.Enabled = false
	}
	cfg.Tip.Enabled = cfg.Tip.Enabled || *tip
	cfg.Bottom.Enabled = cfg.Bottom.Enabled || *bottom

	log.Info().
		Int("photos", len(paths)).
		Int("workers", cfg.Processing.Workers).
		Msg("starting")

	reports := pipeline.New(cfg, log).Batch(paths)

	if err := writeCSV(*outPath, reports); err != nil {
		log.Fatal().Err(err).Msg("writing results")
	}

	ok := 0
	for _, r := range reports {
		if r != nil {
			ok++
		}
	}
	log.Info().Int("processed", ok).Int("failed", len(paths)-ok).Str("out", *outPath).Msg("done")
	if ok == 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func writeCSV(path string, reports []*pipeline.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"path", "label", "ear_count", "cleanup_status", "cleanup_iterations", "area_cov",
		"ear", "flipped", "silk_status", "convexity",
		"row_count", "median_gap_pre", "median_gap_post",
		"tip_area", "bottom_area",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range reports {
		if r == nil {
			continue
		}
		photo := []string{
			r.Path, r.Label,
			strconv.Itoa(r.EarCount),
			r.CleanupStatus.String(),
			strconv.Itoa(r.CleanupIterations),
			ffloat(r.AreaCOV),
		}
		if len(r.Ears) == 0 {
			if err := w.Write(append(photo, "", "", "", "", "", "", "", "", "")); err != nil {
				return err
			}
			continue
		}
		for _, e := range r.Ears {
			row := append(append([]string{}, photo...),
				strconv.Itoa(e.Index+1),
				strconv.FormatBool(e.Flipped),
				e.SilkStatus.String(),
				ffloat(e.Convexity),
			)
			if e.Rows != nil {
				row = append(row,
					strconv.Itoa(e.Rows.RowCount),
					ffloat(e.Rows.MedianGapPre),
					ffloat(e.Rows.MedianGapPost),
				)
			} else {
				row = append(row, "", "", "")
			}
			row = append(row, strconv.Itoa(e.TipArea), strconv.Itoa(e.BottomArea))
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

// ffloat formats a measurement, leaving undefined values blank.
func ffloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
