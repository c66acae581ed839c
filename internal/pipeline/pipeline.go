// Package pipeline wires the analysis stages into a per-photo run: label
// scan, background segmentation, clean-up, ear extraction, and the per-ear
// measurements. One bad ear never fails the photo; it is logged and skipped.
package pipeline

import (
	"fmt"
	"sync"

	"earcv/internal/cob"
	"earcv/internal/config"
	"earcv/internal/ears"
	"earcv/internal/image"
	"earcv/internal/qr"
	"earcv/internal/regions"
	"earcv/internal/rows"
	"earcv/internal/silk"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Pipeline runs the configured analysis over ear photos.
type Pipeline struct {
	cfg *config.Config
	log zerolog.Logger
}

// New builds a pipeline from a validated config.
func New(cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// EarReport holds the measurements of one extracted ear.
type EarReport struct {
	Index      int
	Flipped    bool
	SilkStatus silk.Status
	Convexity  float64
	Rows       *rows.Result
	TipArea    int
	BottomArea int
}

// Report summarizes one photo.
type Report struct {
	Path              string
	Label             string
	EarCount          int
	CleanupIterations int
	CleanupStatus     ears.Status
	AreaCOV           float64
	Ears              []EarReport
}

// ProcessFile loads a photo and runs the full pipeline on it.
func (p *Pipeline) ProcessFile(path string) (*Report, error) {
	img, err := image.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	defer img.Close()

	landscape, rotated := image.EnsureLandscape(img)
	defer landscape.Close()
	if rotated {
		p.log.Debug().Str("path", path).Msg("rotated portrait photo to landscape")
	}

	report, err := p.Process(landscape)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", path, err)
	}
	report.Path = path
	return report, nil
}

// Process runs the pipeline on a decoded BGR photo.
func (p *Pipeline) Process(img gocv.Mat) (*Report, error) {
	report := &Report{}

	if p.cfg.QR.Enabled {
		res, err := qr.Scan(img, qr.Params{
			WindowSize: p.cfg.QR.WindowSize,
			Overlap:    p.cfg.QR.Overlap,
		})
		if err != nil {
			p.log.Warn().Err(err).Msg("no sample label decoded")
		} else {
			report.Label = res.Data
			p.log.Info().Str("label", res.Data).Int("attempts", res.Attempts).Msg("sample label")
		}
	}

	mask, err := ears.SegmentBackground(img)
	if err != nil {
		return nil, fmt.Errorf("segmenting background: %w", err)
	}
	defer mask.Close()

	state, err := ears.Cleanup(mask, p.filterSpec(), p.cleanupParams())
	if err != nil {
		return nil, fmt.Errorf("cleaning mask: %w", err)
	}
	defer state.Mask.Close()

	report.CleanupIterations = state.Iteration
	report.CleanupStatus = state.Status
	report.AreaCOV = state.AreaCOV
	report.EarCount = len(state.Regions)

	if state.Status == ears.StatusExhausted {
		p.log.Warn().
			Float64("cov", state.AreaCOV).
			Int("iterations", state.Iteration).
			Msg("clean-up budget exhausted, using best mask")
	}

	rois := ears.ExtractROIs(img, state.Mask, state.Regions)
	for i, roi := range rois {
		ear, err := p.processEar(i, roi)
		roi.Close()
		if err != nil {
			p.log.Warn().Err(err).Int("ear", i).Msg("skipping ear")
			continue
		}
		report.Ears = append(report.Ears, ear)
	}
	return report, nil
}

// processEar measures one extracted ROI. Row counting and end segmentation
// run on the de-silked ear, never the raw ROI.
func (p *Pipeline) processEar(index int, roi gocv.Mat) (EarReport, error) {
	oriented, flipped := ears.Orient(roi)
	defer oriented.Close()

	rep := EarReport{Index: index, Flipped: flipped}

	cleaned, silkState, err := p.desilk(oriented)
	if err != nil {
		return rep, fmt.Errorf("de-silking ear: %w", err)
	}
	defer cleaned.Close()
	silkState.Mask.Close()
	rep.SilkStatus = silkState.Status
	rep.Convexity = silkState.Convexity

	if p.cfg.Rows.Enabled {
		res, err := rows.Count(cleaned, p.rowParams())
		if err != nil {
			p.log.Warn().Err(err).Int("ear", index).Msg("row count failed")
		} else {
			rep.Rows = &res
		}
	}

	// The de-silked ear stands in for the color-difference image the end
	// segmentation thresholds; cob tissue still separates from kernels in
	// its channels.
	if p.cfg.Tip.Enabled {
		tip := cob.SegmentTip(cleaned, cleaned, endParams(p.cfg.Tip))
		rep.TipArea = gocv.CountNonZero(tip)
		tip.Close()
	}
	if p.cfg.Bottom.Enabled {
		bottom := cob.SegmentBottom(cleaned, cleaned, endParams(p.cfg.Bottom))
		rep.BottomArea = gocv.CountNonZero(bottom)
		bottom.Close()
	}
	return rep, nil
}

// desilk thresholds the ear's Lab b-channel (kernels score high on b, silk
// and debris low), runs the convexity clean-up on it, and returns the ear
// with every pixel outside the cleaned mask zeroed. The caller closes the
// returned image and the state's mask.
func (p *Pipeline) desilk(oriented gocv.Mat) (gocv.Mat, silk.State, error) {
	bw, err := ears.ThresholdChannel(oriented, image.SpaceLab, 2, 0, false)
	if err != nil {
		return gocv.NewMat(), silk.State{}, err
	}
	defer bw.Close()

	state := silk.Clean(bw, p.silkParams())
	cleaned := image.MaskOut(oriented, state.Mask)
	return cleaned, state, nil
}

// Batch processes many photos concurrently with the configured worker count.
// Results come back in input order; a nil slot marks a failed photo.
func (p *Pipeline) Batch(paths []string) []*Report {
	reports := make([]*Report, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Processing.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rep, err := p.ProcessFile(paths[i])
				if err != nil {
					p.log.Error().Err(err).Str("path", paths[i]).Msg("photo failed")
					continue
				}
				reports[i] = rep
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return reports
}

func (p *Pipeline) filterSpec() regions.FilterSpec {
	return regions.FilterSpec{
		MinAreaFrac:    p.cfg.Filter.MinAreaFrac,
		MaxAreaFrac:    p.cfg.Filter.MaxAreaFrac,
		MaxAspectRatio: p.cfg.Filter.MaxAspectRatio,
		MaxSolidity:    p.cfg.Filter.MaxSolidity,
	}
}

func (p *Pipeline) cleanupParams() ears.CleanupParams {
	return ears.CleanupParams{
		MaxCOV:        p.cfg.Cleanup.MaxCOV,
		MaxIterations: p.cfg.Cleanup.MaxIterations,
		Connectivity:  regions.Connect8,
	}
}

func (p *Pipeline) silkParams() silk.Params {
	return silk.Params{
		MinDeltaConvexity: p.cfg.Silk.MinDeltaConvexity,
		MaxIterations:     p.cfg.Silk.MaxIterations,
		SkipAbove:         p.cfg.Silk.SkipAbove,
	}
}

func (p *Pipeline) rowParams() rows.Params {
	params := rows.DefaultParams()
	params.Bands = p.cfg.Rows.Bands
	params.CoarseWindow = p.cfg.Rows.CoarseWindow
	params.FineWindow = p.cfg.Rows.FineWindow
	params.MaxExtrema = p.cfg.Rows.MaxExtrema
	return params
}

func endParams(c config.EndConfig) cob.Params {
	return cob.Params{
		Percent:   c.Percent,
		Contrast:  c.Contrast,
		Threshold: c.Threshold,
		Close:     c.Close,
		Extent:    2,
	}
}
