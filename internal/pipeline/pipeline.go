// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline drives a run end to end: build the fragment database
// once, then fan out over the input spectrum files either one file per
// worker or, in files-sequential mode, a pool of workers over the spectra
// within each file in turn (so a single file's MS3 scans can still feed
// the SPS/TMT stub writer).
package pipeline

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/arlowe/specter/internal/config"
	"github.com/arlowe/specter/internal/discriminant"
	"github.com/arlowe/specter/internal/index"
	"github.com/arlowe/specter/internal/mzml"
	"github.com/arlowe/specter/internal/peptide"
	"github.com/arlowe/specter/internal/quant"
	"github.com/arlowe/specter/internal/report"
	"github.com/arlowe/specter/internal/retention"
	"github.com/arlowe/specter/internal/score"
	"github.com/arlowe/specter/internal/specterr"
	"github.com/arlowe/specter/internal/spectrum"
)

// Pipeline holds the process-wide immutable state built once from the
// resolved configuration: the peptide table, the shared fragment index,
// and the scorer wrapping both.
type Pipeline struct {
	Cfg    *config.Search
	Table  *peptide.Table
	Index  *index.FragmentIndex
	Scorer *score.Scorer
}

// New reads and digests the configured FASTA file and builds the shared
// fragment index. It is the "generated N fragments" step of a run.
func New(cfg *config.Search) (*Pipeline, error) {
	f, err := os.Open(cfg.FastaPath)
	if err != nil {
		return nil, &specterr.DatabaseBuild{Err: err}
	}
	defer f.Close()

	proteins, err := peptide.ReadFasta(f)
	if err != nil {
		return nil, &specterr.DatabaseBuild{Err: err}
	}

	table, err := peptide.Digest(proteins, cfg.DigestParams)
	if err != nil {
		return nil, &specterr.DatabaseBuild{Err: err}
	}

	idx := index.Build(table, cfg.FragmentMinMZ, cfg.FragmentMaxMZ, cfg.BucketWidth)
	scorer := score.New(idx, table, cfg.ScoreParams)

	log.Printf("generated %d fragments", idx.Len())

	return &Pipeline{Cfg: cfg, Table: table, Index: idx, Scorer: scorer}, nil
}

// Result is the outcome of a full run, ready to be serialized into the
// run summary.
type Result struct {
	OutputPaths []string
	Failures    int
}

// Run processes every configured mzML file and writes a .sage.pin table
// for each one that succeeds. A per-file failure is logged and the file
// is skipped and counted in Result.Failures; Run returns no error, since
// no condition aborts the whole run once the database has built.
func (p *Pipeline) Run() Result {
	paths := p.Cfg.MzMLPaths
	outputs := make([]string, len(paths))

	if p.Cfg.ProcessFilesParallel {
		p.runFilesParallel(paths, outputs)
	} else {
		p.runFilesSequential(paths, outputs)
	}

	var res Result
	for _, out := range outputs {
		if out == "" {
			res.Failures++
			continue
		}
		res.OutputPaths = append(res.OutputPaths, out)
	}
	return res
}

// runFilesParallel processes one file per worker, up to runtime.NumCPU()
// concurrently; each file's spectra are scored sequentially within that
// worker.
func (p *Pipeline) runFilesParallel(paths []string, outputs []string) {
	workers := runtime.NumCPU()
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := p.processFile(paths[i], false)
				if err != nil {
					log.Printf("%v", err)
					continue
				}
				outputs[i] = out
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// runFilesSequential processes files one at a time, but parallelizes
// spectrum processing and scoring within each file, matching the
// original's pairing of per-spectrum intra-file parallelism with the
// SPS/TMT reporter pass.
func (p *Pipeline) runFilesSequential(paths []string, outputs []string) {
	for i, path := range paths {
		out, err := p.processFile(path, true)
		if err != nil {
			log.Printf("%v", err)
			continue
		}
		outputs[i] = out
	}
}

// processFile reads, processes, and scores every spectrum in path,
// rescores with the retention and discriminant models, assigns q-values,
// and writes the resulting PSM table. When sps is true, MS3 spectra are
// additionally collected and written to a quant stub table.
func (p *Pipeline) processFile(path string, sps bool) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mzml") {
		return "", &specterr.FileRead{Path: path, Err: os.ErrInvalid}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", &specterr.FileRead{Path: path, Err: err}
	}
	defer f.Close()

	rd := mzml.NewReader(f)
	var raw []spectrum.RawSpectrum
	for {
		sp, ok, err := rd.Next()
		if err != nil {
			return "", &specterr.FileRead{Path: path, Err: err}
		}
		if !ok {
			break
		}
		raw = append(raw, sp)
	}

	proc := spectrum.Processor{
		MaxPeaks:  p.Cfg.MaxPeaks,
		FragMin:   p.Cfg.FragmentMinMZ,
		FragMax:   p.Cfg.FragmentMaxMZ,
		Deisotope: p.Cfg.Deisotope,
	}

	var ms3 []spectrum.RawSpectrum
	var ms2 []spectrum.RawSpectrum
	for _, sp := range raw {
		switch sp.MSLevel {
		case 3:
			if sps {
				ms3 = append(ms3, sp)
			}
		case 2:
			if len(sp.Peaks) >= p.Cfg.MinPeaks {
				ms2 = append(ms2, sp)
			}
		}
	}

	var psms []score.Feature
	if sps {
		psms = p.scoreSequential(ms2, proc)
	} else {
		psms = p.scoreAll(ms2, proc)
	}

	model, _ := retention.Fit(p.Table, psms)
	retention.Predict(p.Table, model, psms)

	disc := discriminant.Fit(p.Table, psms)
	disc.Score(p.Table, psms)
	discriminant.AssignQValues(psms)
	discriminant.AssignPeptideQValues(psms)
	for i := range psms {
		psms[i].SpecID = i
	}

	outPath := path
	ext := filepath.Ext(outPath)
	outPath = outPath[:len(outPath)-len(ext)] + ".sage.pin"
	if p.Cfg.OutputDirectory != "" {
		outPath = filepath.Join(p.Cfg.OutputDirectory, filepath.Base(outPath))
	}
	if err := report.WritePin(outPath, p.Table, psms); err != nil {
		return "", &specterr.WriteFailure{Path: outPath, Err: err}
	}

	if sps && len(ms3) > 0 {
		quantPath := path
		quantPath = quantPath[:len(quantPath)-len(filepath.Ext(quantPath))] + ".quant.csv"
		if p.Cfg.OutputDirectory != "" {
			quantPath = filepath.Join(p.Cfg.OutputDirectory, filepath.Base(quantPath))
		}
		if err := quant.WriteStub(quantPath, ms3); err != nil {
			log.Printf("%v", &specterr.WriteFailure{Path: quantPath, Err: err})
		}
	}

	log.Printf("%s: assigned %d PSMs", path, len(psms))
	return outPath, nil
}

// scoreAll processes and scores every ms2 spectrum sequentially, matching
// the files-parallel mode where the outer file loop is already the unit
// of concurrency.
func (p *Pipeline) scoreAll(ms2 []spectrum.RawSpectrum, proc spectrum.Processor) []score.Feature {
	var psms []score.Feature
	for _, raw := range ms2 {
		processed := proc.Process(raw)
		psms = append(psms, p.Scorer.Score(processed)...)
	}
	return psms
}

// scoreSequential parallelizes processing and scoring across the file's
// own spectra using a bounded worker pool, for files-sequential mode.
func (p *Pipeline) scoreSequential(ms2 []spectrum.RawSpectrum, proc spectrum.Processor) []score.Feature {
	workers := runtime.NumCPU()
	if workers > len(ms2) {
		workers = len(ms2)
	}
	if workers < 1 {
		return nil
	}

	results := make([][]score.Feature, len(ms2))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				processed := proc.Process(ms2[i])
				results[i] = p.Scorer.Score(processed)
			}
		}()
	}
	for i := range ms2 {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var psms []score.Feature
	for _, r := range results {
		psms = append(psms, r...)
	}
	return psms
}
