// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// specter identifies peptides from tandem mass spectrometry experiments:
// it searches observed fragment spectra against a theoretical fragment
// database derived from a protein sequence file, assigns statistical
// confidence to each peptide-spectrum match, and writes one PSM table per
// input spectrum file plus a run summary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/arlowe/specter/internal/config"
	"github.com/arlowe/specter/internal/pipeline"
	"github.com/arlowe/specter/internal/report"
	"github.com/arlowe/specter/internal/specterr"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s <config.json>

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(flag.Arg(0)))
}

func run(configPath string) int {
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Print(err)
		return 1
	}

	pl, err := pipeline.New(cfg)
	if err != nil {
		log.Print(err)
		return 1
	}

	res := pl.Run()
	searchTime := time.Since(start).Seconds()

	summary := report.Summary{
		Config:      cfg,
		InputFiles:  cfg.MzMLPaths,
		OutputFiles: res.OutputPaths,
		SearchTime:  searchTime,
	}
	if err := report.WriteSummary("results.json", summary); err != nil {
		log.Print(&specterr.WriteFailure{Path: "results.json", Err: err})
	}

	log.Printf("processed %d file(s): %d succeeded, %d failed, in %s",
		len(cfg.MzMLPaths), len(res.OutputPaths), res.Failures, time.Since(start))

	if len(res.OutputPaths) == 0 {
		return 1
	}
	return 0
}
