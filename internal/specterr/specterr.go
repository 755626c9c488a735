// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package specterr defines the typed error kinds the pipeline distinguishes
// when deciding whether to abort, skip a file, or continue with a degraded
// feature set.
package specterr

import "fmt"

// Config wraps a malformed or contradictory JSON configuration error. It is
// always fatal.
type Config struct {
	Err error
}

func (e *Config) Error() string { return fmt.Sprintf("configuration: %v", e.Err) }
func (e *Config) Unwrap() error { return e.Err }

// DatabaseBuild wraps an unreadable FASTA file or an invalid residue
// encountered while digesting. It is always fatal.
type DatabaseBuild struct {
	Err error
}

func (e *DatabaseBuild) Error() string { return fmt.Sprintf("database build: %v", e.Err) }
func (e *DatabaseBuild) Unwrap() error { return e.Err }

// FileRead wraps a missing or malformed spectrum file. It is per-file: the
// pipeline logs it, skips that file, and continues with the rest.
type FileRead struct {
	Path string
	Err  error
}

func (e *FileRead) Error() string { return fmt.Sprintf("reading %s: %v", e.Path, e.Err) }
func (e *FileRead) Unwrap() error { return e.Err }

// WriteFailure wraps a failure to write a result file. It is per-file.
type WriteFailure struct {
	Path string
	Err  error
}

func (e *WriteFailure) Error() string { return fmt.Sprintf("writing %s: %v", e.Path, e.Err) }
func (e *WriteFailure) Unwrap() error { return e.Err }

// NumericDegenerate marks a recovered numeric failure — singular
// regression, too few training PSMs, or R² below the fit gate. Nothing in
// the pipeline constructs or returns it: retention.Fit reports a degenerate
// fit through its ok result and discriminant.Fit through Model.Fallback,
// and the run summary does not record which rescoring features were
// skipped.
type NumericDegenerate struct {
	Reason string
}

func (e *NumericDegenerate) Error() string { return fmt.Sprintf("numeric degenerate: %s", e.Reason) }
