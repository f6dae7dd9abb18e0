package diagnostics

import (
	"fmt"
	"io"
	"os"
)

// DiagnosticBag collects warnings for a compilation run and renders errors
// immediately. Per spec §7 the process aborts on the first error, so the
// bag never accumulates more than one error diagnostic in practice — Add
// renders and exits before a second one could be appended.
type DiagnosticBag struct {
	warnings []*Diagnostic
	exitFunc func(code int)
	out      io.Writer
}

// NewDiagnosticBag creates an empty bag for one compilation run.
func NewDiagnosticBag() *DiagnosticBag {
	return &DiagnosticBag{exitFunc: os.Exit, out: os.Stderr}
}

// NewTestBag creates a bag whose fatal path calls onFatal instead of
// os.Exit and renders into out, so a test can observe a fatal diagnostic's
// message without terminating the test binary. onFatal must not return
// normally (e.g. it should call runtime.Goexit or panic with a sentinel)
// since Add's caller assumes control never comes back after an Error.
func NewTestBag(out io.Writer, onFatal func(code int)) *DiagnosticBag {
	return &DiagnosticBag{exitFunc: onFatal, out: out}
}

// Add records a diagnostic. Errors are rendered and abort the process
// immediately (fatal-on-first-error, spec §7). Warnings are buffered.
func (b *DiagnosticBag) Add(d *Diagnostic) {
	if d.Severity == Warning {
		b.warnings = append(b.warnings, d)
		return
	}
	Render(b.out, d)
	fmt.Fprintln(b.out)
	b.exitFunc(1)
}

// Warnings returns every warning collected so far.
func (b *DiagnosticBag) Warnings() []*Diagnostic {
	return b.warnings
}

// FlushWarnings renders every buffered warning without aborting.
func (b *DiagnosticBag) FlushWarnings() {
	for _, w := range b.warnings {
		Render(b.out, w)
	}
}
