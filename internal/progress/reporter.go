package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback while a file is read.
type Reporter interface {
	// Start begins a task of total bytes; total < 0 means unknown.
	Start(total int64, description string)
	Add(n int)
	Finish()
}

// NewReporter returns a TerminalReporter if running in an interactive terminal,
// or a CIReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int64, description string) {
	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Add(n int) {
	if r.bar != nil {
		_ = r.bar.Add(n)
	}
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	Out io.Writer // os.Stderr when nil

	total       int64
	read        int64
	description string
}

func (r *CIReporter) out() io.Writer {
	if r.Out == nil {
		return os.Stderr
	}
	return r.Out
}

func (r *CIReporter) Start(total int64, description string) {
	r.total, r.read, r.description = total, 0, description
	if total >= 0 {
		fmt.Fprintf(r.out(), "%s: %d bytes\n", description, total)
	} else {
		fmt.Fprintf(r.out(), "%s\n", description)
	}
}

func (r *CIReporter) Add(n int) {
	r.read += int64(n)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(r.out(), "%s: done (%d bytes)\n", r.description, r.read)
}

// Reader reports every read from an underlying reader.
type Reader struct {
	r   io.Reader
	rep Reporter
}

// NewReader wraps r so that reads advance rep.
func NewReader(r io.Reader, rep Reporter) *Reader {
	return &Reader{r: r, rep: rep}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.rep.Add(n)
	}
	return n, err
}
