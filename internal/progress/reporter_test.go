package progress

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestReaderReportsBytes(t *testing.T) {
	var out bytes.Buffer
	rep := &CIReporter{Out: &out}

	input := strings.Repeat("2024-03-04,alice\n", 100)
	rep.Start(int64(len(input)), "Reading visits.csv")
	data, err := io.ReadAll(NewReader(strings.NewReader(input), rep))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	rep.Finish()

	if string(data) != input {
		t.Error("reader altered the data")
	}
	if rep.read != int64(len(input)) {
		t.Errorf("expected %d bytes reported, got %d", len(input), rep.read)
	}
	log := out.String()
	if !strings.Contains(log, "Reading visits.csv: 1700 bytes") {
		t.Errorf("missing start line in %q", log)
	}
	if !strings.Contains(log, "done (1700 bytes)") {
		t.Errorf("missing finish line in %q", log)
	}
}

func TestCIReporterUnknownTotal(t *testing.T) {
	var out bytes.Buffer
	rep := &CIReporter{Out: &out}
	rep.Start(-1, "Reading stdin")
	rep.Add(10)
	rep.Finish()

	if !strings.HasPrefix(out.String(), "Reading stdin\n") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}
