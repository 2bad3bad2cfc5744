package cmd

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

type stuckServer struct{}

func (stuckServer) Shutdown(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDrainLogsShutdownError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	drain(stuckServer{}, 10*time.Millisecond)

	if !strings.Contains(buf.String(), "server: shutdown: context deadline exceeded") {
		t.Errorf("expected shutdown error to be logged, got %q", buf.String())
	}
}
