package optimize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

const progressPrefix = "PROGRESS:"

// runScript executes the optimization script for one photo and blocks until
// it exits. Progress markers on stdout are reported through progress; every
// other stdout/stderr line is logged and otherwise ignored. A non-zero exit
// surfaces as *exec.ExitError.
func runScript(ctx context.Context, d *Descriptor, progress func(int)) error {
	cmd := exec.CommandContext(ctx, d.ScriptPath, d.Album, d.Filename)
	cmd.Dir = d.ProjectRoot

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drainStderr(stderr, d)
	}()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if pct, ok := parseProgress(line); ok {
			progress(pct)
			continue
		}
		log.Debug().Str("album", d.Album).Str("filename", d.Filename).
			Str("worker", line).Msg("worker output")
	}

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// parseProgress extracts the percentage from a "PROGRESS:<int>[:extra]" line.
func parseProgress(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, progressPrefix)
	if !ok {
		return 0, false
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}
	pct, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return pct, true
}

// drainStderr logs worker stderr attributed to the job. Stderr never alters
// job state.
func drainStderr(r io.Reader, d *Descriptor) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Warn().Str("album", d.Album).Str("filename", d.Filename).
			Str("worker", scanner.Text()).Msg("worker stderr")
	}
}
