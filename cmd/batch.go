package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 1 << 20

var (
	batchFile        string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Detect the language of each line of a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}

		lines, err := readBatchInput(cmd.InOrStdin(), batchFile)
		if err != nil {
			return err
		}

		env, err := initDetection(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, lines, cfg.Batch.Concurrency, env.Orchestrator, cmd.OutOrStdout())
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "-", "input file with one text per line (- for stdin)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel detections (default from config)")
	addRequestFlags(batchCmd)
	rootCmd.AddCommand(batchCmd)
}

// batchLine is one non-empty input line and its 1-based line number.
type batchLine struct {
	Number int
	Text   string
}

// batchResult is one JSON output line. Error is set when the line was
// rejected before detection ran.
type batchResult struct {
	Line int `json:"line"`
	*detectResponse
	Error string `json:"error,omitempty"`
}

func readBatchInput(stdin io.Reader, path string) ([]batchLine, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	return readBatchLines(r)
}

// readBatchLines returns the non-empty lines of r.
func readBatchLines(r io.Reader) ([]batchLine, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []batchLine
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		lines = append(lines, batchLine{Number: n, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read input")
	}
	return lines, nil
}

// processBatch detects every line with at most concurrency requests in
// flight and writes one JSON result per line in input order. A failed line
// never aborts the batch.
func processBatch(ctx context.Context, lines []batchLine, concurrency int, svc detectService, w io.Writer) error {
	if len(lines) == 0 {
		zap.L().Info("batch: no input lines")
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("lines", len(lines)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]batchResult, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, rejected atomic.Int64

	for i, line := range lines {
		g.Go(func() error {
			results[i].Line = line.Number

			req, err := flagRequest(line.Text).toModel()
			if err == nil {
				res, derr := svc.Detect(gctx, req)
				if derr == nil {
					resp := newDetectResponse(res.Outcome, res.RecordID, res.AuditErr)
					results[i].detectResponse = &resp
					if res.Outcome.Succeeded {
						succeeded.Add(1)
					} else {
						failed.Add(1)
					}
					return nil
				}
				err = derr
			}

			rejected.Add(1)
			results[i].Error = err.Error()
			zap.L().Warn("batch: line rejected", zap.Int("line", line.Number), zap.Error(err))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "batch: write output")
		}
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("rejected", rejected.Load()),
	)
	return nil
}
