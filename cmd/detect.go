package main

import (
	"context"
	"encoding/json"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	detectMode          string
	detectMinConfidence float64
	detectNoNormalize   bool
	detectSource        string
)

var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Detect the language of text from arguments or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		text := strings.Join(args, " ")
		if len(args) == 0 {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return eris.Wrap(err, "detect: read stdin")
			}
			text = strings.TrimRight(string(b), "\r\n")
		}

		env, err := initDetection(ctx, "detect")
		if err != nil {
			return err
		}
		defer env.Close()

		return runDetect(ctx, env.Orchestrator, flagRequest(text), cmd.OutOrStdout())
	},
}

func init() {
	addRequestFlags(detectCmd)
	rootCmd.AddCommand(detectCmd)
}

// addRequestFlags registers the per-request flags shared by detect and batch.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&detectMode, "mode", "auto", "detection mode: fast, auto or deep")
	cmd.Flags().Float64Var(&detectMinConfidence, "min-confidence", 0.8, "fast score needed to skip escalation in auto mode")
	cmd.Flags().BoolVar(&detectNoNormalize, "no-normalize", false, "report the raw detector code instead of the canonical code")
	cmd.Flags().StringVar(&detectSource, "source", "cli", "caller identifier stored with the record")
}

// flagRequest builds a wire request for text from the shared flags.
func flagRequest(text string) detectRequest {
	minConf := detectMinConfidence
	normalize := !detectNoNormalize
	return detectRequest{
		Text:          text,
		Mode:          detectMode,
		MinConfidence: &minConf,
		NormalizeCode: &normalize,
		Source:        detectSource,
	}
}

// runDetect runs one request and writes the response as indented JSON. A
// failed outcome is written and then returned as an error.
func runDetect(ctx context.Context, svc detectService, body detectRequest, w io.Writer) error {
	req, err := body.toModel()
	if err != nil {
		return err
	}

	res, err := svc.Detect(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDetectResponse(res.Outcome, res.RecordID, res.AuditErr)); err != nil {
		return eris.Wrap(err, "detect: write output")
	}

	if !res.Outcome.Succeeded {
		return eris.Errorf("detect: %s failure: %s", res.Outcome.FailureKind, res.Outcome.FailureReason)
	}
	return nil
}
