// collectord is the composition root for the remote forensic
// collection orchestrator. It wires config -> rtr -> session ->
// transfer -> objectstore -> collector -> executor and drives one
// fan-out run per invocation. Flag parsing here is wiring only: no
// YAML/.env loading, no credential resolution, no REPL (spec.md §1
// Non-goals) — an operator or a calling system supplies everything
// this binary needs as flags and environment variables.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/fnerd-orchestrator/pkg/collector"
	"github.com/cuemby/fnerd-orchestrator/pkg/config"
	"github.com/cuemby/fnerd-orchestrator/pkg/executor"
	"github.com/cuemby/fnerd-orchestrator/pkg/log"
	"github.com/cuemby/fnerd-orchestrator/pkg/metrics"
	"github.com/cuemby/fnerd-orchestrator/pkg/objectstore"
	"github.com/cuemby/fnerd-orchestrator/pkg/payload"
	"github.com/cuemby/fnerd-orchestrator/pkg/rtr"
	"github.com/cuemby/fnerd-orchestrator/pkg/session"
	"github.com/cuemby/fnerd-orchestrator/pkg/transfer"
	"github.com/cuemby/fnerd-orchestrator/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "collectord",
	Short:   "Remote forensic collection orchestrator",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("collectord version %s\nCommit: %s\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a collection sweep across one or more hosts",
	Long: `Run resolves each --host, dispatches the configured --tool through
RTR, retrieves and uploads the resulting artifact, and prints an
aggregate summary across the batch.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSlice("host", nil, "Hostname to collect from (repeatable)")
	runCmd.Flags().String("tool", string(types.ToolUAC), "Collection tool: kape, uac, or browser_history")
	runCmd.Flags().Int("max-concurrent", 0, "Maximum hosts collected concurrently (0 = config default)")
	runCmd.Flags().String("payload-dir", ".", "Directory holding prebuilt tool archives")

	runCmd.Flags().String("rtr-url", "", "RTR API base URL (required)")
	runCmd.Flags().String("rtr-token", "", "RTR bearer token (required)")

	runCmd.Flags().String("s3-bucket", "", "Object store bucket (required)")
	runCmd.Flags().String("s3-region", "us-east-1", "Object store region")
	runCmd.Flags().String("s3-endpoint", "", "Object store endpoint URL (empty for AWS S3 itself)")
	runCmd.Flags().String("s3-access-key", "", "Object store access key ID")
	runCmd.Flags().String("s3-secret-key", "", "Object store secret access key")

	runCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus metrics at this address while the run executes")

	runCmd.MarkFlagRequired("host")
	runCmd.MarkFlagRequired("rtr-url")
	runCmd.MarkFlagRequired("rtr-token")
	runCmd.MarkFlagRequired("s3-bucket")
}

func runRun(cmd *cobra.Command, args []string) error {
	hosts, _ := cmd.Flags().GetStringSlice("host")
	toolFlag, _ := cmd.Flags().GetString("tool")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
	payloadDir, _ := cmd.Flags().GetString("payload-dir")

	rtrURL, _ := cmd.Flags().GetString("rtr-url")
	rtrToken, _ := cmd.Flags().GetString("rtr-token")

	bucket, _ := cmd.Flags().GetString("s3-bucket")
	region, _ := cmd.Flags().GetString("s3-region")
	endpoint, _ := cmd.Flags().GetString("s3-endpoint")
	accessKey, _ := cmd.Flags().GetString("s3-access-key")
	secretKey, _ := cmd.Flags().GetString("s3-secret-key")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	tool := types.Tool(strings.ToLower(toolFlag))
	profiles := collector.DefaultProfiles()
	if _, ok := profiles[tool]; !ok {
		return fmt.Errorf("unknown tool %q", toolFlag)
	}

	cfg := config.Default()
	if maxConcurrent > 0 {
		cfg.MaxConcurrent = maxConcurrent
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal, cancelling in-flight collections")
		cancel()
	}()

	if metricsAddr != "" {
		go func() {
			http.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics server error: %v", err)
			}
		}()
		log.WithComponent("cmd").Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
	}

	rtrClient := rtr.New(rtrURL, rtrToken, cfg.Retry, nil)
	sessionMgr := session.New(rtrClient, cfg.Timeouts.SessionIdle, cfg.Timeouts.Command)
	transferMgr := transfer.New(sessionMgr, rtrClient)

	store, err := objectstore.New(ctx, region, bucket, endpoint, objectstore.Credentials{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
	}, nil, cfg.Upload)
	if err != nil {
		return fmt.Errorf("object store init: %w", err)
	}

	payloads := payload.NewDir(payloadDir, profiles)
	coll := collector.New(rtrClient, rtrClient, sessionMgr, transferMgr, store, payloads, profiles, cfg)
	exec := executor.New(coll, cfg.MaxConcurrent)

	jobs := make([]types.CollectionJob, 0, len(hosts))
	for _, h := range hosts {
		jobs = append(jobs, types.CollectionJob{
			Host: types.Host{Hostname: h},
			Tool: tool,
		})
	}

	events := make(chan executor.Event, 64)
	go func() {
		for ev := range events {
			log.WithComponent("executor").Info().
				Str("host", ev.Hostname).Str("job_id", ev.JobID).
				Str("type", string(ev.Type)).Str("phase", ev.Phase).
				Msg("job event")
		}
	}()

	start := time.Now()
	result := exec.Run(ctx, jobs, events)

	fmt.Printf("Collection run complete in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("  Total:     %d\n", result.Summary.Total)
	fmt.Printf("  Succeeded: %d\n", result.Summary.Succeeded)
	fmt.Printf("  Failed:    %d\n", result.Summary.Failed)
	if result.Summary.Failed > 0 {
		fmt.Println("  Failures by kind:")
		for kind, count := range result.Summary.FailuresByKind {
			fmt.Printf("    %-20s %d\n", kind, count)
		}
	}
	fmt.Printf("  Bytes uploaded: %d\n", result.Summary.BytesUploaded)

	for host, outcome := range result.Outcomes {
		if outcome.Succeeded() {
			fmt.Printf("  %-30s OK    key=%s size=%d\n", host, outcome.Key, outcome.Size)
		} else {
			fmt.Printf("  %-30s FAIL  phase=%s kind=%s detail=%s\n", host, outcome.Failure.Phase, outcome.Failure.Kind, outcome.Failure.Detail)
		}
	}

	if result.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d hosts failed", result.Summary.Failed, result.Summary.Total)
	}
	return nil
}
