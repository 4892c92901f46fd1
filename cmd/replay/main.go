package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/pathmorph/pathmorph/internal/app/plugin"
	"github.com/pathmorph/pathmorph/internal/app/runner"
	"github.com/pathmorph/pathmorph/internal/config"
	"github.com/pathmorph/pathmorph/internal/config/fileloader"
	"github.com/pathmorph/pathmorph/internal/domain/execution"
	"github.com/pathmorph/pathmorph/internal/infra/plugins"
	"github.com/pathmorph/pathmorph/internal/infra/prompt"
	"github.com/pathmorph/pathmorph/internal/infra/replay"
	"github.com/pathmorph/pathmorph/pkg/common/logger"
	"github.com/pathmorph/pathmorph/pkg/common/otel"
)

var build = "develop"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}
			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n", r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	ctx := context.Background()

	loader := fileloader.NewFileLoader(*configPath)
	cfg, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithEvents(os.Stdout, logger.ParseLevel(cfg.LogLevel), cfg.ServiceName, traceIDFn, logEvents)

	if err := run(ctx, log, cfg); err != nil {
		log.Error(ctx, "replay failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, cfg *config.Config) error {
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// -------------------------------------------------------------------------
	// Telemetry

	var tp trace.TracerProvider = noop.NewTracerProvider()
	if cfg.Telemetry.Enabled {
		var cleanup func(ctx context.Context)
		var err error
		tp, cleanup, err = otel.InitTelemetry(log, otel.Config{
			ServiceName:      cfg.ServiceName,
			ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
			Probability:      cfg.Telemetry.SampleProbability,
			InsecureExporter: cfg.Telemetry.InsecureExporter,
		})
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer cleanup(ctx)
	}
	tracer := tp.Tracer("replay")

	// -------------------------------------------------------------------------
	// Engine wiring

	registry := plugin.NewRegistry()
	if err := plugins.RegisterAll(registry); err != nil {
		return fmt.Errorf("registering operations: %w", err)
	}
	log.Info(ctx, "operations registered", "operations", registry.IDs())

	// The global meter provider is the SDK one once telemetry is enabled
	// and a no-op otherwise.
	metrics, err := runner.NewMetrics(otelapi.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("creating runner metrics: %w", err)
	}
	batchRunner := runner.New(cfg.Runtime.Workers, log, metrics, tracer)
	selector := plugin.NewSelector(log, tracer)
	invoker := plugin.NewInvoker(selector, batchRunner, &logDisplayer{log: log}, log, tracer)
	replayer := replay.NewReplayer(registry, invoker, prompt.NewSelectAllPrompter(), log, tracer)

	// -------------------------------------------------------------------------
	// Inputs

	hierarchyData, err := os.ReadFile(cfg.HierarchyPath)
	if err != nil {
		return fmt.Errorf("reading hierarchy snapshot: %w", err)
	}
	hierarchy, err := replay.DecodeHierarchy(hierarchyData)
	if err != nil {
		return err
	}

	workflowData, err := os.ReadFile(cfg.WorkflowPath)
	if err != nil {
		return fmt.Errorf("reading workflow document: %w", err)
	}
	steps, err := replay.DecodeWorkflow(workflowData)
	if err != nil {
		return err
	}
	log.Info(ctx, "inputs loaded",
		"hierarchy", cfg.HierarchyPath,
		"workflow", cfg.WorkflowPath,
		"step_count", len(steps),
	)

	// -------------------------------------------------------------------------
	// Replay

	sess := plugin.NewSession(hierarchy)
	if err := replayer.Replay(ctx, steps, sess); err != nil {
		return err
	}

	if cfg.OutputPath != "" {
		out, err := replay.EncodeHierarchy(sess.Hierarchy)
		if err != nil {
			return fmt.Errorf("encoding result hierarchy: %w", err)
		}
		if err := os.WriteFile(cfg.OutputPath, out, 0o644); err != nil {
			return fmt.Errorf("writing result hierarchy: %w", err)
		}
		log.Info(ctx, "result hierarchy written", "path", cfg.OutputPath)
	}

	log.Info(ctx, "replay complete", "steps_applied", sess.History.Len())
	return nil
}

// logDisplayer presents invocation results through the structured log.
type logDisplayer struct {
	log *logger.Logger
}

func (d *logDisplayer) ShowResult(ctx context.Context, operationName, summary string, status execution.RunStatus) {
	d.log.Info(ctx, "operation result",
		"operation", operationName,
		"summary", summary,
		"status", status.String(),
	)
}
