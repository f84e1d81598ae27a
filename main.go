package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
	"github.com/nrtkbb/nebula/cmd/inspect"
	"github.com/nrtkbb/nebula/cmd/keywords"
	"github.com/nrtkbb/nebula/cmd/serve"
	"github.com/nrtkbb/nebula/cmd/snapshot"
	"github.com/nrtkbb/nebula/cmd/snapshots"
	"github.com/nrtkbb/nebula/cmd/testdata"
	"github.com/nrtkbb/nebula/cmd/version"
	"github.com/nrtkbb/nebula/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// initTracer initializes the OpenTelemetry tracer provider. Spans are only
// exported, to stderr, when toStdout is set.
func initTracer(toStdout bool) (*sdktrace.TracerProvider, error) {
	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("nebula"),
		semconv.ServiceVersion(version.Version),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	}
	if toStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return tp, nil
}

func main() {
	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	tp, err := initTracer(cfg.TraceStdout)
	if err != nil {
		log.Fatal(err)
	}
	// Register subcommands
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&serve.Command{Config: cfg}, "")
	subcommands.Register(&inspect.Command{Config: cfg}, "folders")
	subcommands.Register(&snapshot.Command{Config: cfg}, "folders")
	subcommands.Register(&snapshots.Command{Config: cfg}, "folders")
	subcommands.Register(&keywords.Command{Config: cfg}, "text")
	subcommands.Register(&version.Command{}, "")
	subcommands.Register(&testdata.Command{}, "")

	// Set the default subcommand to help if no subcommand is specified
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	// Execute the specified subcommand
	ctx := context.Background()
	status := subcommands.Execute(ctx)
	if err := tp.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down tracer provider: %v", err)
	}
	os.Exit(int(status))
}
