// Command periodicctl runs maintenance tasks against the configured store.
//
// Usage:
//
//	periodicctl seed -source elements.json
//	periodicctl seed -source s3://bucket/elements.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jacentio/periodic/config"
	"github.com/jacentio/periodic/internal/app"
	"github.com/jacentio/periodic/seed"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "periodicctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: periodicctl seed -source <path|s3://bucket/key>")
	}
	switch args[0] {
	case "seed":
		return runSeed(ctx, args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSeed(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("PERIODIC_CONFIG"), "path to a YAML configuration file")
	source := fs.String("source", "", "JSON array of elements: a local path or s3://bucket/key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" {
		return fmt.Errorf("seed: -source is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var objects seed.ObjectGetter
	if strings.HasPrefix(*source, "s3://") {
		client, err := a.S3(ctx)
		if err != nil {
			return err
		}
		objects = client
	}

	rep, err := seed.NewLoader(objects, logger).Load(ctx, a.Service, *source)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created %d, failed %d\n", rep.Created, rep.Failed)
	return nil
}
