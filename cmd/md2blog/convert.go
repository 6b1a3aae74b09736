package main

import (
	"context"
	"fmt"

	md2blog "github.com/alnah/go-md2blog"
)

// runConvert exports notes as standalone HTML previews.
func runConvert(ctx context.Context, args []string, f *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(f.workers); err != nil {
		return err
	}

	s, err := openSession(&f.common, f.style, f.timeout, !f.noUpload, env)
	if err != nil {
		return err
	}
	defer s.Close()

	outputDir := f.output
	if outputDir == "" {
		outputDir = s.cfg.Output.DefaultDir
	}

	notes, err := discoverNotes(s.vault, args, outputDir)
	if err != nil {
		return fmt.Errorf("discovering notes: %w", err)
	}
	if len(notes) == 0 {
		return fmt.Errorf("%w: no markdown notes in %s", ErrNoInput, s.vault.Root())
	}

	workers := f.workers
	if workers == 0 {
		workers = loadEnvConfig().Workers
	}
	poolSize := md2blog.ResolvePoolSize(workers)
	s.log.Debug("starting export", "notes", len(notes), "workers", poolSize)

	pool := md2blog.NewConverterPool(poolSize, s.setup.opts...)
	defer pool.Close()

	results := convertBatch(ctx, &poolAdapter{pool: pool}, notes)

	failed := printResultsWithWriter(results, f.common.quiet, f.common.verbose, env)
	switch {
	case failed == 0:
		return nil
	case len(results) == 1:
		return results[0].Err
	default:
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
}
