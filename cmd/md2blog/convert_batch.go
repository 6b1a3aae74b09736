package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	md2blog "github.com/alnah/go-md2blog"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input md2blog.Input) (*md2blog.Bundle, error)
	Preview(ctx context.Context, b *md2blog.Bundle, extraCSS string, mapPath md2blog.PathMapper) (string, error)
	Refresh()
}

// Compile-time interface implementation check.
var _ CLIConverter = (*md2blog.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
}

// ConversionResult holds the outcome of a single export.
type ConversionResult struct {
	Note       string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch exports notes concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, notes []NoteToExport) []ConversionResult {
	if len(notes) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(notes))

	results := make([]ConversionResult, len(notes))
	var wg sync.WaitGroup
	jobs := make(chan int, len(notes))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						Note: notes[idx].Note,
						Err:  fmt.Errorf("creating converter: %w", err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						Note: notes[idx].Note,
						Err:  ctx.Err(),
					}
					continue
				}
				results[idx] = exportNote(ctx, conv, notes[idx])
			}
		}()
	}

	for i := range notes {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// exportNote converts one note and writes its preview page.
func exportNote(ctx context.Context, conv CLIConverter, n NoteToExport) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		Note:       n.Note,
		OutputPath: n.OutputPath,
	}

	bundle, err := conv.Convert(ctx, md2blog.Input{Path: n.Note})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	page, err := conv.Preview(ctx, bundle, "", nil)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(n.OutputPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- previews are meant to be readable
	if err := os.WriteFile(n.OutputPath, []byte(page), filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed exports.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed exports.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs export results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Note, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Note, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
