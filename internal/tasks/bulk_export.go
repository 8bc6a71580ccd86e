package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"soundlens/internal/formatter"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
)

// BulkExportOpts contains configuration for bulk track list exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: soundlens_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Requests per second against Spotify (default: 5)
}

// ListExportJob is one fetched track list queued for writing.
type ListExportJob struct {
	Name string
	List formatter.TrackList
}

// ListExportResult records the outcome of exporting a single track list.
type ListExportResult struct {
	Name    string
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarizes a full bulk export run.
type BulkExportResult struct {
	TotalLists        int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []ListExportResult
}

// BulkExport fetches every dashboard track list (top tracks per time range
// plus the recently played window) and writes each to disk concurrently.
//
// This method implements a worker pool pattern: a single fetcher respects the
// Spotify rate limit while workers write files, handling partial failures
// gracefully and generating a manifest file summarizing the results.
func (e *DashboardEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("soundlens_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sections := []struct {
		name  string
		fetch func(context.Context) (formatter.TrackList, error)
	}{
		{"top_short_term", e.topListFetcher(spotify.RangeShort, "Top Tracks (4 weeks)")},
		{"top_medium_term", e.topListFetcher(spotify.RangeMedium, "Top Tracks (6 months)")},
		{"top_long_term", e.topListFetcher(spotify.RangeLong, "Top Tracks (all time)")},
		{"recently_played", e.recentListFetcher()},
	}

	result := &BulkExportResult{
		TotalLists:      len(sections),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ListExportResult, 0, len(sections)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan ListExportJob, len(sections))
	results := make(chan ListExportResult, len(sections))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, section := range sections {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, exportingListUpdate(i+1, len(sections), section.name))

			list, err := section.fetch(ctx)
			if err != nil {
				results <- ListExportResult{
					Name:    section.name,
					Success: false,
					Error:   fmt.Errorf("failed to fetch %s: %w", section.name, err),
				}
				continue
			}

			jobs <- ListExportJob{Name: section.name, List: list}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(sections), res.Name, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(sections), res.Name, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (e *DashboardEngine) topListFetcher(timeRange spotify.TimeRange, title string) func(context.Context) (formatter.TrackList, error) {
	return func(ctx context.Context) (formatter.TrackList, error) {
		tracks, err := e.service.TopTracks(ctx, timeRange, 50)
		if err != nil {
			return formatter.TrackList{}, err
		}
		return formatter.TrackList{Title: title, Tracks: tracks}, nil
	}
}

func (e *DashboardEngine) recentListFetcher() func(context.Context) (formatter.TrackList, error) {
	return func(ctx context.Context) (formatter.TrackList, error) {
		sync, err := e.SyncHistory(ctx, nil)
		if err != nil {
			return formatter.TrackList{}, err
		}
		return formatter.FromEvents("Recently Played", sync.Events), nil
	}
}

// exportWorker is a worker goroutine that writes track lists from the jobs channel.
func (e *DashboardEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan ListExportJob,
	results chan<- ListExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportSingleList(job, opts)
	}
}

// exportSingleList writes a single track list in the requested format.
func exportSingleList(j ListExportJob, opts BulkExportOpts) ListExportResult {
	result := ListExportResult{
		Name:    j.Name,
		Success: false,
		Files:   []string{},
	}

	switch opts.Format {
	case "csv":
		baseFilepath := filepath.Join(opts.OutputDir, j.Name)
		csvRes, err := formatter.WriteCSVExport(j.List, baseFilepath)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile}
		result.Success = true

	case "markdown":
		mdData, err := formatter.ExportToMarkdown(j.List)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		mdPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.md", j.Name))
		if err := os.WriteFile(mdPath, mdData, 0644); err != nil {
			result.Error = fmt.Errorf("markdown write failed: %w", err)
			return result
		}
		result.Files = []string{mdPath}
		result.Success = true

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_tracks.txt", j.Name))
		written, err := formatter.WriteTextExport(j.List, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{written}
		result.Success = true

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s.json", j.Name))
		data, err := shared.MarshalJSON(j.List.Tracks, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
		result.Success = true
	}
	return result
}

type manifest struct {
	Format            string   `json:"format"`
	OutputDirectory   string   `json:"output_directory"`
	TotalLists        int      `json:"total_lists"`
	SuccessfulExports int      `json:"successful_exports"`
	FailedExports     int      `json:"failed_exports"`
	Sections          []string `json:"sections"`
	Failures          []string `json:"failures,omitempty"`
}

func writeManifest(result *BulkExportResult, format, path string) error {
	m := manifest{
		Format:            format,
		OutputDirectory:   result.OutputDirectory,
		TotalLists:        result.TotalLists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
	}
	if m.Format == "" {
		m.Format = "json"
	}

	for _, res := range result.Results {
		if res.Success {
			m.Sections = append(m.Sections, res.Name)
		} else {
			m.Failures = append(m.Failures, fmt.Sprintf("%s: %v", res.Name, res.Error))
		}
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
