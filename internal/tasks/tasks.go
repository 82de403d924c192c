package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/notenexus/internal/formatter"
	"github.com/desertthunder/notenexus/internal/models"
	"github.com/desertthunder/notenexus/internal/shared"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 20.0
	manifestName     = "export_manifest.json"
)

// Source is the read side of the user table.
type Source interface {
	Users() []*models.User
	ListAll(userID string) (models.SavedContent, error)
}

// BulkExportOpts contains configuration for bulk exports.
type BulkExportOpts struct {
	Format     formatter.Format // csv, markdown or text
	OutputDir  string           // Base output directory (default: saved_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Users read per second (default: 20)
}

// UserExportJob is one user's content queued for rendering.
type UserExportJob struct {
	UserID  string
	Email   string
	Content models.SavedContent
}

// UserExportResult reports the files written for one user.
type UserExportResult struct {
	UserID       string   `json:"userId"`
	Email        string   `json:"email"`
	Success      bool     `json:"success"`
	Files        []string `json:"files"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	Format            formatter.Format   `json:"format"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	TotalUsers        int                `json:"totalUsers"`
	SuccessfulExports int                `json:"successfulExports"`
	FailedExports     int                `json:"failedExports"`
	OutputDirectory   string             `json:"outputDirectory"`
	ManifestPath      string             `json:"-"`
	Results           []UserExportResult `json:"results"`
}

// Exporter renders saved content for many users at once.
type Exporter struct {
	source Source
	logger *log.Logger
	now    func() time.Time
}

// NewExporter creates an [Exporter] reading from source.
func NewExporter(source Source, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{source: source, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkExport exports every user's saved content concurrently with rate limiting and progress tracking.
//
// Reads are throttled by a limiter, rendering runs on a bounded worker pool and a manifest
// summarizing every user's outcome is written last. A failure for one user is recorded in
// its result and does not stop the run.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	format, err := formatter.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("saved_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	users := e.source.Users()
	result := &BulkExportResult{
		Format:          opts.Format,
		GeneratedAt:     e.now().UTC(),
		TotalUsers:      len(users),
		OutputDirectory: opts.OutputDir,
		Results:         make([]UserExportResult, 0, len(users)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan UserExportJob, len(users))
	results := make(chan UserExportResult, len(users))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, fetchingUsersUpdate(len(users)))
		for i, u := range users {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			content, err := e.source.ListAll(u.ID)
			if err != nil {
				results <- UserExportResult{
					UserID: u.ID,
					Email:  u.Email,
					Error:  fmt.Errorf("failed to read saved content: %w", err),
				}
				continue
			}

			jobs <- UserExportJob{UserID: u.ID, Email: u.Email, Content: content}
			e.sendProgress(prog, exportingUserUpdate(i+1, len(users), u.Email))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.ErrorMessage = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(users), res))
		} else {
			result.FailedExports++
			e.logger.Warn("export failed", "user", res.Email, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(users), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("bulk export finished", "users", result.TotalUsers, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker renders jobs until the channel closes or ctx is cancelled.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan UserExportJob,
	results chan<- UserExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportUser(job, opts)
	}
}

// exportUser writes one user's content in the requested format. Files are named by user ID.
func (e *Exporter) exportUser(j UserExportJob, opts BulkExportOpts) UserExportResult {
	result := UserExportResult{UserID: j.UserID, Email: j.Email, Files: []string{}}
	export := &formatter.Export{Owner: j.Email, GeneratedAt: e.now().UTC(), Content: j.Content}

	switch opts.Format {
	case formatter.FormatCSV:
		res, err := formatter.WriteCSVExport(export, filepath.Join(opts.OutputDir, j.UserID))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{res.ItemsFile, res.MetadataFile}

	case formatter.FormatMarkdown:
		path, err := formatter.WriteMarkdownExport(export, filepath.Join(opts.OutputDir, j.UserID))
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteTextExport(export, filepath.Join(opts.OutputDir, j.UserID+".txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
