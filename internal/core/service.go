package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/fundsheet/internal/logging"
	"github.com/JonMunkholm/fundsheet/internal/metrics"
	"github.com/google/uuid"
)

// DefaultIngestTimeout bounds a single ingestion once it holds a slot.
const DefaultIngestTimeout = 10 * time.Minute

// allowedExtensions are the spreadsheet extensions accepted for ingestion.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// SheetCodec reads and writes workbook files as grids.
// The implementation lives in internal/sheet.
type SheetCodec interface {
	// ReadGrid reads the first sheet of the workbook at path.
	// Unreadable workbooks are reported as *FormatError.
	ReadGrid(path string) (*Grid, error)

	// WriteGrid writes g as a single-sheet workbook named sheet.
	WriteGrid(w io.Writer, g *Grid, sheet string) error
}

// ServiceOptions tunes a Service. Zero values select defaults.
type ServiceOptions struct {
	Table         string        // records table (default funding_data)
	HeaderRows    int           // leading sheet rows skipped on ingest
	RetainUploads bool          // keep ingested files instead of deleting them
	ExportDir     string        // temp export directory (default os.TempDir())
	MaxConcurrent int           // parallel ingestions
	MaxWait       time.Duration // wait for an ingestion slot
	IngestTimeout time.Duration // bound on one ingestion
}

// Service orchestrates ingestion, search and export over a Store.
type Service struct {
	store   Store
	codec   SheetCodec
	reg     *Registry
	builder *Builder
	limiter *IngestLimiter
	opts    ServiceOptions
}

// NewService creates a Service over the funding registry.
func NewService(store Store, codec SheetCodec, opts ServiceOptions) *Service {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}
	if opts.HeaderRows < 0 {
		opts.HeaderRows = 0
	}
	if opts.ExportDir == "" {
		opts.ExportDir = os.TempDir()
	}
	if opts.IngestTimeout <= 0 {
		opts.IngestTimeout = DefaultIngestTimeout
	}

	reg := Funding()
	return &Service{
		store:   store,
		codec:   codec,
		reg:     reg,
		builder: NewBuilder(reg, opts.Table),
		limiter: NewIngestLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:    opts,
	}
}

// Registry returns the registry backing the service.
func (s *Service) Registry() *Registry {
	return s.reg
}

// Init creates the records table when it does not exist.
func (s *Service) Init(ctx context.Context) error {
	if err := s.store.EnsureSchema(ctx); err != nil {
		return &PersistenceError{Op: "init", Err: err}
	}
	return nil
}

// IngestFile ingests an uploaded workbook stored at path. originalName is
// the name the caller gave the file and decides whether it is accepted; a
// rejected file is deleted before returning [UnsupportedFileTypeError]. An
// accepted file is deleted after ingestion unless uploads are retained.
func (s *Service) IngestFile(ctx context.Context, path, originalName string) (*IngestResult, error) {
	if err := checkExtension(originalName); err != nil {
		s.removeArtifact(ctx, path, "rejected upload")
		return nil, err
	}
	if !s.opts.RetainUploads {
		defer s.removeArtifact(ctx, path, "ingested upload")
	}
	return s.ingestWorkbook(ctx, path, originalName)
}

// ImportFile ingests a workbook owned by the caller. The file is never
// removed.
func (s *Service) ImportFile(ctx context.Context, path string) (*IngestResult, error) {
	name := filepath.Base(path)
	if err := checkExtension(name); err != nil {
		return nil, err
	}
	return s.ingestWorkbook(ctx, path, name)
}

func checkExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		metrics.OperationsTotal.WithLabelValues("ingest", "rejected").Inc()
		return &UnsupportedFileTypeError{FileName: name, Ext: ext}
	}
	return nil
}

func (s *Service) ingestWorkbook(ctx context.Context, path, name string) (*IngestResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	grid, err := s.codec.ReadGrid(path)
	if err != nil {
		var fe *FormatError
		if !errors.As(err, &fe) {
			err = &FormatError{Reason: "cannot read workbook", Err: err}
		}
		metrics.OperationsTotal.WithLabelValues("ingest", "error").Inc()
		return nil, err
	}

	res, err := s.ingest(ctx, grid)
	if res != nil {
		res.FileName = name
	}
	return res, err
}

// Ingest decodes grid and inserts its records one at a time, in row order,
// without a transaction. The first failed insert aborts the ingestion with a
// [PersistenceError] naming the sheet row and how many rows were stored
// before it; those rows remain stored.
//
// Cancellation of ctx does not interrupt a started ingestion; the
// configured ingestion timeout still applies.
func (s *Service) Ingest(ctx context.Context, grid *Grid) (*IngestResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.ingest(ctx, grid)
}

func (s *Service) ingest(ctx context.Context, grid *Grid) (res *IngestResult, err error) {
	start := time.Now()
	defer func() { metrics.Observe("ingest", start, err) }()

	id := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.IngestTimeout)
	defer cancel()
	ctx = logging.WithIngestID(ctx, id)
	logger := logging.WithFields(ctx,
		"source", SourceFromContext(ctx),
		"client_ip", ClientIPFromContext(ctx),
	)

	rr, err := Decode(grid, s.reg, DecodeOptions{SkipRows: s.opts.HeaderRows})
	if err != nil {
		logger.Warn("ingest rejected", "error", err)
		return nil, err
	}

	res = &IngestResult{ID: id, Rows: rr.Remaining()}
	logger.Info("ingest started", "rows", res.Rows, "ref", grid.Ref)

	for rr.Next() {
		values := CoerceRecord(s.reg, rr.Record())
		if err := s.store.InsertRecord(ctx, values); err != nil {
			res.Duration = time.Since(start)
			logger.Error("ingest aborted",
				"row", rr.Row(),
				"inserted", res.Inserted,
				"error", err,
			)
			return res, &PersistenceError{Op: "ingest", Row: rr.Row(), Inserted: res.Inserted, Err: err}
		}
		res.Inserted++
		metrics.RowsIngested.Inc()
	}

	res.Duration = time.Since(start)
	logger.Info("ingest completed",
		"inserted", res.Inserted,
		"duration", res.Duration,
	)
	return res, nil
}

// Search returns the distinct records matching any predicate derived from
// c. No match is an empty slice, not an error.
func (s *Service) Search(ctx context.Context, c SearchCriteria) (records []Record, err error) {
	start := time.Now()
	defer func() { metrics.Observe("search", start, err) }()

	records, err = s.find(ctx, c, "search")
	if err != nil {
		return nil, err
	}
	metrics.RowsReturned.WithLabelValues("search").Add(float64(len(records)))
	logging.FromContext(ctx).Debug("search completed", "rows", len(records))
	return records, nil
}

func (s *Service) find(ctx context.Context, c SearchCriteria, op string) ([]Record, error) {
	q, err := s.builder.Build(c)
	if err != nil {
		return nil, err
	}
	records, err := s.store.FindRecords(ctx, q)
	if err != nil {
		return nil, &PersistenceError{Op: op, Err: err}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Export writes the records matching c to a temporary workbook and hands the
// open file, positioned at its start, to deliver. The workbook is removed
// on every path once deliver returns. A search with no match returns
// [EmptyResultError] and creates no file.
func (s *Service) Export(ctx context.Context, c SearchCriteria, deliver func(f *os.File) error) (err error) {
	start := time.Now()
	defer func() { metrics.Observe("export", start, err) }()

	records, err := s.find(ctx, c, "export")
	if err != nil {
		return err
	}
	grid, err := ExportGrid(records, s.reg)
	if err != nil {
		return err
	}

	path := filepath.Join(s.opts.ExportDir, "export-"+uuid.NewString()+".xlsx")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return &ExportIOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		f.Close()
		s.removeArtifact(ctx, path, "export workbook")
	}()

	if err := s.codec.WriteGrid(f, grid, ExportSheetName); err != nil {
		return &ExportIOError{Op: "write", Path: path, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &ExportIOError{Op: "rewind", Path: path, Err: err}
	}

	metrics.RowsReturned.WithLabelValues("export").Add(float64(len(records)))
	logging.FromContext(ctx).Info("export ready", "rows", len(records))

	if err := deliver(f); err != nil {
		return fmt.Errorf("deliver export: %w", err)
	}
	return nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus reports ingestion slot usage.
func (s *Service) LimiterStatus() IngestLimiterStatus {
	return s.limiter.Status()
}

// Drain waits for running ingestions to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) acquire(ctx context.Context) error {
	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.OperationsTotal.WithLabelValues("ingest", "throttled").Inc()
		return err
	}
	metrics.IngestsInFlight.Inc()
	return nil
}

func (s *Service) release() {
	metrics.IngestsInFlight.Dec()
	s.limiter.Release()
}

// removeArtifact deletes a file best-effort; failures are logged only.
func (s *Service) removeArtifact(ctx context.Context, path, what string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("failed to remove "+what, "path", path, "error", err)
	}
}
