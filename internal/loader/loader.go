// Package loader drives the file-load flow: it opens both workbooks, builds
// the SEFAZ error dictionary and ingests the detail sheets, reporting
// weighted progress as it goes.
//
// A Loader moves through idle → loading → success|failure → idle. The
// terminal state is delivered to progress callbacks and kept in Last; the
// loader itself is idle again by the time Load returns.
//
//	l, _ := loader.NewLoader(nil, nil, log)
//	l.AddProgressCallback(func(p loader.Progress) {
//		fmt.Printf("%.0f%% %s\n", p.Percent, p.Step)
//	})
//	ds, err := l.Load(ctx, &loader.Request{RejectionsFile: a, CorrectionsFile: b})
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoice-dashboard/internal/ingest"
	"invoice-dashboard/internal/models"
	"invoice-dashboard/internal/workbook"
	"invoice-dashboard/pkg/errors"
	"invoice-dashboard/pkg/logger"
)

// State is a step of the load flow
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// Progress checkpoints of a load, in percent
const (
	progressReading    = 5
	progressStructure  = 10
	progressDictionary = 20
	rejectionsWeight   = 0.35
	correctionsStart   = 55
	correctionsWeight  = 0.4
	progressDone       = 100
)

// SheetNames are the required sheet names. The SEFAZ list and the
// rejections detail live in the rejections workbook.
type SheetNames struct {
	SefazErrors string `json:"sefaz_errors" mapstructure:"sefaz_errors"`
	Rejections  string `json:"rejections" mapstructure:"rejections"`
	Corrections string `json:"corrections" mapstructure:"corrections"`
}

// DefaultSheetNames returns the sheet names the exports are produced with
func DefaultSheetNames() SheetNames {
	return SheetNames{
		SefazErrors: "Lista Erros Sefaz",
		Rejections:  "Base Consolidado",
		Corrections: "Listagem de Eventos",
	}
}

// Config holds loader configuration
type Config struct {
	Sheets SheetNames     `json:"sheets" mapstructure:"sheets"`
	Ingest *ingest.Config `json:"ingest" mapstructure:"ingest"`
}

// DefaultConfig returns the default loader configuration
func DefaultConfig() *Config {
	return &Config{
		Sheets: DefaultSheetNames(),
		Ingest: ingest.DefaultConfig(),
	}
}

// Validate checks if the loader configuration is valid
func (c *Config) Validate() error {
	if c.Sheets.SefazErrors == "" || c.Sheets.Rejections == "" || c.Sheets.Corrections == "" {
		return fmt.Errorf("all three sheet names are required")
	}
	if c.Ingest != nil {
		if err := c.Ingest.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Request names the two workbooks to load
type Request struct {
	RejectionsFile  string `json:"rejections_file"`
	CorrectionsFile string `json:"corrections_file"`
}

// Validate checks both files are present and are spreadsheets
func (r *Request) Validate() error {
	if r.RejectionsFile == "" {
		return errors.InputError(errors.CodeMissingFile, "rejections", nil)
	}
	if r.CorrectionsFile == "" {
		return errors.InputError(errors.CodeMissingFile, "corrections", nil)
	}
	if err := workbook.ValidateFileType(r.RejectionsFile); err != nil {
		return err
	}
	return workbook.ValidateFileType(r.CorrectionsFile)
}

// Progress is a snapshot of a load
type Progress struct {
	RunID   string        `json:"run_id"`
	State   State         `json:"state"`
	Percent float64       `json:"percent"`
	Step    string        `json:"step"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// ProgressCallback is called synchronously on every progress change
type ProgressCallback func(Progress)

// Loader owns the load flow state machine
type Loader struct {
	config   *Config
	ingestor *ingest.Ingestor
	logger   logger.Logger

	callbacks []ProgressCallback
	progress  Progress
	last      Progress
	started   time.Time
	mutex     sync.RWMutex
}

// NewLoader creates a loader. A nil config uses DefaultConfig; the yielder
// is handed to the ingestor.
func NewLoader(config *Config, yielder ingest.Yielder, log logger.Logger) (*Loader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "loader", config.Sheets, err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	ingestor, err := ingest.NewIngestor(config.Ingest, yielder, log)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ingest.chunk_size", config.Ingest, err)
	}

	return &Loader{
		config:   config,
		ingestor: ingestor,
		logger:   log.WithComponent("loader"),
		progress: Progress{State: StateIdle},
	}, nil
}

// AddProgressCallback adds a progress callback function
func (l *Loader) AddProgressCallback(callback ProgressCallback) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// State returns the current state
func (l *Loader) State() State {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.progress.State
}

// Progress returns the latest progress snapshot
func (l *Loader) Progress() Progress {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.progress
}

// Last returns the terminal snapshot of the latest finished load, or an idle
// snapshot when none has finished since the last Reset
func (l *Loader) Last() Progress {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if l.last.State == "" {
		return Progress{State: StateIdle}
	}
	return l.last
}

// Reset forgets the outcome of the latest load. It is a no-op while loading.
func (l *Loader) Reset() {
	l.mutex.Lock()
	if l.progress.State == StateLoading {
		l.mutex.Unlock()
		return
	}
	l.progress = Progress{State: StateIdle}
	l.last = Progress{}
	callbacks := l.callbacks
	snapshot := l.progress
	l.mutex.Unlock()

	for _, cb := range callbacks {
		cb(snapshot)
	}
}

// Load reads both workbooks into a Dataset. Input errors are returned before
// the loader leaves idle. Any later failure aborts the whole run: no partial
// dataset is returned and Last reports StateFailure.
func (l *Loader) Load(ctx context.Context, req *Request) (*models.Dataset, error) {
	if req == nil {
		return nil, errors.InputError(errors.CodeMissingFile, "rejections", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID, err := l.begin()
	if err != nil {
		return nil, err
	}

	log := l.logger.WithFields(logger.Fields{
		"run_id":           runID,
		"rejections_file":  req.RejectionsFile,
		"corrections_file": req.CorrectionsFile,
	})
	log.Info("Starting load")

	ds, err := l.load(ctx, req, log)
	if err != nil {
		log.WithError(err).Error("Load failed")
		l.finish(StateFailure, UserMessage(err))
		return nil, err
	}

	log.WithFields(logger.Fields{
		"rejections":   len(ds.Rejections),
		"corrections":  len(ds.Corrections),
		"sefaz_errors": len(ds.SefazErrors),
		"elapsed":      time.Since(l.started).String(),
	}).Info("Load completed")
	l.finish(StateSuccess, "")
	return ds, nil
}

func (l *Loader) load(ctx context.Context, req *Request, log logger.Logger) (*models.Dataset, error) {
	l.report(progressReading, "Reading files")
	rejectionsWb, err := workbook.Open(req.RejectionsFile)
	if err != nil {
		return nil, err
	}
	defer rejectionsWb.Close()

	correctionsWb, err := workbook.Open(req.CorrectionsFile)
	if err != nil {
		return nil, err
	}
	defer correctionsWb.Close()

	l.report(progressStructure, "Analysing workbook structure")
	sefaz, err := l.readSefazErrors(rejectionsWb)
	if err != nil {
		return nil, err
	}
	log.WithField("codes", len(sefaz)).Debug("Built SEFAZ error dictionary")
	l.report(progressDictionary, "SEFAZ error dictionary built")

	rejections, err := l.readSheet(ctx, rejectionsWb, l.config.Sheets.Rejections, func(p float64) {
		l.report(progressDictionary+p*rejectionsWeight, "Processing rejections")
	})
	if err != nil {
		return nil, err
	}

	corrections, err := l.readSheet(ctx, correctionsWb, l.config.Sheets.Corrections, func(p float64) {
		l.report(correctionsStart+p*correctionsWeight, "Processing corrections")
	})
	if err != nil {
		return nil, err
	}

	l.report(progressDone, "Load complete")
	return &models.Dataset{
		Rejections:  rejections,
		Corrections: corrections,
		SefazErrors: sefaz,
	}, nil
}

func (l *Loader) readSefazErrors(wb workbook.Workbook) (models.SefazErrorMap, error) {
	sheet, err := workbook.ResolveSheet(wb, l.config.Sheets.SefazErrors)
	if err != nil {
		return nil, err
	}
	cells, err := wb.Rows(sheet)
	if err != nil {
		return nil, errors.StructuralError(errors.CodeRowExtraction, wb.Path(), sheet, err)
	}
	return models.NewSefazErrorMap(workbook.Pairs(cells)), nil
}

func (l *Loader) readSheet(ctx context.Context, wb workbook.Workbook, name string, onProgress ingest.ProgressFunc) ([]models.RawRow, error) {
	sheet, err := workbook.ResolveSheet(wb, name)
	if err != nil {
		return nil, err
	}
	cells, err := wb.Rows(sheet)
	if err != nil {
		return nil, errors.StructuralError(errors.CodeRowExtraction, wb.Path(), sheet, err)
	}

	rows, err := l.ingestor.IngestSource(ctx, workbook.NewSheet(sheet, cells), onProgress)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.InternalError(errors.CodeCancelled, "load", err)
		}
		return nil, errors.StructuralError(errors.CodeRowExtraction, wb.Path(), sheet, err)
	}
	return rows, nil
}

func (l *Loader) begin() (string, error) {
	l.mutex.Lock()
	if l.progress.State == StateLoading {
		l.mutex.Unlock()
		return "", errors.New(errors.CategoryInternal, errors.CodeUnexpectedError, "a load is already in progress").
			WithSuggestion("wait for the current load to finish")
	}
	runID := uuid.New().String()
	l.started = time.Now()
	l.progress = Progress{RunID: runID, State: StateLoading}
	l.mutex.Unlock()

	l.report(0, "Starting")
	return runID, nil
}

// finish publishes the terminal state, then settles the loader back to idle
func (l *Loader) finish(state State, message string) {
	l.mutex.Lock()
	l.progress.State = state
	l.progress.Error = message
	l.progress.Elapsed = time.Since(l.started)
	l.mutex.Unlock()
	l.notify()

	l.mutex.Lock()
	l.last = l.progress
	l.progress = Progress{State: StateIdle}
	l.mutex.Unlock()
}

func (l *Loader) report(percent float64, step string) {
	l.mutex.Lock()
	l.progress.Percent = percent
	l.progress.Step = step
	l.progress.Elapsed = time.Since(l.started)
	l.mutex.Unlock()
	l.notify()
}

func (l *Loader) notify() {
	l.mutex.RLock()
	snapshot := l.progress
	callbacks := l.callbacks
	l.mutex.RUnlock()

	for _, cb := range callbacks {
		cb(snapshot)
	}
}

// UserMessage renders a load failure as the one-line banner shown to users
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if de, ok := errors.AsDashboardError(err); ok {
		msg = de.Message
	}
	return fmt.Sprintf("Erro no processamento: %s. Verifique os nomes das abas.", msg)
}
