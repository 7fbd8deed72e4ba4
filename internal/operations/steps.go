package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yieldcli/internal/exporter"
	"yieldcli/internal/sources"
	"yieldcli/internal/yieldengine"
	"yieldcli/pkg/contracts/domain"
)

// Step IDs
const (
	StepIDReference = "reference"
	StepIDExchange  = "exchange"
	StepIDDealer    = "dealer"
	StepIDResolve   = "resolve"
	StepIDExport    = "export"
	StepIDWorkbook  = "workbook"
)

// PathFunc maps a run date to a file path
type PathFunc func(runDate time.Time) string

// FixedPath always returns path
func FixedPath(path string) PathFunc {
	return func(time.Time) string { return path }
}

// ReferenceStep loads the benchmark yields
type ReferenceStep struct {
	BaseStep
	loader *sources.Loader
	path   PathFunc
}

// NewReferenceStep creates the benchmark yield collection step
func NewReferenceStep(loader *sources.Loader, path PathFunc) *ReferenceStep {
	return &ReferenceStep{BaseStep: NewBaseStep(StepIDReference, "Benchmark Yields"), loader: loader, path: path}
}

// Execute implements Step
func (s *ReferenceStep) Execute(ctx context.Context, state *OperationState) error {
	path := s.path(state.RunDate)
	table, err := s.loader.LoadReference(ctx, path)
	if err != nil {
		return err
	}
	recordTable(state, s.ID(), path, table.Len())
	state.SetContext(ContextKeyReference, table)
	return nil
}

// ExchangeStep loads the exchange trading report
type ExchangeStep struct {
	BaseStep
	loader *sources.Loader
	path   PathFunc
}

// NewExchangeStep creates the exchange report collection step
func NewExchangeStep(loader *sources.Loader, path PathFunc) *ExchangeStep {
	return &ExchangeStep{BaseStep: NewBaseStep(StepIDExchange, "Exchange Trading Report"), loader: loader, path: path}
}

// Execute implements Step
func (s *ExchangeStep) Execute(ctx context.Context, state *OperationState) error {
	path := s.path(state.RunDate)
	table, err := s.loader.LoadExchangeReport(ctx, path)
	if err != nil {
		return err
	}
	recordTable(state, s.ID(), path, table.Len())
	state.SetContext(ContextKeyExchange, table)
	return nil
}

// DealerStep loads the dealer pricing sheet
type DealerStep struct {
	BaseStep
	loader *sources.Loader
	path   PathFunc
}

// NewDealerStep creates the dealer sheet collection step
func NewDealerStep(loader *sources.Loader, path PathFunc) *DealerStep {
	return &DealerStep{BaseStep: NewBaseStep(StepIDDealer, "Dealer Pricing Sheet"), loader: loader, path: path}
}

// Execute implements Step
func (s *DealerStep) Execute(ctx context.Context, state *OperationState) error {
	path := s.path(state.RunDate)
	sheet, err := s.loader.LoadDealerSheet(ctx, path)
	if err != nil {
		return err
	}
	recordTable(state, s.ID(), path, sheet.Linked.Len()+sheet.Nominal.Len())
	state.SetContext(ContextKeyDealer, sheet)
	return nil
}

func recordTable(state *OperationState, stepID, path string, rows int) {
	if s := state.GetStep(stepID); s != nil {
		s.SetMetadata("path", path)
		s.SetMetadata("rows", rows)
	}
}

// ResolveStep runs the closing yield engine on the collected inputs
type ResolveStep struct {
	BaseStep
	engine *yieldengine.Engine
	logger *slog.Logger
}

// NewResolveStep creates the resolution step
func NewResolveStep(engine *yieldengine.Engine, logger *slog.Logger) *ResolveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveStep{
		BaseStep: NewBaseStep(StepIDResolve, "Resolve Closing Yields", StepIDReference, StepIDExchange, StepIDDealer),
		engine:   engine,
		logger:   logger,
	}
}

// Validate requires all three inputs in the context
func (s *ResolveStep) Validate(state *OperationState) error {
	for _, key := range []string{ContextKeyReference, ContextKeyExchange, ContextKeyDealer} {
		if _, ok := state.GetContext(key); !ok {
			return fmt.Errorf("missing input %s", key)
		}
	}
	return nil
}

// Execute implements Step
func (s *ResolveStep) Execute(ctx context.Context, state *OperationState) error {
	reference, _ := contextValue[*domain.Table](state, ContextKeyReference)
	exchange, _ := contextValue[*domain.Table](state, ContextKeyExchange)
	dealer, _ := contextValue[*domain.DealerSheet](state, ContextKeyDealer)

	res, err := s.engine.Resolve(ctx, domain.Sources{
		Reference: reference,
		Exchange:  exchange,
		Dealer:    dealer,
	}, state.RunDate)
	if err != nil {
		return err
	}
	res.Summary.Log(ctx, s.logger)

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("rows", len(res.Results))
		st.SetMetadata("resolved", res.Summary.Resolved)
	}
	state.SetContext(ContextKeyResolution, res)
	return nil
}

// resolutionInput validates that the resolve step produced its output
func resolutionInput(state *OperationState) error {
	if res, ok := contextValue[*yieldengine.Resolution](state, ContextKeyResolution); !ok || res == nil {
		return fmt.Errorf("missing input %s", ContextKeyResolution)
	}
	return nil
}

// ExportStep writes the closing yields CSV
type ExportStep struct {
	BaseStep
	writer *exporter.CSVWriter
	path   PathFunc
}

// NewExportStep creates the CSV export step
func NewExportStep(writer *exporter.CSVWriter, path PathFunc) *ExportStep {
	return &ExportStep{BaseStep: NewBaseStep(StepIDExport, "Export Closing Yields", StepIDResolve), writer: writer, path: path}
}

// Validate implements Step
func (s *ExportStep) Validate(state *OperationState) error {
	return resolutionInput(state)
}

// Execute implements Step
func (s *ExportStep) Execute(_ context.Context, state *OperationState) error {
	res, _ := contextValue[*yieldengine.Resolution](state, ContextKeyResolution)
	path, err := s.writer.WriteResults(s.path(state.RunDate), res.Results)
	if err != nil {
		return err
	}
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("path", path)
		st.SetMetadata("rows", len(res.Results))
	}
	state.SetContext(ContextKeyOutputPath, path)
	return nil
}

// WorkbookStep appends the day's yields to the distribution workbook
type WorkbookStep struct {
	BaseStep
	updater *exporter.WorkbookUpdater
	path    PathFunc
}

// NewWorkbookStep creates the workbook update step
func NewWorkbookStep(updater *exporter.WorkbookUpdater, path PathFunc) *WorkbookStep {
	return &WorkbookStep{BaseStep: NewBaseStep(StepIDWorkbook, "Update Distribution Workbook", StepIDResolve), updater: updater, path: path}
}

// Validate implements Step
func (s *WorkbookStep) Validate(state *OperationState) error {
	return resolutionInput(state)
}

// Execute implements Step
func (s *WorkbookStep) Execute(_ context.Context, state *OperationState) error {
	res, _ := contextValue[*yieldengine.Resolution](state, ContextKeyResolution)
	path := s.path(state.RunDate)
	out, err := s.updater.Append(path, state.RunDate, res.Results)
	if err != nil {
		return err
	}
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("path", path)
		st.SetMetadata("row", out.Row)
		st.SetMetadata("rows", out.Written)
	}
	state.SetContext(ContextKeyWorkbook, out)
	return nil
}

// WorkflowDeps wires the daily workflow
type WorkflowDeps struct {
	Loader        *sources.Loader
	Engine        *yieldengine.Engine
	CSVWriter     *exporter.CSVWriter
	Updater       *exporter.WorkbookUpdater
	ReferencePath PathFunc
	ExchangePath  PathFunc
	DealerPath    PathFunc
	OutputPath    PathFunc
	// WorkbookPath enables the workbook step when set
	WorkbookPath PathFunc
	Logger       *slog.Logger
}

// NewDailyWorkflow registers the collection, resolution and export steps
func NewDailyWorkflow(deps WorkflowDeps) (*Registry, error) {
	if deps.Loader == nil || deps.Engine == nil || deps.CSVWriter == nil {
		return nil, fmt.Errorf("workflow requires a loader, an engine and a csv writer")
	}
	if deps.ReferencePath == nil || deps.ExchangePath == nil || deps.DealerPath == nil || deps.OutputPath == nil {
		return nil, fmt.Errorf("workflow requires reference, exchange, dealer and output paths")
	}

	steps := []Step{
		NewReferenceStep(deps.Loader, deps.ReferencePath),
		NewExchangeStep(deps.Loader, deps.ExchangePath),
		NewDealerStep(deps.Loader, deps.DealerPath),
		NewResolveStep(deps.Engine, deps.Logger),
		NewExportStep(deps.CSVWriter, deps.OutputPath),
	}
	if deps.WorkbookPath != nil && deps.Updater != nil {
		steps = append(steps, NewWorkbookStep(deps.Updater, deps.WorkbookPath))
	}

	registry := NewRegistry()
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
