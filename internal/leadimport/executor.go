package leadimport

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Result messages written to the audit log.
const (
	MessageInserted = "record inserted"
	MessageUpdated  = "record updated"
)

// Executor runs the import pipeline against a lead store.
type Executor struct {
	store       LeadStore
	transformer *Transformer
	logger      *slog.Logger
}

// NewExecutor creates an executor writing to store. A nil logger uses
// slog.Default().
func NewExecutor(store LeadStore, transformer *Transformer, logger *slog.Logger) *Executor {
	if transformer == nil {
		transformer = NewTransformer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{store: store, transformer: transformer, logger: logger}
}

// ParseFile splits file text into the header row and the data lines.
// It enforces the whole-run preconditions on the file itself.
func ParseFile(text string) (Headers, []string, error) {
	lines := SplitLines(text)
	if len(lines) < 2 {
		return nil, nil, ErrNoDataRows
	}

	headers := Headers(TokenizeRow(lines[0]))
	if !HasIdentityColumn(headers) {
		return nil, nil, ErrMissingIdentity
	}
	return headers, lines[1:], nil
}

// Run imports text with mapping. Rows are processed one at a time in file
// order; a failing row is recorded and the run continues. Only the
// precondition errors are returned, and then no row has been touched.
func (e *Executor) Run(ctx context.Context, text string, mapping Mapping, hooks Hooks) (*Report, error) {
	start := time.Now()

	headers, lines, err := ParseFile(text)
	if err != nil {
		return nil, err
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Total: len(lines)}
	progress := Progress{Total: len(lines)}

	e.logger.Info("import started", "rows", len(lines), "mapped_columns", mapping.Len())

	for i, line := range lines {
		rowNum := i + 1

		if !isBlankLine(line) {
			res := e.processRow(ctx, line, headers, mapping, rowNum)
			report.add(res)
			if hooks.OnRow != nil {
				hooks.OnRow(res)
			}
		}

		progress.Processed++
		if hooks.OnProgress != nil {
			hooks.OnProgress(progress)
		}
	}

	report.Duration = time.Since(start)

	e.logger.Info("import completed",
		"rows", report.Total,
		"inserted", report.Success,
		"updated", report.Warning,
		"failed", report.Error,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// processRow transforms and writes one data row.
func (e *Executor) processRow(ctx context.Context, line string, headers Headers, mapping Mapping, rowNum int) RowResult {
	row := TokenizeRow(line)
	res := RowResult{Row: rowNum, DisplayName: DisplayName(row, headers)}

	lead, err := e.transformer.TransformRow(row, headers, mapping, rowNum)
	if err != nil {
		e.logger.Warn("row transform failed", "row", rowNum, "error", err)
		res.Status = ResultError
		res.Message = err.Error()
		return res
	}

	existingID, err := e.findExisting(ctx, IdentityValue(row, headers))
	if err != nil {
		e.logger.Warn("lead lookup failed", "row", rowNum, "error", err)
		res.Status = ResultError
		res.Message = fmt.Sprintf("lookup: %v", err)
		return res
	}

	if existingID != "" {
		if err := e.store.Update(ctx, existingID, lead); err != nil {
			e.logger.Warn("lead update failed", "row", rowNum, "lead_id", existingID, "error", err)
			res.Status = ResultError
			res.Message = fmt.Sprintf("update: %v", err)
			return res
		}
		res.Status = ResultWarning
		res.Message = MessageUpdated
		return res
	}

	if _, err := e.store.Insert(ctx, lead); err != nil {
		e.logger.Warn("lead insert failed", "row", rowNum, "error", err)
		res.Status = ResultError
		res.Message = fmt.Sprintf("insert: %v", err)
		return res
	}
	res.Status = ResultSuccess
	res.Message = MessageInserted
	return res
}

// findExisting returns the ID of the oldest lead carrying the identity
// marker. Extra matches are ignored. Rows without an identity always insert.
func (e *Executor) findExisting(ctx context.Context, identity string) (string, error) {
	if identity == "" {
		return "", nil
	}

	matches, err := e.store.FindByNotesContaining(ctx, IdentityMarker(identity))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	if len(matches) > 1 {
		e.logger.Debug("multiple leads share identity marker", "identity", identity, "matches", len(matches))
	}
	return matches[0].ID, nil
}
