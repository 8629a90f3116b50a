package analysis

import (
	"context"
	"log/slog"

	"github.com/docsift/docsift/sniff"
)

// Orchestrator drives the client through the strategy table until one
// submission succeeds or the table is exhausted.
type Orchestrator struct {
	client *Client
	logger *slog.Logger
}

// NewOrchestrator wires an orchestrator around a client. A nil client yields
// a nil orchestrator: remote analysis unavailable.
func NewOrchestrator(client *Client, logger *slog.Logger) *Orchestrator {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, logger: logger}
}

// Analyze tries every strategy in order, short-circuiting on the first
// success. When all strategies fail it returns (nil, errs): the explicit
// signal for the caller to fall back to local extraction.
func (o *Orchestrator) Analyze(ctx context.Context, data []byte, filename string, det sniff.Detection) (*Result, []error) {
	strategies := BuildStrategies(det, filename)
	var errs []error

	for _, s := range strategies {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			return nil, errs
		}

		o.logger.Debug("trying analysis strategy",
			"strategy", s.Name, "content_type", s.ContentType, "file", filename)

		opURL, err := o.client.Submit(ctx, data, filename, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		result, err := o.client.Poll(ctx, opURL, s.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		o.logger.Info("analysis succeeded",
			"strategy", s.Name, "file", filename, "pages", len(result.Pages), "figures", len(result.Figures))
		return result, nil
	}

	o.logger.Warn("all analysis strategies exhausted",
		"file", filename, "strategies", len(strategies), "errors", len(errs))
	return nil, errs
}
