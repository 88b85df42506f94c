package services

import (
	"context"

	workrequestModels "autohub/internal/domain/models/workrequest"
)

// RequestAnalyzer produces an AI implementation analysis for a work
// request. The returned string is the provider's JSON verdict
// (complexity score, suggested namespaces, strategy, pseudo code).
type RequestAnalyzer interface {
	// Analyze builds the analysis prompt from the request and its
	// image attachments and returns the provider's JSON reply
	Analyze(ctx context.Context, req *workrequestModels.Request) (string, error)

	// Enabled reports whether analysis is configured and switched on
	Enabled() bool
}
