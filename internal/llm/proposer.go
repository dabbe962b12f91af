package llm

import (
	"context"

	"stacli/internal/prompt"
	"stacli/internal/remediation"
)

// FixProposer adapts the Gemini client to the remediation loop: it renders
// the request into the fix prompt and returns the raw model text.
type FixProposer struct {
	Client *GeminiClient
}

func (p *FixProposer) ProposeFix(ctx context.Context, req remediation.ProposalRequest) string {
	return p.Client.Query(ctx, prompt.Fix(req))
}
