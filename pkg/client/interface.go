package client

import (
	"context"

	"github.com/menta2k/skin-analyzer/pkg/types"
)

// VisionClient is a vision-language model backend able to answer skin
// analysis prompts in the remote analysis JSON schema.
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeSkin(ctx context.Context, model, prompt, imgB64 string) (*types.RemoteAnalysis, error)
}
