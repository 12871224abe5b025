package primary

import "context"

// GenerationService defines the primary port for driving the remote generation pipeline.
type GenerationService interface {
	// Generate runs the pipeline for a site and optionally saves the result.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest contains parameters for a generation run.
type GenerateRequest struct {
	WebsiteURL       string
	Kind             string
	Save             bool // save to the document root after finalizing
	ConfirmOverwrite bool
	// Progress, when set, is called after every batch.
	Progress func(processed, total int)
}

// GenerateResponse contains the generated text and, if requested, the save result.
type GenerateResponse struct {
	JobID       string
	SummaryText string
	FullText    string
	ZipMode     bool
	ZipData     []byte
	Save        *SaveResponse
}
