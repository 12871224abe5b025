package secondary

import "context"

// GenerationPipeline defines the secondary port for the remote producer of
// artifact text. The pipeline is opaque: it is prepared, fed in batches, then
// finalized.
type GenerationPipeline interface {
	// Prepare starts a job for the site and returns its ID and the number of items to process.
	Prepare(ctx context.Context, websiteURL, outputType string) (*PreparedJob, error)

	// ProcessBatch processes size items starting at start and returns how many were processed.
	ProcessBatch(ctx context.Context, jobID string, start, size int) (int, error)

	// Finalize collects the generated text for the job.
	Finalize(ctx context.Context, jobID string) (*GenerationOutput, error)
}

// PreparedJob is the pipeline's answer to Prepare.
type PreparedJob struct {
	JobID string
	Total int
}

// GenerationOutput is the pipeline's answer to Finalize.
type GenerationOutput struct {
	SummaryText string
	FullText    string
	ZipMode     bool
	ZipData     []byte // decoded archive, only in zip mode
}
