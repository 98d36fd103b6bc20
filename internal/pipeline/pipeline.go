// Package pipeline runs one media file through transcription or one caption
// file through synthesis, wiring the provider packages to configuration,
// the ffmpeg toolchain, the transcript cache and metrics.
package pipeline

import (
	"context"

	"github.com/xifan2333/subcue/internal/media"
	"github.com/xifan2333/subcue/pkgs/timeline"
)

// MediaTools is the slice of the ffmpeg toolchain the pipelines use.
type MediaTools interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	ProbeDuration(ctx context.Context, path string) (int64, error)
	Normalize(ctx context.Context, source, dest string, format media.Format) error
	Assemble(ctx context.Context, plan []timeline.Instruction, workDir, dest string, format media.Format) error
}

var _ MediaTools = (*media.Toolchain)(nil)
