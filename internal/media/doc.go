// Package media wraps the ffmpeg and ffprobe invocations subcue needs: audio
// extraction ahead of transcription, duration probing, and the normalize,
// silence and concat steps that assemble a synthesized track.
package media
