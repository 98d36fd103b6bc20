package caption

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OverlapError reports the first pair of captions that breaks ordering.
type OverlapError struct {
	Index       int
	EndMs       int64
	NextStartMs int64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("caption %d ends at %dms after caption %d starts at %dms", e.Index, e.EndMs, e.Index+1, e.NextStartMs)
}

// OutputPath replaces the extension of mediaPath with ext (".json" when empty).
func OutputPath(mediaPath, ext string) string {
	if ext == "" {
		ext = ".json"
	}
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ext
}

// SynthesisPath names the caption file produced for a synthesized track:
// "talk.json" becomes "talk-tts.json" in the same directory.
func SynthesisPath(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(filepath.Dir(inputPath), base+"-tts.json")
}

// WriteFile stores captions as an indented JSON array. The data lands in a
// temporary sibling first and is renamed into place, so readers never see a
// partial file.
func WriteFile(path string, captions []Caption) error {
	if captions == nil {
		captions = []Caption{}
	}
	data, err := json.MarshalIndent(captions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode captions: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create caption dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp caption file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write captions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync captions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close captions: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod captions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename captions: %w", err)
	}
	return nil
}

// ReadFile decodes a caption JSON array.
func ReadFile(path string) ([]Caption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var captions []Caption
	if err := json.Unmarshal(data, &captions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return captions, nil
}

// Status tells a caller whether Load found anything.
type Status int

const (
	Found Status = iota
	NotFound
)

func (s Status) String() string {
	if s == NotFound {
		return "not found"
	}
	return "found"
}

// LoadResult is the outcome of Load. A missing caption file is a NotFound
// result, not an error.
type LoadResult struct {
	Status   Status
	Path     string
	Format   string
	Captions []Caption
}

// Load finds the captions that belong to mediaPath. A sibling .json file is
// taken as final and only has overlaps removed; a sibling .srt file is
// grouped into lines with opts first. When neither exists the result is
// NotFound.
func Load(mediaPath string, opts Options) (LoadResult, error) {
	jsonPath := OutputPath(mediaPath, ".json")
	if strings.EqualFold(filepath.Ext(mediaPath), ".json") {
		jsonPath = mediaPath
	}
	captions, err := ReadFile(jsonPath)
	switch {
	case err == nil:
		return LoadResult{
			Status:   Found,
			Path:     jsonPath,
			Format:   "json",
			Captions: Normalize(captions, Options{}),
		}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return LoadResult{}, err
	}

	srtPath := OutputPath(mediaPath, ".srt")
	data, err := os.ReadFile(srtPath)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadResult{Status: NotFound}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read srt: %w", err)
	}
	cues, err := ParseSRT(string(data))
	if err != nil {
		return LoadResult{}, err
	}
	opts.Group = true
	return LoadResult{
		Status:   Found,
		Path:     srtPath,
		Format:   "srt",
		Captions: Normalize(FromCues(cues), opts),
	}, nil
}
