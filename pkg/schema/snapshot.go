package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is a self-contained capture of a form version plus its option
// sets, used for offline filling, fixtures, and the CLI. Snapshots are YAML
// documents; JSON parses as a YAML subset.
type Snapshot struct {
	Version FormVersion `yaml:"version"`
	Options []OptionSet `yaml:"options,omitempty"`
}

// OptionsByColumn indexes the snapshot's option sets by column ID.
func (s Snapshot) OptionsByColumn() map[string]OptionSet {
	out := make(map[string]OptionSet, len(s.Options))
	for _, set := range s.Options {
		out[set.ColumnID] = set
	}
	return out
}

// LoadOption configures snapshot loading.
type LoadOption func(*loadConfig)

type loadConfig struct {
	fsys   fs.FS
	client *http.Client
}

// WithSnapshotFS supplies the fs.FS used for SourceKindFS sources.
func WithSnapshotFS(fsys fs.FS) LoadOption {
	return func(cfg *loadConfig) {
		cfg.fsys = fsys
	}
}

// WithSnapshotHTTPClient overrides the client used for SourceKindURL sources.
func WithSnapshotHTTPClient(client *http.Client) LoadOption {
	return func(cfg *loadConfig) {
		cfg.client = client
	}
}

// LoadSnapshot reads and decodes a snapshot from the given source.
func LoadSnapshot(ctx context.Context, src Source, options ...LoadOption) (Snapshot, error) {
	if !src.valid() {
		return Snapshot{}, errors.New("schema: snapshot source is required")
	}
	cfg := loadConfig{client: http.DefaultClient}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	raw, err := readSource(ctx, src, cfg)
	if err != nil {
		return Snapshot{}, err
	}
	return DecodeSnapshot(raw)
}

// DecodeSnapshot parses a snapshot payload.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if len(raw) == 0 {
		return Snapshot{}, errors.New("schema: snapshot payload is empty")
	}
	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("schema: decode snapshot: %w", err)
	}
	if snap.Version.FormID == "" {
		return Snapshot{}, errors.New("schema: snapshot is missing formId")
	}
	snap.Version.Columns = SortColumns(snap.Version.Columns)
	return snap, nil
}

// EncodeSnapshot serialises a snapshot to YAML.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	out, err := yaml.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("schema: encode snapshot: %w", err)
	}
	return out, nil
}

func readSource(ctx context.Context, src Source, cfg loadConfig) ([]byte, error) {
	switch src.Kind() {
	case SourceKindFile:
		return os.ReadFile(src.Location())
	case SourceKindFS:
		if cfg.fsys == nil {
			return nil, errors.New("schema: fs source requires WithSnapshotFS")
		}
		return fs.ReadFile(cfg.fsys, src.Location())
	case SourceKindURL:
		return readURL(ctx, cfg.client, src.Location())
	default:
		return nil, fmt.Errorf("schema: unsupported source kind %q", src.Kind())
	}
}

func readURL(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("schema: unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
