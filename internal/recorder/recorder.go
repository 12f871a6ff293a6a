// Package recorder reads and writes the run's account artifact, a JSON file
// grouping the generated accounts by shard. The artifact references wallet
// credentials by file path and never embeds key material.
package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/fsutil"
)

// Entry is one account row in the artifact.
type Entry struct {
	Address      string `json:"address"`
	Shard        uint32 `json:"shard"`
	WalletFile   string `json:"wallet_file"`
	PEMFile      string `json:"pem_file"`
	TxHash       string `json:"tx_hash,omitempty"`
	FundingError string `json:"funding_error,omitempty"`
	Balance      string `json:"balance"`
}

// Artifact maps shard_<N> keys to their account entries.
type Artifact map[string][]Entry

// ShardKey renders the artifact key for a shard ID.
func ShardKey(shard uint32) string {
	return fmt.Sprintf("shard_%d", shard)
}

// Accounts flattens the artifact into a single slice, shard keys in sorted
// order, entries in recorded order.
func (a Artifact) Accounts() []Entry {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Entry
	for _, k := range keys {
		out = append(out, a[k]...)
	}
	return out
}

// Write persists the artifact at path through a temp file and rename, so a
// failed run never leaves a truncated artifact behind.
func Write(path string, artifact Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by Write.
func Load(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return artifact, nil
}

// ResolvePath rebases a recorded wallet file path onto dir. Artifacts written
// on Windows carry backslash separators and may repeat the output directory
// name; both are tolerated.
func ResolvePath(dir, recorded string) string {
	p := strings.ReplaceAll(recorded, `\`, "/")
	if prefix := filepath.Base(dir) + "/"; strings.HasPrefix(p, prefix) {
		p = strings.TrimPrefix(p, prefix)
	}
	if filepath.IsAbs(filepath.FromSlash(p)) {
		return filepath.Clean(filepath.FromSlash(p))
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}
