package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Manifest is a machine-readable record of a run that aids reproducibility.
type Manifest struct {
	Input       string         `json:"input"`
	InputSHA256 string         `json:"input_sha256"`
	Template    string         `json:"template"`
	Tex         bool           `json:"tex"`
	Parser      string         `json:"parser"`
	ParseCache  bool           `json:"parse_cache"`
	References  int            `json:"references"`
	Citations   int            `json:"citations"`
	Warnings    map[string]int `json:"warnings"`
	Version     string         `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// SHA256Hex returns a lowercase hex-encoded SHA-256 of data.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	if m.Warnings == nil {
		m.Warnings = map[string]int{}
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

// AppendManifest appends a compact Markdown section with the manifest's
// header fields to markdown.
func AppendManifest(markdown string, m Manifest) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(markdown, "\n"))
	b.WriteString("\n\n## Manifest\n\n")
	b.WriteString("- Input SHA-256: ")
	b.WriteString(m.InputSHA256)
	b.WriteString("\n- Parser: ")
	b.WriteString(strings.TrimSpace(m.Parser))
	b.WriteString("\n- Parse cache: ")
	b.WriteString(strconv.FormatBool(m.ParseCache))
	b.WriteString("\n- Version: ")
	b.WriteString(m.Version)
	b.WriteString("\n")
	return b.String()
}
