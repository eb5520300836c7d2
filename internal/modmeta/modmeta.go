package modmeta

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultName is used when no mod name is supplied.
	DefaultName = "Unnamed"
	// DefaultVersion is used when no mod version is supplied.
	DefaultVersion = "1.0.0"
	// ArchiveExt is the suffix of archives produced by create.
	ArchiveExt = ".bnp"
)

// Input carries the optional, user-supplied metadata fields. Empty strings are
// treated as absent.
type Input struct {
	Name        string
	Version     string
	Description string
	ImageURL    string
	SourceURL   string
}

// Metadata is the record the engine embeds into a created archive. JSON tags
// follow the engine's info schema.
type Metadata struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"desc"`
	ImageURL     string            `json:"image"`
	SourceURL    string            `json:"url"`
	Dependencies map[string]string `json:"depends"`
	Options      map[string]any    `json:"options"`
	ShowCompare  bool              `json:"showCompare"`
	ShowConvert  bool              `json:"showConvert"`
}

// Assemble applies per-field defaults to in. Dependencies and options are
// always empty and both show flags are false at creation time.
func Assemble(in Input) Metadata {
	return Metadata{
		Name:         orDefault(in.Name, DefaultName),
		Version:      orDefault(in.Version, DefaultVersion),
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		SourceURL:    in.SourceURL,
		Dependencies: map[string]string{},
		Options:      map[string]any{},
	}
}

// JSON encodes the metadata in the engine's wire form.
func (m Metadata) JSON() (string, error) {
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	if m.Options == nil {
		m.Options = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DefaultOutputPath returns <dir>/<name>.bnp for an already-defaulted name.
func DefaultOutputPath(dir, name string) string {
	file := SanitizeFileName(name)
	if file == "" {
		file = DefaultName
	}
	return filepath.Join(dir, file+ArchiveExt)
}

// SanitizeFileName makes a mod name safe to use as a single path element.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "", "\"", "", "<", "", ">", "", "|", "")
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
