// Package content turns aggregated items into publishable material:
// analytical summaries and platform-specific scripts, optionally grounded
// in a research pass over the semantic index. Generated work is persisted
// as packages so it can be listed and fetched later.
package content

import (
	"errors"
	"time"
)

type Type string

const (
	TypeSummary Type = "summary"
	TypeScripts Type = "scripts"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrPackageNotFound = errors.New("package not found")
)

// PlatformScript is one script tailored to a publishing platform.
type PlatformScript struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
}

// Generated is a single produced piece. Summary output fills Content;
// script output fills Scripts. A failed piece carries an error marker in
// Metadata instead of aborting the package.
type Generated struct {
	Type     Type             `json:"type"`
	Title    string           `json:"title"`
	Content  string           `json:"content,omitempty"`
	Scripts  []PlatformScript `json:"scripts,omitempty"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// Research is the context-expansion document built before generation.
type Research struct {
	ItemId    string    `json:"item_id"`
	Queries   []string  `json:"queries"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

type Request struct {
	ItemId          string   `json:"item_id"`
	Types           []Type   `json:"types,omitempty"`
	Platforms       []string `json:"platforms,omitempty"`
	IncludeResearch bool     `json:"include_research"`
	Instructions    string   `json:"instructions,omitempty"`
}

// Package bundles everything generated for one item in one run.
type Package struct {
	Id              string      `json:"id"`
	ItemId          string      `json:"item_id"`
	ResearchSummary string      `json:"research_summary,omitempty"`
	Contents        []Generated `json:"contents"`
	Params          Request     `json:"params"`
	CreatedAt       time.Time   `json:"created_at"`
}

// PackageInfo is the listing view of a stored package.
type PackageInfo struct {
	Id           string    `json:"id"`
	ItemId       string    `json:"item_id"`
	CreatedAt    time.Time `json:"created_at"`
	ContentCount int       `json:"content_count"`
	HasResearch  bool      `json:"has_research"`
}
