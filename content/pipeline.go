package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/w-h-a/sourcerer/generator"
	"github.com/w-h-a/sourcerer/rag"
)

const packageFile = "package.json"

// Pipeline orchestrates the research and generation phases and persists
// the result. Individual pieces fail in isolation; only a missing item or
// a failed save fails the run.
type Pipeline struct {
	options   Options
	generator generator.Generator
	engine    *rag.Engine
	catalog   rag.ItemCatalog
}

func (p *Pipeline) Generate(ctx context.Context, req Request) (*Package, error) {
	item, err := p.catalog.Item(ctx, req.ItemId)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, req.ItemId)
	}

	types := req.Types
	if len(types) == 0 {
		types = []Type{TypeSummary}
	}

	var research *Research
	if req.IncludeResearch {
		research = p.research(ctx, *item)
	}

	contents := make([]Generated, 0, len(types))

	for _, typ := range types {
		switch typ {
		case TypeSummary:
			contents = append(contents, p.generateSummary(ctx, *item, research, req.Instructions))
		case TypeScripts:
			contents = append(contents, p.generateScripts(ctx, *item, req.Platforms, research, req.Instructions))
		default:
			slog.WarnContext(ctx, "skipping unknown content type", "type", typ)
		}
	}

	pkg := &Package{
		Id:        uuid.New().String()[:12],
		ItemId:    item.Id,
		Contents:  contents,
		Params:    req,
		CreatedAt: time.Now().UTC(),
	}

	if research != nil {
		pkg.ResearchSummary = research.Summary
	}

	if err := p.savePackage(pkg); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "content package generated", "package", pkg.Id, "item", item.Id, "contents", len(contents))

	return pkg, nil
}

func (p *Pipeline) Packages(ctx context.Context) ([]PackageInfo, error) {
	entries, err := os.ReadDir(p.packagesDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	infos := make([]PackageInfo, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pkg, err := p.readPackage(entry.Name())
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable package", "package", entry.Name(), "error", err)
			continue
		}

		infos = append(infos, PackageInfo{
			Id:           pkg.Id,
			ItemId:       pkg.ItemId,
			CreatedAt:    pkg.CreatedAt,
			ContentCount: len(pkg.Contents),
			HasResearch:  len(pkg.ResearchSummary) > 0,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

func (p *Pipeline) Package(ctx context.Context, packageId string) (*Package, error) {
	pkg, err := p.readPackage(packageId)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *Pipeline) DeletePackage(ctx context.Context, packageId string) error {
	dir := filepath.Join(p.packagesDir(), packageId)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrPackageNotFound, packageId)
	}

	return os.RemoveAll(dir)
}

func (p *Pipeline) packagesDir() string {
	return filepath.Join(p.options.Dir, "packages")
}

func (p *Pipeline) readPackage(packageId string) (*Package, error) {
	data, err := os.ReadFile(filepath.Join(p.packagesDir(), packageId, packageFile))
	if err != nil {
		return nil, err
	}

	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", packageId, err)
	}

	return &pkg, nil
}

func (p *Pipeline) savePackage(pkg *Package) error {
	dir := filepath.Join(p.packagesDir(), pkg.Id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dir, packageFile)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

func NewPipeline(gen generator.Generator, engine *rag.Engine, catalog rag.ItemCatalog, opts ...Option) *Pipeline {
	return &Pipeline{
		options:   NewOptions(opts...),
		generator: gen,
		engine:    engine,
		catalog:   catalog,
	}
}
