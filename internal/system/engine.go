// Package system wires configuration, the snapshot store, external loaders
// and the graph into one Engine shared by every command.
package system

import (
	"context"
	"errors"
	"fmt"

	"ctxgraph/internal/assemble"
	"ctxgraph/internal/config"
	"ctxgraph/internal/external"
	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
	"ctxgraph/internal/pathutil"
	"ctxgraph/internal/store"
)

// Engine is a fully wired ctxgraph instance.
type Engine struct {
	Config *config.Config
	Paths  pathutil.Normalizer
	Roots  []string
	Store  store.Snapshotter
	Loader external.Loader

	gcs    *external.GCSLoader
	cache  *external.CachedLoader
	index  *graph.Index
	report *graph.BuildReport
}

// Boot validates cfg and wires an Engine. Remote loaders are only created
// when configured.
func Boot(ctx context.Context, cfg *config.Config) (*Engine, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "Boot")
	defer timer.Stop()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := cfg.Paths()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Config: cfg,
		Paths:  paths,
		Roots:  cfg.RootPaths(paths),
	}

	cachePath := cfg.CachePath(paths)
	e.Store, err = store.Open(cachePath, cfg.Cache.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open index cache: %w", err)
	}
	logging.BootDebug("Index cache %s (%s)", cachePath, store.BackendFor(cachePath, cfg.Cache.Backend))

	if err := e.wireLoaders(ctx); err != nil {
		e.Close()
		return nil, err
	}

	logging.Boot("Engine ready: workspace=%s roots=%v", paths.Workspace, e.Roots)
	return e, nil
}

func (e *Engine) wireLoaders(ctx context.Context) error {
	ext := e.Config.External
	mux := external.NewMux(external.NewFileLoader(e.Paths))

	if ext.IsS3Enabled() {
		s3, err := external.NewS3Loader(external.S3Config{
			Endpoint:  ext.S3.Endpoint,
			Region:    ext.S3.Region,
			AccessKey: ext.S3.AccessKey,
			SecretKey: ext.S3.SecretKey,
			UseSSL:    ext.S3.UseSSL,
		})
		if err != nil {
			return err
		}
		mux.Handle("s3", s3)
		logging.BootDebug("S3 loader enabled for %s", ext.S3.Endpoint)
	}

	if ext.IsGCSEnabled() {
		gcs, err := external.NewGCSLoader(ctx, ext.GCS.CredentialsFile)
		if err != nil {
			return err
		}
		e.gcs = gcs
		mux.Handle("gs", gcs)
		logging.BootDebug("GCS loader enabled")
	}

	e.Loader = mux
	if ext.CacheSize > 0 {
		cached, err := external.NewCachedLoader(mux, ext.CacheSize)
		if err != nil {
			return err
		}
		e.cache = cached
		e.Loader = cached
	}
	return nil
}

// Builder returns a builder over the configured roots.
func (e *Engine) Builder() *graph.Builder {
	return graph.NewBuilder(graph.Options{
		Roots:      e.Roots,
		Extensions: e.Config.Extensions,
		Paths:      e.Paths,
	})
}

// Rebuild scans the corpus, saves the snapshot and makes the new index
// current.
func (e *Engine) Rebuild(ctx context.Context) (*graph.Index, *graph.BuildReport, error) {
	ix, report, err := e.Builder().Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := e.Store.Save(ctx, ix); err != nil {
		return nil, nil, fmt.Errorf("failed to save index: %w", err)
	}
	e.index, e.report = ix, report
	if e.cache != nil {
		e.cache.Purge()
	}
	return ix, report, nil
}

// Index returns the current index: the saved snapshot if there is one,
// otherwise a fresh scan that is then saved. An unreadable snapshot is
// treated like a missing one.
func (e *Engine) Index(ctx context.Context) (*graph.Index, error) {
	if e.index != nil {
		return e.index, nil
	}

	ix, err := e.Store.Load(ctx)
	switch {
	case err == nil:
		e.index = ix
		return ix, nil
	case errors.Is(err, store.ErrNoSnapshot):
		logging.Store("No snapshot at %s, scanning corpus", e.Store.Path())
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		logging.Get(logging.CategoryStore).Warn("Discarding unreadable snapshot: %v", err)
	}

	ix, _, err = e.Rebuild(ctx)
	return ix, err
}

// Report returns the report of the last rebuild done by this engine, or
// nil when the index came from a snapshot.
func (e *Engine) Report() *graph.BuildReport {
	return e.report
}

// Resolver returns a resolver over the current index.
func (e *Engine) Resolver(ctx context.Context) (*graph.Resolver, error) {
	ix, err := e.Index(ctx)
	if err != nil {
		return nil, err
	}
	return graph.NewResolver(ix, e.Paths), nil
}

// Assembler returns an assembler over the current index.
func (e *Engine) Assembler(ctx context.Context) (*assemble.Assembler, error) {
	r, err := e.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	return assemble.New(r, e.Loader, e.Roots), nil
}
