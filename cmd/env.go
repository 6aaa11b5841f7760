package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/afb-group/contractor-cli/internal/discovery"
	"github.com/afb-group/contractor-cli/internal/fetcher"
	"github.com/afb-group/contractor-cli/internal/pipeline"
	"github.com/afb-group/contractor-cli/internal/store"
	"github.com/afb-group/contractor-cli/internal/validate"
	anthropicpkg "github.com/afb-group/contractor-cli/pkg/anthropic"
	"github.com/afb-group/contractor-cli/pkg/gsearch"
)

// pipelineEnv holds the initialized store and processor shared by the
// enrich/batch/serve commands.
type pipelineEnv struct {
	Store     store.Store
	Processor *pipeline.Processor
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// openStore connects to the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "contractors.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildValidator resolves the scoring policy and geographic reference sets
// from config.
func buildValidator() (*validate.Validator, error) {
	var policy validate.Policy
	var err error
	if cfg.Scoring.PolicyFile != "" {
		policy, err = validate.LoadPolicyFile(cfg.Scoring.PolicyFile)
	} else {
		policy, err = validate.PolicyByName(cfg.Scoring.Policy)
	}
	if err != nil {
		return nil, err
	}

	var geo *validate.GeoValidator
	if len(cfg.Scoring.AreaCodes) > 0 || len(cfg.Scoring.Places) > 0 {
		geo = validate.NewGeoValidator(cfg.Scoring.AreaCodes, cfg.Scoring.Places)
	}
	return validate.NewValidator(policy, geo)
}

// initPipeline sets up the store, API clients, and processor. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("enrich"); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	validator, err := buildValidator()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	zap.L().Info("scoring policy loaded", zap.String("policy", string(validator.Policy().Name)))

	searchClient := gsearch.NewClient(cfg.Google.Key, cfg.Google.SearchEngineID,
		gsearch.WithBaseURL(cfg.Google.BaseURL))
	discoverer := discovery.NewDiscoverer(searchClient, discovery.Options{
		MaxQueries:      cfg.Discovery.MaxQueries,
		MaxCandidates:   cfg.Discovery.MaxCandidates,
		QueryDelay:      time.Duration(cfg.Discovery.QueryDelayMS) * time.Millisecond,
		ExcludedDomains: cfg.Discovery.ExcludedDomains,
	})

	pageFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Fetch.MaxRetries,
		RatePerSec:   rate.Limit(cfg.Fetch.RatePerSec),
		MaxBodyBytes: int64(cfg.Fetch.MaxBodyKB) * 1024,
	})

	classifier := pipeline.NewClassifier(
		anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)

	return &pipelineEnv{
		Store:     st,
		Processor: pipeline.NewProcessor(st, discoverer, pageFetcher, classifier, validator),
	}, nil
}
