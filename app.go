package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/chative-sei/agent/agents/orchestrator"
	"github.com/tanpawarit/chative-sei/agent/agents/specialist"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	llmx "github.com/tanpawarit/chative-sei/agent/llm"
	statex "github.com/tanpawarit/chative-sei/agent/state"
	toolx "github.com/tanpawarit/chative-sei/agent/tool"
	bundlex "github.com/tanpawarit/chative-sei/pkg/bundle"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
	metricsx "github.com/tanpawarit/chative-sei/pkg/metrics"
)

// stateConfig is loaded with the STATE prefix.
type stateConfig struct {
	Backend  string `envconfig:"BACKEND" split_words:"true" default:"memory"`
	MaxTurns int    `envconfig:"MAX_TURNS" split_words:"true" default:"50"`
}

type application struct {
	store    *casestorex.Store
	lookup   *casestorex.Lookup
	recorder *metricsx.Recorder
	chat     *orchestratorx.Orchestrator
	bundle   bundlex.Config

	closers []func() error
}

func openLookup() (*casestorex.Store, *casestorex.Lookup, error) {
	cfg, err := configx.New[casestorex.Config]("CASESTORE")
	if err != nil {
		return nil, nil, fmt.Errorf("load case store config: %w", err)
	}
	store, err := casestorex.NewFromConfig(*cfg)
	if err != nil {
		return nil, nil, err
	}
	lookup, err := casestorex.NewLookup(store)
	if err != nil {
		return nil, nil, err
	}
	return store, lookup, nil
}

func newApplication(ctx context.Context) (*application, error) {
	app := &application{}

	store, lookup, err := openLookup()
	if err != nil {
		return nil, err
	}
	app.store = store
	app.lookup = lookup

	bundleCfg, err := configx.New[bundlex.Config]("BUNDLE")
	if err != nil {
		return nil, fmt.Errorf("load bundle config: %w", err)
	}
	app.bundle = *bundleCfg

	recorder, err := metricsx.New()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	app.recorder = recorder

	sessions, err := app.openStateStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	models, err := specialist.NewRegistry(ctx, *llmCfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	agentCfg, err := configx.New[orchestratorx.Config]("AGENT")
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("load agent config: %w", err)
	}
	chat, err := orchestratorx.New(
		sessions,
		models,
		toolx.NewGateway(lookup, recorder),
		*agentCfg,
		orchestratorx.WithRecorder(recorder),
	)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.chat = chat

	return app, nil
}

func (a *application) openStateStore(ctx context.Context) (statex.Store, error) {
	cfg, err := configx.New[stateConfig]("STATE")
	if err != nil {
		return nil, fmt.Errorf("load state config: %w", err)
	}

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Backend)); backend {
	case "", "memory":
		return statex.NewInMemoryStore(cfg.MaxTurns), nil
	case "upstash", "redis":
		upstashCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH")
		if err != nil {
			return nil, fmt.Errorf("load upstash config: %w", err)
		}
		return statex.NewUpstashRedisStore(*upstashCfg, statex.WithMaxTurns(cfg.MaxTurns))
	case "postgres":
		pgCfg, err := configx.New[statex.PostgresConfig]("POSTGRES")
		if err != nil {
			return nil, fmt.Errorf("load postgres config: %w", err)
		}
		db, err := statex.OpenPostgres(*pgCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		st, err := statex.NewBunStore(db, cfg.MaxTurns)
		if err != nil {
			return nil, err
		}
		if err := st.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

func (a *application) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close resource")
		}
	}
	a.closers = nil
}

// bundleStatus tracks the background bundle install.
type bundleStatus struct {
	loading atomic.Bool
}

func (s *bundleStatus) Loading() bool {
	return s.loading.Load()
}

func (s *bundleStatus) Ready() bool {
	return !s.loading.Load()
}

// startBundle installs the case bundle in the background when dir is empty.
func startBundle(ctx context.Context, cfg bundlex.Config, dir string) *bundleStatus {
	status := &bundleStatus{}
	if bundlex.IsPopulated(dir) {
		return status
	}
	if _, err := bundlex.SourceFromConfig(cfg); err != nil {
		if errors.Is(err, bundlex.ErrNoSource) {
			log.Warn().Str("dir", dir).Msg("case store is empty and no bundle source is configured")
		} else {
			log.Error().Err(err).Msg("bundle source misconfigured")
		}
		return status
	}

	status.loading.Store(true)
	go func() {
		defer status.loading.Store(false)

		installCtx := ctx
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			installCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		installed, err := bundlex.EnsurePopulated(installCtx, cfg, dir)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("bundle install failed")
			return
		}
		if installed {
			log.Info().Str("dir", dir).Msg("case store ready")
		}
	}()
	return status
}
