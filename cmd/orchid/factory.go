package main

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/awalsh128/orchid/internal/audit"
	"github.com/awalsh128/orchid/internal/config"
	"github.com/awalsh128/orchid/internal/handoff"
	"github.com/awalsh128/orchid/internal/llm"
	"github.com/awalsh128/orchid/internal/logger"
	"github.com/awalsh128/orchid/internal/registry"
	"github.com/awalsh128/orchid/internal/router"
	"github.com/awalsh128/orchid/internal/scheduler"
	"github.com/awalsh128/orchid/internal/state"
	"github.com/awalsh128/orchid/internal/store"
	"github.com/awalsh128/orchid/internal/tool"
	"github.com/awalsh128/orchid/internal/workflow"
)

// services bundles the wired collaborators behind every command.
type services struct {
	cfg      *config.Config
	store    *store.Store
	registry *registry.Registry
	router   *router.Router
	handoffs *handoff.Manager
	model    *llm.Client
	tools    tool.Runner
	sink     audit.Sink
	db       *state.DB
	log      *logger.DebugLogger
}

// buildServices loads configuration and definitions and wires every
// collaborator for one command invocation.
func buildServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if cfg.Logging.Debug {
		log = logger.ForProject(cwd)
	}
	scheduler.SetDebugLogger(log)
	workflow.SetDebugLogger(log)

	defs, err := store.Open(defsDir(cwd))
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	reg, err := registry.New(defs.Agents())
	if err != nil {
		return nil, fmt.Errorf("build agent registry: %w", err)
	}
	if cfg.Routing.DefaultAgent != "" {
		if err := reg.SetDefault(cfg.Routing.DefaultAgent); err != nil {
			return nil, err
		}
	}

	apiKey := ""
	if !cfg.Bedrock.Enabled {
		apiKey, err = config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
	}
	model, err := llm.NewClient(llm.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
	})
	if err != nil {
		return nil, err
	}

	sink := audit.NewConsole(os.Stdout)

	db, err := state.OpenProject(cwd)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return &services{
		cfg:      cfg,
		store:    defs,
		registry: reg,
		router:   router.New(model, sink, cfg.Routing.Threshold),
		handoffs: handoff.New(reg, sink, nil),
		model:    model,
		tools:    tool.NewExecutor(cwd),
		sink:     sink,
		db:       db,
		log:      log,
	}, nil
}

// Close releases the services' resources.
func (s *services) Close() {
	s.db.Close()
	s.log.Close()
}

// defsDir is where agent and workflow definitions live.
func defsDir(projectRoot string) string {
	return projectRoot + "/.orchid"
}
