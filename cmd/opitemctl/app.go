package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/osse101/opitemdb/internal/bff"
	"github.com/osse101/opitemdb/internal/config"
	"github.com/osse101/opitemdb/internal/coordinator"
	"github.com/osse101/opitemdb/internal/database/postgres"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metacache"
	"github.com/osse101/opitemdb/internal/session"
	"github.com/osse101/opitemdb/internal/storage"
	"github.com/osse101/opitemdb/internal/view/terminal"
)

// globalFlags override the profile
type globalFlags struct {
	profilePath string
	apiURL      string
	logLevel    string
	noColor     bool
}

// app holds the collaborators every command shares
type app struct {
	profilePath string
	profile     *config.ClientProfile
	out         io.Writer

	bolt     *metacache.BoltStore
	api      *bff.Client
	sessions *session.Manager
	lookups  *metacache.Lookups
	renderer *terminal.Renderer

	pool *pgxpool.Pool
}

// tokenStore prefers a token pinned in the profile over the persisted one
type tokenStore struct {
	pinned string
	bolt   *metacache.BoltStore
}

func (t tokenStore) LoadToken() (string, error) {
	if t.pinned != "" {
		return t.pinned, nil
	}
	return t.bolt.LoadToken()
}

func (t tokenStore) SaveToken(token string) error { return t.bolt.SaveToken(token) }

func (t tokenStore) ClearToken() error { return t.bolt.ClearToken() }

func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	logCfg := logger.CLIConfig()
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	logger.InitLoggerWithWriter(logCfg, cmd.ErrOrStderr())

	path := flags.profilePath
	if path == "" {
		var err error
		if path, err = config.DefaultProfilePath(); err != nil {
			return nil, err
		}
	}
	profile, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		profile.APIURL = flags.apiURL
	}

	bolt, err := metacache.OpenBolt(profile.CachePath)
	if err != nil {
		return nil, err
	}

	anonymous := bff.NewClient(profile.APIURL)
	sessions := session.NewManager(tokenStore{pinned: profile.AccessToken, bolt: bolt}, session.ResolveWith(anonymous))
	api := bff.NewClient(profile.APIURL, bff.WithTokenSource(sessions))

	cache := metacache.New(profile.CacheTTLDuration(), metacache.WithPersister(bolt))

	out := cmd.OutOrStdout()
	return &app{
		profilePath: path,
		profile:     profile,
		out:         out,
		bolt:        bolt,
		api:         api,
		sessions:    sessions,
		lookups:     metacache.NewLookups(cache, api),
		renderer:    terminal.New(out, terminal.WithColor(!flags.noColor && !color.NoColor)),
	}, nil
}

// Close releases the cache file and the database pool
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.bolt != nil {
		if err := a.bolt.Close(); err != nil {
			slog.Warn("Failed to close cache", "error", err)
		}
	}
}

// queryConfig returns the list query settings of the profile
func (a *app) queryConfig() coordinator.Config {
	cfg := coordinator.DefaultConfig()
	cfg.Timeout = a.profile.QueryTimeoutDuration()
	cfg.Retries = a.profile.Retries()
	return cfg
}

// bucket returns the object storage the submission pipeline uploads to
func (a *app) bucket() storage.Bucket {
	return storage.NewHTTPBucket(a.profile.StorageURL, a.profile.Bucket, a.sessions)
}

// directWriter returns the fallback writer, or nil without database_url
func (a *app) directWriter(ctx context.Context) (*postgres.ItemWriter, error) {
	if a.profile.DatabaseURL == "" {
		return nil, nil
	}
	if a.pool == nil {
		pool, err := pgxpool.New(ctx, a.profile.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pool = pool
	}
	return postgres.NewItemWriter(a.pool), nil
}
