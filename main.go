// SRP is a web app for managing the ship replacement program of an Eve Online alliance.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErikKalkoken/go-set"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/warpedintentions/srp/internal/app/characterservice"
	"github.com/warpedintentions/srp/internal/app/eveuniverseservice"
	"github.com/warpedintentions/srp/internal/app/metrics"
	"github.com/warpedintentions/srp/internal/app/pcache"
	"github.com/warpedintentions/srp/internal/app/srpservice"
	"github.com/warpedintentions/srp/internal/app/storage"
	"github.com/warpedintentions/srp/internal/app/web"
	"github.com/warpedintentions/srp/internal/appdirs"
	"github.com/warpedintentions/srp/internal/config"
	"github.com/warpedintentions/srp/internal/memcache"
	"github.com/warpedintentions/srp/internal/sso"
	"github.com/warpedintentions/srp/internal/xgoesi"
)

const (
	cacheCleanUpTimeout = 30 * time.Minute
	esiCacheTimeout     = 24 * time.Hour
	esiCachePrefix      = "esi-"
)

// defined flags
var (
	levelFlag    logLevelFlag
	configFlag   = flag.String("config", "", "Path to the config file. Defaults to the user config dir")
	logFileFlag  = flag.String("logfile", "", "Write logs to this file instead of the console")
	showDirsFlag = flag.Bool("show-dirs", false, "Show directories where user data is stored")
)

func init() {
	levelFlag.value = slog.LevelInfo
	flag.Var(&levelFlag, "loglevel", "set log level")
}

func main() {
	flag.Parse()
	slog.SetLogLoggerLevel(levelFlag.value)
	ad, err := appdirs.New()
	if err != nil {
		log.Fatal(err)
	}
	if *showDirsFlag {
		fmt.Printf("Config: %s\n", ad.ConfigFile())
		fmt.Printf("Database: %s\n", ad.DatabaseFile())
		fmt.Printf("Logs: %s\n", ad.Log)
		return
	}
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	p := *configFlag
	mustExist := p != ""
	if !mustExist {
		p = ad.ConfigFile()
	}
	cfg, err := config.Load(p, mustExist)
	if err != nil {
		log.Fatal(err)
	}
	if *logFileFlag != "" {
		cfg.LogFile = *logFileFlag
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = ad.DatabaseFile()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		})
	}
	if err := run(cfg); err != nil {
		slog.Error("Terminated with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	dbRW, dbRO, err := storage.InitDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize database %s: %w", cfg.DatabasePath, err)
	}
	defer dbRW.Close()
	defer dbRO.Close()
	st := storage.New(dbRW, dbRO)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	pc := pcache.New(st, cacheCleanUpTimeout)
	defer pc.Close()
	esiHTTPClient := xgoesi.NewHTTPClient(xgoesi.ClientParams{
		Cache:      newCacheAdapter(pc, esiCachePrefix, esiCacheTimeout),
		Registerer: reg,
		RetryMax:   cfg.ESI.RetryMax,
		Timeout:    cfg.ESI.Timeout,
	})
	esiClient := xgoesi.NewAPIClient(esiHTTPClient, cfg.ESI.UserAgent)

	lookupCache := memcache.NewWithLimit(cacheCleanUpTimeout, cfg.Lookup.MaxItems)
	defer lookupCache.Close()
	eus := eveuniverseservice.New(eveuniverseservice.Params{
		Cache:        lookupCache,
		CacheTimeout: cfg.Lookup.CacheTTL,
		ESIClient:    esiClient,
		Metrics:      m,
	})
	ssoService := sso.New(sso.Params{
		CallbackURL:  cfg.CallbackURL(),
		ClientID:     cfg.SSO.ClientID,
		ClientSecret: cfg.SSO.ClientSecret,
		HTTPClient:   newSSOHTTPClient(cfg.ESI.Timeout),
	})
	cs := characterservice.New(characterservice.Params{
		ConcurrencyLimit:   cfg.ConcurrencyLimit,
		DisableLossStore:   cfg.DisableLossStore,
		ESIClient:          esiClient,
		EveUniverseService: eus,
		Metrics:            m,
		Scopes:             sso.DefaultScopes,
		SSOService:         ssoService,
		Storage:            st,
	})
	srp := srpservice.New(srpservice.Params{
		AllianceID: cfg.AllianceID,
		ManagerIDs: set.Of(cfg.ManagerIDs...),
		Metrics:    m,
		Storage:    st,
	})
	srv := web.New(web.Params{
		CharacterService: cs,
		Gatherer:         reg,
		Metrics:          m,
		SecureCookies:    cfg.IsSecure(),
		SessionSecret:    []byte(cfg.SessionSecret),
		SRPService:       srp,
		SSOService:       ssoService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down web server")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shut down web server", "error", err)
		}
	}()
	slog.Info("SRP started", "alliance", cfg.AllianceID, "baseURL", cfg.BaseURL)
	return srv.Start(cfg.ListenAddress)
}

// newSSOHTTPClient returns a HTTP client for the SSO with retries and response logging.
func newSSOHTTPClient(timeout time.Duration) *http.Client {
	rhc := retryablehttp.NewClient()
	rhc.Logger = slog.Default()
	rhc.ResponseLogHook = xgoesi.LogResponse
	c := rhc.StandardClient()
	c.Timeout = timeout
	return c
}
