package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/provenance-io/p8e-publisher/common"
	"github.com/provenance-io/p8e-publisher/httpserver"
	"github.com/urfave/cli/v2"
)

const envPrefix = "P8E_"

func env(name string) []string {
	return []string{envPrefix + name}
}

// SetupLogger builds the process logger from the log flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(logServiceFlagName),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		logger = logger.With("uid", uuid.NewString())
	}
	return logger
}

// ConfigureServer maps the server flags onto an HTTP server config.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		// A publish blocks until every location's transaction is in a block.
		WriteTimeout: 10 * time.Minute,
	}
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Value:   "p8e.yaml",
	EnvVars: env("CONFIG"),
	Usage:   "path to the publisher YAML configuration",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: env("LISTEN_ADDR"),
	Usage:   "address to listen on for API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:    "log-json",
	EnvVars: env("LOG_JSON"),
	Usage:   "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:    "log-debug",
	EnvVars: env("LOG_DEBUG"),
	Usage:   "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Usage: "generate a uuid and add to all log messages",
}

const logServiceFlagName = "log-service"

// LogFlags returns the logging flags with service as the default service tag.
func LogFlags(service string) []cli.Flag {
	return []cli.Flag{
		LogJsonFlag,
		LogDebugFlag,
		LogUidFlag,
		&cli.StringFlag{
			Name:  logServiceFlagName,
			Value: service,
			Usage: "add 'service' tag to logs",
		},
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:    "drain-seconds",
	Value:   45,
	EnvVars: env("DRAIN_SECONDS"),
	Usage:   "seconds /readyz fails before the listener closes on shutdown",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:    "metrics-addr",
	Value:   "127.0.0.1:8090",
	EnvVars: env("METRICS_ADDR"),
	Usage:   "address to listen on for Prometheus metrics",
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
