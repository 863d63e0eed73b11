package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/sre-norns/glance/pkg/grace"
	"github.com/sre-norns/glance/pkg/runner"

	_ "github.com/sre-norns/glance/pkg/probers/browser"
	_ "github.com/sre-norns/glance/pkg/probers/http"
	_ "github.com/sre-norns/glance/pkg/probers/tcp"
)

type commandContext struct {
	*runner.RunnerConfig

	OutputFormatter formatter
	Context         context.Context
	Logger          log.Logger
	Stdout          io.Writer
}

type outputFormat string

func (f outputFormat) AfterApply(cfg *commandContext) (err error) {
	cfg.OutputFormatter, err = getFormatter(f, cfg.Stdout)
	return err
}

var appCli struct {
	runner.RunnerConfig

	Format   outputFormat `enum:"yaml,yml,json" help:"Data output format" default:"yml"`
	LogLevel string       `enum:"debug,info,warn,error" help:"Minimal level of log messages to print" default:"info" env:"GLANCE_LOG_LEVEL"`

	Run  RunCmd  `cmd:"" help:"Run visual verification checks and save their screenshots"`
	List ListCmd `cmd:"" help:"List built-in checks"`
	Show ShowCmd `cmd:"" help:"Print the manifest of a built-in check"`
}

func newLogger(w io.Writer, logLevel string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))

	var allow level.Option
	switch logLevel {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}

	logger = level.NewFilter(logger, allow)
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func main() {
	mainContext := grace.SetupSignalHandler()
	cfg := &commandContext{
		Context:         mainContext,
		OutputFormatter: yamlFormatter(os.Stdout),
		RunnerConfig:    &appCli.RunnerConfig,
		Stdout:          os.Stdout,
	}
	appCtx := kong.Parse(&appCli,
		kong.Name("glancectl"),
		kong.Description("Take screenshots of a locally running web application for visual verification"),
		kong.UsageOnError(),
		kong.Bind(cfg),
	)

	cfg.Logger = newLogger(os.Stderr, appCli.LogLevel)
	appCtx.FatalIfErrorf(appCtx.Run(cfg))
}
