package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"
	"ydns/common"
	"ydns/config"
	"ydns/log"
	"ydns/metrics"
	"ydns/transport"
	"ydns/ydns"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http/httpproxy"
)

var (
	configPath  = flag.StringP("config", "c", "", "path to config file")
	verbose     = flag.BoolP("verbose", "v", false, "log each successful update to stdout (silent by default)")
	strict      = flag.BoolP("strict", "s", false, "exit with code 4 instead of 0 when an update is rejected")
	showVersion = flag.Bool("version", false, "print version and exit")
	debugLog    = flag.Bool("debug", false, "enable debug output")
	help        = flag.BoolP("help", "h", false, "print help message")
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func init() {
	flag.Parse()
	if *help {
		fmt.Println("YDNS dynamic DNS record updater.")
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}

	if version == "" {
		version = "unknown"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}

	if *showVersion {
		fmt.Printf("%s %s\n", filepath.Base(os.Args[0]), version)
		os.Exit(0)
	}
}

func baseLogConfig() zap.Config {
	if *debugLog {
		return zap.NewDevelopmentConfig()
	}

	// stderr belongs to the update diagnostics unless asked otherwise.
	logOption := zap.NewProductionConfig()
	logOption.Level.SetLevel(zapcore.ErrorLevel)
	return logOption
}

func getInitLogger() context.Context {
	logger, err := baseLogConfig().Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed creating logger: %v\n", err)
		os.Exit(1)
	}

	return log.WithLogger(context.Background(), logger)
}

func getLogger(ctx context.Context, conf *config.Config) context.Context {
	logOption := baseLogConfig()

	if conf.Log.Level != nil {
		logOption.Level.SetLevel(*conf.Log.Level)
	}

	if conf.Log.Encoding != nil {
		logOption.Encoding = *conf.Log.Encoding
	}

	if conf.Log.InfoPath != nil {
		logOption.OutputPaths = *conf.Log.InfoPath
	}

	if conf.Log.ErrorPath != nil {
		logOption.ErrorOutputPaths = *conf.Log.ErrorPath
	}

	logOption.InitialFields = map[string]interface{}{
		"version": version,
	}

	logger, err := logOption.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build real logger", zap.Error(err))
	}

	return log.WithLogger(context.Background(), logger)
}

func configFailure(ctx context.Context, err error) int {
	fmt.Fprintln(os.Stderr, err)

	var cerr *config.Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}

	log.S(ctx).Errorw("unexpected config error", zap.Error(err), log.Internal)
	return common.ExitConfigParse
}

func transportOptions(conf *config.Config) transport.Options {
	opts := transport.Options{Timeout: time.Duration(conf.Timeout)}
	if conf.Proxy != "" {
		opts.Proxy = &httpproxy.Config{
			HTTPProxy:  conf.Proxy,
			HTTPSProxy: conf.Proxy,
			NoProxy:    conf.NoProxy,
		}
	}
	return opts
}

func run() int {
	ctx := getInitLogger()
	log.S(ctx).Debugw("ydns starting", "version", version)

	path, err := config.Locate(*configPath, config.DefaultPaths())
	if err != nil {
		return configFailure(ctx, err)
	}

	conf, err := config.Load(path)
	if err != nil {
		return configFailure(ctx, err)
	}

	ctx = getLogger(ctx, conf)
	defer func() { _ = log.L(ctx).Sync() }()
	log.S(ctx).Debugw("config loaded", "path", path, "domains", len(conf.Domains))

	var m *metrics.Metrics
	if conf.Metrics.Textfile != "" {
		m = metrics.New()
	}

	updater, err := ydns.NewUpdater(ctx, ydns.Options{
		Transport: transportOptions(conf),
		UserAgent: ydns.DefaultProduct + "/" + version,
		Verbose:   *verbose,
		Metrics:   m,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot set up HTTP clients: %v\n", err)
		return common.ExitConnection
	}
	defer updater.Close()

	summary := updater.Run(ctx, conf.Records())
	code := summary.ExitCode(*strict)

	if err := summary.Err(); err != nil {
		log.S(ctx).Infow("run had connection failures", zap.Error(err))
	}

	if m != nil {
		m.SetRunResult(code, time.Now())
		if err := m.WriteTextfile(conf.Metrics.Textfile); err != nil {
			log.S(ctx).Errorw("failed writing metrics", "path", conf.Metrics.Textfile, zap.Error(err))
		}
	}

	return code
}

func main() {
	os.Exit(run())
}
