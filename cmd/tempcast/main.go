package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	"go.uber.org/zap"

	"github.com/lox/tempcast/internal/api"
	"github.com/lox/tempcast/internal/logger"
	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/modelsync"
	"github.com/lox/tempcast/internal/sarima"
	"github.com/lox/tempcast/internal/store"
)

type CLI struct {
	EnvFile kongdotenv.ENVFileConfig `kong:"optional,name=env-file,default='.env',help='Path to .env file'"`

	Model     string `help:"Path to the fitted SARIMA model artifact." default:"modelo_sarima.json" env:"TEMPCAST_MODEL"`
	Port      string `help:"HTTP server port." default:"8080" env:"PORT"`
	HistoryDB string `name:"history-db" help:"SQLite database for forecast history (disabled when empty)." env:"TEMPCAST_HISTORY_DB"`

	ModelURL         string        `name:"model-url" help:"HTTP(S) URL to download the model artifact from before loading." env:"TEMPCAST_MODEL_URL"`
	ModelFTPHost     string        `name:"model-ftp-host" help:"FTP host (host:port) to download the model artifact from before loading." env:"TEMPCAST_MODEL_FTP_HOST"`
	ModelFTPPath     string        `name:"model-ftp-path" help:"Remote path of the model artifact." default:"modelo_sarima.json" env:"TEMPCAST_MODEL_FTP_PATH"`
	ModelFTPUser     string        `name:"model-ftp-user" help:"FTP user." default:"anonymous" env:"TEMPCAST_MODEL_FTP_USER"`
	ModelFTPPassword string        `name:"model-ftp-password" help:"FTP password." env:"TEMPCAST_MODEL_FTP_PASSWORD"`
	ModelTimeout     time.Duration `name:"model-timeout" help:"Timeout for one artifact download attempt." default:"30s" env:"TEMPCAST_MODEL_TIMEOUT"`

	LogLevel string `name:"log-level" help:"Log level." default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`
	Env      string `help:"Runtime environment, production selects JSON logs." default:"development" env:"TEMPCAST_ENV"`
	Profile  string `help:"Write a cpu or mem profile to the working directory." placeholder:"cpu|mem"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("tempcast"),
		kong.Description("Monthly temperature forecasts from a fitted SARIMA model."),
	)

	log, err := logger.New(cli.LogLevel, cli.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cli, log); err != nil {
		log.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cli CLI, log *zap.SugaredLogger) error {
	switch cli.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		return fmt.Errorf("unknown profile %q, want cpu or mem", cli.Profile)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if fetcher := modelFetcher(cli); fetcher != nil {
		if err := modelsync.NewSyncer(fetcher, cli.Model, log).Sync(ctx); err != nil {
			return fmt.Errorf("sync model from %s: %w", fetcher, err)
		}
	}

	model, err := loadModel(cli.Model)
	if err != nil {
		return err
	}
	summary := model.Summary()
	metrics.ModelInfo.WithLabelValues(summary.Name, summary.Order).Set(float64(summary.NObs))
	log.Infow("model loaded",
		"path", cli.Model,
		"name", summary.Name,
		"order", summary.Order,
		"start", summary.Start.Format("2006-01"),
		"end", summary.End.Format("2006-01"),
		"aic", summary.AIC,
	)

	var history *store.Store
	if cli.HistoryDB != "" {
		st, db, err := store.Open(cli.HistoryDB, log)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer db.Close()
		history = st
		log.Infow("forecast history enabled", "path", cli.HistoryDB)
	}

	server := api.NewServer(model, history, cli.Port, log)
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// loadModel loads the artifact at path. Any failure is fatal to startup.
func loadModel(path string) (*sarima.Model, error) {
	model, err := sarima.Load(path)
	if errors.Is(err, sarima.ErrModelNotFound) {
		return nil, fmt.Errorf("the fitted SARIMA model file %q was not found. Place the model artifact next to the binary or pass --model", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return model, nil
}

// modelFetcher picks the artifact source. A URL wins over FTP; nil means the
// local file is used as is.
func modelFetcher(cli CLI) modelsync.Fetcher {
	switch {
	case cli.ModelURL != "":
		return modelsync.NewHTTPFetcher(cli.ModelURL, cli.ModelTimeout)
	case cli.ModelFTPHost != "":
		return modelsync.NewFTPFetcher(modelsync.FTPConfig{
			Host:     cli.ModelFTPHost,
			Path:     cli.ModelFTPPath,
			User:     cli.ModelFTPUser,
			Password: cli.ModelFTPPassword,
			Timeout:  cli.ModelTimeout,
		})
	default:
		return nil
	}
}
