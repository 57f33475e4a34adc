package main

import (
	"errors"
	"io/fs"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/mediakit/config"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/thumbnail"
)

// Version is the application version.
const Version = "0.1.0"

// app carries state shared by the subcommands once the root pre-run has
// loaded configuration.
type app struct {
	configDir string
	envFile   string
	watch     bool

	cfg    *config.AppConfig
	loader *config.Loader
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mediakit",
		Short:         "Thumbnails, captchas and spreadsheets",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVar(&a.configDir, "config", "", "configuration directory (default $CONFIG_PATH or ./config)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(
		newThumbCmd(a),
		newCaptchaCmd(a),
		newSheetCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the dotenv file, then the layered configuration, then
// installs the global logger.
func (a *app) setup() error {
	if err := loadEnvFile(a.envFile); err != nil {
		return err
	}

	opts := config.DefaultOptions()
	if a.configDir != "" {
		opts.BasePath = a.configDir
	}
	if a.watch {
		opts.Watch = true
		opts.OnChange = func(e fsnotify.Event) {
			logging.Global().Info("configuration reloaded", zap.String("file", e.Name))
		}
	}

	cfg, loader, err := config.Load(opts)
	if err != nil {
		return err
	}
	a.cfg, a.loader = cfg, loader
	a.logger = logging.Init(cfg.Logging)
	a.logger.Debug("configuration loaded", zap.Strings("files", loader.Files()), zap.String("mode", string(opts.Mode)))
	return nil
}

// loadEnvFile does not override variables already set. A missing file is
// not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (a *app) thumbnailer() (*thumbnail.Thumbnailer, error) {
	interp, err := thumbnail.ParseInterpolation(a.cfg.Thumbnail.Interpolation)
	if err != nil {
		return nil, err
	}
	return thumbnail.New(
		thumbnail.WithLogger(a.logger.Named("thumbnail")),
		thumbnail.WithInterpolation(interp),
		thumbnail.WithJPEGQuality(a.cfg.Thumbnail.JPEGQuality),
		thumbnail.WithMaxPixels(a.cfg.Thumbnail.MaxPixels),
	), nil
}
