// Package config loads layered YAML configuration with viper, fills
// defaults, validates the result and optionally hot-reloads it.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/leeforge/mediakit/errors"
)

// Options controls where configuration is read from.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Mode      EnvMode
	// Watch reloads the bound struct when a loaded file changes.
	Watch    bool
	OnChange func(e fsnotify.Event)
}

// DefaultOptions reads config/config.yaml and its overlays. CONFIG_PATH
// overrides the directory.
func DefaultOptions() Options {
	base := os.Getenv("CONFIG_PATH")
	if base == "" {
		base = "config"
	}
	return Options{
		BasePath: base,
		FileName: "config",
		FileType: "yaml",
		Mode:     CurrentMode(),
	}
}

// Loader owns a viper instance built from the layered files and the
// environment.
type Loader struct {
	v     *viper.Viper
	opts  Options
	files []string

	mu        sync.RWMutex
	watchOnce sync.Once
	validate  *validator.Validate
}

// NewLoader merges every existing overlay file, then environment
// variables. Missing files are not an error; defaults fill the gaps.
func NewLoader(opts Options) (*Loader, error) {
	if opts.FileName == "" {
		opts.FileName = "config"
	}
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}
	if opts.Mode == "" {
		opts.Mode = CurrentMode()
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	files := existingFiles(opts)
	if err := readFiles(v, files); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	return &Loader{
		v:        v,
		opts:     opts,
		files:    files,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Files lists the files that were merged, lowest priority first.
func (l *Loader) Files() []string { return l.files }

// Viper exposes the underlying instance.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Bind fills target with struct-tag defaults, overlays the loaded values
// and validates the result. With Options.Watch set, later file changes are
// re-bound into target under the loader's lock.
func (l *Loader) Bind(target any) error {
	if target == nil {
		return apperrors.InvalidArgument("target", nil, "must be a pointer to a struct")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.bind(target); err != nil {
		return err
	}

	if l.opts.Watch && len(l.files) > 0 {
		l.watchOnce.Do(func() {
			l.v.OnConfigChange(func(e fsnotify.Event) {
				l.mu.Lock()
				// viper reloaded only the watched file; restore the overlay stack.
				err := readFiles(l.v, l.files)
				if err == nil {
					err = l.bind(target)
				}
				l.mu.Unlock()
				if err == nil && l.opts.OnChange != nil {
					l.opts.OnChange(e)
				}
			})
			l.v.WatchConfig()
		})
	}
	return nil
}

func (l *Loader) bind(target any) error {
	bindEnvKeys(l.v, reflect.TypeOf(target), "")
	if err := defaults.Set(target); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "set config defaults")
	}
	if err := l.v.Unmarshal(target); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "decode config")
	}
	if err := l.validate.Struct(target); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "validate config")
	}
	return nil
}

// RLock guards reads of a watched target against concurrent reloads.
func (l *Loader) RLock()   { l.mu.RLock() }
func (l *Loader) RUnlock() { l.mu.RUnlock() }

// WriteTo exports the merged settings to path.
func (l *Loader) WriteTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, "create config directory")
	}
	if err := l.v.WriteConfigAs(path); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeDestinationUnwritable, "write config").
			WithDetail("path", path)
	}
	return nil
}

// bindEnvKeys registers every mapstructure key of t with viper so that
// environment variables apply even when no file mentions the key.
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		ft := f.Type
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}) {
			bindEnvKeys(v, ft, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

func readFiles(v *viper.Viper, files []string) error {
	for i, file := range files {
		v.SetConfigFile(file)
		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}
		if err != nil {
			return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalidArgument, "read config file").
				WithDetail("path", file)
		}
	}
	return nil
}

func existingFiles(opts Options) []string {
	var files []string
	for _, name := range overlayNames(opts.FileName, opts.Mode) {
		path := filepath.Join(opts.BasePath, name+"."+opts.FileType)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files = append(files, path)
		}
	}
	return files
}
