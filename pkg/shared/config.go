package shared

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/picosh/utils"
)

const (
	ProjectDirEnv     = "PROJECT_DIR"
	WebsiteDomainEnv  = "WEBSITE_DOMAIN"
	SettingsModuleEnv = "SITES_SETTINGS_MODULE"
	DatabaseURLEnv    = "DATABASE_URL"
	DebugEnv          = "SITES_DEBUG"
	PushgatewayEnv    = "SITES_PUSHGATEWAY_URL"

	DefaultSettingsModule = "settings.yml"
)

var ErrMissingEnv = errors.New("environment variable not found")
var ErrInvalidEnv = errors.New("environment variable is invalid")

// EnvError names the environment variable that could not be used.
type EnvError struct {
	Key string
	Err error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// LookupRequiredEnv returns the value of key or an *EnvError when unset.
func LookupRequiredEnv(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", &EnvError{Key: key, Err: ErrMissingEnv}
	}
	return value, nil
}

type ConfigSite struct {
	Debug bool
	// Absolute project root with any leading `~` expanded.
	ProjectDir string
	// Settings file, relative to ProjectDir unless absolute.
	SettingsModule string
	// Overrides the settings file `database_url` when set.
	DbURL          string
	PushgatewayURL string
	Logger         *slog.Logger
}

func NewConfigSite() (*ConfigSite, error) {
	projectDir, err := LookupRequiredEnv(ProjectDirEnv)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(projectDir) == "" {
		return nil, &EnvError{Key: ProjectDirEnv, Err: ErrInvalidEnv}
	}

	absDir, err := ExpandPath(projectDir)
	if err != nil {
		return nil, &EnvError{Key: ProjectDirEnv, Err: fmt.Errorf("%w: %w", ErrInvalidEnv, err)}
	}

	cfg := &ConfigSite{
		Debug:          DebugEnabled(),
		ProjectDir:     absDir,
		SettingsModule: utils.GetEnv(SettingsModuleEnv, DefaultSettingsModule),
		DbURL:          utils.GetEnv(DatabaseURLEnv, ""),
		PushgatewayURL: utils.GetEnv(PushgatewayEnv, ""),
	}
	cfg.Logger = CreateLogger(cfg.Debug)

	return cfg, nil
}

// DebugEnabled reports whether SITES_DEBUG asks for debug logging.
func DebugEnabled() bool {
	return utils.GetEnv(DebugEnv, "0") == "1"
}

func CreateLogger(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
	}
	if debug {
		opts.Level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stdout, opts),
	)
}
