package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/disposable/internal/app"
	"github.com/MrSnakeDoc/disposable/internal/config"
	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/logger"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

// newLogger is swapped by tests. Logs go to the command's stderr.
var newLogger = func(cfg *config.Config, w io.Writer) logger.Logger {
	return logger.NewWriter(cfg.LogLevel, cfg.PrettyLog, w)
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func NewRoot(version string) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "disposable",
		Short:         "disposable: detect throwaway email domains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.SetVersionTemplate("disposable {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("DISPOSABLE_CONFIG_FILE"), "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override: debug|info|warn|error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newSourcesCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newUpdateCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))

	return cmd
}

// openApp loads the configuration and wires the application. The caller
// owns the returned App and must Close it.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, asExit(err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	a, err := app.New(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return nil, asExit(err)
	}
	return a, nil
}

func asExit(err error) error {
	if errors.Is(err, domain.ErrConfiguration) {
		return &ExitError{code: exitConfig, message: err.Error()}
	}
	return err
}

// unknownSource prints the operator guidance for a registry miss. It returns
// false when err is not an unknown source error.
func unknownSource(w io.Writer, err error) bool {
	var use *domain.UnknownSourceError
	if !errors.As(err, &use) {
		return false
	}
	fmt.Fprintf(w, "Source '%s' not found.\n\n", use.Name)
	fmt.Fprintln(w, "Available sources:")
	for _, name := range use.Available {
		fmt.Fprintf(w, "  - %s\n", name)
	}
	return true
}
