package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/dynotag/internal/config"
	"github.com/shaiso/dynotag/internal/domain"
)

// Коды завершения процесса.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitNotFound = 3
)

// App — корневая команда dynotag.
type App struct {
	root   *cobra.Command
	logger *slog.Logger

	opts       Options
	jsonOutput bool

	session *Session
	stdout  io.Writer
	stderr  io.Writer
}

// NewApp создаёт корневую команду с подкомандами list, create, delete.
func NewApp(version string, logger *slog.Logger) *App {
	a := &App{
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	a.root = &cobra.Command{
		Use:           "dynotag",
		Short:         "Manage Dyno tags of a server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := a.root.PersistentFlags()
	flags.StringVar(&a.opts.ConfigFile, "config", config.DefaultFile, "Path to JSON config file")
	flags.StringVar(&a.opts.BaseURL, "base-url", "", "Dyno base URL (overrides config)")
	flags.StringVar(&a.opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file (overrides config)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	a.root.AddCommand(
		NewListCmd(a.service, a.output),
		NewCreateCmd(a.service, a.output),
		NewDeleteCmd(a.service, a.output),
	)

	return a
}

// SetOutput перенаправляет вывод команд.
func (a *App) SetOutput(stdout, stderr io.Writer) {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
}

// Execute выполняет команду и освобождает ресурсы сессии.
func (a *App) Execute(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	err := a.root.ExecuteContext(ctx)

	if a.session != nil {
		if closeErr := a.session.Close(); closeErr != nil {
			a.logger.Warn("failed to close session", "error", closeErr)
		}
		a.session = nil
	}

	return err
}

// service лениво открывает сессию после парсинга флагов.
func (a *App) service() (TagService, error) {
	if a.session == nil {
		s, err := OpenSession(a.root.Context(), a.opts, a.logger)
		if err != nil {
			return nil, err
		}
		a.session = s
	}
	return a.session.Service, nil
}

func (a *App) output() *Printer {
	return newPrinter(a.jsonOutput, a.stdout, a.stderr)
}

// ReportError печатает ошибку Execute в stderr с учётом --json.
func (a *App) ReportError(err error) {
	a.output().Failure(err)
}

// ExitCode переводит ошибку команды в код завершения процесса.
func ExitCode(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return ExitOK
	case domain.KindConfig, domain.KindInvalidHeader:
		return ExitConfig
	case domain.KindNotFound:
		return ExitNotFound
	default:
		return ExitFailure
	}
}
