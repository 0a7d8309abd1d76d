// cmd/ratdriver/root.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/valpere/ratdriver/internal/browser"
	"github.com/valpere/ratdriver/internal/config"
	"github.com/valpere/ratdriver/internal/errors"
	"github.com/valpere/ratdriver/internal/utils"
)

// sessionOpener starts the browser session a scenario runs in
type sessionOpener func(ctx context.Context, control *browser.ChromeControl, phone string, touch bool) (*browser.Session, error)

// app carries what the commands share: the filesystem, the output streams
// and the global flags.
type app struct {
	fs          afero.Fs
	out         io.Writer
	errOut      io.Writer
	openSession sessionOpener

	configFile string
	verbose    bool
}

func newApp() *app {
	return &app{
		fs:          afero.NewOsFs(),
		out:         os.Stdout,
		errOut:      os.Stderr,
		openSession: startSession,
	}
}

// execute runs the command line and returns the process exit code
func (a *app) execute(args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.Execute()
	if err == nil {
		return 0
	}

	service := errors.NewService(errors.DefaultRetryConfig()).WithVerbose(a.verbose)
	fmt.Fprint(a.errOut, service.FormatErrorForCLI(err))
	return service.GetExitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ratdriver",
		Short: "Chrome WebDriver sessions and UI test scenarios",
		Long: `ratdriver starts Chrome WebDriver sessions from a preferences file and
runs YAML test scenarios against them, timing every step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "preferences file (defaults plus RATDRIVER_* environment when empty)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and technical error details")

	root.AddCommand(
		a.validateCommand(),
		a.templateCommand(),
		a.devicesCommand(),
		a.runCommand(),
		a.versionCommand(),
	)
	return root
}

// preferences loads the --config file, or the defaults when none is given
func (a *app) preferences() (*config.Preferences, error) {
	prefs, err := config.LoadOrDefault(a.fs, a.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return prefs, nil
}

func (a *app) logger(prefs *config.Preferences) (utils.Logger, error) {
	level, err := utils.ParseLogLevel(prefs.Logging.Level)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = utils.DebugLevel
	}
	return utils.NewLoggerWithConfig(utils.LoggerConfig{
		Level:  level,
		Format: prefs.Logging.Format,
		Output: a.errOut,
	}), nil
}

// startSession opens a desktop session, or a mobile one when phone names a
// catalogue device.
func startSession(ctx context.Context, control *browser.ChromeControl, phone string, touch bool) (*browser.Session, error) {
	if phone == "" {
		return control.StartDriver(ctx)
	}
	p, err := browser.ParsePhoneType(phone)
	if err != nil {
		return nil, err
	}
	return control.StartMobileDriver(ctx, p, touch)
}
