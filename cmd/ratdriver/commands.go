// cmd/ratdriver/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/ratdriver/internal/browser"
	"github.com/valpere/ratdriver/internal/config"
	"github.com/valpere/ratdriver/internal/scenario"
)

func (a *app) validateCommand() *cobra.Command {
	var isScenario, watch bool

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate preferences or scenario files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, file := range args {
				if isScenario {
					s, err := scenario.LoadFromFile(a.fs, file)
					if err != nil {
						return fmt.Errorf("validation failed: %w", err)
					}
					if a.verbose {
						fmt.Fprintf(a.out, "Scenario %q: %d steps\n", s.Name, len(s.Steps))
					}
				} else {
					prefs, err := config.LoadFromFile(a.fs, file)
					if err != nil {
						return err
					}
					if a.verbose {
						fmt.Fprintf(a.out, "Configuration details:\n")
						fmt.Fprintf(a.out, "  Name: %s\n", prefs.Name)
						fmt.Fprintf(a.out, "  Timeout: %s\n", prefs.Timeout)
						fmt.Fprintf(a.out, "  Debug level: %s\n", prefs.DebugLevel)
					}
				}
				fmt.Fprintf(a.out, "✓ '%s' is valid\n", file)
			}
			if !watch {
				return nil
			}
			if isScenario || len(args) != 1 {
				return fmt.Errorf("--watch takes a single preferences file")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watchPreferences(ctx, args[0])
		},
	}
	cmd.Flags().BoolVar(&isScenario, "scenario", false, "files are scenarios rather than preferences")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep validating the preferences file whenever it changes")
	return cmd
}

// watchPreferences reports every successful reload of file until ctx is done.
// Invalid edits are logged by the watcher and the previous result stands.
func (a *app) watchPreferences(ctx context.Context, file string) error {
	logger, err := a.logger(config.Default())
	if err != nil {
		return err
	}
	watcher, err := config.NewWatcher(file, logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	watcher.OnChange(func(prefs *config.Preferences) {
		fmt.Fprintf(a.out, "✓ '%s' reloaded (%s)\n", file, prefs.Name)
	})
	fmt.Fprintf(a.out, "Watching '%s' for changes, press Ctrl+C to stop\n", file)
	<-ctx.Done()
	return nil
}

func (a *app) templateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print a documented preferences file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			template := config.GenerateTemplate()
			if output == "" {
				return config.SaveToWriter(template, a.out)
			}
			if err := config.SaveToFile(a.fs, template, output); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Template written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the template to this file")
	return cmd
}

func (a *app) devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the phones available for mobile emulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCREEN\tRATIO\tTOUCH")
			for _, p := range browser.Phones() {
				info := p.Device()
				fmt.Fprintf(w, "%s\t%dx%d\t%g\t%t\n", info.Name, info.Width, info.Height, info.Scale, info.Touch)
			}
			return w.Flush()
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "ratdriver %s\n", version)
			fmt.Fprintf(a.out, "Build time: %s\n", buildTime)
			fmt.Fprintf(a.out, "Git commit: %s\n", gitCommit)
		},
	}
}
