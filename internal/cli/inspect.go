package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vk/irispipe/internal/app"
	"github.com/vk/irispipe/internal/crds"
)

// newInspectApp builds an app for the listing commands. They never touch
// the reference cache, so CRDS settings only need to be well formed.
func newInspectApp(g *globalFlags, logW io.Writer, profileDirs []string) (*app.App, error) {
	crdsCfg, err := crds.LoadConfig()
	if err != nil {
		return nil, &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	cfg, err := app.NewConfig(app.Config{
		ProfileDirs: profileDirs,
		CRDS:        crdsCfg,
		LogFormat:   g.logFormat,
		LogLevel:    g.logLevel,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	// Listings are short; only debug logs are worth showing next to them.
	if g.logLevel != "debug" {
		logW = io.Discard
	}
	return app.NewApp(logW, cfg)
}

func newProfilesCommand(g *globalFlags) *cobra.Command {
	var dirs []string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the calibration profiles that can be used with run -c",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newInspectApp(g, cmd.ErrOrStderr(), dirs)
			if err != nil {
				return err
			}
			entries, err := a.Profiles(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Source)
			}
			return tw.Flush()
		},
	}
	addProfileDirsFlag(cmd, &dirs)
	return cmd
}

func newModelsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show the model class bound to each canonical model name, and the registered steps",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newInspectApp(g, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			bindings := a.Models()
			names := make([]string, 0, len(bindings))
			for n := range bindings {
				names = append(names, n)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tCLASS")
			for _, n := range names {
				fmt.Fprintf(tw, "%s\t%s\n", n, bindings[n])
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "STEP\tREFERENCES\tDESCRIPTION")
			for _, n := range a.Steps().Names() {
				s, _ := a.Steps().Lookup(n)
				refs := "-"
				if len(s.RefTypes) > 0 {
					refs = fmt.Sprint(s.RefTypes)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, refs, s.Description)
			}
			return tw.Flush()
		},
	}
}
