package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vk/irispipe/internal/app"
	"github.com/vk/irispipe/internal/crds"
)

type runFlags struct {
	profile       string
	outputDir     string
	profileDirs   []string
	crdsPath      string
	crdsContext   string
	crdsServerURL string
}

func newRunCommand(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [flags] ASSOCIATION",
		Short: "Calibrate the exposures of an association",
		Example: `  irispipe run asn_subtract_bg_flat.json -c image2_iris
  irispipe run asn.json -c ./my_profile.hcl --output-dir out/`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd, g, args[0])
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			run, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range run.Products() {
				if p.Path != "" {
					fmt.Fprintln(cmd.OutOrStdout(), p.Path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.profile, "config", "c", app.DefaultProfile, "Profile name or path to a .hcl/.yaml profile.")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Directory for products (defaults to the profile's, then the association's directory).")
	addProfileDirsFlag(cmd, &f.profileDirs)
	cmd.Flags().StringVar(&f.crdsPath, "crds-path", "", "Reference cache root (overrides CRDS_PATH).")
	cmd.Flags().StringVar(&f.crdsContext, "crds-context", "", "Reference context file (overrides CRDS_CONTEXT).")
	cmd.Flags().StringVar(&f.crdsServerURL, "crds-server-url", "", "Reference server (overrides CRDS_SERVER_URL).")
	return cmd
}

func addProfileDirsFlag(cmd *cobra.Command, dirs *[]string) {
	cmd.Flags().StringSliceVar(dirs, "profiles-dir", nil, "Directory searched for named profiles before the built-ins. Repeatable.")
}

func (f *runFlags) config(cmd *cobra.Command, g *globalFlags, asnPath string) (*app.Config, error) {
	crdsCfg, err := crds.LoadConfig()
	if err != nil {
		return nil, &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	if cmd.Flags().Changed("crds-path") {
		crdsCfg.Path = f.crdsPath
	}
	if cmd.Flags().Changed("crds-context") {
		crdsCfg.Context = f.crdsContext
	}
	if cmd.Flags().Changed("crds-server-url") {
		crdsCfg.ServerURL = f.crdsServerURL
	}

	cfg, err := app.NewConfig(app.Config{
		AssociationPath: asnPath,
		Profile:         f.profile,
		OutputDir:       f.outputDir,
		ProfileDirs:     f.profileDirs,
		CRDS:            crdsCfg,
		LogFormat:       g.logFormat,
		LogLevel:        g.logLevel,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	return cfg, nil
}
