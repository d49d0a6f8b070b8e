package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vk/irispipe/internal/datamodels"
)

func newCompareCommand() *cobra.Command {
	tol := datamodels.DefaultTolerance
	cmd := &cobra.Command{
		Use:   "compare [flags] A.fits B.fits",
		Short: "Compare the science arrays of two products",
		Long: `compare checks |a-b| <= atol + rtol*|b| for every pixel and reports
differing header keywords. It exits with status 1 when the arrays differ.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := datamodels.OpenImageModel(args[0])
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			b, err := datamodels.OpenImageModel(args[1])
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}

			report := datamodels.Diff(a, b, tol)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.String())
			for _, kw := range report.Keywords {
				fmt.Fprintf(out, "  %s: %v != %v\n", kw.Name, kw.A, kw.B)
			}
			if !report.DataEqual() {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%s and %s differ", args[0], args[1])}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tol.Rtol, "rtol", tol.Rtol, "Relative tolerance.")
	cmd.Flags().Float64Var(&tol.Atol, "atol", tol.Atol, "Absolute tolerance.")
	return cmd
}
