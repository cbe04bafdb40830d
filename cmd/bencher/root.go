package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/bencher/internal/benchmarks"
	"github.com/banshee-data/bencher/internal/monitoring"
	"github.com/banshee-data/bencher/internal/sweep"
	"github.com/banshee-data/bencher/internal/version"
)

type globalFlags struct {
	verbose bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	reg := benchmarks.Default()

	root := &cobra.Command{
		Use:           "bencher",
		Short:         "Cached parameter sweeps over benchmark functions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.apply()
		},
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "disable logging")

	root.AddCommand(
		newRunCmd(reg),
		newCacheCmd(reg),
		newBenchmarksCmd(reg),
		newAdminCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}

func (g globalFlags) apply() error {
	switch {
	case g.quiet:
		monitoring.SetLogger(nil)
	case g.verbose:
		logf, err := monitoring.NewZapLogf(true)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		monitoring.SetLogger(logf)
	}
	return nil
}

func newBenchmarksCmd(reg *sweep.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "benchmarks",
		Short: "List the available benchmarks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, info := range reg.List() {
				fmt.Fprintf(out, "%s %s\t%s\n", info.Name, info.Version, info.Description)
				b, _ := reg.Get(info.Name)
				for _, v := range b.Inputs {
					fmt.Fprintf(out, "    in  %s\n", describeVariable(v))
				}
				for _, r := range b.Results {
					fmt.Fprintf(out, "    out %s [%s]\n", r.Name, r.Unit)
				}
			}
		},
	}
}

func describeVariable(v sweep.Variable) string {
	var dom string
	switch v.Kind {
	case sweep.KindContinuous:
		dom = fmt.Sprintf("%g:%g", v.Lo, v.Hi)
	case sweep.KindDiscrete:
		dom = fmt.Sprint(v.Ints)
		if len(v.Ints) == 0 {
			dom = fmt.Sprintf("%g:%g", v.Lo, v.Hi)
		}
	case sweep.KindBoolean:
		dom = "bool"
	case sweep.KindEnum:
		dom = fmt.Sprint(v.Options)
	}
	s := fmt.Sprintf("%s %s %s [%s]", v.Name, v.Kind, dom, v.Unit)
	if v.Const {
		s += fmt.Sprintf(" const=%v", v.ConstValue)
	}
	return s
}
