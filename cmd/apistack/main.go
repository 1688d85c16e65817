package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/diagram"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/path"
	"github.com/davoodharun/apistack/internal/pipeline"
	"github.com/davoodharun/apistack/internal/publish"
	"github.com/davoodharun/apistack/internal/revision"
	"github.com/davoodharun/apistack/internal/snapshot"
	"github.com/davoodharun/apistack/internal/synth"
	"github.com/davoodharun/apistack/internal/template"
)

// errDrift is returned by diff when the snapshot does not match.
var errDrift = errors.New("template differs from snapshot")

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "apistack",
		Short:         "apistack - API stage topology builder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.SetFormat(opts.logFormat); err != nil {
				return err
			}
			return logger.SetLevel(opts.logLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "stage configuration file (.yaml or .hcl)")
	flags.StringVarP(&opts.env, "env", "e", "", "environment to build")
	flags.StringVar(&opts.revision, "revision", "", "commit hash pinning the container image (default: git HEAD)")
	flags.StringVar(&opts.githubRepo, "github-repo", "", "resolve the revision from owner/repo on GitHub instead of git")
	flags.StringVar(&opts.githubRef, "github-ref", "main", "ref resolved with --github-repo")
	flags.StringVar(&opts.paramsFile, "params", "", "YAML file of parameter values")
	flags.StringVar(&opts.paramsEndpoint, "params-endpoint", "", "parameters and secrets extension endpoint")
	flags.StringVar(&opts.outDir, "out", "", "project directory the .apistack output lives under (default: working directory)")
	flags.StringVar(&opts.logFormat, "log-format", logger.FormatText, "log format: text or json")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	// Initialize a new project with apistack.yaml
	var initOpts template.Options
	initCmd := &cobra.Command{
		Use:   "init [service]",
		Short: "Initialize a new project with apistack.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initOpts.Service = filepath.Base(mustGetwd())
			if len(args) > 0 {
				initOpts.Service = args[0]
			}
			return template.InitProject(initOpts)
		},
	}
	initCmd.Flags().StringVar(&initOpts.Dir, "dir", ".", "directory to write the starter files into")
	initCmd.Flags().StringVar(&initOpts.Region, "region", config.DefaultRegion, "region of the starter stages")
	initCmd.Flags().BoolVar(&initOpts.Force, "force", false, "overwrite existing files")

	// List stages command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the stages defined in the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return template.ListStages(opts.configPath)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve and validate every stage in the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateStages(opts.configPath)
		},
	}

	synthCmd := &cobra.Command{
		Use:   "synth",
		Short: "Build the stage and write its templates, plan and diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			_, err = synth.Generate(s, path.GetOutputPath(opts.outDir, opts.env))
			return err
		},
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the dependency waves of the stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			p, err := pipeline.New(s.Context.Name, s.Context.Env, s.Revision, s.Graph)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), p.Summary())
			return nil
		},
	}

	var snapshotPath string
	var update bool
	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the normalized template with the stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			if snapshotPath == "" {
				snapshotPath = path.SnapshotPath(opts.outDir, opts.env)
			}
			if update {
				doc, err := snapshot.Normalize(s.Graph)
				if err != nil {
					return err
				}
				if err := snapshot.Write(snapshotPath, doc); err != nil {
					return err
				}
				logger.Success("Updated snapshot %s", snapshotPath)
				return nil
			}
			diff, err := snapshot.Compare(snapshotPath, s.Graph)
			if err != nil {
				return err
			}
			if diff != "" {
				fmt.Fprintln(cmd.OutOrStdout(), diff)
				return errDrift
			}
			logger.Success("Template matches snapshot %s", snapshotPath)
			return nil
		},
	}
	diffCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot file (default: .apistack/snapshots/{env}.json)")
	diffCmd.Flags().BoolVar(&update, "update", false, "rewrite the snapshot instead of comparing")

	var diagramFormat, diagramOut string
	diagramCmd := &cobra.Command{
		Use:   "diagram",
		Short: "Draw the resource graph of the stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			if diagramOut == "" {
				content, err := diagram.Render(s.Graph, diagramFormat)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			return diagram.Write(s.Graph, diagramFormat, diagramOut)
		},
	}
	diagramCmd.Flags().StringVarP(&diagramFormat, "format", "f", diagram.FormatMermaid, "mermaid or plantuml")
	diagramCmd.Flags().StringVarP(&diagramOut, "output", "o", "", "write to a file instead of stdout")

	var target string
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Synthesize the stage and upload its artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := publish.ParseTarget(target)
			if err != nil {
				return err
			}
			s, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			result, err := synth.Generate(s, path.GetOutputPath(opts.outDir, opts.env))
			if err != nil {
				return err
			}
			pub, err := t.Open(cmd.Context())
			if err != nil {
				return err
			}
			m := publish.NewManifest(s.Context.Name, s.Context.Env, s.Revision)
			_, err = publish.Dir(cmd.Context(), pub, result.Dir, t.Prefix, m)
			return err
		},
	}
	publishCmd.Flags().StringVar(&target, "target", "", "s3://bucket/prefix or azblob://account/container/prefix")
	publishCmd.MarkFlagRequired("target")

	// Store a GitHub token for --github-repo
	tokenCmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Store a GitHub token in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := revision.StoreToken(args[0]); err != nil {
				return err
			}
			logger.Success("Stored GitHub token in the keyring")
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(tokenCmd)

	return rootCmd
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "api"
	}
	return cwd
}
