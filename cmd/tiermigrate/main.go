// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-tiermigrate/pkg/cli"
	"github.com/jeremyhahn/go-tiermigrate/pkg/version"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	globalConfig *cli.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context canceled by SIGINT or SIGTERM, so
// in-flight work finishes and unstarted work is skipped rather than
// killed mid-call.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func outputFormat() cli.OutputFormat {
	return cli.OutputFormat(globalConfig.OutputFormat)
}

func fail(err error) error {
	fmt.Fprint(os.Stderr, cli.FormatError(err, outputFormat()))
	// The error already reached the user formatted; silence cobra's
	// duplicate print.
	return errSilent
}

var errSilent = fmt.Errorf("")

// flushHistory persists the run's outcomes to the status log. The
// migration already happened, so a log write failure is reported but
// never fails the command.
func flushHistory(cmdCtx *cli.CommandContext) {
	if err := cmdCtx.AppendHistory(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write status log: %v\n", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tiermigrate",
	Short: "A CLI tool for migrating S3 objects between storage tiers",
	Long: `tiermigrate moves S3 objects between storage classes in bulk.

Objects are selected either one at a time by key or in bulk with a key
mask (prefix, suffix, contains, or regex). Transitions are copy-in-place
operations that rewrite each object onto itself with a new storage
class; archived objects can be restored first. Selections can be saved
as policies and replayed later against fresh listings.

Supported Storage Backends:
  - s3      : AWS S3 (and S3-compatible endpoints)
  - memory  : In-memory backend for testing and dry runs

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (TIERMIGRATE_*)
  - Configuration file (~/.tiermigrate.yaml or ./.tiermigrate.yaml)
  - Default values (lowest priority)`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		viperConfig, err = cli.InitConfig(cfgFile)
		if err != nil {
			return err
		}

		if err := viperConfig.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		globalConfig = cli.GetConfig(viperConfig)
		return nil
	},
}

// maskSpecFromFlags collects the shared mask flags into a MaskSpec.
func maskSpecFromFlags(cmd *cobra.Command) cli.MaskSpec {
	mode, _ := cmd.Flags().GetString("mask-mode")          //nolint:errcheck // flags are validated by cobra
	pattern, _ := cmd.Flags().GetString("mask")            //nolint:errcheck // flags are validated by cobra
	name, _ := cmd.Flags().GetString("mask-name")          //nolint:errcheck // flags are validated by cobra
	caseSensitive, _ := cmd.Flags().GetBool("case-sensitive") //nolint:errcheck // flags are validated by cobra
	allowWildcard, _ := cmd.Flags().GetBool("allow-wildcard") //nolint:errcheck // flags are validated by cobra
	return cli.NewMaskSpec(mode, pattern, name, caseSensitive, allowWildcard, cmd.Flags().Changed("mask-mode"))
}

// addMaskFlags registers the shared mask flag set on a command.
func addMaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mask", "m", "", "mask pattern to select object keys")
	cmd.Flags().String("mask-mode", "prefix", "mask mode (prefix, suffix, contains, regex)")
	cmd.Flags().String("mask-name", "", "optional display name for the mask")
	cmd.Flags().Bool("case-sensitive", false, "match the mask case-sensitively")
	cmd.Flags().Bool("allow-wildcard", false, "allow an empty mask pattern to select every object")
}

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List buckets",
	Long:  `List all buckets visible to the configured credentials, with their regions.`,
	Example: `  tiermigrate buckets
  tiermigrate buckets -o table`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		buckets, err := cmdCtx.ListBucketsCommand(ctx)
		if err != nil {
			return fail(err)
		}

		fmt.Print(cli.FormatBucketsResult(buckets, outputFormat()))
		return nil
	},
}

var objectsCmd = &cobra.Command{
	Use:   "objects <bucket>",
	Short: "List objects in a bucket",
	Long: `List a bucket's objects with their size, storage class, and restore
state. An optional mask narrows the listing to matching keys.`,
	Example: `  tiermigrate objects my-bucket
  tiermigrate objects my-bucket --mask logs/ --mask-mode prefix
  tiermigrate objects my-bucket --mask '\.parquet$' --mask-mode regex -o table`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		records, err := cmdCtx.ListObjectsCommand(ctx, args[0], maskSpecFromFlags(cmd))
		if err != nil {
			return fail(err)
		}

		fmt.Print(cli.FormatObjectsResult(records, outputFormat()))
		return nil
	},
}

var headCmd = &cobra.Command{
	Use:   "head <bucket> <key>",
	Short: "Refresh one object's metadata",
	Long: `Fetch a single object's current metadata, including its restore
status. Use this to watch a pending restore become available.`,
	Example: `  tiermigrate head my-bucket logs/2024/app.log
  tiermigrate head my-bucket archive.tar -o json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		record, err := cmdCtx.HeadObjectCommand(ctx, args[0], args[1])
		if err != nil {
			return fail(err)
		}

		fmt.Print(cli.FormatObjectResult(record, outputFormat()))
		return nil
	},
}

var transitionCmd = &cobra.Command{
	Use:   "transition <bucket>",
	Short: "Transition objects to another storage class",
	Long: `Transition the selected objects to the destination storage class by
copying each object onto itself with the class overridden. Select a
single object with --key or many with a mask. Archived objects can be
restored first with --restore-first; the restore request is issued
without waiting for completion.

Each object succeeds or fails on its own. The command reports one
outcome per selected object, in selection order, and a non-zero amount
of failures never aborts the remaining objects.`,
	Example: `  tiermigrate transition my-bucket --key logs/app.log --class GLACIER
  tiermigrate transition my-bucket --mask logs/ --class DEEP_ARCHIVE
  tiermigrate transition my-bucket --mask '\.tmp$' --mask-mode regex --class STANDARD_IA
  tiermigrate transition my-bucket --mask old/ --class STANDARD --restore-first`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		key, _ := cmd.Flags().GetString("key")              //nolint:errcheck // flags are validated by cobra
		class, _ := cmd.Flags().GetString("class")          //nolint:errcheck // flags are validated by cobra
		restoreFirst, _ := cmd.Flags().GetBool("restore-first") //nolint:errcheck // flags are validated by cobra

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		outcomes, err := cmdCtx.TransitionCommand(ctx, args[0], key, maskSpecFromFlags(cmd), class, restoreFirst)
		if err != nil {
			return fail(err)
		}
		flushHistory(cmdCtx)

		fmt.Print(cli.FormatOutcomesResult(outcomes, outputFormat()))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <bucket>",
	Short: "Request temporary restores for archived objects",
	Long: `Request a temporary restore for the selected archived objects. The
restore completes asynchronously on the backend; poll with 'head' until
the object reports AVAILABLE.`,
	Example: `  tiermigrate restore my-bucket --key archive/2019.tar
  tiermigrate restore my-bucket --mask archive/ --days 14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		key, _ := cmd.Flags().GetString("key") //nolint:errcheck // flags are validated by cobra
		days, _ := cmd.Flags().GetInt("days")  //nolint:errcheck // flags are validated by cobra

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		outcomes, err := cmdCtx.RestoreCommand(ctx, args[0], key, maskSpecFromFlags(cmd), days)
		if err != nil {
			return fail(err)
		}
		flushHistory(cmdCtx)

		fmt.Print(cli.FormatOutcomesResult(outcomes, outputFormat()))
		return nil
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage saved migration policies",
	Long: `Manage saved migration policies. A policy captures a bucket, a mask,
a destination storage class, and the restore-first flag, and can be
replayed later against a fresh listing.`,
}

var policySaveCmd = &cobra.Command{
	Use:   "save <bucket>",
	Short: "Save a migration policy",
	Long: `Validate and persist a migration policy. Saved policies are
immutable; to change one, remove it and save a new one.`,
	Example: `  tiermigrate policy save my-bucket --mask logs/ --class GLACIER
  tiermigrate policy save my-bucket --mask '\.bak$' --mask-mode regex --class DEEP_ARCHIVE --notes "old backups"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		class, _ := cmd.Flags().GetString("class")              //nolint:errcheck // flags are validated by cobra
		restoreFirst, _ := cmd.Flags().GetBool("restore-first") //nolint:errcheck // flags are validated by cobra
		notes, _ := cmd.Flags().GetString("notes")              //nolint:errcheck // flags are validated by cobra

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		id, err := cmdCtx.SavePolicyCommand(ctx, args[0], maskSpecFromFlags(cmd), class, restoreFirst, notes)
		if err != nil {
			return fail(err)
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Saved policy %s", id),
			Data:    map[string]any{"id": id},
		}
		fmt.Print(cli.FormatOperationResult(result, outputFormat()))
		return nil
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved policies",
	Example: `  tiermigrate policy list
  tiermigrate policy list -o table`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		fmt.Print(cli.FormatPoliciesResult(cmdCtx.ListPoliciesCommand(), outputFormat()))
		return nil
	},
}

var policyRemoveCmd = &cobra.Command{
	Use:     "remove <policy-id>",
	Short:   "Remove a saved policy",
	Example: `  tiermigrate policy remove 6a1f6f6e-8c7a-4d2e-b9a5-0f1e2d3c4b5a`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		if err := cmdCtx.RemovePolicyCommand(ctx, args[0]); err != nil {
			return fail(err)
		}

		result := &cli.OperationResult{
			Success: true,
			Message: fmt.Sprintf("Removed policy %s", args[0]),
		}
		fmt.Print(cli.FormatOperationResult(result, outputFormat()))
		return nil
	},
}

var policyReplayCmd = &cobra.Command{
	Use:   "replay <policy-id>",
	Short: "Replay a saved policy against a fresh listing",
	Long: `Re-run a saved policy. The bucket is listed again, the stored mask is
resolved against the fresh listing, and the transition runs against the
resulting target set. Objects already in the destination class are
copied again; re-running a policy is safe.`,
	Example: `  tiermigrate policy replay 6a1f6f6e-8c7a-4d2e-b9a5-0f1e2d3c4b5a`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		outcomes, err := cmdCtx.ReplayPolicyCommand(ctx, args[0])
		if err != nil {
			return fail(err)
		}
		flushHistory(cmdCtx)

		fmt.Print(cli.FormatOutcomesResult(outcomes, outputFormat()))
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the persisted outcome log",
	Long: `Show recorded outcomes in append order. Each transition, restore, and
policy replay appends its outcomes to the status log file, so the log
accumulates across invocations. Truncate the file to reset it.`,
	Example: `  tiermigrate log
  tiermigrate log -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdCtx, err := cli.NewCommandContext(globalConfig)
		if err != nil {
			return fail(err)
		}

		outcomes, err := cmdCtx.ReadHistory()
		if err != nil {
			return fail(err)
		}

		fmt.Print(cli.FormatOutcomesResult(outcomes, outputFormat()))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long:  `Display the effective configuration after merging flags, environment variables, and the config file. Secrets are masked.`,
	Example: `  tiermigrate config
  tiermigrate config -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateConfig(globalConfig); err != nil {
			return fail(err)
		}
		fmt.Print(cli.DisplayConfig(globalConfig, globalConfig.OutputFormat))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tiermigrate version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get())
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tiermigrate.yaml)")
	rootCmd.PersistentFlags().String("backend", "s3", "storage backend (s3, memory)")
	rootCmd.PersistentFlags().String("region", "", "AWS region")
	rootCmd.PersistentFlags().String("endpoint", "", "custom S3 endpoint URL")
	rootCmd.PersistentFlags().String("access-key", "", "access key (falls back to the SDK credential chain)")
	rootCmd.PersistentFlags().String("secret-key", "", "secret key (falls back to the SDK credential chain)")
	rootCmd.PersistentFlags().Bool("force-path-style", false, "use path-style addressing (for S3-compatible endpoints)")
	rootCmd.PersistentFlags().StringP("output-format", "o", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().String("policy-file", "", "policy file path (default .migration-policies.json)")
	rootCmd.PersistentFlags().String("status-file", "", "status log path (default .migration-status.jsonl)")
	rootCmd.PersistentFlags().Int("workers", 8, "concurrent backend calls per run (1-16)")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "backend calls per second, 0 for unlimited")
	rootCmd.PersistentFlags().Bool("audit-log", false, "emit structured audit events to stdout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	// Selection flags shared by action commands
	addMaskFlags(objectsCmd)
	addMaskFlags(transitionCmd)
	addMaskFlags(restoreCmd)
	addMaskFlags(policySaveCmd)

	transitionCmd.Flags().StringP("key", "k", "", "single object key to transition")
	transitionCmd.Flags().StringP("class", "c", "", "destination storage class (required)")
	transitionCmd.Flags().Bool("restore-first", false, "request a restore before transitioning archived objects")
	_ = transitionCmd.MarkFlagRequired("class")

	restoreCmd.Flags().StringP("key", "k", "", "single object key to restore")
	restoreCmd.Flags().Int("days", 0, "restore retention in days (default from config)")

	policySaveCmd.Flags().StringP("class", "c", "", "destination storage class (required)")
	policySaveCmd.Flags().Bool("restore-first", false, "request a restore before transitioning archived objects")
	policySaveCmd.Flags().String("notes", "", "free-form notes stored with the policy")
	_ = policySaveCmd.MarkFlagRequired("class")

	policyCmd.AddCommand(policySaveCmd)
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyRemoveCmd)
	policyCmd.AddCommand(policyReplayCmd)

	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(objectsCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
