package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"specgate/internal/config"
	"specgate/internal/db"
	"specgate/internal/domain"
	"specgate/internal/registry"
	"specgate/internal/runlog"
	"specgate/internal/spec"
	"specgate/internal/validate"
)

// Version is injectable via ldflags.
var Version = "dev"

// buildMeta holds version and build metadata.
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(version, goos, goarch string) buildMeta {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return buildMeta{Version: version, GoOS: goos, GoArch: goarch}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("specgate %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

func newRootCommand(bm buildMeta) *cobra.Command {
	root := &cobra.Command{
		Use:   "specgate",
		Short: "Registry and validator for model tool-call specifications",
		Long: "Specgate loads declarative function specifications, validates them against\n" +
			"a meta-schema, and checks candidate tool-call payloads against the loaded set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")

	lintCmd := &cobra.Command{
		Use:   "lint <dir>",
		Short: "Meta-validate every spec document in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runLint,
	}
	lintCmd.Flags().String("namespace", "default", "namespace to load the directory under")
	root.AddCommand(lintCmd)

	checkCmd := &cobra.Command{
		Use:   "check <payload.json>",
		Short: "Validate a candidate call payload against the spec set",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().String("specs", "specs", "directory of spec documents")
	checkCmd.Flags().String("namespace", "default", "namespace to load the directory under")
	checkCmd.Flags().String("policy", "warn", "unknown-field policy: warn or reject")
	checkCmd.Flags().String("db", "", "run-log database URL (empty disables the log)")
	root.AddCommand(checkCmd)

	exportCmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Print the JSON Schema for one spec",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().String("specs", "specs", "directory of spec documents")
	exportCmd.Flags().String("namespace", "default", "namespace to load the directory under")
	exportCmd.Flags().Bool("check", false, "compile the export as a cross-check")
	root.AddCommand(exportCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the spec directory and keep the registry in sync",
		RunE:  runWatch,
	}
	watchCmd.Flags().String("config", "specgate.json", "path to config file")
	root.AddCommand(watchCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default specgate.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().String("config", "specgate.json", "path to config file")
	root.AddCommand(initCmd)

	return root
}

func runLint(cmd *cobra.Command, args []string) error {
	namespace, _ := cmd.Flags().GetString("namespace")

	specs, rep, err := spec.LoadDir(namespace, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printReport(out, rep)
	fmt.Fprintf(out, "%d spec(s) loadable, %d error(s), %d warning(s)\n",
		len(specs), len(rep.Errors()), len(rep.Warnings()))
	if rep.HasErrors() {
		return fmt.Errorf("lint: %d error finding(s)", len(rep.Errors()))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	specsDir, _ := cmd.Flags().GetString("specs")
	namespace, _ := cmd.Flags().GetString("namespace")
	policy, _ := cmd.Flags().GetString("policy")
	dbURL, _ := cmd.Flags().GetString("db")

	specs, loadRep, err := spec.LoadDir(namespace, specsDir)
	if err != nil {
		return err
	}
	reg := registry.New()
	if err := reg.ReplaceStrict(namespace, specs, loadRep); err != nil {
		printReport(cmd.ErrOrStderr(), loadRep)
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	call, err := validate.ParseCallPayload(data)
	if err != nil {
		return err
	}
	if call.Namespace == "" {
		call.Namespace = namespace
	}

	v := validate.New(validate.ParsePolicy(policy))
	rep, err := v.ValidateCall(reg, call)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printReport(out, rep)

	if dbURL != "" {
		if err := recordRun(cmd.Context(), dbURL, call, rep); err != nil {
			return err
		}
	}

	if rep.HasErrors() {
		return fmt.Errorf("payload does not conform: %d error finding(s)", len(rep.Errors()))
	}
	fmt.Fprintln(out, "payload conforms")
	return nil
}

func recordRun(ctx context.Context, dbURL string, call domain.CallPayload, rep domain.Report) error {
	conn, err := db.Open(dbURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	store, err := runlog.NewStore(conn)
	if err != nil {
		return err
	}
	return store.Record(ctx, domain.RunRecord{
		Namespace: call.Namespace,
		Name:      call.Name,
		Passed:    !rep.HasErrors(),
		Findings:  rep.Findings,
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	specsDir, _ := cmd.Flags().GetString("specs")
	namespace, _ := cmd.Flags().GetString("namespace")
	check, _ := cmd.Flags().GetBool("check")

	specs, loadRep, err := spec.LoadDir(namespace, specsDir)
	if err != nil {
		return err
	}
	reg := registry.New()
	if err := reg.ReplaceStrict(namespace, specs, loadRep); err != nil {
		printReport(cmd.ErrOrStderr(), loadRep)
		return err
	}

	sp, err := reg.Lookup(namespace, args[0])
	if err != nil {
		return err
	}
	out, err := spec.ExportJSONSchema(sp)
	if err != nil {
		return err
	}
	if check {
		if err := spec.CompileCheck(out); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Infra)
	reg := registry.New()
	w := registry.NewDirWatcher(reg, cfg.Specs.Namespace, cfg.Specs.Dir,
		registry.WithLogger(logger),
		registry.WithDebounce(time.Duration(cfg.Watcher.DebounceMS)*time.Millisecond),
		registry.WithStrictBatch(cfg.Watcher.StrictBatch),
		registry.WithResyncSchedule(cfg.Watcher.ResyncCron),
	)
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching spec directory",
		"dir", cfg.Specs.Dir, "namespace", cfg.Specs.Namespace)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	return nil
}

// newLogger builds a slog logger from the infra config.
func newLogger(w io.Writer, infra domain.InfraConfig) *slog.Logger {
	var level slog.Level
	switch infra.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if infra.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// printReport writes findings one per line: SEVERITY KIND path message.
func printReport(w io.Writer, rep domain.Report) {
	for _, f := range rep.Findings {
		fmt.Fprintf(w, "%-7s %-16s %-24s %s\n", f.Severity, f.Kind, f.Path, f.Message)
	}
}

func main() {
	root := newRootCommand(newBuildMeta(Version, "", ""))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
