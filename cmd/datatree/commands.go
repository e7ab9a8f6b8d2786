package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-datatree/internal/loader"
	"github.com/goliatone/go-datatree/pkg/console"
	"github.com/goliatone/go-datatree/pkg/datapath"
	"github.com/goliatone/go-datatree/pkg/editor"
	"github.com/goliatone/go-datatree/pkg/session"
	"github.com/goliatone/go-datatree/pkg/snapshot"
	"github.com/goliatone/go-datatree/pkg/tree"
)

var (
	schemaPath   string
	openAPI      bool
	rootName     string
	baselinePath string
	workingPath  string
	sessionPath  string
	modeName     string
	subtree      string
	pageSize     int
	outputFormat string
	outPath      string
	exportSave   bool
	logLevel     string
	hideHidden   bool
	timeout      time.Duration

	// promptDriver overrides the survey driver used by edit.
	promptDriver console.PromptDriver

	rootCmd = &cobra.Command{
		Use:   "datatree",
		Short: "Build and edit schema-driven data trees",
		Long: `datatree turns a schema document plus a baseline and working snapshot
into an annotated tree, highlighting what changed between the two.`,
		SilenceUsage: true,
	}

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Print the tree for a baseline/working snapshot pair",
		RunE:  runBuild,
	}

	editCmd = &cobra.Command{
		Use:   "edit",
		Short: "Interactively add, remove and duplicate array items",
		RunE:  runEdit,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&schemaPath, "schema", "", "schema document path or URL (JSON or YAML)")
	flags.BoolVar(&openAPI, "openapi", false, "read the schema from an OpenAPI 3 document")
	flags.StringVar(&rootName, "root", "", "root definition name")
	flags.StringVar(&baselinePath, "baseline", "", "baseline snapshot (JSON or YAML); empty means a new record")
	flags.StringVar(&workingPath, "working", "", "working snapshot; defaults to the baseline")
	flags.StringVar(&sessionPath, "session", "", "session state file restored on start")
	flags.StringVar(&modeName, "mode", "edit", "view or edit")
	flags.IntVar(&pageSize, "page-size", tree.DefaultPageSize, "array items shown per page")
	flags.BoolVar(&hideHidden, "hide-hidden", false, "omit fields flagged hidden")
	flags.StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "timeout for remote schema documents")
	_ = rootCmd.MarkPersistentFlagRequired("schema")
	_ = rootCmd.MarkPersistentFlagRequired("root")

	buildCmd.Flags().StringVar(&subtree, "subtree", "", "only rebuild the node at this logical path")
	buildCmd.Flags().StringVar(&outputFormat, "format", "outline", "outline or json")

	editCmd.Flags().StringVar(&outPath, "out", "", "where the working snapshot is written on save (defaults to --working)")
	editCmd.Flags().BoolVar(&exportSave, "export", false, "save without logical-index markers, for persisting the final record")

	rootCmd.AddCommand(buildCmd, editCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	ed, err := openEditor(ctx)
	if err != nil {
		return err
	}

	var result tree.Result
	if subtree != "" {
		path, err := datapath.Parse(subtree)
		if err != nil {
			return err
		}
		result, err = ed.Rebuild(ctx, path)
		if err != nil {
			return err
		}
	} else {
		result, err = ed.Build(ctx)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(outputFormat) {
	case "json":
		return writeJSON(out, result)
	case "outline", "":
		return console.Outline(out, result)
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
}

func runEdit(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	ed, err := openEditor(ctx)
	if err != nil {
		return err
	}

	ui := console.New(
		console.WithPromptDriver(promptDriver),
		console.WithOutput(cmd.OutOrStdout()),
		console.WithLogger(newLogger()),
	)
	saved, err := ui.Run(ctx, ed)
	if err != nil {
		return err
	}
	if !saved {
		return nil
	}

	target := outPath
	if target == "" {
		target = workingPath
	}
	if target == "" {
		return fmt.Errorf("nowhere to save: pass --out or --working")
	}
	// Markers stay in the saved working snapshot so the next run reconciles
	// items against the same baseline identities.
	saveSnap := ed.Working()
	if exportSave {
		saveSnap = ed.Export()
	}
	if err := snapshot.WriteFile(target, saveSnap); err != nil {
		return err
	}
	if sessionPath != "" {
		if err := writeSession(sessionPath, ed.Session()); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "working snapshot written to %s\n", target)
	return nil
}

func openEditor(ctx context.Context) (*editor.Editor, error) {
	mode, err := parseMode(modeName)
	if err != nil {
		return nil, err
	}

	src, err := loader.Detect(schemaPath)
	if err != nil {
		return nil, err
	}
	doc, err := loader.New(loader.WithHTTP(), loader.WithTimeout(timeout)).Document(ctx, src, openAPI)
	if err != nil {
		return nil, err
	}

	var baseline map[string]any
	if baselinePath != "" {
		if baseline, err = snapshot.ReadFile(baselinePath); err != nil {
			return nil, err
		}
	}
	var working map[string]any
	if workingPath != "" {
		if working, err = snapshot.ReadFile(workingPath); err != nil {
			return nil, err
		}
	}

	options := []editor.Option{
		editor.WithMode(mode),
		editor.WithPageSize(pageSize),
		editor.WithHideHidden(hideHidden),
		editor.WithLogger(newLogger()),
	}
	if sessionPath != "" {
		s, err := readSession(sessionPath)
		if err != nil {
			return nil, err
		}
		options = append(options, editor.WithSession(s))
	}
	return editor.New(doc, rootName, baseline, working, options...)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseMode(raw string) (tree.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "edit", "":
		return tree.ModeEdit, nil
	case "view":
		return tree.ModeView, nil
	default:
		return tree.ModeView, fmt.Errorf("unknown mode %q", raw)
	}
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func readSession(path string) (*session.Session, error) {
	s := session.New()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	state, err := snapshot.DecodeSession(f)
	if err != nil {
		return nil, err
	}
	s.Restore(state)
	return s, nil
}

func writeSession(path string, s *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.EncodeSession(f, s.Snapshot()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, result tree.Result) error {
	payload, err := marshalResult(result)
	if err != nil {
		return err
	}
	_, err = w.Write(append(payload, '\n'))
	return err
}
