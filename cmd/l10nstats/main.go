// l10nstats inspects and rebuilds translation completion statistics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-l10n"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

var errUnknownFormat = errors.New("format must be text, json or yaml")

// moduleFactory builds the runtime for one invocation.
type moduleFactory func() (*l10n.Module, error)

func envModule() (*l10n.Module, error) {
	cfg, err := l10n.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return l10n.New(cfg)
}

type app struct {
	newModule moduleFactory
	out       io.Writer
	format    string
}

func newRootCmd(factory moduleFactory, out io.Writer) *cobra.Command {
	a := &app{newModule: factory, out: out}

	root := &cobra.Command{
		Use:   "l10nstats",
		Short: "Translation completion statistics for articles and commits",
		Long: `l10nstats reads and rebuilds the statistics snapshot of an article or a
commit.

Storage, cache and logging come from L10N_* environment variables, for
example L10N_STORAGE_PROVIDER=bun and L10N_STORAGE_DSN=file:l10n.db.

Commands:
  show        Print the statistics of one container
  recompute   Rebuild and persist the snapshot of one container
  list        List a project's articles and commits by readiness
  demo        Seed a demo project and print its statistics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "text", "Output format: text, json or yaml")

	root.AddCommand(
		a.newShowCmd(),
		a.newRecomputeCmd(),
		a.newListCmd(),
		a.newDemoCmd(),
		newVersionCmd(out),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(envModule, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "l10nstats version %s (%s)\n", version, commit)
		},
	}
}

type containerFlags struct {
	kind    string
	id      string
	locales []string
}

func (f *containerFlags) bind(cmd *cobra.Command, withLocales bool) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "Container kind: article or commit")
	cmd.Flags().StringVar(&f.id, "id", "", "Container ID")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	if withLocales {
		cmd.Flags().StringSliceVarP(&f.locales, "locale", "l", nil, "Locales to report on (default: required locales)")
	}
}

func (f *containerFlags) ref() (l10n.ContainerRef, error) {
	kind, err := l10n.ParseContainerKind(f.kind)
	if err != nil {
		return l10n.ContainerRef{}, err
	}
	id, err := uuid.Parse(strings.TrimSpace(f.id))
	if err != nil {
		return l10n.ContainerRef{}, fmt.Errorf("invalid --id %q: %w", f.id, err)
	}
	return l10n.ContainerRef{Kind: kind, ID: id}, nil
}

func (a *app) withModule(fn func(*l10n.Module) error) error {
	module, err := a.newModule()
	if err != nil {
		return err
	}
	runErr := fn(module)
	return errors.Join(runErr, module.Close())
}

func (a *app) newShowCmd() *cobra.Command {
	flags := &containerFlags{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the statistics of one container",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			return a.withModule(func(module *l10n.Module) error {
				scope, err := module.ResolveLocales(flags.locales...)
				if err != nil {
					return err
				}
				query, err := module.Stats(cmd.Context(), ref)
				if err != nil {
					return err
				}
				return a.render(l10n.BuildReport(ref, query, scope...))
			})
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func (a *app) newRecomputeCmd() *cobra.Command {
	flags := &containerFlags{}
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild and persist the snapshot of one container",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			return a.withModule(func(module *l10n.Module) error {
				if _, err := module.Recompute(cmd.Context(), ref); err != nil {
					return err
				}
				query, err := module.Stats(cmd.Context(), ref)
				if err != nil {
					return err
				}
				return a.render(l10n.BuildReport(ref, query))
			})
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func (a *app) newListCmd() *cobra.Command {
	var (
		project string
		status  string
		codes   []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the articles and commits of a project by readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(strings.TrimSpace(project))
			if err != nil {
				return fmt.Errorf("invalid --project %q: %w", project, err)
			}
			readiness, err := l10n.ParseReadiness(status)
			if err != nil {
				return err
			}
			return a.withModule(func(module *l10n.Module) error {
				scope, err := module.ResolveLocales(codes...)
				if err != nil {
					return err
				}
				items, err := module.ListContainers(cmd.Context(), projectID, readiness, scope...)
				if err != nil {
					return err
				}
				reports := make([]l10n.Report, 0, len(items))
				for _, item := range items {
					reports = append(reports, l10n.BuildReport(item.Ref, item.Query, scope...))
				}
				return a.renderList(reports)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project ID")
	cmd.Flags().StringVar(&status, "status", string(l10n.ReadinessAll), "Readiness: completed, uncompleted or all")
	cmd.Flags().StringSliceVarP(&codes, "locale", "l", nil, "Locales readiness is judged on (default: required locales)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) newDemoCmd() *cobra.Command {
	var codes []string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a demo project and print its statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModule(func(module *l10n.Module) error {
				scope, err := module.ResolveLocales(codes...)
				if err != nil {
					return err
				}
				demo, err := l10n.SeedDemo(cmd.Context(), module.Catalog())
				if err != nil {
					return err
				}
				reports := make([]l10n.Report, 0, 2)
				for _, ref := range []l10n.ContainerRef{demo.Article, demo.Commit} {
					query, err := module.Stats(cmd.Context(), ref)
					if err != nil {
						return err
					}
					reports = append(reports, l10n.BuildReport(ref, query, scope...))
				}
				return a.render(reports...)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&codes, "locale", "l", nil, "Locales to report on (default: required locales)")
	return cmd
}

func (a *app) render(reports ...l10n.Report) error {
	var payload any = reports
	if len(reports) == 1 {
		payload = reports[0]
	}
	return a.encode(payload, func() error {
		for i, report := range reports {
			if i > 0 {
				fmt.Fprintln(a.out)
			}
			if err := writeText(a.out, report); err != nil {
				return err
			}
		}
		return nil
	})
}

// renderList always encodes a list, even with zero or one entries.
func (a *app) renderList(reports []l10n.Report) error {
	return a.encode(reports, func() error {
		return writeSummary(a.out, reports)
	})
}

func (a *app) encode(payload any, text func() error) error {
	switch strings.ToLower(strings.TrimSpace(a.format)) {
	case "", "text":
		return text()
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, a.format)
	}
}

func writeText(out io.Writer, report l10n.Report) error {
	fmt.Fprintf(out, "%s %s\n", report.Kind, report.ID)
	fmt.Fprintf(out, "  strings:  %d\n", report.StringsTotal)
	fmt.Fprintf(out, "  scope:    %s\n", strings.Join(report.Scope, ", "))
	fmt.Fprintf(out, "  progress: %.1f%%\n", report.Progress)
	fmt.Fprintf(out, "  ready:    %t\n", report.Ready)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  LOCALE\tREQUIRED\tDONE\tPENDING\tNEW\tWORDS DONE\tWORDS TOTAL")
	for _, row := range report.Locales {
		wordsTotal := row.Approved.Words + row.Pending.Words + row.New.Words
		fmt.Fprintf(tw, "  %s\t%t\t%d\t%d\t%d\t%d\t%d\n",
			row.Locale, row.Required,
			row.Approved.Translations, row.Pending.Translations, row.New.Translations,
			row.Approved.Words, wordsTotal,
		)
	}
	return tw.Flush()
}

func writeSummary(out io.Writer, reports []l10n.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tSTRINGS\tDONE\tNOT DONE\tPROGRESS\tREADY")
	for _, report := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.1f%%\t%t\n",
			report.Kind, report.ID, report.StringsTotal,
			report.Done.Translations, report.Pending.Translations+report.New.Translations,
			report.Progress, report.Ready,
		)
	}
	return tw.Flush()
}
