package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/jsonlog"
	"github.com/rpggio/actmon/internal/monitor"
	"github.com/spf13/cobra"
)

func projectsCmd(opts *rootOptions) *cobra.Command {
	var sortMode string
	var descending, all, asJSON bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with status, last activity and git hotness",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			var listOpts monitor.ListOptions
			if sortMode != "" {
				mode, err := project.ParseSortMode(sortMode)
				if err != nil {
					return err
				}
				listOpts.Sort = &mode
			}
			if cmd.Flags().Changed("descending") {
				asc := !descending
				listOpts.Ascending = &asc
			}
			if all {
				f := project.DefaultFilter()
				listOpts.Filter = &f
			}

			res, err := a.monitor.ListProjects(cmd.Context(), listOpts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printProjects(cmd.OutOrStdout(), res, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVarP(&sortMode, "sort", "s", "", "Sort mode: status, name, activity, git-hot, git-changes (default from settings)")
	cmd.Flags().BoolVarP(&descending, "descending", "d", false, "Reverse the sort order")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Ignore the saved filters")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func printProjects(w io.Writer, res monitor.ListResult, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tNAME\tLAST ACTIVITY\tHOT\tCHANGES\tPATH")
	for _, p := range res.Projects {
		last := "never"
		if p.LastActivity != nil {
			last = formatAge(now.Sub(time.UnixMilli(*p.LastActivity)))
		}
		changes := "-"
		if p.IsRepository {
			changes = fmt.Sprint(p.Changes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", p.Status, p.Name, last, p.Hotness, changes, p.Path)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d projects: %d active, %d idle, %d stale\n",
		res.Summary.Total, res.Summary.Active, res.Summary.Idle, res.Summary.Stale)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func gitStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "git-status [path]",
		Short: "Show branch, uncommitted changes and upstream divergence of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.monitor.GitStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"path": args[0], "is_git_repo": st != nil, "status": st})
			}
			if st == nil {
				fmt.Fprintf(out, "%s is not a git repository\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Branch:    %s\n", st.Branch)
			fmt.Fprintf(out, "Staged:    %d\n", st.Staged)
			fmt.Fprintf(out, "Unstaged:  %d\n", st.Unstaged)
			fmt.Fprintf(out, "Untracked: %d\n", st.Untracked)
			fmt.Fprintf(out, "Ahead:     %d\n", st.Ahead)
			fmt.Fprintf(out, "Behind:    %d\n", st.Behind)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func dirsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "Manage watch directories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List watch directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			for _, dir := range a.monitor.Settings().WatchDirs {
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [dir]",
		Short: "Add a watch directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			_, changed, err := a.monitor.AddWatchDir(args[0])
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already watched\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove [dir]",
		Short: "Remove a watch directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			_, changed, err := a.monitor.RemoveWatchDir(args[0])
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not watched\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func activityCmd(opts *rootOptions) *cobra.Command {
	var projectPath string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recorded activity, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.monitor.RecentActivity(cmd.Context(), activity.ListOptions{
				ProjectPath: projectPath,
				Limit:       limit,
				Offset:      offset,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tPROJECT")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\n", rec.Time().Local().Format(time.DateTime), rec.ProjectPath)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Only activity for this project")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func compactCmd(opts *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Archive old activity into a compressed file",
		Long: `Move activity older than the retention window into a zstd-compressed
JSON lines archive. The latest timestamp of every project is kept, so
project statuses do not change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("days") {
				days = a.cfg.Retention.Days
			}
			if days <= 0 {
				return errors.New("retention days must be positive: set --days or retention.days")
			}

			before := time.Now().AddDate(0, 0, -days)
			res, err := a.activity.Compact(cmd.Context(), before, a.cfg.ArchiveDir())
			if err != nil {
				return err
			}
			if res.Archived == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to compact")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d records to %s\n", res.Archived, res.ArchivePath)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Keep this many days of raw activity (default from config)")

	return cmd
}

func importLogCmd(opts *rootOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import-log",
		Short: "Import a JSON activity log into the SQLite store",
		Long: `Read an activity-log.json document and append its records to the
configured SQLite store. Records sharing a timestamp are imported as one burst.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.UsesJSONStore() {
				return errors.New("import-log needs store: sqlite")
			}
			if source == "" {
				source = a.cfg.JSONLogPath()
			}

			records, err := jsonlog.New(source, a.logger).ReadAll(cmd.Context())
			if err != nil {
				return err
			}
			bursts := groupBursts(records)
			for _, burst := range bursts {
				if err := a.store.Append(cmd.Context(), burst); err != nil {
					return fmt.Errorf("importing activity: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records in %d bursts from %s\n", len(records), len(bursts), source)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "from", "", "Path to activity-log.json (default in the data dir)")

	return cmd
}

// groupBursts splits records into runs sharing one timestamp, oldest first.
func groupBursts(records []activity.Record) [][]activity.Record {
	byTime := make(map[int64][]activity.Record)
	for _, rec := range records {
		if strings.TrimSpace(rec.ProjectPath) == "" {
			continue
		}
		byTime[rec.Timestamp] = append(byTime[rec.Timestamp], rec)
	}
	stamps := make([]int64, 0, len(byTime))
	for ts := range byTime {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make([][]activity.Record, 0, len(stamps))
	for _, ts := range stamps {
		out = append(out, byTime[ts])
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
