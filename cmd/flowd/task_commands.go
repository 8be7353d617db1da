package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"flowd/internal/domain/task"
	"flowd/internal/tagging"
)

func captureCmd() *cobra.Command {
	var tags []string
	var noAutoTag bool
	var wait bool
	cmd := &cobra.Command{
		Use:   "capture [text...]",
		Short: "Capture a thought into the inbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				req := task.CaptureRequest{
					Text:        strings.Join(args, " "),
					Tags:        tags,
					SkipAutoTag: noAutoTag,
				}
				var item *task.Item
				var err error
				if wait {
					item, err = a.engine.CaptureAndWait(cmd.Context(), req, func() {
						fmt.Fprintln(os.Stderr, "tagging...")
					})
				} else {
					item, err = a.engine.Capture(cmd.Context(), req)
				}
				if err != nil {
					return err
				}
				fmt.Printf("captured %s: %s\n", item.ID, item.Title)
				if len(item.ContextTags) > 0 {
					fmt.Printf("tags: %s\n", strings.Join(item.ContextTags, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "explicit context tags (skips auto-tagging)")
	cmd.Flags().BoolVar(&noAutoTag, "no-auto-tag", false, "capture without tags")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for auto-tagging to finish")
	return cmd
}

func inboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "List visible inbox items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				items, err := a.engine.ListInbox(cmd.Context())
				if err != nil {
					return err
				}
				renderItems(items)
				return nil
			})
		},
	}
}

func nextCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "List next actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				var parent *string
				if project != "" {
					parent = &project
				}
				items, err := a.engine.NextActions(cmd.Context(), parent)
				if err != nil {
					return err
				}
				renderItems(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "limit to one project")
	return cmd
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark an item done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.engine.CompleteItem(cmd.Context(), args[0])
			})
		},
	}
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.engine.ArchiveItem(cmd.Context(), args[0])
			})
		},
	}
}

func resurfaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resurface <id>",
		Short: "Bring a parked or archived item back to active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.engine.ResurfaceItem(cmd.Context(), args[0])
			})
		},
	}
}

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <id> [tags...]",
		Short: "Retag an item using the existing vocabulary",
		Long: `Retag an item. Tags may be given inline as names, 1-based numbers
referencing the vocabulary listing, or NEW:tag-name for brand new tags.
With no tags given, an interactive prompt shows the vocabulary and
heuristic suggestions first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				item, err := a.engine.GetItem(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("no item %s", args[0])
				}
				vocabulary, err := a.matcher.TagNames(cmd.Context())
				if err != nil {
					return err
				}

				input := strings.Join(args[1:], ",")
				if input == "" {
					for i, name := range vocabulary {
						fmt.Printf("%d: %s\n", i+1, name)
					}
					if suggested := tagging.SuggestFromVocabulary(item.Title, vocabulary, 5); len(suggested) > 0 {
						fmt.Printf("suggested: %s\n", strings.Join(suggested, ", "))
					}
					in := bufio.NewScanner(os.Stdin)
					input = prompt(in, "tags (names, numbers, NEW:name): ")
				}

				parsed := tagging.ParseUserInput(input, vocabulary)
				if len(parsed) == 0 {
					fmt.Println("no tags given, item unchanged")
					return nil
				}

				previous := make(map[string]bool, len(item.ContextTags))
				for _, t := range item.ContextTags {
					previous[t] = true
				}
				item.ContextTags = parsed
				if err := a.engine.UpdateItem(cmd.Context(), item); err != nil {
					return err
				}
				for _, t := range parsed {
					if !previous[t] {
						if err := a.matcher.IncrementTagUsage(cmd.Context(), t); err != nil {
							a.logger.Debug("tag usage increment failed", "tag", t, "error", err)
						}
					}
				}
				fmt.Printf("tags: %s\n", strings.Join(parsed, ", "))
				return nil
			})
		},
	}
	return cmd
}

func deferCmd() *cobra.Command {
	var mode string
	var until string
	cmd := &cobra.Command{
		Use:   "defer <id>",
		Short: "Defer an item (waiting, someday, or until a time)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				var ts *time.Time
				if mode == string(task.DeferUntil) {
					parsed, ok := task.ParseDeferInput(until, time.Now())
					if !ok {
						return fmt.Errorf("cannot parse --until value %q (try tomorrow, next week, or YYYY-MM-DD)", until)
					}
					ts = &parsed
				}
				return a.engine.DeferItem(cmd.Context(), args[0], task.DeferMode(mode), ts)
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "waiting", "waiting, someday, or until")
	cmd.Flags().StringVar(&until, "until", "", "when to resurface (for --mode until)")
	return cmd
}

func durationCmd() *cobra.Command {
	var useLLM bool
	cmd := &cobra.Command{
		Use:   "duration <id> [minutes]",
		Short: "Set or estimate an item's duration",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if len(args) == 2 {
					minutes, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("minutes must be a number: %w", err)
					}
					return a.engine.SetItemDuration(cmd.Context(), args[0], minutes)
				}
				minutes, err := a.engine.EstimateItemDuration(cmd.Context(), args[0], useLLM && a.hasLLM)
				if err != nil {
					return err
				}
				fmt.Printf("estimated: %d minutes\n", minutes)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&useLLM, "llm", true, "consult the LLM before the keyword heuristic")
	return cmd
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectAssignCmd())
	prj.AddCommand(projectTasksCmd())
	prj.AddCommand(projectUngroupCmd())
	return prj
}

func projectCreateCmd() *cobra.Command {
	var items []string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project, optionally grouping existing items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				proj, err := a.engine.CreateProject(cmd.Context(), args[0], items)
				if err != nil {
					return err
				}
				fmt.Printf("project %s: %s\n", proj.ID, proj.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&items, "items", nil, "item ids to group under the project")
	return cmd
}

func projectAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <item-id> <project-id>",
		Short: "Move an item under a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.engine.AssignItemToProject(cmd.Context(), args[0], args[1])
			})
		},
	}
}

func projectTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <project-id>",
		Short: "List a project's open tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				items, err := a.engine.ProjectOpenTasks(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renderItems(items)
				return nil
			})
		},
	}
}

func projectUngroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ungroup <item-id>...",
		Short: "Detach items from their project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.engine.UngroupItems(cmd.Context(), args)
			})
		},
	}
}

func staleCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stale",
		Short: "List items sitting untouched for too long",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				items, err := a.engine.GetStale(cmd.Context(), days)
				if err != nil {
					return err
				}
				renderItems(items)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "minimum age in days")
	return cmd
}

func somedayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "someday",
		Short: "List someday/maybe items for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				items, err := a.engine.SomedaySuggestions(cmd.Context())
				if err != nil {
					return err
				}
				renderItems(items)
				return nil
			})
		},
	}
}

func reportCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the weekly completion report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				report, err := a.engine.WeeklyReport(cmd.Context(), days)
				if err != nil {
					return err
				}
				fmt.Print(report)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "reporting window in days")
	return cmd
}

func focusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus",
		Short: "Recommend the next task to work on",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				rec, err := a.focus.Next(cmd.Context())
				if err != nil {
					return err
				}
				if rec == nil {
					fmt.Println("no next actions")
					return nil
				}
				fmt.Printf("focus: %s (%s)\n", rec.Item.Title, rec.Item.ID)
				fmt.Printf("window: %d minutes\n", rec.WindowMinutes)
				if rec.NextEvent != nil {
					fmt.Printf("next event: %s\n", rec.NextEvent.Title)
				}
				return nil
			})
		},
	}
}

func renderItems(items []*task.Item) {
	if len(items) == 0 {
		fmt.Println("nothing here")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Type", "Title", "Status", "Tags", "Est"})
	for _, it := range items {
		est := ""
		if it.EstimatedDuration != nil {
			est = fmt.Sprintf("%dm", *it.EstimatedDuration)
		}
		tw.AppendRow(table.Row{it.ID, it.Type, it.Title, it.Status, strings.Join(it.ContextTags, ","), est})
	}
	tw.Render()
}
