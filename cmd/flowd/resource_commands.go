package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"flowd/internal/domain/resource"
)

func resourceCmd() *cobra.Command {
	res := &cobra.Command{Use: "resource", Short: "Manage the resource library"}
	res.AddCommand(resourceSaveCmd())
	res.AddCommand(resourceListCmd())
	res.AddCommand(resourceFindCmd())
	res.AddCommand(resourceTagsCmd())
	res.AddCommand(resourceMergeTagsCmd())
	return res
}

func resourceSaveCmd() *cobra.Command {
	var contentType, title, summary string
	var tags []string
	cmd := &cobra.Command{
		Use:   "save <source>",
		Short: "Save or update a resource by source (url, file path, or note key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				saved, err := a.matcher.Save(cmd.Context(), resource.SaveRequest{
					ContentType: resource.ContentType(contentType),
					Source:      args[0],
					Title:       title,
					Summary:     summary,
					Tags:        tags,
				})
				if err != nil {
					return err
				}
				fmt.Printf("saved %s: %s\n", saved.ID, saved.Source)
				if len(saved.Tags) > 0 {
					fmt.Printf("tags: %s\n", strings.Join(saved.Tags, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "url", "url, file, or text")
	cmd.Flags().StringVar(&title, "title", "", "resource title")
	cmd.Flags().StringVar(&summary, "summary", "", "short summary")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "explicit tags (skips auto-tagging)")
	return cmd
}

func resourceListCmd() *cobra.Command {
	var contentType string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved resources, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				found, err := a.matcher.List(cmd.Context(), resource.ContentType(contentType), limit)
				if err != nil {
					return err
				}
				renderResources(found)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "", "filter by content type")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	return cmd
}

func resourceFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <tag>...",
		Short: "Find resources by tag overlap",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				found, err := a.matcher.FindByTags(cmd.Context(), args)
				if err != nil {
					return err
				}
				renderResources(found)
				return nil
			})
		},
	}
}

func resourceTagsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show the tag vocabulary by usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				tags, err := a.matcher.ListTags(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Tag", "Uses"})
				for _, tag := range tags {
					tw.AppendRow(table.Row{tag.Name, tag.UsageCount})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func resourceMergeTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-tags <old> <new>",
		Short: "Fold one tag into another across all resources",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				touched, err := a.matcher.MergeTags(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Printf("retagged %d resources\n", touched)
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Semantic search over indexed resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if !a.hasIndex {
					return fmt.Errorf("semantic search is disabled (no embedding provider configured)")
				}
				hits, err := a.queue.Search(cmd.Context(), strings.Join(args, " "), topK)
				if err != nil {
					return err
				}
				if len(hits) == 0 {
					fmt.Println("no matches")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Score", "Title", "Source"})
				for _, h := range hits {
					tw.AppendRow(table.Row{fmt.Sprintf("%.3f", h.Score), h.Title, h.Source})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&topK, "top", 3, "number of results")
	return cmd
}

func workerCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Drain pending index jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if limit <= 0 {
					limit = a.cfg.Index.BatchLimit
				}
				done, err := a.queue.ProcessPendingJobsOnce(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Printf("indexed %d resources\n", done)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum jobs to process (default: config batch limit)")
	return cmd
}

func renderResources(resources []*resource.Resource) {
	if len(resources) == 0 {
		fmt.Println("nothing here")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Type", "Source", "Title", "Tags"})
	for _, r := range resources {
		tw.AppendRow(table.Row{r.ID, r.ContentType, r.Source, r.Title, strings.Join(r.Tags, ",")})
	}
	tw.Render()
}
