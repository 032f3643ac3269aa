package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfassina/coursesite/internal/course"
	"github.com/pfassina/coursesite/internal/index"
	"github.com/pfassina/coursesite/internal/search"
)

func routesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the course routes a build would generate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := course.Enumerate(a.cfg.ContentDir)
			if err != nil {
				return err
			}
			for _, p := range course.Paths(routes) {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfg.RoutePrefix+p)
			}
			return nil
		},
	}
}

func linksCmd(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "links [category]",
		Short: "Print the slug index as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var links []course.Link
			var err error
			if len(args) == 1 {
				links, err = course.Links(a.cfg.ContentDir, args[0])
			} else {
				links, err = course.AllLinks(a.cfg.ContentDir)
			}
			if err != nil {
				return err
			}
			links = search.Filter(filter, links)
			if links == nil {
				links = []course.Link{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(links)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "keep entries whose name contains this text (case sensitive)")
	return cmd
}

func searchCmd(a *app) *cobra.Command {
	var limit int
	var headings bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over the course documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openIndex()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := index.NewIndexer(db, a.cfg.ContentDir, a.converter()).IndexAll(); err != nil {
				a.logger.Warn("index", "err", err)
			}

			query := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if headings {
				results, err := db.SearchHeadings(query, limit)
				if err != nil {
					return err
				}
				for _, h := range results {
					fmt.Fprintf(out, "%s%s\t%s %s\n", a.cfg.RoutePrefix, h.Link, strings.Repeat("#", h.Level), h.Text)
				}
				return nil
			}

			results, err := db.Search(query, limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s%s\t%s\n", a.cfg.RoutePrefix, r.Link, r.Title)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	cmd.Flags().BoolVar(&headings, "headings", false, "search section headings only")
	return cmd
}
