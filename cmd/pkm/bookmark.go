package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkm/internal/app"
	"pkm/internal/pkm"
)

func printBookmark(b *pkm.Bookmark) {
	var tags []string
	for _, t := range b.Tags {
		tags = append(tags, t.Name)
	}
	archived := ""
	if b.IsArchived {
		archived = "  [archived]"
	}
	fmt.Printf("%s  %-8s  %s  %s", b.ID, b.Priority, b.Title, b.URL)
	if len(tags) > 0 {
		fmt.Printf("  #%s", strings.Join(tags, " #"))
	}
	fmt.Printf("%s\n", archived)
}

// findFolder looks a folder up by name without creating it.
func findFolder(ctx context.Context, a *app.PKMApp, persona pkm.Persona, name string) (string, error) {
	folders, err := a.Service().ListFolders(ctx, a.OwnerID(), persona)
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("no folder named %q in persona %s", name, persona)
}

// bookmark command
var bookmarkCmd = &cobra.Command{
	Use:     "bookmark",
	Aliases: []string{"bm"},
	Short:   "Manage bookmarks",
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add URL",
	Short: "Add a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		shortURL, _ := cmd.Flags().GetString("short")
		priority, _ := cmd.Flags().GetString("priority")
		public, _ := cmd.Flags().GetBool("public")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		folder, _ := cmd.Flags().GetString("folder")

		return withApp(cmd, "CreateBookmark", func(ctx context.Context, a *app.PKMApp) error {
			persona, err := personaFlag(cmd, a)
			if err != nil {
				return err
			}
			in := pkm.BookmarkInput{
				URL:         args[0],
				Title:       title,
				Description: description,
				Category:    category,
				ShortURL:    shortURL,
				IsPublic:    public,
				Priority:    pkm.Priority(priority),
				Tags:        tags,
			}
			if in.Title == "" {
				in.Title = args[0]
			}
			if folder != "" {
				f, err := a.Service().EnsureFolder(ctx, a.OwnerID(), persona, folder)
				if err != nil {
					return err
				}
				in.FolderIDs = []string{f.ID}
			}

			b, err := a.Service().CreateBookmark(ctx, a.OwnerID(), persona, in)
			if err != nil {
				return err
			}
			printBookmark(b)
			return nil
		})
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		search, _ := cmd.Flags().GetString("search")
		folder, _ := cmd.Flags().GetString("folder")
		sort, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		asJSON, _ := cmd.Flags().GetBool("json")

		q := pkm.BookmarkQuery{
			Tags:     tags,
			Search:   search,
			Sort:     pkm.SortField(sort),
			Order:    pkm.SortOrder(order),
			Page:     page,
			PageSize: size,
		}
		if cmd.Flags().Changed("archived") {
			archived, _ := cmd.Flags().GetBool("archived")
			q.Archived = &archived
		}

		return withApp(cmd, "ListBookmarks", func(ctx context.Context, a *app.PKMApp) error {
			persona, err := personaFlag(cmd, a)
			if err != nil {
				return err
			}
			if folder != "" {
				if q.FolderID, err = findFolder(ctx, a, persona, folder); err != nil {
					return err
				}
			}

			res, err := a.Service().ListBookmarks(ctx, a.OwnerID(), persona, q)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			if len(res.Items) == 0 {
				fmt.Println("No bookmarks found.")
				return nil
			}
			for _, b := range res.Items {
				printBookmark(b)
			}
			fmt.Printf("\npage %d, %d of %d bookmark(s)\n", res.Page, len(res.Items), res.Total)
			return nil
		})
	},
}

var bookmarkVisitCmd = &cobra.Command{
	Use:   "visit ID",
	Short: "Record a visit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "RecordVisit", func(ctx context.Context, a *app.PKMApp) error {
			stats, err := a.Service().RecordVisit(ctx, a.OwnerID(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%d visit(s), last %s\n", stats.VisitCount, stats.LastVisited.Format("2006-01-02 15:04:05"))
			return nil
		})
	},
}

var bookmarkArchiveCmd = &cobra.Command{
	Use:   "archive ID",
	Short: "Toggle the archived flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ToggleArchive", func(ctx context.Context, a *app.PKMApp) error {
			archived, err := a.Service().ToggleArchive(ctx, a.OwnerID(), args[0])
			if err != nil {
				return err
			}
			if archived {
				fmt.Println("Archived.")
			} else {
				fmt.Println("Unarchived.")
			}
			return nil
		})
	},
}

var bookmarkDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteBookmark", func(ctx context.Context, a *app.PKMApp) error {
			if err := a.Service().DeleteBookmark(ctx, a.OwnerID(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		})
	},
}

var bookmarkRefsCmd = &cobra.Command{
	Use:   "refs ID",
	Short: "Show what references a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ResolveReferences", func(ctx context.Context, a *app.PKMApp) error {
			refs, err := a.Service().ResolveReferences(ctx, a.OwnerID(), args[0])
			if err != nil {
				return err
			}
			if refs.Bookmark.Deleted {
				fmt.Printf("%s (deleted)\n", refs.Bookmark.ID)
			} else {
				fmt.Printf("%s  %s\n", refs.Bookmark.ID, refs.Bookmark.Title)
			}
			if len(refs.Referrers) == 0 {
				fmt.Println("No references.")
				return nil
			}
			for _, r := range refs.Referrers {
				fmt.Printf("  %-13s %-20s %s  %s\n", r.Persona, r.Kind, r.ID, r.Title)
			}
			return nil
		})
	},
}

var bookmarkSummaryCmd = &cobra.Command{
	Use:   "summary ID",
	Short: "Draft a summary of a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		length, _ := cmd.Flags().GetString("length")
		return withApp(cmd, "DraftBookmarkSummary", func(ctx context.Context, a *app.PKMApp) error {
			res, err := a.Service().DraftBookmarkSummary(ctx, a.OwnerID(), args[0], pkm.LengthHint(length))
			if err != nil {
				return err
			}
			fmt.Println(res.Content)
			return nil
		})
	},
}

// tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Search and maintain tags",
}

func printTags(tags []*pkm.Tag) {
	if len(tags) == 0 {
		fmt.Println("No tags found.")
		return
	}
	for _, t := range tags {
		fmt.Printf("%5d  %s\n", t.UsageCount, t.Name)
	}
}

var tagsSearchCmd = &cobra.Command{
	Use:   "search [PREFIX]",
	Short: "List tags by prefix, most used first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		return withApp(cmd, "SearchTags", func(ctx context.Context, a *app.PKMApp) error {
			tags, err := a.Service().SearchTags(ctx, a.OwnerID(), prefix, limit)
			if err != nil {
				return err
			}
			printTags(tags)
			return nil
		})
	},
}

var tagsSuggestCmd = &cobra.Command{
	Use:   "suggest QUERY",
	Short: "Suggest tags similar to QUERY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "SuggestTags", func(ctx context.Context, a *app.PKMApp) error {
			tags, err := a.Service().SuggestTags(ctx, a.OwnerID(), args[0], limit)
			if err != nil {
				return err
			}
			printTags(tags)
			return nil
		})
	},
}

var tagsRecountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Repair tag usage counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "RecountTagUsage", func(ctx context.Context, a *app.PKMApp) error {
			fixed, err := a.RecountTags(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Corrected %d tag(s)\n", fixed)
			return nil
		})
	},
}

// bulk command
var bulkCmd = &cobra.Command{
	Use:   "bulk ACTION ID...",
	Short: "Apply move_folder, change_category, archive, unarchive or delete to many bookmarks",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, _ := cmd.Flags().GetString("folder")
		params := map[string]string{}
		if cmd.Flags().Changed("category") {
			category, _ := cmd.Flags().GetString("category")
			params[pkm.ParamCategory] = category
		}

		return withApp(cmd, "ApplyBulk", func(ctx context.Context, a *app.PKMApp) error {
			if folder != "" {
				persona, err := personaFlag(cmd, a)
				if err != nil {
					return err
				}
				f, err := a.Service().EnsureFolder(ctx, a.OwnerID(), persona, folder)
				if err != nil {
					return err
				}
				params[pkm.ParamFolderID] = f.ID
			}

			results, err := a.Service().ApplyBulk(ctx, a.OwnerID(), pkm.BulkAction(args[0]), args[1:], params)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Success {
					fmt.Printf("ok    %s\n", r.ResourceID)
					continue
				}
				failed++
				fmt.Printf("fail  %s  %s: %s\n", r.ResourceID, r.Error.Code, r.Error.Message)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d item(s) failed", failed, len(results))
			}
			return nil
		})
	},
}

func init() {
	bookmarkAddCmd.Flags().StringP("title", "t", "", "Title (defaults to the URL)")
	bookmarkAddCmd.Flags().StringP("description", "d", "", "Description")
	bookmarkAddCmd.Flags().StringP("category", "c", "", "Category")
	bookmarkAddCmd.Flags().String("short", "", "Short link code")
	bookmarkAddCmd.Flags().String("priority", "", "Priority: low, medium or high")
	bookmarkAddCmd.Flags().Bool("public", false, "Mark as public")
	bookmarkAddCmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	bookmarkAddCmd.Flags().StringP("folder", "f", "", "Folder name, created if missing")

	bookmarkListCmd.Flags().StringSlice("tag", nil, "Require tag (repeatable)")
	bookmarkListCmd.Flags().StringP("search", "q", "", "Search title, description and URL")
	bookmarkListCmd.Flags().StringP("folder", "f", "", "Folder name")
	bookmarkListCmd.Flags().Bool("archived", false, "Only archived (or, with =false, only live) bookmarks")
	bookmarkListCmd.Flags().String("sort", "", "createdAt, updatedAt, title, visitCount, clicks or lastVisited")
	bookmarkListCmd.Flags().String("order", "", "asc or desc")
	bookmarkListCmd.Flags().Int("page", 1, "Page number")
	bookmarkListCmd.Flags().IntP("size", "n", 20, "Page size")
	bookmarkListCmd.Flags().Bool("json", false, "Print the page as JSON")

	bookmarkSummaryCmd.Flags().StringP("length", "l", "", "Length hint: short, medium or long")

	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
	bookmarkCmd.AddCommand(bookmarkVisitCmd)
	bookmarkCmd.AddCommand(bookmarkArchiveCmd)
	bookmarkCmd.AddCommand(bookmarkDeleteCmd)
	bookmarkCmd.AddCommand(bookmarkRefsCmd)
	bookmarkCmd.AddCommand(bookmarkSummaryCmd)

	tagsSearchCmd.Flags().IntP("limit", "n", 0, "Maximum number of tags")
	tagsSuggestCmd.Flags().IntP("limit", "n", 0, "Maximum number of tags")
	tagsCmd.AddCommand(tagsSearchCmd)
	tagsCmd.AddCommand(tagsSuggestCmd)
	tagsCmd.AddCommand(tagsRecountCmd)

	bulkCmd.Flags().StringP("folder", "f", "", "Target folder name for move_folder")
	bulkCmd.Flags().StringP("category", "c", "", "Category for change_category (empty clears)")

	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(bulkCmd)
}
