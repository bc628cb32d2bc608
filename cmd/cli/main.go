package main

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yourusername/editions-go/api/handlers"
	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/domain"
	"github.com/yourusername/editions-go/pkg/logger"
)

var (
	serverURL   string
	configFile  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "editions",
		Short: "Editions CLI - browse, download and open editions",
		Long:  `A command-line interface for the editions server: list the grid, download and open editions, inspect notices and logs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ensureServer()
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(listCmd, showCmd, tapCmd, pressCmd, refreshCmd, downloadsCmd, statsCmd, attemptsCmd, noticesCmd, logsCmd)
}

// ensureServer starts the server if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the edition grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		var grid handlers.GridResponse
		if err := get("/api/v1/editions", &grid); err != nil {
			return err
		}

		fmt.Printf("%d editions, %d columns, covers %dx%d\n\n", grid.Count, grid.Columns, grid.CoverBox.Width, grid.CoverBox.Height)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tID\tTITLE\tSTATE\tSIZE")
		for _, cell := range grid.Cells {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				cell.Index,
				cell.EditionID,
				truncate(cell.Title, 40),
				cellState(cell),
				cell.SizeText)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one edition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cell app.CellState
		if err := get("/api/v1/editions/"+url.PathEscape(args[0]), &cell); err != nil {
			return err
		}

		fmt.Printf("Edition Details:\n")
		fmt.Printf("  ID:      %s\n", cell.EditionID)
		fmt.Printf("  Title:   %s\n", cell.Title)
		fmt.Printf("  State:   %s\n", cellState(cell))
		if cell.SizeBytes > 0 {
			fmt.Printf("  Size:    %s\n", humanize.IBytes(uint64(cell.SizeBytes)))
		}
		if cell.CoverPath != "" {
			fmt.Printf("  Cover:   %s\n", cell.CoverPath)
		}
		return nil
	},
}

var tapCmd = &cobra.Command{
	Use:   "tap [id]",
	Short: "Open a downloaded edition, or start/cancel its download",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result app.ActivateResult
		if err := post("/api/v1/editions/"+url.PathEscape(args[0])+"/tap", &result); err != nil {
			return err
		}

		switch result.Signal {
		case app.SignalShouldPresent:
			if result.Outcome == domain.OutcomeOpened {
				fmt.Println("Edition opened")
			} else {
				fmt.Printf("Edition could not be opened: %s\n", result.Outcome)
			}
		case app.SignalDownloading:
			fmt.Println("Download started")
		case app.SignalCancelled:
			fmt.Println("Download cancelled")
		default:
			fmt.Printf("Nothing to do (%s)\n", result.Signal)
		}
		return nil
	},
}

var pressCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"long-press"},
	Short:   "Cancel the download of an edition and delete its content",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Signal app.Signal `json:"signal"`
		}
		if err := post("/api/v1/editions/"+url.PathEscape(args[0])+"/long-press", &result); err != nil {
			return err
		}
		if result.Signal == app.SignalCancelled {
			fmt.Println("Download cancelled")
		}
		fmt.Println("Edition removed")
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the feed and refresh the grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := post("/api/v1/editions/refresh", nil); err != nil {
			return err
		}
		fmt.Println("Catalog refreshed")
		return nil
	},
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List active downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Downloads map[domain.EditionID]app.DownloadState `json:"downloads"`
		}
		if err := get("/api/v1/downloads", &result); err != nil {
			return err
		}
		if len(result.Downloads) == 0 {
			fmt.Println("No active downloads")
			return nil
		}

		ids := make([]string, 0, len(result.Downloads))
		for id := range result.Downloads {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROGRESS\tSTARTED")
		for _, id := range ids {
			state := result.Downloads[domain.EditionID(id)]
			fmt.Fprintf(w, "%s\t%s\t%s\n", id, progressText(state), humanize.Time(state.StartedAt))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.DownloadStats
		if err := get("/api/v1/downloads/stats", &stats); err != nil {
			return err
		}

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Queued:     %d\n", stats.Queued)
		fmt.Printf("  Processing: %d\n", stats.Processing)
		fmt.Printf("  Completed:  %d\n", stats.Completed)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		fmt.Printf("  Cancelled:  %d\n", stats.Cancelled)
		return nil
	},
}

var attemptsCmd = &cobra.Command{
	Use:   "attempts [id]",
	Short: "Show the download history of an edition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Attempts []domain.DownloadAttempt `json:"attempts"`
		}
		if err := get("/api/v1/downloads/"+url.PathEscape(args[0])+"/attempts", &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ATTEMPT\tSTATUS\tBYTES\tCREATED\tERROR")
		for _, a := range result.Attempts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(a.ID, 8),
				a.Status,
				humanize.IBytes(uint64(a.BytesWritten)),
				humanize.Time(a.CreatedAt),
				truncate(a.ErrorMessage, 40))
		}
		return w.Flush()
	},
}

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Show visible notices",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Notices []domain.Notice `json:"notices"`
		}
		if err := get("/api/v1/notices", &result); err != nil {
			return err
		}
		if len(result.Notices) == 0 {
			fmt.Println("No notices")
			return nil
		}
		for _, n := range result.Notices {
			fmt.Printf("[%s] %s (%s)\n", n.Kind, n.Message, humanize.Time(n.CreatedAt))
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:       "logs [category]",
	Short:     "Show category logs (download, analytics, error)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(logger.CategoryDownload), string(logger.CategoryAnalytics), string(logger.CategoryError)},
	RunE: func(cmd *cobra.Command, args []string) error {
		category := string(logger.CategoryDownload)
		if len(args) == 1 {
			category = args[0]
		}
		if !logger.ValidCategory(category) {
			return fmt.Errorf("invalid category %q", category)
		}
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		path := "/api/v1/logs/" + category
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		if err := get(path+"?"+query.Encode(), &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			if id, ok := e.Fields["edition_id"]; ok {
				fmt.Printf(" edition_id=%v", id)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringP("search", "s", "", "Only show entries containing this text")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
}

func cellState(cell app.CellState) string {
	switch {
	case cell.Processing:
		return "Processing"
	case cell.Downloading && cell.Progress != nil && !cell.Progress.Indeterminate:
		return fmt.Sprintf("Downloading %d%%", cell.Progress.Percent())
	case cell.Downloading:
		return "Downloading"
	default:
		return cell.State
	}
}

func progressText(state app.DownloadState) string {
	if state.Preparing {
		return "preparing"
	}
	if state.Progress.Indeterminate {
		return "starting"
	}
	return fmt.Sprintf("%d%%", state.Progress.Percent())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
