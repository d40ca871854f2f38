package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
	rootCmd   = &cobra.Command{
		Use:   "tunedrop",
		Short: "tunedrop CLI - fetch tracks from YouTube and SoundCloud into your library",
		Long:  `A command-line interface for a running tunedrop server.`,

		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

type song struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	URL        string    `json:"url"`
	CoverImage string    `json:"coverImage"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

type playlist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CoverImage string   `json:"coverImage"`
	SongIDs    []string `json:"songIds"`
	Songs      []song   `json:"songs"`
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:4000", "Server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "Request timeout")

	uploadCmd.Flags().StringP("title", "t", "", "Song title (required)")
	uploadCmd.Flags().StringP("artist", "a", "", "Artist name")
	uploadCmd.Flags().StringP("playlist", "p", "", "Existing playlist ID to add the song to")
	uploadCmd.Flags().StringP("new-playlist", "n", "", "Create a playlist with this name for the song")
	_ = uploadCmd.MarkFlagRequired("title")

	playlistCreateCmd.Flags().StringP("cover", "c", "", "Cover image URL")
	playlistCmd.AddCommand(playlistCreateCmd, playlistAddCmd)

	logsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD, default today)")
	logsCmd.Flags().StringP("query", "q", "", "Case-insensitive filter")
	logsCmd.Flags().IntP("limit", "l", 100, "Maximum number of entries")

	rootCmd.AddCommand(uploadCmd, songsCmd, playlistsCmd, playlistCmd,
		cookiesCmd, capabilitiesCmd, healthCmd, logsCmd)
}

func client() *apiClient {
	return newAPIClient(serverURL, timeout)
}

var uploadCmd = &cobra.Command{
	Use:   "upload [url]",
	Short: "Download a track and upload it to the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		artist, _ := cmd.Flags().GetString("artist")
		playlistID, _ := cmd.Flags().GetString("playlist")
		newPlaylist, _ := cmd.Flags().GetString("new-playlist")

		var result struct {
			Song     song      `json:"song"`
			Playlist *playlist `json:"playlist"`
			Strategy string    `json:"strategy"`
			Attempts int       `json:"attempts"`
			Upload   struct {
				Chunked bool  `json:"chunked"`
				Bytes   int64 `json:"bytes"`
			} `json:"upload"`
		}
		err := client().post("/api/v1/uploads", map[string]string{
			"url":             args[0],
			"title":           title,
			"artist":          artist,
			"playlistId":      playlistID,
			"newPlaylistName": newPlaylist,
		}, &result)
		if err != nil {
			return err
		}

		fmt.Println("Song uploaded successfully!")
		fmt.Printf("  ID:       %s\n", result.Song.ID)
		fmt.Printf("  Title:    %s\n", result.Song.Title)
		fmt.Printf("  Artist:   %s\n", result.Song.Artist)
		fmt.Printf("  URL:      %s\n", result.Song.URL)
		fmt.Printf("  Size:     %s\n", humanize.Bytes(uint64(result.Upload.Bytes)))
		fmt.Printf("  Strategy: %s (%d attempts)\n", result.Strategy, result.Attempts)
		if result.Upload.Chunked {
			fmt.Println("  Upload:   chunked")
		}
		if result.Playlist != nil {
			fmt.Printf("  Playlist: %s (%s)\n", result.Playlist.Name, result.Playlist.ID)
		}
		return nil
	},
}

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List all songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var songs []song
		if err := client().get("/api/v1/songs", nil, &songs); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tARTIST\tSOURCE\tADDED")
		for _, s := range songs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(s.ID, 8),
				truncate(s.Title, 40),
				truncate(s.Artist, 24),
				s.Source,
				humanize.Time(s.CreatedAt))
		}
		return w.Flush()
	},
}

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List all playlists",
	RunE: func(cmd *cobra.Command, args []string) error {
		var playlists []playlist
		if err := client().get("/api/v1/playlists", nil, &playlists); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSONGS")
		for _, p := range playlists {
			fmt.Fprintf(w, "%s\t%s\t%d\n", p.ID, truncate(p.Name, 40), len(p.SongIDs))
		}
		return w.Flush()
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Manage playlists",
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create [name] [song-id...]",
	Short: "Create a playlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cover, _ := cmd.Flags().GetString("cover")

		var created playlist
		err := client().post("/api/v1/playlists", map[string]interface{}{
			"name":       args[0],
			"coverImage": cover,
			"songIds":    args[1:],
		}, &created)
		if err != nil {
			return err
		}
		fmt.Printf("Playlist created: %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add [playlist-id] [song-id]",
	Short: "Add a song to a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var updated playlist
		err := client().post("/api/v1/playlists/"+url.PathEscape(args[0])+"/songs",
			map[string]string{"songId": args[1]}, &updated)
		if err != nil {
			return err
		}
		fmt.Printf("Playlist %s now has %d songs\n", updated.Name, len(updated.SongIDs))
		return nil
	},
}

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Show cookie file expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status struct {
			ExpiresAt *time.Time `json:"expiresAt"`
			Expired   bool       `json:"expired"`
			Valid     bool       `json:"valid"`
			Entries   int        `json:"entries"`
		}
		if err := client().get("/api/v1/cookies/expiry", nil, &status); err != nil {
			return err
		}

		fmt.Println("Cookie File:")
		fmt.Printf("  Entries: %d\n", status.Entries)
		if status.ExpiresAt == nil {
			fmt.Println("  Expires: no expiring cookies")
		} else {
			fmt.Printf("  Expires: %s (%s)\n", status.ExpiresAt.Format(time.RFC3339), humanize.Time(*status.ExpiresAt))
		}
		fmt.Printf("  Valid:   %v\n", status.Valid)
		return nil
	},
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show the downloader version and supported flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		var caps struct {
			Probed  bool     `json:"probed"`
			Known   bool     `json:"known"`
			Version *string  `json:"version"`
			Flags   []string `json:"flags"`
		}
		if err := client().get("/api/v1/capabilities", nil, &caps); err != nil {
			return err
		}

		switch {
		case !caps.Probed:
			fmt.Println("Capability probe has not finished yet")
		case !caps.Known:
			fmt.Println("Downloader not available")
		default:
			fmt.Printf("Version: %s\n", *caps.Version)
			fmt.Println("Flags:")
			for _, f := range caps.Flags {
				fmt.Printf("  --%s\n", f)
			}
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		var health struct {
			Status  string `json:"status"`
			Version string `json:"version"`
			Stats   *struct {
				Songs     int64 `json:"songs"`
				Playlists int64 `json:"playlists"`
			} `json:"stats"`
		}
		if err := client().get("/health", nil, &health); err != nil {
			return err
		}

		fmt.Printf("Status:  %s\n", health.Status)
		fmt.Printf("Version: %s\n", health.Version)
		if health.Stats != nil {
			fmt.Printf("Library: %d songs, %d playlists\n", health.Stats.Songs, health.Stats.Playlists)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [pipeline|error|tools]",
	Short: "View server logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		q, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		if date != "" {
			query.Set("date", date)
		}
		if q != "" {
			query.Set("q", q)
		}
		query.Set("limit", strconv.Itoa(limit))

		var result struct {
			Entries []struct {
				Timestamp string `json:"ts"`
				Level     string `json:"level"`
				Message   string `json:"msg"`
			} `json:"entries"`
		}
		if err := client().get("/api/v1/logs/"+url.PathEscape(args[0]), query, &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			if e.Timestamp == "" {
				fmt.Println(e.Message)
				continue
			}
			fmt.Printf("%s %-5s %s\n", e.Timestamp, e.Level, e.Message)
		}
		return nil
	},
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
