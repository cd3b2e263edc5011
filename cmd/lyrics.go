package cmd

import (
	"fmt"
	"io"

	"GeminiStream/core/lyrics"
	"GeminiStream/model"

	"github.com/spf13/cobra"
)

var (
	lyricsSongID   string
	lyricsArtist   string
	lyricsTitle    string
	lyricsAlbum    string
	lyricsDuration float64
	lyricsAt       float64
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "Fetch and print the lyrics of a song",
	Long:  `Fetches lyrics from the Subsonic server, falls back to LrcLib when enabled in the settings, and marks the active line at --at seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if lyricsSongID == "" && (lyricsArtist == "" || lyricsTitle == "") {
			return fmt.Errorf("need --id or both --artist and --title")
		}

		repo, closeRedis, err := openSettings()
		if err != nil {
			return err
		}
		defer closeRedis()

		creds, err := loadCredentials(cmd.Context(), repo)
		if err != nil {
			return err
		}

		song := model.Song{
			ID:       lyricsSongID,
			Title:    lyricsTitle,
			Artist:   lyricsArtist,
			Album:    lyricsAlbum,
			Duration: lyricsDuration,
		}
		l := newSubsonicClient().GetLyrics(cmd.Context(), creds, song)
		if l == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No lyrics found.")
			return nil
		}
		printLyrics(cmd.OutOrStdout(), lyrics.Parse(l.Content), lyricsAt)
		return nil
	},
}

func printLyrics(w io.Writer, doc lyrics.Document, at float64) {
	active := -1
	if at >= 0 {
		active = lyrics.ActiveLineIndex(doc, at)
	}
	fmt.Fprintf(w, "# %s, %d lines\n", doc.Kind, len(doc.Lines))
	for i, line := range doc.Lines {
		marker := "  "
		if i == active {
			marker = "> "
		}
		if doc.IsTimed() {
			m := int(line.Time) / 60
			s := line.Time - float64(m*60)
			fmt.Fprintf(w, "%s[%02d:%05.2f] %s\n", marker, m, s, line.Text)
		} else {
			fmt.Fprintf(w, "%s%s\n", marker, line.Text)
		}
	}
}

func init() {
	lyricsCmd.Flags().StringVar(&lyricsSongID, "id", "", "song id on the Subsonic server")
	lyricsCmd.Flags().StringVar(&lyricsArtist, "artist", "", "artist name")
	lyricsCmd.Flags().StringVar(&lyricsTitle, "title", "", "song title")
	lyricsCmd.Flags().StringVar(&lyricsAlbum, "album", "", "album name, used by LrcLib")
	lyricsCmd.Flags().Float64Var(&lyricsDuration, "duration", 0, "song duration in seconds, used by LrcLib")
	lyricsCmd.Flags().Float64Var(&lyricsAt, "at", -1, "mark the active line at this position in seconds")
	rootCmd.AddCommand(lyricsCmd)
}
