// package formatter provides functions to export track listings and the
// daily pick to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"soundlens/internal/models"
	"soundlens/internal/shared"
)

// TrackList is a titled set of tracks prepared for export, e.g. a top-tracks
// ranking or a recently-played window.
type TrackList struct {
	Title  string
	Tracks []models.Track
}

// FromEvents builds a TrackList out of play history, preserving order.
func FromEvents(title string, events []models.PlayEvent) TrackList {
	tracks := make([]models.Track, 0, len(events))
	for _, event := range events {
		tracks = append(tracks, event.Track)
	}
	return TrackList{Title: title, Tracks: tracks}
}

// ExportToCSV converts a TrackList to CSV format with columns: ID, Name, Artists, Album, Duration, Popularity
func ExportToCSV(list TrackList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "Popularity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range list.Tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ArtistLine(),
			track.AlbumName,
			strconv.Itoa(track.DurationMS),
			strconv.Itoa(track.Popularity),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a TrackList to Markdown format
func ExportToMarkdown(list TrackList) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", list.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(list.Tracks)))

	for i, track := range list.Tracks {
		duration := shared.FormatDuration(track.DurationMS)
		albumPart := ""
		if track.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", track.AlbumName)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, track.ArtistLine(), track.Name, albumPart, duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a TrackList to plain text format
func ExportToText(list TrackList) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", list.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(list.Tracks)))

	for i, track := range list.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.ArtistLine(), track.Name))
	}

	return buf.Bytes(), nil
}

// PickToMarkdown renders the daily pick as a Markdown card with an optional
// cover image reference.
func PickToMarkdown(p *models.DailyPick, imageFilename string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Song of the Day — %s\n\n", p.Date))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**%s** by %s\n\n", p.Track.Name, p.Track.ArtistLine()))
	if p.Track.AlbumName != "" {
		buf.WriteString(fmt.Sprintf("**Album**: %s\n", p.Track.AlbumName))
	}
	buf.WriteString(fmt.Sprintf("**Plays**: %d in the last %s\n", p.PlayCount, p.TimeWindow))

	if len(p.Factors) > 0 {
		buf.WriteString(fmt.Sprintf("**Why**: %s\n", strings.Join(p.Factors, ", ")))
	}

	if p.Track.ExternalURL != "" {
		buf.WriteString(fmt.Sprintf("\n[Open in Spotify](%s)\n", p.Track.ExternalURL))
	}

	return buf.Bytes()
}

// PickToText renders the daily pick as plain text.
func PickToText(p *models.DailyPick) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Song of the day (%s)\n", p.Date))
	buf.WriteString(fmt.Sprintf("%s - %s\n", p.Track.ArtistLine(), p.Track.Name))
	buf.WriteString(fmt.Sprintf("Plays: %d in the last %s\n", p.PlayCount, p.TimeWindow))
	if len(p.Factors) > 0 {
		buf.WriteString(fmt.Sprintf("Why: %s\n", strings.Join(p.Factors, ", ")))
	}

	return buf.Bytes()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the path of the file created by WriteCSVExport
type CSVExportResult struct {
	TracksFile string
}

// WriteCSVExport writes a TrackList to {base}_tracks.csv.
//
// Defaults to the list title (lowercased, spaces replaced) as the base filename.
func WriteCSVExport(list TrackList, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = slugify(list.Title)
	}

	csvData, err := ExportToCSV(list)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	return &CSVExportResult{TracksFile: tracksFile}, nil
}

// MarkdownExportResult contains information about files created by WritePickExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WritePickExport exports the daily pick to Markdown in a dedicated directory.
//
// Directory name defaults to the pick date. Attempts to download the album
// cover when the track carries one; a failed download degrades to a card
// without the image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WritePickExport(p *models.DailyPick, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = p.Date
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if p.Track.AlbumImage != "" {
		imageData, err := DownloadImage(p.Track.AlbumImage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := fmt.Sprintf("%s/%s", outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, PickToMarkdown(p, coverImageFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport writes a TrackList to plain text.
//
// Defaults to {title-slug}_tracks.txt as the filename.
func WriteTextExport(list TrackList, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", slugify(list.Title))
	}

	textData, err := ExportToText(list)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		s = "tracks"
	}
	return s
}
