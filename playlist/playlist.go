// ABOUTME: Handles reading and writing song feature CSV files and song ID lists
// ABOUTME: CSV files act as a local seed source; ID lists record a search result on disk

// Package playlist holds songs, their audio feature vectors and the feature pools
// the genetic search samples from. It also reads and writes the CSV feature files
// used as a local cache of a user's songs.
package playlist

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// metadataColumns are optional CSV columns carried for display
var metadataColumns = []string{"name", "artist", "album"}

// ReadFeaturesCSV reads songs from a CSV file with a header row.
// Required columns: id and every entry of FeatureColumns. Column order is free
// and unknown columns are ignored.
func ReadFeaturesCSV(path string) ([]Song, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature file: %w", err)
	}

	defer func() {
		_ = file.Close() // Explicitly ignore error for read-only file
	}()

	songs, err := DecodeFeaturesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return songs, nil
}

// DecodeFeaturesCSV parses feature CSV data from r
func DecodeFeaturesCSV(r io.Reader) ([]Song, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("error reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idCol, ok := cols["id"]
	if !ok {
		return nil, errors.New("missing id column")
	}

	var featureCols [NumFeatures]int
	for i, name := range FeatureColumns {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("missing feature column %q", name)
		}

		featureCols[i] = c
	}

	var songs []Song

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}

		song, err := parseRecord(record, idCol, featureCols, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		songs = append(songs, song)
	}

	return songs, nil
}

func parseRecord(record []string, idCol int, featureCols [NumFeatures]int, cols map[string]int) (Song, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}

		return ""
	}

	song := Song{ID: field(idCol)}
	if song.ID == "" {
		return Song{}, errors.New("empty id")
	}

	var values [NumFeatures]float64

	for i, c := range featureCols {
		v, err := strconv.ParseFloat(field(c), 64)
		if err != nil {
			return Song{}, fmt.Errorf("column %s: %w", FeatureColumns[i], err)
		}

		values[i] = v
	}

	song.Features = FeaturesFromValues(values)

	if c, ok := cols["name"]; ok {
		song.Name = field(c)
	}

	if c, ok := cols["artist"]; ok {
		song.Artist = field(c)
	}

	if c, ok := cols["album"]; ok {
		song.Album = field(c)
	}

	return song, nil
}

// WriteFeaturesCSV writes songs to path as CSV with a header row
func WriteFeaturesCSV(path string, songs []Song) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create feature file: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close feature file: %w", closeErr)
		}
	}()

	return EncodeFeaturesCSV(file, songs)
}

// EncodeFeaturesCSV writes songs as CSV to w
func EncodeFeaturesCSV(w io.Writer, songs []Song) error {
	writer := csv.NewWriter(w)

	header := append([]string{"id"}, metadataColumns...)
	header = append(header, FeatureColumns[:]...)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))

	for _, s := range songs {
		record = record[:0]
		record = append(record, s.ID, s.Name, s.Artist, s.Album)

		for _, v := range s.Features.Values() {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}

		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write song %s: %w", s.ID, err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

// WriteSongIDs writes one song ID per line to path.
// Creates a backup (.bak) of the existing file before overwriting.
func WriteSongIDs(path string, ids []string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		backupPath := path + ".bak"
		if err := os.Rename(path, backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create song list: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close song list: %w", closeErr)
		}
	}()

	writer := bufio.NewWriter(file)
	for _, id := range ids {
		if _, err := writer.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("failed to write song id: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	return nil
}

// ReadSongIDs reads a song ID list written by WriteSongIDs.
// Empty lines and lines starting with # are skipped.
func ReadSongIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open song list: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var ids []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ids = append(ids, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading song list: %w", err)
	}

	return ids, nil
}
