// ABOUTME: Defines Song and the audio feature vector used for taste matching
// ABOUTME: Provides the fixed feature column order shared by scoring and CSV I/O

package playlist

import (
	"fmt"
)

// NumFeatures is the number of numeric audio features per song
const NumFeatures = 8

// FeatureColumns lists the audio feature names in vector order
var FeatureColumns = [NumFeatures]string{
	"speechiness",
	"liveness",
	"danceability",
	"loudness",
	"acousticness",
	"instrumentalness",
	"energy",
	"tempo",
}

// Features holds the audio features of a song as reported by the streaming API.
// Loudness is in decibels, tempo in BPM, the rest are normalized to 0..1.
type Features struct {
	Speechiness      float64
	Liveness         float64
	Danceability     float64
	Loudness         float64
	Acousticness     float64
	Instrumentalness float64
	Energy           float64
	Tempo            float64
}

// Values returns the features in FeatureColumns order
func (f Features) Values() [NumFeatures]float64 {
	return [NumFeatures]float64{
		f.Speechiness,
		f.Liveness,
		f.Danceability,
		f.Loudness,
		f.Acousticness,
		f.Instrumentalness,
		f.Energy,
		f.Tempo,
	}
}

// FeaturesFromValues builds Features from values in FeatureColumns order
func FeaturesFromValues(v [NumFeatures]float64) Features {
	return Features{
		Speechiness:      v[0],
		Liveness:         v[1],
		Danceability:     v[2],
		Loudness:         v[3],
		Acousticness:     v[4],
		Instrumentalness: v[5],
		Energy:           v[6],
		Tempo:            v[7],
	}
}

// Song is a streaming service track with its audio features.
// Name, Artist and Album are display metadata and may be empty.
type Song struct {
	ID       string
	Name     string
	Artist   string
	Album    string
	Features Features
}

// String returns a formatted string representation of the song
func (s Song) String() string {
	if s.Name == "" {
		return s.ID
	}

	return fmt.Sprintf("%-30s - %s", s.Artist, s.Name)
}
