// ABOUTME: JSON wire types for the Spotify Web API responses and requests
// ABOUTME: Maps tracks and audio features onto playlist.Song

package spotify

import (
	"diversify/playlist"
)

// userResponse is the subset of the user object we read
type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// errorResponse is the regular Spotify error object
type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// page is a Spotify paging object
type page[T any] struct {
	Items  []T    `json:"items"`
	Next   string `json:"next"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// spotifyTrack represents the Spotify API response for a track.
// ID is empty for local files.
type spotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Album   spotifyAlbum    `json:"album"`
	Artists []spotifyArtist `json:"artists"`
}

// trackItem wraps a track in saved-track and playlist-track pages.
// Track is nil for unavailable items.
type trackItem struct {
	Track *spotifyTrack `json:"track"`
}

// simplePlaylist is an entry of a user's playlist listing
type simplePlaylist struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Owner userResponse `json:"owner"`
}

// spotifyAudioFeatures represents the audio features object
type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
	Danceability     float64 `json:"danceability"`
	Loudness         float64 `json:"loudness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Energy           float64 `json:"energy"`
	Tempo            float64 `json:"tempo"`
}

// audioFeaturesResponse holds one entry per requested ID, null when unknown
type audioFeaturesResponse struct {
	AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
}

type recommendationsResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description,omitempty"`
}

type playlistResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// addTracksRequest represents the request body for adding tracks to a playlist.
type addTracksRequest struct {
	URIs []string `json:"uris"`
}

func (f spotifyAudioFeatures) toFeatures() playlist.Features {
	return playlist.Features{
		Speechiness:      f.Speechiness,
		Liveness:         f.Liveness,
		Danceability:     f.Danceability,
		Loudness:         f.Loudness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Energy:           f.Energy,
		Tempo:            f.Tempo,
	}
}

func (t spotifyTrack) toSong(f playlist.Features) playlist.Song {
	s := playlist.Song{
		ID:       t.ID,
		Name:     t.Name,
		Album:    t.Album.Name,
		Features: f,
	}

	if len(t.Artists) > 0 {
		s.Artist = t.Artists[0].Name
	}

	return s
}

func trackURI(id string) string {
	return "spotify:track:" + id
}
