// ABOUTME: Song retrieval: saved tracks, playlist tracks, recommendations and audio features
// ABOUTME: Implements the song source, recommender and playlist sink of the search

package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"diversify/genetic"
	"diversify/playlist"

	"golang.org/x/sync/errgroup"
)

const (
	savedTracksLimit    = 50
	playlistsLimit      = 50
	playlistTracksLimit = 100
	featuresBatch       = 100
	addTracksBatch      = 100

	// RecommendationLimit is the number of filler songs requested
	RecommendationLimit = 100

	// MaxSeeds is the most seed tracks the recommendations endpoint accepts
	MaxSeeds = 5
)

// compile-time interface assertions
var (
	_ genetic.SongSource   = (*Client)(nil)
	_ genetic.Recommender  = (*Client)(nil)
	_ genetic.PlaylistSink = (*Client)(nil)
)

// SavedSongs returns the current user's saved songs with audio features
func (c *Client) SavedSongs(ctx context.Context) ([]playlist.Song, error) {
	items, err := fetchAll[trackItem](ctx, c, "/me/tracks", nil, savedTracksLimit)
	if err != nil {
		return nil, err
	}

	return c.withFeatures(ctx, tracksOf(items))
}

// UserSongs returns the songs of every public playlist owned by userID, with audio features
func (c *Client) UserSongs(ctx context.Context, userID string) ([]playlist.Song, error) {
	lists, err := fetchAll[simplePlaylist](ctx, c, "/users/"+url.PathEscape(userID)+"/playlists", nil, playlistsLimit)
	if err != nil {
		return nil, err
	}

	var tracks []spotifyTrack
	for _, pl := range lists {
		if pl.Owner.ID != userID {
			continue
		}

		items, err := fetchAll[trackItem](ctx, c, "/playlists/"+url.PathEscape(pl.ID)+"/tracks", nil, playlistTracksLimit)
		if err != nil {
			return nil, fmt.Errorf("playlist %q: %w", pl.Name, err)
		}

		tracks = append(tracks, tracksOf(items)...)
	}

	c.logger.Debug("collected playlist tracks", "user", userID, "playlists", len(lists), "tracks", len(tracks))

	return c.withFeatures(ctx, tracks)
}

// Recommend returns up to RecommendationLimit songs seeded by at most MaxSeeds tracks
func (c *Client) Recommend(ctx context.Context, seedIDs []string) ([]playlist.Song, error) {
	if len(seedIDs) == 0 {
		return nil, fmt.Errorf("spotify adapter: recommendations need at least one seed")
	}

	if len(seedIDs) > MaxSeeds {
		seedIDs = seedIDs[:MaxSeeds]
	}

	q := url.Values{}
	q.Set("seed_tracks", strings.Join(seedIDs, ","))
	q.Set("limit", strconv.Itoa(RecommendationLimit))

	var rec recommendationsResponse
	if err := c.getJSON(ctx, "/recommendations", q, &rec); err != nil {
		return nil, err
	}

	return c.withFeatures(ctx, rec.Tracks)
}

// AudioFeatures returns the features of each ID the API knows.
// Requests are batched and fetched concurrently; unknown IDs are absent from the map.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) (map[string]playlist.Features, error) {
	batches := chunk(ids, featuresBatch)
	results := make([][]*spotifyAudioFeatures, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.fanout))

	for i, batch := range batches {
		g.Go(func() error {
			q := url.Values{}
			q.Set("ids", strings.Join(batch, ","))

			var resp audioFeaturesResponse
			if err := c.getJSON(gctx, "/audio-features", q, &resp); err != nil {
				return err
			}

			results[i] = resp.AudioFeatures

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	features := make(map[string]playlist.Features, len(ids))
	for _, batch := range results {
		for _, f := range batch {
			if f == nil || f.ID == "" {
				continue
			}

			features[f.ID] = f.toFeatures()
		}
	}

	return features, nil
}

// CreatePlaylist creates a private playlist for ownerID holding songIDs in order
func (c *Client) CreatePlaylist(ctx context.Context, ownerID, name string, songIDs []string) (string, error) {
	var created playlistResponse

	body := createPlaylistRequest{Name: name, Public: false, Description: "Created by diversify"}
	if err := c.postJSON(ctx, "/users/"+url.PathEscape(ownerID)+"/playlists", body, &created); err != nil {
		return "", err
	}

	if created.ID == "" {
		return "", fmt.Errorf("spotify adapter: playlist creation returned no id")
	}

	for _, batch := range chunk(songIDs, addTracksBatch) {
		uris := make([]string, len(batch))
		for i, id := range batch {
			uris[i] = trackURI(id)
		}

		if err := c.postJSON(ctx, "/playlists/"+url.PathEscape(created.ID)+"/tracks", addTracksRequest{URIs: uris}, nil); err != nil {
			return created.ID, fmt.Errorf("adding tracks to playlist %s: %w", created.ID, err)
		}
	}

	c.logger.Info("created playlist", "id", created.ID, "name", name, "tracks", len(songIDs))

	return created.ID, nil
}

// withFeatures attaches audio features to tracks, dropping tracks without features
func (c *Client) withFeatures(ctx context.Context, tracks []spotifyTrack) ([]playlist.Song, error) {
	ids := make([]string, 0, len(tracks))
	seen := make(map[string]bool, len(tracks))

	for _, t := range tracks {
		if t.ID == "" || seen[t.ID] {
			continue
		}

		seen[t.ID] = true
		ids = append(ids, t.ID)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	features, err := c.AudioFeatures(ctx, ids)
	if err != nil {
		return nil, err
	}

	songs := make([]playlist.Song, 0, len(ids))
	for _, t := range tracks {
		f, ok := features[t.ID]
		if !ok {
			continue
		}

		songs = append(songs, t.toSong(f))
		delete(features, t.ID) // keep the first occurrence only
	}

	if dropped := len(ids) - len(songs); dropped > 0 {
		c.logger.Debug("dropped tracks without audio features", "count", dropped)
	}

	return songs, nil
}

func tracksOf(items []trackItem) []spotifyTrack {
	tracks := make([]spotifyTrack, 0, len(items))
	for _, it := range items {
		if it.Track == nil || it.Track.ID == "" {
			continue
		}

		tracks = append(tracks, *it.Track)
	}

	return tracks
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}

	if len(ids) > 0 {
		out = append(out, ids)
	}

	return out
}
