// ABOUTME: Fetches every page of a Spotify paging object
// ABOUTME: The first page gives the total, the rest are requested concurrently

package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// fetchAll returns the items of every page of path in order.
// Pages after the first are fetched concurrently, at most c.fanout at a time.
func fetchAll[T any](ctx context.Context, c *Client, path string, query url.Values, limit int) ([]T, error) {
	q := cloneValues(query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", "0")

	var first page[T]
	if err := c.getJSON(ctx, path, q, &first); err != nil {
		return nil, err
	}

	pageSize := first.Limit
	if pageSize <= 0 {
		pageSize = limit
	}

	if first.Next == "" || first.Total <= pageSize {
		return first.Items, nil
	}

	rest := (first.Total - pageSize + pageSize - 1) / pageSize
	pages := make([][]T, rest)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.fanout))

	for i := range rest {
		offset := (i + 1) * pageSize

		g.Go(func() error {
			pq := cloneValues(q)
			pq.Set("offset", strconv.Itoa(offset))

			var p page[T]
			if err := c.getJSON(gctx, path, pq, &p); err != nil {
				return fmt.Errorf("page at offset %d: %w", offset, err)
			}

			pages[i] = p.Items

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := first.Items
	for _, p := range pages {
		items = append(items, p...)
	}

	c.logger.Debug("fetched pages", "path", path, "pages", rest+1, "items", len(items))

	return items, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}

	return out
}
