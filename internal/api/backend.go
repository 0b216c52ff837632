package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pet-tracker/internal/tracker"
)

func (c *Client) ListPets(ctx context.Context) ([]tracker.Pet, error) {
	var pets list[tracker.Pet]
	if err := c.doJSON(ctx, http.MethodGet, "/pets", nil, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func (c *Client) ListFeedings(ctx context.Context, petID int64) ([]tracker.FeedingRecord, error) {
	var raw list[apiFeeding]
	if err := c.doJSON(ctx, http.MethodGet, petQuery("/feedings", petID), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]tracker.FeedingRecord, 0, len(raw))
	for _, f := range raw {
		at, ok := c.recordTime("feeding", f.ID, f.FedAt)
		if !ok {
			continue
		}
		out = append(out, tracker.FeedingRecord{ID: f.ID, At: at, Fed: bool(f.FeedCheck)})
	}
	return out, nil
}

func (c *Client) ListWalks(ctx context.Context, petID int64) ([]tracker.WalkRecord, error) {
	var raw list[apiWalk]
	if err := c.doJSON(ctx, http.MethodGet, petQuery("/walks", petID), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]tracker.WalkRecord, 0, len(raw))
	for _, w := range raw {
		at, ok := c.recordTime("walk", w.ID, w.WalkedAt)
		if !ok {
			continue
		}
		out = append(out, tracker.WalkRecord{ID: w.ID, At: at, Walked: bool(w.WalkCheck)})
	}
	return out, nil
}

func (c *Client) ListBaths(ctx context.Context, petID int64) ([]tracker.BathRecord, error) {
	var raw list[apiBath]
	if err := c.doJSON(ctx, http.MethodGet, petQuery("/baths", petID), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]tracker.BathRecord, 0, len(raw))
	for _, b := range raw {
		at, ok := c.recordTime("bath", b.ID, b.BathedAt)
		if !ok {
			continue
		}
		out = append(out, tracker.BathRecord{At: at})
	}
	return out, nil
}

func (c *Client) ListWeights(ctx context.Context, petID int64) ([]tracker.WeightRecord, error) {
	var raw list[apiWeight]
	if err := c.doJSON(ctx, http.MethodGet, petQuery("/weights", petID), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]tracker.WeightRecord, 0, len(raw))
	for _, w := range raw {
		at, ok := c.recordTime("weight", w.ID, w.WeighedAt)
		if !ok {
			continue
		}
		out = append(out, tracker.WeightRecord{At: at, WeightKg: float64(w.Value)})
	}
	return out, nil
}

func (c *Client) CreateFeeding(ctx context.Context, petID int64, fed bool, at time.Time) (tracker.FeedingRecord, error) {
	var created apiFeeding
	body := feedingBody{PetID: petID, FeedCheck: fed, FedAt: formatTimestamp(at)}
	if err := c.doJSON(ctx, http.MethodPost, "/feedings", body, &created); err != nil {
		return tracker.FeedingRecord{}, err
	}
	return tracker.FeedingRecord{ID: created.ID, At: c.echoedTime(created.FedAt, at), Fed: fed}, nil
}

func (c *Client) UpdateFeeding(ctx context.Context, id int64, fed bool, at time.Time) error {
	body := feedingBody{FeedCheck: fed, FedAt: formatTimestamp(at)}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/feedings/%d", id), body, nil)
}

func (c *Client) DeleteFeeding(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/feedings/%d", id), nil, nil)
}

func (c *Client) CreateWalk(ctx context.Context, petID int64, walked bool, at time.Time) (tracker.WalkRecord, error) {
	var created apiWalk
	body := walkBody{PetID: petID, WalkCheck: walked, WalkedAt: formatTimestamp(at)}
	if err := c.doJSON(ctx, http.MethodPost, "/walks", body, &created); err != nil {
		return tracker.WalkRecord{}, err
	}
	return tracker.WalkRecord{ID: created.ID, At: c.echoedTime(created.WalkedAt, at), Walked: walked}, nil
}

func (c *Client) UpdateWalk(ctx context.Context, id int64, walked bool, at time.Time) error {
	body := walkBody{WalkCheck: walked, WalkedAt: formatTimestamp(at)}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/walks/%d", id), body, nil)
}

func (c *Client) DeleteWalk(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/walks/%d", id), nil, nil)
}

func (c *Client) CreateBath(ctx context.Context, petID int64, at time.Time) error {
	return c.doJSON(ctx, http.MethodPost, "/baths", bathBody{PetID: petID, BathedAt: formatTimestamp(at)}, nil)
}

func (c *Client) CreateWeight(ctx context.Context, petID int64, weightKg float64, at time.Time) error {
	body := weightBody{PetID: petID, Value: weightKg, WeighedAt: formatTimestamp(at)}
	return c.doJSON(ctx, http.MethodPost, "/weights", body, nil)
}

func petQuery(path string, petID int64) string {
	return fmt.Sprintf("%s?pet_id=%d", path, petID)
}

// recordTime parses a list record's timestamp. Records with unusable
// timestamps are dropped with a warning.
func (c *Client) recordTime(kind string, id int64, raw string) (time.Time, bool) {
	t, err := parseTimestamp(raw, c.loc)
	if err != nil {
		c.logger.Warn("skipping record with bad timestamp", "kind", kind, "id", id, "error", err)
		return time.Time{}, false
	}
	return t, true
}

// echoedTime prefers the timestamp the server echoed back, falling back to
// the one that was sent.
func (c *Client) echoedTime(raw string, sent time.Time) time.Time {
	if raw == "" {
		return sent
	}
	t, err := parseTimestamp(raw, c.loc)
	if err != nil {
		return sent
	}
	return t
}
