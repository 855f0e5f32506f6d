package redis

import (
	"context"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// LeaderboardEntry is a single ranked row in a leaderboard: a profile and
// its accumulated score (e.g. total training volume in kilograms).
type LeaderboardEntry struct {
	ProfileID string  `json:"profile_id"`
	Score     float64 `json:"score"`
	Rank      int64   `json:"rank"`
}

// Leaderboard ranks profiles by accumulated score using a Redis sorted
// set. FitStack runs one leaderboard per period and metric, e.g.
// "weekly:volume" or "monthly:workouts".
//
// Obtain a Leaderboard from [Client.Leaderboard]:
//
//	lb := client.Leaderboard("weekly:volume")
//	score, err := lb.Record(ctx, "user-123", workout.TotalVolume())
type Leaderboard struct {
	client *Client
	key    string
}

// Leaderboard returns a leaderboard handle for the given name. The
// backing sorted set key is "leaderboard:" + name.
func (c *Client) Leaderboard(name string) *Leaderboard {
	return &Leaderboard{
		client: c,
		key:    "leaderboard:" + name,
	}
}

// Key returns the backing sorted set key.
func (l *Leaderboard) Key() string {
	return l.key
}

// Record adds delta to the profile's score and returns the new total.
func (l *Leaderboard) Record(ctx context.Context, profileID string, delta float64) (float64, error) {
	if profileID == "" {
		return 0, fserr.Validation("redis: leaderboard profile ID must not be empty")
	}
	return l.client.ZIncrBy(ctx, l.key, delta, profileID)
}

// Top returns the n highest-scoring entries in descending order, with
// ranks starting at 1.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return nil, fserr.Validationf("redis: leaderboard size must be positive, got %d", n)
	}

	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, n-1)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		profileID, ok := z.Member.(string)
		if !ok {
			return nil, fserr.Newf(fserr.CodeInternal,
				"redis: leaderboard member has unexpected type %T", z.Member)
		}
		entries = append(entries, LeaderboardEntry{
			ProfileID: profileID,
			Score:     z.Score,
			Rank:      int64(i) + 1,
		})
	}
	return entries, nil
}

// Standing returns the profile's entry including its rank, starting at 1.
// Returns [fserr.CodeNotFound] when the profile has no score yet.
func (l *Leaderboard) Standing(ctx context.Context, profileID string) (*LeaderboardEntry, error) {
	if profileID == "" {
		return nil, fserr.Validation("redis: leaderboard profile ID must not be empty")
	}

	rank, err := l.client.ZRevRank(ctx, l.key, profileID)
	if err != nil {
		return nil, err
	}
	score, err := l.client.ZScore(ctx, l.key, profileID)
	if err != nil {
		return nil, err
	}

	return &LeaderboardEntry{
		ProfileID: profileID,
		Score:     score,
		Rank:      rank + 1,
	}, nil
}

// Remove deletes the profile from the leaderboard. Removing an absent
// profile is not an error.
func (l *Leaderboard) Remove(ctx context.Context, profileID string) error {
	if profileID == "" {
		return fserr.Validation("redis: leaderboard profile ID must not be empty")
	}
	_, err := l.client.ZRem(ctx, l.key, profileID)
	return err
}
