package services

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/SAP-F-2025/leaderboard-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ===== QUIZ REFERENCE RESOLUTION =====

// QuizRefKind tells how a stored quiz reference was recognised.
type QuizRefKind int

const (
	QuizRefInvalid  QuizRefKind = iota
	QuizRefID                   // "507f191e810c19729de860ea"
	QuizRefEmbedded             // {"_id": "..."} or {"_id": {"$oid": "..."}}
	QuizRefCoerced              // any other value whose string form is an id, e.g. {"$oid": "..."}
)

// QuizRef is the parsed form of one quiz reference.
type QuizRef struct {
	Kind QuizRefKind
	ID   primitive.ObjectID
}

func (r QuizRef) Valid() bool {
	return r.Kind != QuizRefInvalid
}

// ParseQuizRef never fails: anything unrecognised comes back as QuizRefInvalid.
func ParseQuizRef(raw json.RawMessage) QuizRef {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return QuizRef{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return QuizRef{}
		}
		if id, ok := parseObjectID(s); ok {
			return QuizRef{Kind: QuizRefID, ID: id}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return QuizRef{}
		}
		if inner, ok := obj["_id"]; ok {
			if id, ok := parseEmbeddedID(inner); ok {
				return QuizRef{Kind: QuizRefEmbedded, ID: id}
			}
		}
		if oid, ok := obj["$oid"]; ok {
			var s string
			if json.Unmarshal(oid, &s) == nil {
				if id, ok := parseObjectID(s); ok {
					return QuizRef{Kind: QuizRefCoerced, ID: id}
				}
			}
		}
	case '[', 'n', 't', 'f':
		// arrays, null and booleans never coerce to an id
	default:
		if id, ok := parseObjectID(string(raw)); ok {
			return QuizRef{Kind: QuizRefCoerced, ID: id}
		}
	}

	return QuizRef{}
}

func parseEmbeddedID(raw json.RawMessage) (primitive.ObjectID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseObjectID(s)
	}

	var ext struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &ext); err == nil {
		return parseObjectID(ext.OID)
	}
	return primitive.NilObjectID, false
}

func parseObjectID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// QuizIDResolution is the deduplicated quiz set of a test series.
type QuizIDResolution struct {
	// IDs in first-seen order, lowercase hex.
	IDs []string
	// Skipped counts references that were not identifiers.
	Skipped int
}

// ResolveQuizIDs unions the top-level references with those of every section.
// Containers that are not JSON arrays are treated as empty.
func ResolveQuizIDs(quizzes, sections []byte) QuizIDResolution {
	res := QuizIDResolution{IDs: make([]string, 0)}
	seen := make(map[primitive.ObjectID]struct{})

	add := func(refs []json.RawMessage) {
		for _, raw := range refs {
			ref := ParseQuizRef(raw)
			if !ref.Valid() {
				res.Skipped++
				continue
			}
			if _, dup := seen[ref.ID]; dup {
				continue
			}
			seen[ref.ID] = struct{}{}
			res.IDs = append(res.IDs, ref.ID.Hex())
		}
	}

	add(decodeArray(quizzes))

	for _, rawSection := range decodeArray(sections) {
		var section struct {
			Quizzes json.RawMessage `json:"quizzes"`
		}
		if err := json.Unmarshal(rawSection, &section); err != nil {
			continue
		}
		add(decodeArray(section.Quizzes))
	}

	return res
}

func decodeArray(raw []byte) []json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// ===== BEST ATTEMPT SELECTION =====

// SelectBestAttempts keeps, per quiz, the completed attempt with the highest
// percentage. On equal percentage the attempt seen first wins, so callers pass
// attempts oldest first. Attempts for quizzes outside quizIDs are ignored.
// The result follows the order of quizIDs.
func SelectBestAttempts(attempts []*models.QuizAttempt, quizIDs []string) []*models.QuizAttempt {
	position := make(map[string]int, len(quizIDs))
	for i, id := range quizIDs {
		position[id] = i
	}

	best := make(map[string]*models.QuizAttempt)
	for _, a := range attempts {
		if a == nil || !a.Completed {
			continue
		}
		if _, inSeries := position[a.QuizID]; !inSeries {
			continue
		}
		current, ok := best[a.QuizID]
		if !ok || a.PercentageValue() > current.PercentageValue() {
			best[a.QuizID] = a
		}
	}

	result := make([]*models.QuizAttempt, 0, len(best))
	for _, id := range quizIDs {
		if a, ok := best[id]; ok {
			result = append(result, a)
		}
	}
	return result
}

// ===== STATISTICS =====

// ComputeStats derives every stat column from the best attempts.
func ComputeStats(best []*models.QuizAttempt, totalQuizzes int, now time.Time) models.LeaderboardStats {
	stats := models.LeaderboardStats{
		CompletedQuizzes: len(best),
		TotalQuizzes:     totalQuizzes,
		BestAttempts:     make([]models.BestAttempt, 0, len(best)),
		LastUpdated:      now,
	}

	for _, a := range best {
		stats.TotalScore += a.ScoreValue()
		stats.TotalMaxScore += a.MaxScoreValue()
		stats.TotalTimeSpent += a.TimeSpentValue()

		stats.BestAttempts = append(stats.BestAttempts, models.BestAttempt{
			QuizID:     a.QuizID,
			AttemptID:  a.ID,
			Score:      a.ScoreValue(),
			Percentage: a.PercentageValue(),
			TimeSpent:  a.TimeSpentValue(),
		})
	}

	if stats.TotalMaxScore > 0 {
		stats.AveragePercentage = roundHalfUp(stats.TotalScore / stats.TotalMaxScore * 100)
	}
	if stats.TotalQuizzes > 0 {
		stats.CompletionPercentage = roundHalfUp(float64(stats.CompletedQuizzes) / float64(stats.TotalQuizzes) * 100)
	}
	if stats.CompletedQuizzes > 0 {
		stats.AverageTimePerQuiz = roundHalfUp(float64(stats.TotalTimeSpent) / float64(stats.CompletedQuizzes))
	}

	return stats
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ===== RANKING =====

// AssignRanks ranks the entries that completed at least one quiz and returns
// them in rank order. Other entries are neither returned nor modified.
//
// Ordering: averagePercentage desc, completionPercentage desc, totalScore desc,
// totalTimeSpent asc. Two neighbours share a rank when the first three keys
// match, even if their time differs; otherwise the rank is the 1-based
// position in the sorted list.
func AssignRanks(entries []*models.LeaderboardEntry) []*models.LeaderboardEntry {
	ranked := make([]*models.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil && e.CompletedQuizzes > 0 {
			ranked = append(ranked, e)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AveragePercentage != b.AveragePercentage {
			return a.AveragePercentage > b.AveragePercentage
		}
		if a.CompletionPercentage != b.CompletionPercentage {
			return a.CompletionPercentage > b.CompletionPercentage
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.TotalTimeSpent < b.TotalTimeSpent
	})

	for i, e := range ranked {
		if i > 0 && sameStanding(ranked[i-1], e) {
			e.Rank = ranked[i-1].Rank
			continue
		}
		e.Rank = i + 1
	}

	return ranked
}

// sameStanding ignores totalTimeSpent on purpose; see AssignRanks.
func sameStanding(a, b *models.LeaderboardEntry) bool {
	return a.AveragePercentage == b.AveragePercentage &&
		a.CompletionPercentage == b.CompletionPercentage &&
		a.TotalScore == b.TotalScore
}
