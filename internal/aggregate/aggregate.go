// Package aggregate computes per-week submission completeness across the
// organization: global rate and average score, per-entity breakdowns, the
// missing-submission list, and flagged support requests.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	"okrpulse/internal/model"
)

// UnknownEntity is the bucket for objectives whose owner cannot be
// resolved to a known actor. Such objectives still count toward global
// totals.
const UnknownEntity = "Unknown"

// missingLabel matches the display sentinel used for unresolvable values.
const missingLabel = "—"

// Group is the per-entity breakdown.
type Group struct {
	Entity    string
	Total     int
	Submitted int
	// AvgScore is nil when the group has zero submissions.
	AvgScore *float64
}

// Rate returns the group's submission percentage, 0 when empty.
func (g Group) Rate() int {
	return rate(g.Submitted, g.Total)
}

// AvgScoreLabel formats the group average to one decimal, or the missing
// sentinel when no updates exist.
func (g Group) AvgScoreLabel() string {
	return scoreLabel(g.AvgScore)
}

// MissingActor lists one actor's assigned objectives with no update this
// period. Actors with no assigned active objectives never appear.
type MissingActor struct {
	Actor      model.Actor
	Objectives []model.Objective
}

// SupportFlag pairs a needs-support update with its objective and owner
// for display.
type SupportFlag struct {
	Update    model.PeriodUpdate
	Objective model.Objective
	ActorName string
	Entity    string
}

// Summary is the aggregate view for a single reporting period.
type Summary struct {
	ActiveObjectives int
	Submitted        int
	SubmissionRate   int
	// AvgScore is nil when zero updates exist.
	AvgScore     *float64
	Groups       []Group
	Missing      []MissingActor
	NeedsSupport []SupportFlag
}

// AvgScoreLabel formats the global average to one decimal, or the missing
// sentinel when no updates exist.
func (s Summary) AvgScoreLabel() string {
	return scoreLabel(s.AvgScore)
}

// MissingCount returns the total number of un-updated objectives across
// all delinquent actors.
func (s Summary) MissingCount() int {
	n := 0
	for _, m := range s.Missing {
		n += len(m.Objectives)
	}
	return n
}

// Summarize computes the period summary from immutable input snapshots.
// Inactive objectives are ignored; updates that match no active objective
// are ignored so the submission rate stays within [0,100].
func Summarize(actors []model.Actor, objectives []model.Objective, updates []model.PeriodUpdate) Summary {
	actorsByID := make(map[string]model.Actor, len(actors))
	for _, a := range actors {
		actorsByID[a.ID] = a
	}

	var active []model.Objective
	activeByID := make(map[string]model.Objective, len(objectives))
	for _, o := range objectives {
		if !o.Active {
			continue
		}
		active = append(active, o)
		activeByID[o.ID] = o
	}

	// Last write wins when the snapshot carries duplicates; the storage
	// layer's uniqueness constraint makes that a non-case in practice.
	updateByObjective := make(map[string]model.PeriodUpdate, len(updates))
	for _, u := range updates {
		if _, ok := activeByID[u.ObjectiveID]; !ok {
			continue
		}
		updateByObjective[u.ObjectiveID] = u
	}

	summary := Summary{ActiveObjectives: len(active)}
	groups := make(map[string]*Group)
	scoreSum := 0

	for _, o := range active {
		entity := entityFor(o, actorsByID)
		g, ok := groups[entity]
		if !ok {
			g = &Group{Entity: entity}
			groups[entity] = g
		}
		g.Total++

		u, submitted := updateByObjective[o.ID]
		if !submitted {
			continue
		}
		summary.Submitted++
		scoreSum += u.Score
		g.Submitted++
		if g.AvgScore == nil {
			g.AvgScore = new(float64)
		}
		*g.AvgScore += float64(u.Score)

		if u.NeedsSupport {
			summary.NeedsSupport = append(summary.NeedsSupport, supportFlag(u, o, actorsByID))
		}
	}

	summary.SubmissionRate = rate(summary.Submitted, summary.ActiveObjectives)
	if summary.Submitted > 0 {
		avg := float64(scoreSum) / float64(summary.Submitted)
		summary.AvgScore = &avg
	}

	for _, g := range groups {
		if g.AvgScore != nil {
			*g.AvgScore /= float64(g.Submitted)
		}
		summary.Groups = append(summary.Groups, *g)
	}
	sort.Slice(summary.Groups, func(i, j int) bool {
		return summary.Groups[i].Entity < summary.Groups[j].Entity
	})

	summary.Missing = missingActors(actors, active, updateByObjective)

	sort.Slice(summary.NeedsSupport, func(i, j int) bool {
		a, b := summary.NeedsSupport[i], summary.NeedsSupport[j]
		if a.ActorName != b.ActorName {
			return a.ActorName < b.ActorName
		}
		return a.Objective.Title < b.Objective.Title
	})

	return summary
}

func missingActors(actors []model.Actor, active []model.Objective, updateByObjective map[string]model.PeriodUpdate) []MissingActor {
	var missing []MissingActor
	for _, a := range actors {
		var unaccounted []model.Objective
		assigned := 0
		for _, o := range active {
			if o.OwnerID != a.ID {
				continue
			}
			assigned++
			if _, ok := updateByObjective[o.ID]; !ok {
				unaccounted = append(unaccounted, o)
			}
		}
		if assigned == 0 || len(unaccounted) == 0 {
			continue
		}
		sort.Slice(unaccounted, func(i, j int) bool {
			return unaccounted[i].Title < unaccounted[j].Title
		})
		missing = append(missing, MissingActor{Actor: a, Objectives: unaccounted})
	}
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].Actor.FullName < missing[j].Actor.FullName
	})
	return missing
}

func supportFlag(u model.PeriodUpdate, o model.Objective, actorsByID map[string]model.Actor) SupportFlag {
	flag := SupportFlag{Update: u, Objective: o, ActorName: UnknownEntity, Entity: UnknownEntity}
	if owner, ok := actorsByID[o.OwnerID]; ok {
		flag.ActorName = owner.FullName
		if owner.Entity != "" {
			flag.Entity = owner.Entity
		}
	}
	return flag
}

func entityFor(o model.Objective, actorsByID map[string]model.Actor) string {
	if owner, ok := actorsByID[o.OwnerID]; ok && owner.Entity != "" {
		return owner.Entity
	}
	return UnknownEntity
}

func rate(submitted, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(submitted) / float64(total) * 100))
}

func scoreLabel(avg *float64) string {
	if avg == nil {
		return missingLabel
	}
	return strconv.FormatFloat(*avg, 'f', 1, 64)
}
