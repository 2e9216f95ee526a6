package core

import (
	"slices"
	"strings"
	"time"
)

// GoalInput describes a goal edit. An empty status keeps the current one
// (Not Started for new goals).
type GoalInput struct {
	Description string
	TargetDate  *time.Time
	Status      GoalStatus
}

// AddGoal returns a copy of goals with a new goal appended.
func AddGoal(goals []Goal, id string, in GoalInput) ([]Goal, Goal, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, Goal{}, ErrInvalidGoal
	}
	g := Goal{ID: id, Description: desc, TargetDate: copyTime(in.TargetDate), Status: in.Status}
	if g.Status == "" {
		g.Status = GoalNotStarted
	}
	out := append(cloneGoals(goals), g)
	return out, g, nil
}

// ReplaceGoal returns a copy of goals with the goal identified by id edited.
func ReplaceGoal(goals []Goal, id string, in GoalInput) ([]Goal, Goal, error) {
	idx := slices.IndexFunc(goals, func(g Goal) bool { return g.ID == id })
	if idx < 0 {
		return nil, Goal{}, ErrGoalNotFound
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, Goal{}, ErrInvalidGoal
	}
	out := cloneGoals(goals)
	g := out[idx]
	g.Description = desc
	if in.TargetDate != nil {
		g.TargetDate = copyTime(in.TargetDate)
	}
	if in.Status != "" {
		g.Status = in.Status
	}
	out[idx] = g
	return out, g, nil
}

// RemoveGoal returns a copy of goals without the goal identified by id.
func RemoveGoal(goals []Goal, id string) ([]Goal, error) {
	idx := slices.IndexFunc(goals, func(g Goal) bool { return g.ID == id })
	if idx < 0 {
		return nil, ErrGoalNotFound
	}
	out := cloneGoals(goals)
	return slices.Delete(out, idx, idx+1), nil
}

// DuplicateGoalID returns the index of the first goal whose ID repeats an
// earlier one, or -1.
func DuplicateGoalID(goals []Goal) int {
	seen := make(map[string]struct{}, len(goals))
	for i, g := range goals {
		if _, ok := seen[g.ID]; ok {
			return i
		}
		seen[g.ID] = struct{}{}
	}
	return -1
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
