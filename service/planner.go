package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"enviroagent/model"
)

// Automation is an environment action proposed for a goal.
type Automation struct {
	Name       string
	ActionType string
	Target     string
}

type goalPlan struct {
	steps       []string
	automations []Automation
}

var goalPlans = map[string]goalPlan{
	"fitness": {
		steps: []string{
			"Define target weight and timeframe.",
			"Set daily calorie surplus and protein goal.",
			"Schedule 3x/week strength training.",
			"Track meals and weekly progress in an app.",
		},
		automations: []Automation{{Name: "Open Fitness App", ActionType: "app_control", Target: "fitness_app"}},
	},
	"focus": {
		steps: []string{
			"Define a 50-minute focus session objective.",
			"Silence phone and close distracting tabs.",
			"Start a 50/10 Pomodoro cycle.",
			"Log outcomes and blockers after session.",
		},
		automations: []Automation{{Name: "Block Social Apps 60m", ActionType: "app_block", Target: "social_media"}},
	},
	"sleep": {
		steps: []string{
			"Set fixed bedtime and wake time.",
			"Avoid screens 60 minutes before bed.",
			"Create a wind-down routine (reading, dim lights).",
			"Track sleep quality and adjust.",
		},
		automations: []Automation{{Name: "Dim Lights", ActionType: "device_control", Target: "smart_lights"}},
	},
	"general": {
		steps: []string{
			"Clarify desired outcome and measurable success.",
			"Break into weekly milestones and daily tasks.",
			"Allocate time on calendar and set reminders.",
			"Review weekly and iterate on the plan.",
		},
	},
}

type keywordRule struct {
	value    string
	keywords []string
}

// first matching rule wins
func firstMatch(text string, rules []keywordRule, fallback string) string {
	for _, r := range rules {
		if containsAny(text, r.keywords) {
			return r.value
		}
	}
	return fallback
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

var (
	goalTypeRules = []keywordRule{
		{"fitness", []string{"fitness", "exercise", "workout", "gym"}},
		{"focus", []string{"focus", "concentration", "work", "study"}},
		{"sleep", []string{"sleep", "rest", "bedtime"}},
		{"learning", []string{"learn", "education"}},
	}
	priorityRules = []keywordRule{
		{"high", []string{"urgent", "important", "critical"}},
		{"medium", []string{"soon", "quickly", "fast"}},
	}
	timeFrameRules = []keywordRule{
		{"daily", []string{"daily", "every day", "routine"}},
		{"weekly", []string{"weekly", "week", "monthly"}},
		{"long_term", []string{"long term", "yearly", "annual"}},
	}
	difficultyRules = []keywordRule{
		{"easy", []string{"simple", "easy", "basic"}},
		{"hard", []string{"complex", "difficult", "challenging"}},
	}
	environmentRules = []keywordRule{
		{"lighting_control", []string{"morning", "wake up", "early"}},
		{"noise_control", []string{"focus", "concentration", "quiet"}},
		{"space_preparation", []string{"exercise", "fitness", "workout"}},
		{"sleep_environment", []string{"sleep", "rest", "bedtime"}},
	}
)

// UnderstandGoal reads a free-text goal into a GoalProfile by keyword.
func UnderstandGoal(description string) model.GoalProfile {
	text := strings.ToLower(description)
	needs := []string{}
	for _, r := range environmentRules {
		if containsAny(text, r.keywords) {
			needs = append(needs, r.value)
		}
	}
	return model.GoalProfile{
		GoalType:                firstMatch(text, goalTypeRules, "general"),
		Priority:                firstMatch(text, priorityRules, "low"),
		TimeFrame:               firstMatch(text, timeFrameRules, "flexible"),
		EnvironmentRequirements: needs,
		SuccessMetrics:          []string{"completion_rate", "consistency", "user_satisfaction"},
		EstimatedDifficulty:     firstMatch(text, difficultyRules, "medium"),
	}
}

// PlanFor returns the plan steps and automations for a goal type. Unknown types get the general plan.
func PlanFor(goalType string) ([]string, []Automation) {
	plan, ok := goalPlans[goalType]
	if !ok {
		plan = goalPlans["general"]
	}
	return plan.steps, plan.automations
}

// PlannerReplier answers with a structured plan for the conversation's goal.
// The goal is read from the first user message and pinned to the conversation,
// so later messages get the same plan.
type PlannerReplier struct {
	goals model.GoalStore
}

func NewPlannerReplier(goals model.GoalStore) *PlannerReplier {
	return &PlannerReplier{goals: goals}
}

func (r *PlannerReplier) Reply(ctx context.Context, history []model.Message, prompt string) (string, error) {
	profile := UnderstandGoal(firstUserMessage(history, prompt))
	if len(history) > 0 {
		conversationID := history[0].ConversationID
		goal, err := r.goals.FindConversationGoal(ctx, conversationID)
		switch {
		case err == nil:
			profile = goal.Structured
		case errors.Is(err, model.ErrNotFound):
			if _, err := r.goals.SaveConversationGoal(ctx, conversationID, firstUserMessage(history, prompt), profile); err != nil {
				return "", err
			}
		default:
			return "", err
		}
	}
	return formatPlan(profile), nil
}

func firstUserMessage(history []model.Message, prompt string) string {
	for _, m := range history {
		if m.Role == model.RoleUser {
			return m.Content
		}
	}
	return prompt
}

func formatPlan(profile model.GoalProfile) string {
	steps, automations := PlanFor(profile.GoalType)

	var b strings.Builder
	fmt.Fprintf(&b, "Goal type: %s | Priority: %s | Timeframe: %s\n\n", profile.GoalType, profile.Priority, profile.TimeFrame)
	b.WriteString("Suggested plan:\n")
	if len(steps) == 0 {
		b.WriteString("- (no steps)\n")
	}
	for _, s := range steps {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\nProposed automations:\n")
	if len(automations) == 0 {
		b.WriteString("- (no automations)")
	}
	for i, a := range automations {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s [%s -> %s]", a.Name, a.ActionType, a.Target)
	}
	return b.String()
}
