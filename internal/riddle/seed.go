package riddle

import "github.com/vnishchay/reasoning-game/internal/domain"

// SeedRiddles are the hand-written riddles available before the first sweep runs.
func SeedRiddles() []domain.Riddle {
	return []domain.Riddle{
		{
			Level:    1,
			Question: "I speak without a mouth and hear without ears. I have no body, but I come alive with wind. What am I?",
			Answer:   "echo",
			Hints: []string{
				"It repeats what you say.",
				"It's related to sound.",
				"It's often heard in valleys.",
			},
		},
		{
			Level:    2,
			Question: "The more you take, the more you leave behind. What am I?",
			Answer:   "footsteps",
			Hints: []string{
				"It's related to walking.",
				"It's something you leave behind.",
				"It's often seen on sand.",
			},
		},
	}
}
