package simulation

import "time"

// Stepper adapts the number of sub-steps per tick to the time a tick takes:
// a tick over budget halves the count, otherwise it grows back by one up to
// the maximum.
type Stepper struct {
	steps  int
	max    int
	budget time.Duration
}

func NewStepper(maxSteps int, budget time.Duration) *Stepper {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Stepper{steps: maxSteps, max: maxSteps, budget: budget}
}

// Steps is the sub-step count for the next tick.
func (s *Stepper) Steps() int {
	return s.steps
}

// Observe records how long the last tick took.
func (s *Stepper) Observe(took time.Duration) {
	if took > s.budget {
		s.steps = max(s.steps/2, 1)
		return
	}
	if s.steps < s.max {
		s.steps++
	}
}
