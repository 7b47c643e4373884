// Package view tracks which screen of the dashboard a session is on and
// provides the content and control defaults for each screen.
package view

import (
	"errors"
	"fmt"
)

// Screen is a navigation state.
type Screen string

const (
	Landing   Screen = "landing"
	Dashboard Screen = "dashboard"
)

// Event is a navigation trigger.
type Event string

// NavigateToDashboard is the only user action that changes screens.
const NavigateToDashboard Event = "navigate_to_dashboard"

var ErrUnknownEvent = errors.New("unknown navigation event")

// Transition returns the screen reached from s on e. Dashboard is terminal:
// navigating from it leaves the session where it is.
func Transition(s Screen, e Event) (Screen, error) {
	if e != NavigateToDashboard {
		return s, fmt.Errorf("%w: %q", ErrUnknownEvent, e)
	}
	switch s {
	case Landing, Dashboard:
		return Dashboard, nil
	default:
		return s, fmt.Errorf("unknown screen %q", s)
	}
}

// LandingContent is the copy shown before the dashboard.
type LandingContent struct {
	Title    string   `json:"title"`
	Welcome  string   `json:"welcome"`
	Summary  string   `json:"summary"`
	Features []string `json:"features"`
	Action   string   `json:"action"`
}

// LandingPage returns the landing screen copy.
func LandingPage() LandingContent {
	return LandingContent{
		Title:   "Music Analysis Application",
		Welcome: "Welcome to the Music Analysis App!",
		Summary: "This application helps a music production company explore music styles and characteristics to identify trends and maximize sales.",
		Features: []string{
			"Discover the popularity of different music genres.",
			"Analyze characteristics like energy, danceability, and tempo by genre.",
			"Gain insights to make data-driven decisions in the music industry.",
		},
		Action: "Go to Dashboard",
	}
}
