package tui

import (
	"fmt"
	"io"
	"strings"

	glam "github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorProfile picks the terminal colour profile for mode ("auto",
// "always" or "never") and installs it for lipgloss. Auto mode inspects w
// and the environment.
func ColorProfile(mode string, w io.Writer) termenv.Profile {
	var profile termenv.Profile
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		profile = termenv.TrueColor
	case "never":
		profile = termenv.Ascii
	default:
		profile = termenv.NewOutput(w).EnvColorProfile()
	}

	// A fixed profile and background keep lipgloss from sending OSC queries.
	lipgloss.SetColorProfile(profile)
	lipgloss.SetHasDarkBackground(true)
	return profile
}

// RenderOptions configures RenderPatch.
type RenderOptions struct {
	Color bool
	Width int
}

// RenderPatch returns patchText as it should be shown to a person. With
// colour the patch is rendered as a highlighted diff block, otherwise it is
// returned unchanged so it can be piped into git apply.
func RenderPatch(patchText string, opts RenderOptions) (string, error) {
	if !opts.Color || patchText == "" {
		return patchText, nil
	}
	wrap := opts.Width
	if wrap < 10 {
		wrap = 120
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"),
		glam.WithWordWrap(wrap),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render("```diff\n" + strings.TrimSuffix(patchText, "\n") + "\n```\n")
	if err != nil {
		return "", fmt.Errorf("render patch: %w", err)
	}
	return out, nil
}
