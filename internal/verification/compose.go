// Package verification runs the quality sub-pipeline: style check,
// conditional rewrite, and hallucination tagging. Verification is
// best-effort; its failures degrade the draft's quality metadata but
// never abort generation.
package verification

import (
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// ComposeDraftText flattens a draft into the text the quality chains
// operate on: first title, lead, headings with bodies, closing.
func ComposeDraftText(d *types.Draft) string {
	var sb strings.Builder
	if len(d.Titles) > 0 {
		sb.WriteString(d.Titles[0])
		sb.WriteString("\n")
	}
	sb.WriteString(d.Lead)
	sb.WriteString("\n")
	for _, s := range d.Sections {
		sb.WriteString(s.HeadingPrefix())
		sb.WriteString(s.Heading)
		sb.WriteString("\n")
		sb.WriteString(s.Body)
		sb.WriteString("\n")
	}
	sb.WriteString(d.Closing)
	return sb.String()
}

// ReparseSkeleton recovers the lead and sections from rewritten draft
// text. Headings are the lines beginning with "## " or "### ";
// everything between two headings is the preceding section's body. The
// first non-empty line is the title echo and is dropped; the block
// before the first heading is the lead. Titles and closing are
// preserved from the original draft by the caller.
func ReparseSkeleton(text string) (lead string, sections []types.Section) {
	lines := strings.Split(text, "\n")

	titleDropped := false
	var leadLines []string
	var current *types.Section

	flushBody := func(body []string) string {
		return strings.TrimSpace(strings.Join(body, "\n"))
	}

	var bodyLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		var level types.HeadingLevel
		var heading string
		switch {
		case strings.HasPrefix(trimmed, "### "):
			level, heading = types.LevelH3, strings.TrimSpace(strings.TrimPrefix(trimmed, "### "))
		case strings.HasPrefix(trimmed, "## "):
			level, heading = types.LevelH2, strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		}

		if heading != "" {
			if current != nil {
				current.Body = flushBody(bodyLines)
				sections = append(sections, *current)
			}
			current = &types.Section{Level: level, Heading: heading}
			bodyLines = nil
			continue
		}

		if current != nil {
			bodyLines = append(bodyLines, line)
			continue
		}
		if !titleDropped {
			if trimmed == "" {
				continue
			}
			titleDropped = true
			continue
		}
		leadLines = append(leadLines, line)
	}
	if current != nil {
		current.Body = flushBody(bodyLines)
		sections = append(sections, *current)
	}

	return flushBody(leadLines), sections
}

// ApplyCorrections applies the style checker's literal replacement
// pairs to the text.
func ApplyCorrections(text string, corrections []chains.CorrectedSection) string {
	for _, c := range corrections {
		if c.Original != "" && c.Corrected != "" {
			text = strings.ReplaceAll(text, c.Original, c.Corrected)
		}
	}
	return text
}
