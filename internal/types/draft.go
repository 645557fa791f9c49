package types

import (
	"strings"
	"unicode/utf8"
)

// UnverifiedMarkerPrefix is the literal prefix of the unverified-claim
// marker inserted after sentences the detector could not ground in the
// input material. A full marker reads "[要確認: 創業年]".
const UnverifiedMarkerPrefix = "[要確認:"

// Section is one generated article section. Level is the outline's
// heading depth; an empty level renders as H2.
type Section struct {
	Level   HeadingLevel `json:"level,omitempty"`
	Heading string       `json:"heading"`
	Body    string       `json:"body"`
}

// HeadingPrefix returns the markdown prefix for the section's level.
func (s Section) HeadingPrefix() string {
	if s.Level == LevelH3 {
		return "### "
	}
	return "## "
}

// Draft is the final artifact of one generation request.
type Draft struct {
	Titles   []string    `json:"titles" validate:"len=3"`
	Lead     string      `json:"lead"`
	Sections []Section   `json:"sections"`
	Closing  string      `json:"closing"`
	Category ArticleType `json:"article_type"`
	Theme    string      `json:"theme"`

	DesiredLength          int     `json:"desired_length"`
	ActualLength           int     `json:"actual_length"`
	TagCount               int     `json:"tag_count"`
	ConsistencyScore       float64 `json:"consistency_score" validate:"gte=0,lte=1"`
	VerificationConfidence float64 `json:"verification_confidence" validate:"gte=0,lte=1"`
}

// CalculateLength returns the character count of lead, section bodies,
// and closing. Characters are runes, not bytes, so Japanese text counts
// the way an editor counts it.
func (d *Draft) CalculateLength() int {
	n := utf8.RuneCountInString(d.Lead) + utf8.RuneCountInString(d.Closing)
	for _, s := range d.Sections {
		n += utf8.RuneCountInString(s.Body)
	}
	return n
}

// CountTags returns the number of unverified-claim markers across all
// text fields.
func (d *Draft) CountTags() int {
	n := 0
	for _, t := range d.Titles {
		n += strings.Count(t, UnverifiedMarkerPrefix)
	}
	n += strings.Count(d.Lead, UnverifiedMarkerPrefix)
	for _, s := range d.Sections {
		n += strings.Count(s.Heading, UnverifiedMarkerPrefix)
		n += strings.Count(s.Body, UnverifiedMarkerPrefix)
	}
	n += strings.Count(d.Closing, UnverifiedMarkerPrefix)
	return n
}

// Refresh recomputes the derived ActualLength and TagCount fields. Call
// after any mutation of the text fields.
func (d *Draft) Refresh() {
	d.ActualLength = d.CalculateLength()
	d.TagCount = d.CountTags()
}
