// package formatter renders edit scripts, history and playlist state for the terminal
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/plx/internal/diffs"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// Formatter renders CLI output. With color enabled it uses [lipgloss] styles;
// otherwise every render degrades to plain text for pipes and dumb terminals.
type Formatter struct {
	color  bool
	title  lipgloss.Style
	add    lipgloss.Style
	remove lipgloss.Style
	move   lipgloss.Style
	dim    lipgloss.Style
}

// NewFormatter creates a formatter. Pass color=false for plain output.
func NewFormatter(color bool) *Formatter {
	return &Formatter{
		color:  color,
		title:  newBold("#7D56F4"),
		add:    newBold("#04B575"),
		remove: newBold("#FF0000"),
		move:   newStyle("#FFA500"),
		dim:    newStyle("#626262"),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func (f *Formatter) paint(style lipgloss.Style, s string) string {
	if !f.color {
		return s
	}
	return style.Render(s)
}

// changeLine renders one edit operation with its +/-/~ sigil.
func (f *Formatter) changeLine(c diffs.Change, describe func(string) string) string {
	label := c.TrackID
	if describe != nil {
		if d := describe(c.TrackID); d != "" {
			label = d
		}
	}
	switch c.Op {
	case diffs.OpAdd:
		return f.paint(f.add, fmt.Sprintf("+ %s @ %d", label, c.Index))
	case diffs.OpRemove:
		return f.paint(f.remove, fmt.Sprintf("- %s", label))
	case diffs.OpMove:
		return f.paint(f.move, fmt.Sprintf("~ %s -> %d", label, c.Index))
	default:
		return label
	}
}

// Script renders an edit script, one change per line grouped by phase.
// describe optionally maps a track ID to a display label; nil uses raw IDs.
func (f *Formatter) Script(script diffs.Script, describe func(string) string) string {
	if script.Empty() {
		return f.paint(f.dim, "no changes")
	}

	var buf bytes.Buffer
	for _, c := range script.SortForDisplay() {
		buf.WriteString(f.changeLine(c, describe))
		buf.WriteByte('\n')
	}
	buf.WriteString(f.paint(f.dim, script.Summary()))
	return buf.String()
}

// Commit renders one history entry for 'plx log'.
func (f *Formatter) Commit(c models.Commit) string {
	hash := f.paint(f.title, c.ShortHash())
	when := f.paint(f.dim, c.Timestamp.Local().Format("2006-01-02 15:04"))
	return fmt.Sprintf("%s  %s  %s (%d tracks)", hash, when, c.Message, len(c.Snapshot.Tracks))
}

// Log renders commit history, newest first, as produced by the journal.
func (f *Formatter) Log(commits []models.Commit) string {
	if len(commits) == 0 {
		return f.paint(f.dim, "no commits")
	}
	lines := make([]string, len(commits))
	for i, c := range commits {
		lines[i] = f.Commit(c)
	}
	return strings.Join(lines, "\n")
}

// StagedChange renders one pending operation for 'plx status'.
func (f *Formatter) StagedChange(c models.StagedChange) string {
	switch c.Kind {
	case models.ChangeAdd:
		label := c.TrackID
		if c.Track != nil && c.Track.Title != "" {
			label = fmt.Sprintf("%s (%s)", c.Track.Title, c.TrackID)
		}
		if c.Index != nil {
			return f.paint(f.add, fmt.Sprintf("+ %s @ %d", label, *c.Index))
		}
		return f.paint(f.add, fmt.Sprintf("+ %s", label))
	case models.ChangeRemove:
		return f.paint(f.remove, fmt.Sprintf("- %s", c.TrackID))
	case models.ChangeMove:
		return f.paint(f.move, fmt.Sprintf("~ %s -> %d", c.TrackID, *c.Index))
	default:
		return c.TrackID
	}
}

// Status renders the repository status block.
func (f *Formatter) Status(playlistID string, provider models.Provider, head models.Commit, staged []models.StagedChange, lastPushed string) string {
	var buf bytes.Buffer

	buf.WriteString(f.paint(f.title, fmt.Sprintf("playlist %s (%s)", playlistID, provider)))
	buf.WriteByte('\n')
	buf.WriteString(fmt.Sprintf("HEAD %s  %s\n", head.ShortHash(), head.Message))

	if lastPushed == "" {
		buf.WriteString(f.paint(f.dim, "never pushed") + "\n")
	} else if lastPushed == head.Hash {
		buf.WriteString(f.paint(f.dim, "in sync with remote at HEAD") + "\n")
	} else {
		buf.WriteString(f.paint(f.move, fmt.Sprintf("remote at %s, local ahead", models.ShortHash(lastPushed))) + "\n")
	}

	if len(staged) == 0 {
		buf.WriteString(f.paint(f.dim, "nothing staged"))
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("%d staged change(s):\n", len(staged)))
	for i, c := range staged {
		buf.WriteString("  " + f.StagedChange(c))
		if i < len(staged)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// TrackList renders a snapshot as a numbered track listing.
func (f *Formatter) TrackList(snapshot models.Snapshot) string {
	if len(snapshot.Tracks) == 0 {
		return f.paint(f.dim, "empty playlist")
	}

	var buf bytes.Buffer
	for i, t := range snapshot.Tracks {
		line := fmt.Sprintf("%3d. %s", i, t.Title)
		if t.Title == "" {
			line = fmt.Sprintf("%3d. %s", i, t.ID)
		}
		if artists := t.ArtistLine(); artists != "" {
			line += " - " + artists
		}
		if t.DurationMS > 0 {
			line += " " + f.paint(f.dim, "["+shared.FormatDuration(t.DurationMS)+"]")
		}
		buf.WriteString(line)
		if i < len(snapshot.Tracks)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// SearchResults renders provider or cache search hits with their IDs, so a
// result can be passed straight to 'plx add'.
func (f *Formatter) SearchResults(tracks []models.Track) string {
	if len(tracks) == 0 {
		return f.paint(f.dim, "no results")
	}

	var buf bytes.Buffer
	for i, t := range tracks {
		buf.WriteString(fmt.Sprintf("%s  %s", f.paint(f.title, t.ID), t.Title))
		if artists := t.ArtistLine(); artists != "" {
			buf.WriteString(" - " + artists)
		}
		if t.DurationMS > 0 {
			buf.WriteString(" " + f.paint(f.dim, "["+shared.FormatDuration(t.DurationMS)+"]"))
		}
		if i < len(tracks)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
