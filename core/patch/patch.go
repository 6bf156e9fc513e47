// Package patch provides the textual patch capability used for Patch
// entries: produce a patch from two texts, apply it, and convert it to and
// from its stored byte form.
//
// Patches are computed with line-level diffing and applied strictly: every
// hunk must match the base text exactly at its recorded position, so a patch
// applied to drifted content fails instead of producing approximate output.
package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrApply is returned when a patch does not apply cleanly to a text.
var ErrApply = errors.New("patch: apply failed")

// ErrParse is returned when stored patch bytes cannot be parsed.
var ErrParse = errors.New("patch: malformed patch")

// Patch is an ordered list of hunks transforming one text into another.
// The zero value is an empty patch.
type Patch struct {
	hunks []diffmatchpatch.Patch
}

func newDMP() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.MatchThreshold = 0
	dmp.PatchDeleteThreshold = 0
	dmp.DiffTimeout = 0
	return dmp
}

// Diff returns the patch that transforms oldText into newText.
func Diff(oldText, newText string) *Patch {
	if oldText == newText {
		return &Patch{}
	}
	dmp := newDMP()
	var diffs []diffmatchpatch.Diff
	if a, b, lines, ok := linesToRunes(oldText, newText); ok {
		diffs = runesToLines(dmp.DiffMainRunes(a, b, false), lines)
	} else {
		diffs = dmp.DiffMain(oldText, newText, false)
	}
	diffs = dmp.DiffCleanupSemanticLossless(diffs)
	return &Patch{hunks: dmp.PatchMake(oldText, diffs)}
}

// Line encoding: every distinct line becomes one rune, so the diff runs
// over lines. Code points in the surrogate range are not valid in strings
// and are skipped.
const (
	surrogateMin = 0xD800
	surrogateLen = 0x800
	maxLines     = 0x10FFFF + 1 - surrogateLen
)

func lineRune(i int) rune {
	r := rune(i) //nolint:gosec // i < maxLines
	if r >= surrogateMin {
		r += surrogateLen
	}
	return r
}

func runeLine(r rune) int {
	if r >= surrogateMin+surrogateLen {
		r -= surrogateLen
	}
	return int(r)
}

// linesToRunes encodes both texts with a shared line table. It reports
// false when the texts hold more distinct lines than there are runes.
func linesToRunes(a, b string) ([]rune, []rune, []string, bool) {
	var lines []string
	index := make(map[string]int)
	encode := func(text string) ([]rune, bool) {
		out := make([]rune, 0, strings.Count(text, "\n")+1)
		for len(text) > 0 {
			end := strings.IndexByte(text, '\n') + 1
			if end == 0 {
				end = len(text)
			}
			line := text[:end]
			text = text[end:]
			i, ok := index[line]
			if !ok {
				if len(lines) == maxLines {
					return nil, false
				}
				i = len(lines)
				index[line] = i
				lines = append(lines, line)
			}
			out = append(out, lineRune(i))
		}
		return out, true
	}
	ra, ok := encode(a)
	if !ok {
		return nil, nil, nil, false
	}
	rb, ok := encode(b)
	if !ok {
		return nil, nil, nil, false
	}
	return ra, rb, lines, true
}

// runesToLines replaces the encoded text of each diff with its lines.
func runesToLines(diffs []diffmatchpatch.Diff, lines []string) []diffmatchpatch.Diff {
	var sb strings.Builder
	for i := range diffs {
		sb.Reset()
		for _, r := range diffs[i].Text {
			sb.WriteString(lines[runeLine(r)])
		}
		diffs[i].Text = sb.String()
	}
	return diffs
}

// Empty reports whether the patch has no hunks.
func (p *Patch) Empty() bool {
	return p == nil || len(p.hunks) == 0
}

// Len returns the number of hunks.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.hunks)
}

// Apply applies the patch to text. It fails with ErrApply if any hunk does
// not match; partial results are never returned.
func (p *Patch) Apply(text string) (string, error) {
	if p.Empty() {
		return text, nil
	}
	dmp := newDMP()
	out, applied := dmp.PatchApply(dmp.PatchDeepCopy(p.hunks), text)
	for i, ok := range applied {
		if !ok {
			return "", fmt.Errorf("%w: hunk %d of %d does not match", ErrApply, i+1, len(applied))
		}
	}
	return out, nil
}

// Bytes returns the stored form of the patch.
func (p *Patch) Bytes() []byte {
	if p.Empty() {
		return nil
	}
	return []byte(newDMP().PatchToText(p.hunks))
}

// String returns the stored form of the patch as text.
func (p *Patch) String() string {
	return string(p.Bytes())
}

// Parse decodes the stored form produced by Bytes.
func Parse(data []byte) (*Patch, error) {
	if len(data) == 0 {
		return &Patch{}, nil
	}
	hunks, err := newDMP().PatchFromText(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Patch{hunks: hunks}, nil
}
