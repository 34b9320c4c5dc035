package presentation

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff segment.
type Op int

const (
	// OpEqual is text present in both inputs.
	OpEqual Op = iota
	// OpInsert is text only in the new input.
	OpInsert
	// OpDelete is text only in the old input.
	OpDelete
)

// Segment is a run of text with its diff status.
type Segment struct {
	Op   Op
	Text string
}

// Diff computes a semantically cleaned character diff of before and after.
func Diff(before, after string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			segments = append(segments, Segment{Op: OpEqual, Text: d.Text})
		case diffmatchpatch.DiffInsert:
			segments = append(segments, Segment{Op: OpInsert, Text: d.Text})
		case diffmatchpatch.DiffDelete:
			segments = append(segments, Segment{Op: OpDelete, Text: d.Text})
		}
	}
	return segments
}

// Changed counts the segments that are not OpEqual.
func Changed(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Op != OpEqual {
			n++
		}
	}
	return n
}
