package artifact

import "sort"

// Selection is the newest record per major line for one channel listing.
type Selection struct {
	Latest   map[int]Record
	Rejected []Result // malformed entries that were excluded
}

// Majors returns the selected majors in ascending order.
func (s Selection) Majors() []int {
	majors := make([]int, 0, len(s.Latest))
	for m := range s.Latest {
		majors = append(majors, m)
	}
	sort.Ints(majors)
	return majors
}

// Highest returns the largest selected major, or false when empty.
func (s Selection) Highest() (int, bool) {
	majors := s.Majors()
	if len(majors) == 0 {
		return 0, false
	}
	return majors[len(majors)-1], true
}

// Empty reports whether no major survived filtering.
func (s Selection) Empty() bool { return len(s.Latest) == 0 }

// Select parses refs under rule and keeps, for every major >= minimumMajor,
// the record that sorts last. Non-version refs are ignored, malformed ones
// are collected on Rejected and otherwise excluded. Ties keep the entry that
// appeared first in the listing.
func Select(refs []string, rule Rule, minimumMajor int) Selection {
	sel := Selection{Latest: map[int]Record{}}

	for i, ref := range refs {
		major, ok := MajorOf(ref)
		if !ok {
			continue
		}
		if major < minimumMajor {
			continue
		}

		res := Parse(ref, rule)
		if !res.OK() {
			sel.Rejected = append(sel.Rejected, res)
			continue
		}
		rec := res.Record
		rec.Index = i

		cur, seen := sel.Latest[major]
		if !seen || Compare(rec.Key, cur.Key) > 0 {
			sel.Latest[major] = rec
		}
	}

	return sel
}
