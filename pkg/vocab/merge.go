package vocab

// Policy selects how field conflicts are resolved when an incoming row
// shares a key with an existing row. FillBlankOnly takes precedence over
// PreferIncoming when both are set.
type Policy struct {
	// FillBlankOnly fills empty existing fields from incoming and never
	// overwrites a populated field.
	FillBlankOnly bool
	// PreferIncoming lets non-empty incoming fields win conflicts.
	PreferIncoming bool
}

// MergeResult reports what a merge did. Rows holds the existing rows in
// their original order followed by newly added rows in incoming order.
type MergeResult struct {
	Rows      []Row
	Added     int
	Updated   int
	AddedKeys map[Key]struct{}
}

// Merge reconciles incoming rows into an existing collection by (term,
// reading) key. Both sides are canonicalized first. Rows are never deleted,
// and after a merge no two rows share a key. Updated counts only rows whose
// stored value actually changed.
func Merge(existing, incoming []Row, policy Policy) MergeResult {
	merged := make([]Row, 0, len(existing)+len(incoming))
	index := make(map[Key]int, len(existing))
	res := MergeResult{AddedKeys: make(map[Key]struct{})}

	for _, r := range existing {
		row := r.Canonical()
		merged = append(merged, row)
		if row.Term != "" {
			index[row.Key()] = len(merged) - 1
		}
	}

	for _, r := range incoming {
		row := r.Canonical()
		if row.Term == "" {
			continue
		}
		key := row.Key()
		i, ok := index[key]
		if !ok {
			merged = append(merged, row)
			index[key] = len(merged) - 1
			res.Added++
			res.AddedKeys[key] = struct{}{}
			continue
		}
		old := merged[i]
		resolved := resolveRow(old, row, policy)
		if resolved != old {
			merged[i] = resolved
			res.Updated++
		}
	}

	res.Rows = merged
	return res
}

func resolveRow(old, in Row, policy Policy) Row {
	pick := resolveDefault
	switch {
	case policy.FillBlankOnly:
		pick = resolveFillBlank
	case policy.PreferIncoming:
		pick = resolvePreferIncoming
	}
	return Row{
		Term:    pick(old.Term, in.Term),
		Reading: pick(old.Reading, in.Reading),
		Meaning: pick(old.Meaning, in.Meaning),
		Example: pick(old.Example, in.Example),
		JLPT:    pick(old.JLPT, in.JLPT),
	}
}

func resolveFillBlank(old, in string) string {
	if old != "" {
		return old
	}
	return in
}

func resolvePreferIncoming(old, in string) string {
	if in != "" {
		return in
	}
	return old
}

// resolveDefault keeps the existing value unless incoming is non-empty and
// differs. Identical values resolve to existing so a re-merge of unchanged
// data never counts as an update.
func resolveDefault(old, in string) string {
	if in != "" && in != old {
		return in
	}
	return old
}
