package manifest

// Coalesce rewrites the node's stored "expected" entries from the evidence
// recorded since the last coalesce.
//
// Per tracked condition, in stored order:
//   - no matched results: left untouched (absence of evidence is not
//     evidence of absence; untested conditions are never destroyed)
//   - all matched results agree on one status: the entry is updated in
//     place, or dropped as redundant when the agreed status equals the
//     applicable unconditional status and the entry is conditional
//   - matched results disagree under a conditional entry: the entry is
//     dropped and its results re-enter the pending pool for re-partitioning
//   - matched results disagree under the unconditional entry: only results
//     whose status differs from the unconditional status re-enter pending
//
// Pending evidence then becomes either a single unconditional override
// (when it agrees on one status and nothing else survived) or synthesized
// conditional entries, skipping any entry that would restate the applicable
// default. Finally a trailing unconditional entry equal to the default is
// dropped, and the attribute is removed entirely when no entries remain.
//
// Coalesce consumes the evidence buffers: calling it again with no new
// evidence recorded is a no-op.
func (t *TestNode) Coalesce() error {
	unconditionalStatus := t.defaultStatus
	if v, ok := t.node.DefaultValue("expected"); ok {
		unconditionalStatus = v
	}

	surviving := 0
	for _, tc := range t.tracked {
		switch {
		case len(tc.results) == 0:
			surviving++

		case allSameStatus(tc.results):
			status := tc.results[0].Status
			if status == unconditionalStatus && tc.cv.Condition != nil {
				t.node.RemoveValue("expected", tc.cv)
			} else {
				tc.cv.Value = status
				surviving++
			}

		case tc.cv.Condition != nil:
			// Conflicting evidence under one historical condition is not
			// salvageable in place; re-partition it from scratch.
			t.node.RemoveValue("expected", tc.cv)
			t.pending = append(t.pending, tc.results...)

		default:
			// The unconditional entry: results already agreeing with it
			// need no entry of their own.
			for _, r := range tc.results {
				if r.Status != unconditionalStatus {
					t.pending = append(t.pending, r)
				}
			}
			surviving++
		}
	}

	// Invariant: nothing in pending matches a surviving condition other
	// than the unconditional one.

	if len(t.pending) > 0 {
		if allSameStatus(t.pending) && surviving == 0 {
			if status := t.pending[0].Status; status != t.defaultStatus {
				t.node.Set("expected", status, nil)
			}
		} else {
			conditions, err := groupConditions(t.pending)
			if err != nil {
				return err
			}
			for _, c := range conditions {
				if c.status != unconditionalStatus {
					t.node.Set("expected", c.status, c.cond)
				}
			}
		}
	}

	if values := t.node.Values("expected"); len(values) > 0 {
		last := values[len(values)-1]
		if last.Condition == nil && last.Value == t.defaultStatus {
			t.node.RemoveValue("expected", last)
		}
	}
	if t.node.HasKey("expected") && len(t.node.Values("expected")) == 0 {
		t.node.RemoveKey("expected")
	}

	// Rebind bookkeeping to the rewritten entries and drop the consumed
	// evidence, so a second coalesce with no new results is a no-op.
	t.pending = nil
	t.tracked = nil
	for _, cv := range t.node.Values("expected") {
		t.tracked = append(t.tracked, &trackedCondition{cv: cv})
	}
	return nil
}

func allSameStatus(results []Result) bool {
	for _, r := range results[1:] {
		if r.Status != results[0].Status {
			return false
		}
	}
	return true
}
