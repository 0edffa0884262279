package mirror

import (
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Plan is the minimal set of operations needed to make the destination tree
// match the source tree. Operations act on disjoint relative paths except for
// type flips (file replaced by directory or vice versa), which emit a remove
// and a create for the same path; removes are applied before creates.
type Plan struct {
	Creates   []*Operation // present in source only, parents before children
	Copies    []*Operation // files present in both whose digests differ
	Removes   []*Operation // present in destination only, children before parents
	Unchanged int
}

// Empty reports whether the plan contains no mutations.
func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Copies) == 0 && len(p.Removes) == 0
}

// BuildPlan diffs two snapshots. Pure function, mutates neither snapshot.
// Destination paths covered by srcSkips are never scheduled for removal:
// their source counterpart exists but could not be captured, so deleting the
// replica would destroy the only good copy. A nil srcSkips shields nothing.
func BuildPlan(src, dst Snapshot, srcSkips *SkipList) *Plan {
	srcPaths := mapset.NewThreadUnsafeSet[string]()
	for path := range src {
		srcPaths.Add(path)
	}
	dstPaths := mapset.NewThreadUnsafeSet[string]()
	for path := range dst {
		dstPaths.Add(path)
	}

	plan := &Plan{}

	for _, path := range srcPaths.Difference(dstPaths).ToSlice() {
		plan.Creates = append(plan.Creates, &Operation{Op: OpCreated, RelPath: path, Entry: src[path]})
	}

	for _, path := range dstPaths.Difference(srcPaths).ToSlice() {
		if srcSkips.Covers(path) {
			slog.Debug("plan shield", "path", path)
			continue
		}
		plan.Removes = append(plan.Removes, &Operation{Op: OpRemoved, RelPath: path, Entry: dst[path]})
	}

	for _, path := range srcPaths.Intersect(dstPaths).ToSlice() {
		s, d := src[path], dst[path]
		if s.IsDir != d.IsDir {
			// type flip: clear the old entry, then recreate from source
			plan.Removes = append(plan.Removes, &Operation{Op: OpRemoved, RelPath: path, Entry: d})
			plan.Creates = append(plan.Creates, &Operation{Op: OpCreated, RelPath: path, Entry: s})
			continue
		}
		if !s.IsDir && s.Digest != d.Digest {
			plan.Copies = append(plan.Copies, &Operation{Op: OpCopied, RelPath: path, Entry: s})
			continue
		}
		plan.Unchanged++
	}

	// Lexicographic ascending puts parent dirs before their children;
	// descending puts children before their parents for safe removal.
	sortOps(plan.Creates, false)
	sortOps(plan.Copies, false)
	sortOps(plan.Removes, true)

	return plan
}

func sortOps(ops []*Operation, childrenFirst bool) {
	sort.Slice(ops, func(i, j int) bool {
		if childrenFirst {
			return ops[i].RelPath > ops[j].RelPath
		}
		return ops[i].RelPath < ops[j].RelPath
	})
}
