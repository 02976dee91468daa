package fx

import "sort"

// OperationGroup is a set of operations executed in a single buffer pass.
// Groups hold one operation unless the optimizer proves two adjacent
// operations compatible (at most pairwise).
type OperationGroup []Operation

// rewriteRule rewrites an operation list. absorbed records operations
// swallowed by a merge (absorbed ID -> surviving ID) so dependency
// resolution can treat them as satisfied.
type rewriteRule func(ops []Operation, absorbed map[string]string) []Operation

// rewriteRules is the registered rule set, applied in order. Rules are
// keyed by the algorithm family they understand; convolution operations
// are deliberately never merged (merging degrades visual quality), only
// reordered by ascending computational cost.
var rewriteRules = []rewriteRule{
	mergeSequentialBlurs,
	mergeColorAdjustments,
	reorderConvolutionsByCost,
}

// OptimizeOperations rewrites one layer's operation list for execution:
//
//  1. Sort by descending priority (stable).
//  2. Apply the registered rewrite rules (merge sequential blurs, merge
//     color adjustments, reorder convolutions by cost).
//  3. Resolve dependency order; on a cycle or missing dependency the
//     remaining operations are appended in their current order rather
//     than failing.
//  4. Group adjacent compatible operations pairwise so they share one
//     buffer pass.
func OptimizeOperations(ops []Operation) []OperationGroup {
	if len(ops) == 0 {
		return nil
	}

	sorted := make([]Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	absorbed := make(map[string]string)
	for _, rule := range rewriteRules {
		sorted = rule(sorted, absorbed)
	}

	ordered := resolveDependencies(sorted, absorbed)
	return groupCompatible(ordered)
}

// family returns the optimizer family of an operation, or -1 when the
// effect is unknown (unknown operations are left untouched and fail at
// execution time instead).
func family(op Operation) Family {
	if spec, ok := LookupEffect(op.EffectID); ok {
		return spec.Family
	}
	return Family(-1)
}

// cost returns the effect's declared cost rank, or 0 when unknown.
func cost(op Operation) int {
	if spec, ok := LookupEffect(op.EffectID); ok {
		return spec.Cost
	}
	return 0
}

// mergeSequentialBlurs collapses runs of consecutive blur operations into
// one blur whose radius is the summed intensity of the run.
func mergeSequentialBlurs(ops []Operation, absorbed map[string]string) []Operation {
	out := ops[:0]
	for _, op := range ops {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if op.EffectID == "blur" && prev.EffectID == "blur" {
				merged := prev.Settings.Clone()
				merged["radius"] = prev.Settings.Get("radius", 5) + op.Settings.Get("radius", 5)
				if q := op.Settings.Get("quality", 1); q > merged.Get("quality", 1) {
					merged["quality"] = q
				}
				prev.Settings = merged
				prev.DependsOn = unionDeps(prev.DependsOn, op.DependsOn)
				absorbed[op.ID] = prev.ID
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

// colorMergeable lists the effects that fold into one color-balance pass,
// mapping each effect's parameter onto the combined setting it feeds.
var colorMergeable = map[string]string{
	"brightness": "brightness",
	"contrast":   "contrast",
	"saturation": "saturation",
	"hue":        "hue",
}

// mergeColorAdjustments folds runs of consecutive color adjustments
// (brightness, contrast, saturation, hue, color-balance) into a single
// color-balance operation with combined settings.
func mergeColorAdjustments(ops []Operation, absorbed map[string]string) []Operation {
	isColor := func(op Operation) bool {
		if op.EffectID == "color-balance" {
			return true
		}
		_, ok := colorMergeable[op.EffectID]
		return ok
	}

	contribute := func(combined Settings, op Operation) {
		switch op.EffectID {
		case "color-balance":
			for _, key := range []string{"brightness", "contrast", "saturation", "hue"} {
				combined[key] += op.Settings.Get(key, 0)
			}
		case "hue":
			combined["hue"] += op.Settings.Get("shift", 0)
		default:
			combined[colorMergeable[op.EffectID]] += op.Settings.Get("amount", 0)
		}
	}

	out := ops[:0]
	for _, op := range ops {
		if !isColor(op) {
			out = append(out, op)
			continue
		}
		if len(out) > 0 && out[len(out)-1].EffectID == "color-balance" && isColor(out[len(out)-1]) {
			prev := &out[len(out)-1]
			contribute(prev.Settings, op)
			prev.DependsOn = unionDeps(prev.DependsOn, op.DependsOn)
			absorbed[op.ID] = prev.ID
			continue
		}

		combined := Settings{"brightness": 0, "contrast": 0, "saturation": 0, "hue": 0}
		contribute(combined, op)
		out = append(out, Operation{
			ID:        op.ID,
			Kind:      KindFilter,
			EffectID:  "color-balance",
			Settings:  combined,
			Priority:  op.Priority,
			DependsOn: op.DependsOn,
		})
	}
	return out
}

// reorderConvolutionsByCost stable-sorts runs of consecutive convolution
// operations by ascending cost. Runs with internal dependencies are left
// in place; dependency resolution owns that ordering.
func reorderConvolutionsByCost(ops []Operation, _ map[string]string) []Operation {
	isConv := func(op Operation) bool { return family(op) == FamilyConvolution }

	out := make([]Operation, 0, len(ops))
	for i := 0; i < len(ops); {
		if !isConv(ops[i]) {
			out = append(out, ops[i])
			i++
			continue
		}
		j := i
		for j < len(ops) && isConv(ops[j]) {
			j++
		}
		run := make([]Operation, j-i)
		copy(run, ops[i:j])
		if !hasInternalDeps(run) {
			sort.SliceStable(run, func(a, b int) bool {
				return cost(run[a]) < cost(run[b])
			})
		}
		out = append(out, run...)
		i = j
	}
	return out
}

// hasInternalDeps reports whether any operation in the run depends on
// another operation in the same run.
func hasInternalDeps(run []Operation) bool {
	ids := make(map[string]bool, len(run))
	for _, op := range run {
		ids[op.ID] = true
	}
	for _, op := range run {
		for _, dep := range op.DependsOn {
			if ids[dep] {
				return true
			}
		}
	}
	return false
}

// resolveDependencies orders operations so every dependency precedes its
// dependents. When no remaining operation is extractable (a cycle or a
// missing dependency), the remainder is appended in current order.
func resolveDependencies(ops []Operation, absorbed map[string]string) []Operation {
	resolved := make(map[string]bool, len(ops))
	ordered := make([]Operation, 0, len(ops))
	remaining := ops

	satisfied := func(dep string) bool {
		if resolved[dep] {
			return true
		}
		if alias, ok := absorbed[dep]; ok {
			return resolved[alias]
		}
		return false
	}

	for len(remaining) > 0 {
		next := remaining[:0]
		extracted := false
		for _, op := range remaining {
			ready := true
			for _, dep := range op.DependsOn {
				if !satisfied(dep) {
					ready = false
					break
				}
			}
			if ready {
				ordered = append(ordered, op)
				resolved[op.ID] = true
				extracted = true
			} else {
				next = append(next, op)
			}
		}
		if !extracted {
			Logger().Warn("fx: unresolvable operation dependencies, preserving submission order",
				"remaining", len(next))
			ordered = append(ordered, next...)
			break
		}
		remaining = next
	}
	return ordered
}

// compatible reports whether two operations may share one buffer pass.
// Two color adjustments can; convolution operations never can.
func compatible(a, b Operation) bool {
	return family(a) == FamilyColor && family(b) == FamilyColor
}

// groupCompatible groups adjacent compatible operations pairwise to
// minimize buffer passes.
func groupCompatible(ops []Operation) []OperationGroup {
	groups := make([]OperationGroup, 0, len(ops))
	for i := 0; i < len(ops); {
		if i+1 < len(ops) && compatible(ops[i], ops[i+1]) {
			groups = append(groups, OperationGroup{ops[i], ops[i+1]})
			i += 2
			continue
		}
		groups = append(groups, OperationGroup{ops[i]})
		i++
	}
	return groups
}

// unionDeps merges two dependency lists without duplicates.
func unionDeps(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, lists := range [2][]string{a, b} {
		for _, id := range lists {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
