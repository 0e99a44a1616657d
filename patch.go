package jevent

import "sort"

// DiffPatch computes a deterministic JSON merge patch (RFC 7396-style) that,
// applied to base, yields modified. Key ordering in the returned map follows
// Go's map marshaling (alphabetical), which is what keeps override minimality
// reproducible.
//
// This is the mechanism behind diffing a recurrence override against its
// base master to produce a minimal patch on read, and ApplyPatch below is
// the inverse: applying that patch back onto the master on write.
func DiffPatch(base, modified map[string]interface{}) map[string]interface{} {
	patch := map[string]interface{}{}

	for k, mv := range modified {
		bv, existed := base[k]
		if !existed {
			patch[k] = mv
			continue
		}
		if equalJSON(bv, mv) {
			continue
		}
		bNested, bIsObj := bv.(map[string]interface{})
		mNested, mIsObj := mv.(map[string]interface{})
		if bIsObj && mIsObj {
			nested := DiffPatch(bNested, mNested)
			if len(nested) > 0 {
				patch[k] = nested
			}
			continue
		}
		patch[k] = mv
	}

	for k := range base {
		if _, stillPresent := modified[k]; !stillPresent {
			patch[k] = nil
		}
	}

	return patch
}

// ApplyPatch applies a JSON merge patch to base and returns a new map; base
// is not mutated.
func ApplyPatch(base map[string]interface{}, patch map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range base {
		out[k] = v
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pv := patch[k]
		if pv == nil {
			delete(out, k)
			continue
		}
		pNested, pIsObj := pv.(map[string]interface{})
		bNested, bIsObj := out[k].(map[string]interface{})
		if pIsObj && bIsObj {
			out[k] = ApplyPatch(bNested, pNested)
			continue
		}
		out[k] = pv
	}
	return out
}

func equalJSON(a, b interface{}) bool {
	am, aIsMap := a.(map[string]interface{})
	bm, bIsMap := b.(map[string]interface{})
	if aIsMap != bIsMap {
		return false
	}
	if aIsMap {
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equalJSON(av, bv) {
				return false
			}
		}
		return true
	}

	as, aIsSlice := a.([]interface{})
	bs, bIsSlice := b.([]interface{})
	if aIsSlice != bIsSlice {
		return false
	}
	if aIsSlice {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalJSON(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	return a == b
}
