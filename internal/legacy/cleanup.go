package legacy

import "go.uber.org/zap"

// Cleanup deletes exactly the given keys from the flat store and returns
// the number of keys actually removed.
//
// Each deletion is attempted independently: a failure on one key is
// logged and does not abort the rest of the batch. Deleting a key that
// is already absent is not an error and does not count as removed, so
// running Cleanup twice with the same list reports zero on the second
// pass.
func (e *Engine) Cleanup(keys []string) int {
	removed := 0
	for _, key := range keys {
		ok, err := e.kv.Delete(key)
		if err != nil {
			e.log.Warn("cleanup failed for key, continuing",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if ok {
			removed++
		}
	}
	return removed
}

// RemoveCandidates filters an analysis result down to the keys flagged
// for removal, in report order.
func RemoveCandidates(keys []Key) []string {
	out := []string{}
	for _, k := range keys {
		if k.ShouldRemove {
			out = append(out, k.Key)
		}
	}
	return out
}
