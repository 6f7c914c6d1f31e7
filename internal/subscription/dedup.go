package subscription

// Evaluate applies the anti-spam rule for one route-date key: alert when the
// observed price is within the threshold (inclusive) and either the key was
// never notified or the price strictly beats the last notified one.
//
// On a positive decision the returned history is a copy with the key updated;
// otherwise the input map is returned unchanged. The input is never mutated,
// which keeps the decision replayable in tests.
func Evaluate(key string, price, maxPrice int, history map[string]int) (notify bool, newHistory map[string]int) {
	if price > maxPrice {
		return false, history
	}
	prev, seen := history[key]
	if seen && price >= prev {
		return false, history
	}

	newHistory = make(map[string]int, len(history)+1)
	for k, v := range history {
		newHistory[k] = v
	}
	newHistory[key] = price
	return true, newHistory
}
