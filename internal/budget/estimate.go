package budget

// EstimateTokens estimates token count using character-based heuristics.
// CJK Unified Ideographs (U+4E00–U+9FFF): ~2 chars/token.
// ASCII and other characters: ~4 chars/token.
//
// Precision: ±20–30% for mixed content. Sufficient for threshold-based
// tracking when the caller has raw text but no provider usage metadata;
// prefer RecordUsage when real counts are available.
func EstimateTokens(text string) int64 {
	var cjk, other int64
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		} else {
			other++
		}
	}
	return cjk/2 + other/4 + 1 // +1 avoids zero for short strings
}
