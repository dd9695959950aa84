package render

import "unicode/utf8"

// RTLThreshold is the share of Hebrew/Arabic characters above which text is
// laid out right to left.
const RTLThreshold = 0.3

func isRTLRune(r rune) bool {
	switch {
	case r >= 0x0590 && r <= 0x05FF,
		r >= 0x0600 && r <= 0x06FF,
		r >= 0x0750 && r <= 0x077F,
		r >= 0x08A0 && r <= 0x08FF,
		r >= 0xFB50 && r <= 0xFDFF,
		r >= 0xFE70 && r <= 0xFEFF:
		return true
	}
	return false
}

// IsRTL must be given raw content, not markup.
func IsRTL(text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}
	rtl := 0
	for _, r := range text {
		if isRTLRune(r) {
			rtl++
		}
	}
	return float64(rtl)/float64(total) > RTLThreshold
}
