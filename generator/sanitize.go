package generator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// cleanRule is one step of the post cleanup pipeline.
type cleanRule struct {
	name  string
	apply func(string) string
}

// cleanRules run in order; later rules assume the earlier cleanup happened.
var cleanRules = []cleanRule{
	{"unwrap-text-field", unwrapTextField},
	{"bullet-only-lines", dropBulletOnlyLines},
	{"markdown-bold", stripMarkdownBold},
	{"leading-bullets", stripLeadingBullets},
	{"placeholders", stripPlaceholders},
	{"leading-label", stripLeadingLabel},
	{"platform-prefix", stripPlatformPrefix},
	{"hashtags", stripHashtags},
	{"nft-royalties", fixRoyalties},
	{"space-before-question", collapseSpaceBeforeQuestion},
	{"repeated-emoji", collapseRepeatedEmoji},
	{"capitalize", capitalizeFirstLetter},
	{"trim", strings.TrimSpace},
}

var (
	textFieldSingle = regexp.MustCompile(`(?i)'text'\s*:\s*'([^']+)'`)
	textFieldDouble = regexp.MustCompile(`(?i)"text"\s*:\s*"([^"]+)"`)

	bulletOnlyLine = regexp.MustCompile(`(?m)^[*\-•]+[ \t\r]*$\n?`)
	leadingBullet  = regexp.MustCompile(`(?m)^(?:[*\-•]+[ \t]*)+`)
	markdownBold   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)

	blankLineMarker   = regexp.MustCompile(`(?i)<BLANKLINE>`)
	backtickRun       = regexp.MustCompile("`+")
	quickUpdateHeader = regexp.MustCompile(`(?im)^\[ ?quick update:? ?\]\s*`)
	updateHeader      = regexp.MustCompile(`(?im)^\[ ?update:? ?\]\s*`)
	brainHeader       = regexp.MustCompile(`(?im)^\[ ?brain[^\]\n]*\]\s*`)
	bracketHeader     = regexp.MustCompile(`(?m)^\[ ?[^\]\n]+\]\s*`)

	leadingLabel   = regexp.MustCompile(`(?i)^(?:text|post|update)\s*[\n:]+`)
	platformPrefix = regexp.MustCompile(`(?i)^(?:twitter|x)\b[ \t]*:?[ \t]*`)
	inlineHashtag  = regexp.MustCompile(`\s#[^\s#]+`)

	nftRoyals = regexp.MustCompile(`(?i)\bNFT royals\b`)
	nftRoyal  = regexp.MustCompile(`(?i)\bNFT royal\b`)
)

// Sanitize turns raw model output into clean post text. It never fails; text
// without any known noise only gets trimmed.
func Sanitize(raw string) string {
	t := strings.TrimSpace(raw)
	for _, r := range cleanRules {
		t = r.apply(t)
	}
	return t
}

// 模型有时会吐出 {'text': '...'} 之类的对象片段，只保留 text 的值。
func unwrapTextField(s string) string {
	if m := textFieldSingle.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := textFieldDouble.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func dropBulletOnlyLines(s string) string {
	return bulletOnlyLine.ReplaceAllString(s, "")
}

// stripMarkdownBold unwraps **word** pairs; an unpaired ** is left to the bullet rule.
func stripMarkdownBold(s string) string {
	return markdownBold.ReplaceAllString(s, "$1")
}

func stripLeadingBullets(s string) string {
	return leadingBullet.ReplaceAllString(s, "")
}

func stripPlaceholders(s string) string {
	s = blankLineMarker.ReplaceAllString(s, "")
	s = backtickRun.ReplaceAllString(s, "")
	s = replaceFirst(quickUpdateHeader, s, "Quick update: ")
	s = replaceFirst(updateHeader, s, "Update: ")
	s = replaceFirst(brainHeader, s, "")
	s = replaceFirst(bracketHeader, s, "")
	return s
}

func stripLeadingLabel(s string) string {
	return leadingLabel.ReplaceAllString(s, "")
}

func stripPlatformPrefix(s string) string {
	return platformPrefix.ReplaceAllString(s, "")
}

func stripHashtags(s string) string {
	return inlineHashtag.ReplaceAllString(s, "")
}

func fixRoyalties(s string) string {
	s = nftRoyals.ReplaceAllString(s, "NFT royalties")
	return nftRoyal.ReplaceAllString(s, "NFT royalty")
}

func collapseSpaceBeforeQuestion(s string) string {
	return strings.ReplaceAll(s, " ?", "?")
}

// collapseRepeatedEmoji keeps one copy of each run of identical emoji. It walks
// grapheme clusters so skin tones and ZWJ sequences count as one symbol.
func collapseRepeatedEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := ""
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		if cluster == prev && isEmojiCluster(cluster) {
			continue
		}
		b.WriteString(cluster)
		prev = cluster
	}
	return b.String()
}

func isEmojiCluster(cluster string) bool {
	r, _ := utf8.DecodeRuneInString(cluster)
	return isEmojiRune(r)
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // pictographs, emoticons, flags, modifiers
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2300 && r <= 0x23FF, r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0x00A9, r == 0x00AE, r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139:
		return true
	case r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	}
	return false
}

func capitalizeFirstLetter(s string) string {
	for i, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		up := unicode.ToUpper(r)
		if up == r {
			return s
		}
		return s[:i] + string(up) + s[i+utf8.RuneLen(r):]
	}
	return s
}

// replaceFirst replaces only the first match of re with the literal repl.
func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
