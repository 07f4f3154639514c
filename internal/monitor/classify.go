package monitor

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultScanWindow is the number of trailing non-empty lines examined for
// prompts and progress markers. Prompts render at the interactive edge of a
// pane, so restricting the scan keeps stale dialog text in scrollback from
// matching. 8 lines fits a multi-line permission dialog plus a status bar
// while excluding output from prior turns.
const DefaultScanWindow = 8

// promptMatcher recognizes one shape of permission prompt in the trailing
// window. On match it returns the prompt text and the keystrokes that answer
// it with the default/recommended choice.
type promptMatcher struct {
	name  string
	match func(window []string) (prompt, response string, ok bool)
}

// progressMatcher recognizes one shape of active-work marker and returns a
// human-readable progress string. Purely informational.
type progressMatcher struct {
	name  string
	match func(window []string) (progress string, ok bool)
}

// promptMatchers are tried in order, before any progress matcher. Most
// specific first: named dialogs, then generic numbered choice lists, then
// bare y/n interrogatives.
var promptMatchers = []promptMatcher{
	{name: "permission_dialog", match: matchPermissionDialog},
	{name: "edit_approval", match: matchEditApproval},
	{name: "numbered_choice", match: matchNumberedChoice},
	{name: "allow_deny", match: matchAllowDeny},
	{name: "yes_no", match: matchYesNo},
}

// progressMatchers are tried in order after no prompt matched.
var progressMatchers = []progressMatcher{
	{name: "spinner", match: matchSpinner},
	{name: "verb_ellipsis", match: matchVerbEllipsis},
	{name: "token_counter", match: matchTokenCounter},
}

// Classify maps a captured frame (and the previous frame) to exactly one
// activity state. Deterministic, total, side-effect free.
//
// Prompt detection takes priority over progress detection, and both are
// restricted to the last scanWindow non-empty lines of the frame. If neither
// matches, identical frames classify as Idle and differing frames as Unknown.
func Classify(prev, cur string, scanWindow int) State {
	if scanWindow <= 0 {
		scanWindow = DefaultScanWindow
	}
	window := bottomNonEmpty(strings.Split(cur, "\n"), scanWindow)

	for _, m := range promptMatchers {
		if prompt, response, ok := m.match(window); ok {
			return State{
				Kind:     StateAwaitingPermission,
				Prompt:   prompt,
				Response: response,
			}
		}
	}

	for _, m := range progressMatchers {
		if progress, ok := m.match(window); ok {
			return State{Kind: StateProcessing, Progress: progress}
		}
	}

	if cur == prev {
		return State{Kind: StateIdle}
	}
	return State{Kind: StateUnknown}
}

// bottomNonEmpty returns the last n non-empty (after trimming) lines,
// skipping the trailing blank lines terminals usually have.
func bottomNonEmpty(lines []string, n int) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return lines[start:end]
}

// matchPermissionDialog detects "needs your permission to use {tool}" style
// dialogs. The default choice is option 1 (approve).
func matchPermissionDialog(window []string) (string, string, bool) {
	for _, line := range window {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "needs your permission to use") {
			return trimmed, "1", true
		}
	}
	return "", "", false
}

// matchEditApproval detects "Do you want to make this edit to {file}?".
func matchEditApproval(window []string) (string, string, bool) {
	for _, line := range window {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "Do you want to make this edit to") {
			return trimmed, "1", true
		}
	}
	return "", "", false
}

// matchNumberedChoice detects a "do you want …?" question followed by a
// numbered option list, optionally with a selector cursor ("❯ 1. Yes") that
// marks the highlighted default. The response is the highlighted option
// number, or "1" when no cursor is visible.
func matchNumberedChoice(window []string) (string, string, bool) {
	question := ""
	hasOptions := false
	response := ""
	for _, line := range window {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "do you want") && strings.HasSuffix(trimmed, "?") {
			question = trimmed
		}
		if isNumberedOption(trimmed) {
			hasOptions = true
		}
		if n, ok := dialogSelectorNumber(trimmed); ok {
			hasOptions = true
			response = n
		}
	}
	if question == "" || !hasOptions {
		return "", "", false
	}
	if response == "" {
		response = "1"
	}
	return question, response, true
}

// matchAllowDeny detects Allow/Deny and "Always allow" style prompts.
func matchAllowDeny(window []string) (string, string, bool) {
	joined := strings.Join(window, "\n")
	hasAllow := strings.Contains(joined, "Allow") || strings.Contains(joined, "allow for") ||
		strings.Contains(joined, "Always allow")
	hasDeny := strings.Contains(joined, "Deny") || strings.Contains(joined, "deny")
	if !hasAllow || !hasDeny {
		return "", "", false
	}
	// Prefer the line naming what would be allowed as the prompt text.
	for _, line := range window {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "Allow") || strings.Contains(trimmed, "Always allow") {
			return trimmed, "1", true
		}
	}
	return "allow/deny prompt", "1", true
}

var yesNoRe = regexp.MustCompile(`(?i)[\[(]y(es)?[/|]no?[\])]`)

// matchYesNo detects bare interrogatives with an inline [y/n] hint.
func matchYesNo(window []string) (string, string, bool) {
	for i := len(window) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(window[i])
		if yesNoRe.MatchString(trimmed) {
			return trimmed, "y", true
		}
	}
	return "", "", false
}

// matchSpinner detects braille spinner glyphs and the "✻ Verb…" working
// indicator. A "✻ Worked for …" line is past tense and does not count.
func matchSpinner(window []string) (string, bool) {
	for i := len(window) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(window[i])
		for _, r := range trimmed {
			if r >= '⠋' && r <= '⠿' {
				return trimmed, true
			}
		}
		if strings.HasPrefix(trimmed, "✻") && !strings.HasPrefix(trimmed, "✻ Worked") {
			if strings.Contains(trimmed, "…") || strings.Contains(trimmed, "...") {
				return trimmed, true
			}
		}
	}
	return "", false
}

// matchVerbEllipsis detects single-word progress lines like "Fetching…" or
// "Running tests...". The leading token must look like a capitalized verb so
// prose that merely trails off does not match.
func matchVerbEllipsis(window []string) (string, bool) {
	for i := len(window) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(window[i])
		if !strings.HasSuffix(trimmed, "…") && !strings.HasSuffix(trimmed, "...") {
			continue
		}
		first, _, _ := strings.Cut(trimmed, " ")
		first = strings.TrimRight(first, ".…")
		if len(first) < 3 || !unicode.IsUpper(rune(first[0])) {
			continue
		}
		for _, r := range first[1:] {
			if !unicode.IsLower(r) {
				first = ""
				break
			}
		}
		if first != "" && strings.HasSuffix(first, "ing") {
			return trimmed, true
		}
	}
	return "", false
}

var tokenCounterRe = regexp.MustCompile(`\d[\d.,]*k?\s+tokens`)

// matchTokenCounter detects streaming token/byte counters, e.g.
// "(2m 22s · ↓ 2.8k tokens)".
func matchTokenCounter(window []string) (string, bool) {
	for i := len(window) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(window[i])
		if tokenCounterRe.MatchString(trimmed) {
			return trimmed, true
		}
	}
	return "", false
}

// isNumberedOption reports whether a line looks like a dialog option:
// "1. Yes", "2. Yes, and don't ask again", "3. No".
func isNumberedOption(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	if !unicode.IsDigit(rune(trimmed[0])) || trimmed[1] != '.' {
		return false
	}
	rest := strings.TrimSpace(trimmed[2:])
	return rest != ""
}

// dialogSelectorNumber extracts the option number from a selector cursor
// line ("❯ 2. No" returns "2"). The cursor prefix distinguishes dialog
// selectors from idle prompt lines like "❯ " or "❯ user typed text".
func dialogSelectorNumber(trimmed string) (string, bool) {
	const prefix = "❯ "
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	rest := trimmed[len(prefix):]
	if len(rest) >= 2 && unicode.IsDigit(rune(rest[0])) && rest[1] == '.' {
		return rest[:1], true
	}
	return "", false
}
