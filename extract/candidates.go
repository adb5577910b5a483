package extract

import "regexp"

var (
	hexTokenPattern    = regexp.MustCompile(`\b[a-f0-9]{24}\b`)
	shelfLinkPattern   = regexp.MustCompile(`/shelves/([a-f0-9]{24})`)
	shelfDataIDPattern = regexp.MustCompile(`data-shelf-id=["']([a-f0-9]{24})["']`)
)

// ShelfCandidates scans the entire page for possible shelf ids: every
// standalone 24-hex token, every /shelves/<id> link, and every
// data-shelf-id attribute, deduplicated in discovery order. The result
// is a candidate set only; unrelated hex tokens (tracking ids and the
// like) slip through, so each entry must be validated against the
// catalog API before use.
func ShelfCandidates(html string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, token := range hexTokenPattern.FindAllString(html, -1) {
		add(token)
	}
	for _, match := range shelfLinkPattern.FindAllStringSubmatch(html, -1) {
		add(match[1])
	}
	for _, match := range shelfDataIDPattern.FindAllStringSubmatch(html, -1) {
		add(match[1])
	}

	return out
}
