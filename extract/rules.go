package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RulesVersion tracks the extraction rule tables below. The upstream
// site ships no documented API, so the rules are heuristics over its
// HTML; when the markup drifts, bump the version and edit the tables
// rather than the surrounding logic.
const RulesVersion = 1

// Rule is one named, pure extraction strategy. Rules in a table are
// tried in declared order and the first hit wins; they are never
// combined.
type Rule struct {
	Name  string
	Apply func(html string) (string, bool)
}

var (
	hexShape   = regexp.MustCompile(`^[a-f0-9]{24}$`)
	broadShape = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

var userRules = []Rule{
	regexRule("user-path", `/users/([a-f0-9]{24})`),
	attrRule("user-data-attr", "data-user-id", hexShape),
	regexRule("user-json", `"user"\s*:\s*\{\s*"_id"\s*:\s*"([a-f0-9]{24})"`),
	regexRule("user-id-json", `"userId"\s*:\s*"([a-f0-9]{24})"`),
	// Non-greedy so an owner object with intervening fields still
	// yields its _id.
	regexRule("owner-json", `(?s)"owner"\s*:\s*\{[^}]*?"_id"\s*:\s*"([a-f0-9]{24})"`),
}

var shelfRules = []Rule{
	regexRule("shelf-path", `/shelves/([a-f0-9]{24})`),
	attrRule("shelf-data-attr", "data-shelf-id", hexShape),
}

// Form rules run only after shelf extraction failed, treating the page
// as a possible single-book page. The broader shapes cover form ids
// that are not pure hex.
var formRules = []Rule{
	regexRule("form-path", `/forms/([a-f0-9]{24})`),
	attrRule("form-data-attr", "data-form-id", hexShape),
	attrRule("form-data-attr-broad", "data-form-id", broadShape),
	regexRule("form-path-broad", `/forms/([A-Za-z0-9_-]{24,})`),
	regexRule("form-json", `form_id["']?:\s*["']?([a-f0-9]{24})`),
}

// UserID extracts a user id from a profile-shaped page.
func UserID(html string) (string, bool) {
	return first(userRules, html)
}

// ShelfID extracts a shelf id from a shelf-shaped page.
func ShelfID(html string) (string, bool) {
	return first(shelfRules, html)
}

// FormID extracts a single-book form id from a page.
func FormID(html string) (string, bool) {
	return first(formRules, html)
}

func first(rules []Rule, html string) (string, bool) {
	for _, rule := range rules {
		if id, ok := rule.Apply(html); ok {
			return id, true
		}
	}
	return "", false
}

func regexRule(name, pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		Name: name,
		Apply: func(html string) (string, bool) {
			match := re.FindStringSubmatch(html)
			if match == nil {
				return "", false
			}
			return match[1], true
		},
	}
}

func attrRule(name, attr string, shape *regexp.Regexp) Rule {
	selector := "[" + attr + "]"
	return Rule{
		Name: name,
		Apply: func(html string) (string, bool) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
			if err != nil {
				return "", false
			}
			var id string
			doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
				value, _ := sel.Attr(attr)
				if shape.MatchString(value) {
					id = value
					return false
				}
				return true
			})
			return id, id != ""
		},
	}
}
