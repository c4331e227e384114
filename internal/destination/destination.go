// Package destination maps canonical titles to extraction directories using a
// category's default path and its ordered override rules.
package destination

import (
	"fmt"
	"path/filepath"
	"regexp"

	"torex/internal/config"
	"torex/internal/services"
)

// Rule is a compiled override rule.
type Rule struct {
	Pattern string
	Path    string
	re      *regexp.Regexp
}

// Category is a compiled category configuration. It is safe for concurrent use.
type Category struct {
	Path  string
	Rules []Rule
}

// Compile anchors each rule pattern at the start of the title and resolves
// relative paths under root.
func Compile(root string, cat config.Category) (Category, error) {
	if cat.Path == "" {
		return Category{}, services.Wrap(services.ErrConfiguration, "destination", "compile", "category path is required", nil)
	}
	compiled := Category{
		Path:  under(root, cat.Path),
		Rules: make([]Rule, 0, len(cat.Specific)),
	}
	for idx, rule := range cat.Specific {
		re, err := regexp.Compile(`^(?:` + rule.Title + `)`)
		if err != nil {
			return Category{}, services.Wrap(
				services.ErrConfiguration,
				"destination",
				"compile",
				fmt.Sprintf("rule %d title %q", idx, rule.Title),
				err,
			)
		}
		compiled.Rules = append(compiled.Rules, Rule{
			Pattern: rule.Title,
			Path:    under(root, rule.Path),
			re:      re,
		})
	}
	return compiled, nil
}

// Match returns the first rule whose pattern matches the start of title.
func (c Category) Match(title string) (Rule, bool) {
	for _, rule := range c.Rules {
		if rule.re != nil && rule.re.MatchString(title) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Resolve returns the directory title should be extracted into.
func (c Category) Resolve(title string) string {
	base := c.Path
	if rule, ok := c.Match(title); ok {
		base = rule.Path
	}
	return filepath.Join(base, title)
}

func under(root, path string) string {
	if filepath.IsAbs(path) || root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
