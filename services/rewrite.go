package services

import (
	"path"
	"regexp"
)

const (
	ReactVersion = "19.2.0"
	ArkUIVersion = "5.27.0"

	esmHost = "https://esm.sh/"
)

// Rule rewrites one family of import specifiers in bundled output.
//
// Template is expanded with regexp submatch syntax (${1}). When Resolve is
// set it is used instead and receives the submatches of each occurrence.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Template string
	Resolve  func(groups []string) string
}

func (r Rule) Apply(src string) string {
	if r.Resolve == nil {
		return r.Pattern.ReplaceAllString(src, r.Template)
	}
	return r.Pattern.ReplaceAllStringFunc(src, func(match string) string {
		return r.Resolve(r.Pattern.FindStringSubmatch(match))
	})
}

// Rewrite applies rules in order. Each rule sees the output of the previous one.
func Rewrite(src string, rules []Rule) string {
	for _, r := range rules {
		src = r.Apply(src)
	}
	return src
}

func fromRule(name, specifier, target string) Rule {
	return Rule{
		Name:     name,
		Pattern:  regexp.MustCompile(`from\s+["']` + specifier + `["']`),
		Template: `from "` + target + `"`,
	}
}

// DefaultRules maps the specifiers a browser can't resolve on its own.
//
// Order matters: specific package rules run before the generic src/ and
// styled-system/ rules, and relative paths are resolved last against baseDir.
// The rewrite is textual, so a string literal in the bundle that happens to
// look like an import clause is rewritten too.
func DefaultRules(baseDir string) []Rule {
	react := esmHost + "react@" + ReactVersion
	reactDOM := esmHost + "react-dom@" + ReactVersion
	ark := esmHost + "@ark-ui/react@" + ArkUIVersion

	return []Rule{
		fromRule("react-dom/client", `react-dom/client`, reactDOM+"/client"),
		fromRule("react-dom/server", `react-dom/server`, reactDOM+"/server"),
		fromRule("react/jsx-runtime", `react/jsx-runtime`, react+"/jsx-runtime"),
		fromRule("react", `react`, react),

		fromRule("npm:react/jsx-runtime", `npm:react/jsx-runtime@[^"']+`, react+"/jsx-runtime"),
		fromRule("npm:react", `npm:react@[^"'/]+`, react),
		fromRule("npm:react-dom/client", `npm:react-dom@[^"'/]+/client`, reactDOM+"/client"),
		fromRule("npm:react-dom/server", `npm:react-dom@[^"'/]+/server`, reactDOM+"/server"),
		{
			Name:     "npm:@ark-ui/react/subpath",
			Pattern:  regexp.MustCompile(`from\s+["']npm:@ark-ui/react@[^"'/]+/([^"']+)["']`),
			Template: `from "` + ark + `/${1}"`,
		},
		fromRule("npm:@ark-ui/react", `npm:@ark-ui/react@[^"'/]+`, ark),

		{
			Name:     "export-all-as",
			Pattern:  regexp.MustCompile(`export\s+\*\s+as\s+(\w+)\s+from\s+["']((?:src|styled-system)/[^"']+)["']`),
			Template: `export * as ${1} from "/${2}"`,
		},
		{
			Name:     "export-all",
			Pattern:  regexp.MustCompile(`export\s+\*\s+from\s+["']((?:src|styled-system)/[^"']+)["']`),
			Template: `export * from "/${1}"`,
		},
		{
			Name:     "project-root",
			Pattern:  regexp.MustCompile(`from\s+["']((?:src|styled-system)/[^"']+)["']`),
			Template: `from "/${1}"`,
		},

		{
			Name:    "relative",
			Pattern: regexp.MustCompile(`from\s+["'](\.\.?/[^"']+\.tsx?)["']`),
			Resolve: func(groups []string) string {
				return `from "` + path.Join("/", baseDir, groups[1]) + `"`
			},
		},
	}
}
