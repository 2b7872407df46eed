package recon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/silvershell/pkg/domain"
)

// RuleSpec is the uncompiled form of a Rule, as declared in code or a rule file.
type RuleSpec struct {
	Name      string   `yaml:"name" json:"name"`
	Pattern   string   `yaml:"pattern" json:"pattern"`
	Templates []string `yaml:"templates" json:"templates"`
}

// Rule pairs a compiled, case-insensitive pattern with its ordered templates.
type Rule struct {
	Name      string
	Pattern   *regexp.Regexp
	Templates []string
}

// Spec returns the uncompiled form of r.
func (r Rule) Spec() RuleSpec {
	return RuleSpec{
		Name:      r.Name,
		Pattern:   strings.TrimPrefix(r.Pattern.String(), "(?i)"),
		Templates: append([]string(nil), r.Templates...),
	}
}

// RuleSet is an ordered, immutable list of rules.
type RuleSet struct {
	rules []Rule
}

// DefaultRules are evaluated in declaration order; earlier categories win ties
// for the limited suggestion slots.
var DefaultRules = []RuleSpec{
	{
		Name:    "http",
		Pattern: `Apache|nginx|IIS|HTTP`,
		Templates: []string{
			"whatweb TARGET",
			"nikto -h TARGET",
			"nmap -sV -Pn --script http* TARGET",
			"gobuster dir -u TARGET -w /usr/share/wordlists/dirb/common.txt",
		},
	},
	{
		Name:    "smb",
		Pattern: `Microsoft|Domain|SMB|445`,
		Templates: []string{
			"enum4linux -a TARGET",
			"smbclient -L //TARGET/",
			"nbtscan TARGET",
			"nmap --script smb* -p445 TARGET",
		},
	},
	{
		Name:    "dns",
		Pattern: `DNS|ns`,
		Templates: []string{
			"dig TARGET ANY",
			"dnsrecon -d TARGET",
			"subfinder -d TARGET",
		},
	},
	{
		Name:    "tls",
		Pattern: `SSL|HTTPS|443`,
		Templates: []string{
			"sslscan TARGET",
			"testssl TARGET",
			"nmap --script ssl* -p443 TARGET",
		},
	},
	{
		Name:    "linux",
		Pattern: `Linux|Ubuntu|Debian`,
		Templates: []string{
			"nmap -sV -p- TARGET",
			"rustscan TARGET",
			"nmap --script vuln TARGET",
		},
	},
}

var defaultSet = MustCompile(DefaultRules)

// Default returns the built-in rule set.
func Default() *RuleSet {
	return defaultSet
}

// Compile builds a RuleSet from specs, preserving their order.
// Patterns are matched case-insensitively.
func Compile(specs []RuleSpec) (*RuleSet, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		if spec.Pattern == "" {
			return nil, fmt.Errorf("rule %d (%s): empty pattern", i, spec.Name)
		}
		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.Name, err)
		}
		rules = append(rules, Rule{
			Name:      spec.Name,
			Pattern:   re,
			Templates: append([]string(nil), spec.Templates...),
		})
	}
	return &RuleSet{rules: rules}, nil
}

// MustCompile is like Compile but panics on error. Intended for package-level tables.
func MustCompile(specs []RuleSpec) *RuleSet {
	rs, err := Compile(specs)
	if err != nil {
		panic(err)
	}
	return rs
}

// Rules returns a copy of the compiled rules in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Detect scans output against every rule in order and returns at most
// domain.MaxSuggestions distinct templates, first seen wins.
func (rs *RuleSet) Detect(output string) domain.SuggestionList {
	var hits domain.SuggestionList
	seen := make(map[string]struct{})

	for _, rule := range rs.rules {
		if !rule.Pattern.MatchString(output) {
			continue
		}
		for _, template := range rule.Templates {
			if _, dup := seen[template]; dup {
				continue
			}
			seen[template] = struct{}{}
			hits = append(hits, template)
		}
	}

	if len(hits) > domain.MaxSuggestions {
		hits = hits[:domain.MaxSuggestions]
	}
	return hits
}

// Matches returns the names of the rules whose pattern matches output.
func (rs *RuleSet) Matches(output string) []string {
	var names []string
	for _, rule := range rs.rules {
		if rule.Pattern.MatchString(output) {
			names = append(names, rule.Name)
		}
	}
	return names
}
