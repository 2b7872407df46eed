/*
Package recon classifies command output against an ordered rule set and
suggests follow-up reconnaissance commands.

A RuleSet is compiled once at startup and never mutated, so Detect is a pure
function of its input and can be shared by the interactive loop, the HTTP API
and the MCP server without synchronisation.

# Usage

	rules := recon.Default()
	for _, template := range rules.Detect(output) {
		fmt.Println(template)
	}
*/
package recon
