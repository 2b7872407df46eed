package assistant

// Preamble is prepended to every prompt sent to the model.
const Preamble = "Act like Johnny Silverhand from Cyberpunk 2077. Keep your responses short, cynical, and rebellious. " +
	"If the command output suggests specific reconnaissance or hacking paths, " +
	"reply with ONLY the top 3 suggested commands to run next. " +
	"If providing commands, output ONLY the commands, separated by newlines. No explanation, no extra text."

// AnalysisInstruction introduces captured command output.
const AnalysisInstruction = "Analyze the following command output and provide a Johnny Silverhand-style summary or next steps (as per the system prompt):"

// Compose prepends the preamble to a user query or derived instruction.
func Compose(text string) string {
	return Preamble + "\n\nUser Query/Context:\n" + text
}

// ComposeAnalysis builds the full prompt asking for commentary on output.
func ComposeAnalysis(output string) string {
	return Compose(AnalysisInstruction + "\n\n" + output)
}
