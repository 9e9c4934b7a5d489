package ollama

import (
	"fmt"
	"strings"
)

func buildAnswerPrompt(question string, passages []string) string {
	var contextBuilder strings.Builder
	for idx, passage := range passages {
		contextBuilder.WriteString(fmt.Sprintf("[%d]\n%s\n\n", idx+1, passage))
	}

	return fmt.Sprintf(`Answer user question only from context below.
If context is insufficient, say it directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}
