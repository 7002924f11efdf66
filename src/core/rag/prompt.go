package rag

import (
	"bytes"
	"fmt"
	"text/template"
)

const ragSystemPrompt = `You are a helpful assistant. Answer using the provided context passages when they are relevant. If the context does not contain the answer, say so instead of guessing.`

const simpleSystemPrompt = `You are a helpful assistant. Answer the user's question directly.`

const promptTmplText = `{{if .Context}}Context passages, most relevant first:
{{range .Context}}---
{{.}}
{{end}}
{{end}}{{if .History}}Conversation so far:
{{range .History}}{{.Role}}: {{.Content}}
{{end}}
{{end}}user: {{.Query}}
assistant:`

var promptTmpl = template.Must(template.New("chat").Parse(promptTmplText))

type promptData struct {
	Context []string
	History []Turn
	Query   string
}

// AssemblePrompt renders retrieved chunk texts (in similarity order) and the
// most recent history into a single prompt no longer than budget characters.
// When over budget it drops the oldest history turn first, then the
// lowest-similarity chunk, until the prompt fits. It returns the rendered
// prompt and the entries that remained in it.
func AssemblePrompt(query string, history []Turn, entries []IndexEntry, budget, historyLimit int) (string, []IndexEntry, error) {
	if historyLimit >= 0 && len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	// Entries arrive similarity-descending from the index; the lowest
	// similarity chunk is the last one.
	used := make([]IndexEntry, len(entries))
	copy(used, entries)

	for {
		prompt, err := renderPrompt(query, history, used)
		if err != nil {
			return "", nil, err
		}
		if budget <= 0 || len([]rune(prompt)) <= budget {
			return prompt, used, nil
		}

		switch {
		case len(history) > 0:
			history = history[1:]
		case len(used) > 0:
			used = used[:len(used)-1]
		default:
			return "", nil, fmt.Errorf("query alone exceeds prompt budget of %d", budget)
		}
	}
}

func renderPrompt(query string, history []Turn, entries []IndexEntry) (string, error) {
	contextTexts := make([]string, 0, len(entries))
	for _, entry := range entries {
		contextTexts = append(contextTexts, entry.Text)
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{
		Context: contextTexts,
		History: history,
		Query:   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
