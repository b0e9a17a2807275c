package ai

import "fmt"

func summarizePrompt(content string) string {
	return fmt.Sprintf(
		"Summarize the following note in a few short sentences. Keep the summary factual and plain.\n\n%s",
		content)
}

func explainPrompt(concept string) string {
	return fmt.Sprintf(
		"Explain the following concept in simple terms, as if to someone new to the topic:\n\n%s",
		concept)
}

func quizPrompt(content string) string {
	return fmt.Sprintf(
		"Create quiz questions from the following note. Respond with a JSON array where each element has "+
			"\"question\", \"type\" (\"multiple-choice\" or \"open\"), optional \"options\" and \"answer\" fields. "+
			"Respond with the JSON array only.\n\n%s",
		content)
}

func tagsPrompt(title, content string) string {
	return fmt.Sprintf(
		"Suggest short topic tags for this note. Respond with a comma-separated list of tags, nothing else.\n\nTitle: %s\n\n%s",
		title, content)
}

func chatPrompt(message, noteContext string) string {
	if noteContext == "" {
		return message
	}
	return fmt.Sprintf(
		"Use the following note as context when answering.\n\nNote:\n%s\n\nQuestion: %s",
		noteContext, message)
}
