package riddle

import "fmt"

func generationPrompt(level int) string {
	return fmt.Sprintf(`Generate a riddle for level %d. The riddle should have a question, a one-word answer, and three hints ordered from weakest to strongest. Respond only with a JSON object:
{
  "question": "The riddle question",
  "answer": "One-word answer",
  "hints": ["Hint 1", "Hint 2", "Hint 3"]
}`, level)
}

func judgePrompt(question, correctAnswer, userAnswer string) string {
	return fmt.Sprintf(`Is %q the correct answer to the riddle: %q? The correct answer is %q. Respond with "true" if the answer is correct, otherwise respond with "false" and provide a brief reasoning.`,
		userAnswer, question, correctAnswer)
}

func openJudgePrompt(question, userAnswer string) string {
	return fmt.Sprintf(`Is %q the correct answer to the riddle: %q? Respond with "true" if the answer is correct, otherwise respond with "false" and provide a brief reasoning.`,
		userAnswer, question)
}
