package service

import (
	"fmt"
	"strings"
)

// collectionSchema describes the academic collections for the LLM. The
// classify and query prompts both embed it so classification and query
// generation agree on what counts as a personal record.
const collectionSchema = "`users`: `_id`, `email`, `name`, `cg`, `role`, `hasAccess`\n" +
	"`courses`: `_id`, `code`, `title`, `description`, `professor`, `students`, `department`, `credits`, `progress`\n" +
	"`marks`: `_id`, `studentId`, `courseId`, `title`, `score`, `maxScore`, `type`, `feedback`, `createdAt`\n" +
	"`attendances`: `_id`, `studentId`, `courseId`, `date`, `status`\n" +
	"`professorremarks`: `_id`, `studentId`, `courseId`, `text`\n" +
	"`assignments`: `_id`, `title`, `description`, `courseId`, `dueDate`, `status`\n" +
	"`assignmentsubmissions`: `assignmentId`, `courseId`, `uploader`, `grade`, `feedback`, `status`"

// classifyPrompt asks the LLM whether a question targets the student's own
// academic records. The model answers with the literal word "true" or
// nothing at all.
func classifyPrompt(question string) string {
	return fmt.Sprintf(`Decide whether the following question is personal (i.e., it is asking about the student's own academic records like their marks, courses, attendance, CGPA, remarks, assignments and assignment submissions).
Every user has a role (professor, student or admin), and asking about the role is also a personal query.

%s

Return only **true** if it is personal. Return nothing otherwise.

Question: %s
Response:
`, collectionSchema, question)
}

// queryPrompt asks the LLM to translate a natural language question into a
// MongoDB aggregation pipeline filtered by the student's email.
func queryPrompt(question, email string) string {
	return fmt.Sprintf(`You are an expert MongoDB query assistant.

Your job is to take a natural language question from a student and generate an accurate MongoDB aggregation pipeline query using these collections:
- `+"`users`"+`
- `+"`courses`"+`
- `+"`marks`"+`
- `+"`attendances`"+`
- `+"`professorremarks`"+`
- `+"`assignments`"+`
- `+"`assignmentsubmissions`"+`

SCHEMA:
%s

RULES:
- Return a VALID JSON-formatted aggregation pipeline (a JSON array of stage objects).
- **Keys and field names must be wrapped in double quotes**.
- Do NOT include markdown, triple backticks, or explanation text.
- Filter using the given student email.
- Always follow this format

Example format:
[
  {
    "$match": {
      "email": "example@student.com"
    }
  },
  {
    "$project": {
      "role": 1
    }
  }
]

Question: %s
Email: %s
MongoDB Aggregation Query:
`, collectionSchema, question, email)
}

// answerPrompt asks the LLM to turn raw aggregation results into prose.
func answerPrompt(question, result string) string {
	return fmt.Sprintf(`You are a helpful assistant. Convert the following MongoDB result into a clear human-readable answer.

Question: %s
Raw Result: %s

Answer:
`, question, result)
}

// fallbackPrompt asks the LLM to answer a general question directly.
func fallbackPrompt(question string) string {
	return fmt.Sprintf(`You are a helpful assistant. Please answer the following question briefly and clearly.

Question: %s

Answer:
`, question)
}

// dontKnowMarkers are phrases that mean the model admitted it has no
// answer. Matching is case sensitive on purpose; the phrasings below are
// the ones models actually emit.
var dontKnowMarkers = []string{
	"I do not have information",
	"don't know",
	"I don't",
	"I can't",
	"I cannot",
	"I'm not sure",
	"I am sorry",
	"I'm sorry",
}

// isUnhelpful reports whether an answer is empty or an admission of
// ignorance, meaning the external search fallbacks should run.
func isUnhelpful(answer string) bool {
	if strings.TrimSpace(answer) == "" {
		return true
	}
	for _, marker := range dontKnowMarkers {
		if strings.Contains(answer, marker) {
			return true
		}
	}
	return false
}
