package composer

import (
	"fmt"

	"github.com/xhad/coverletter/internal/models"
)

// SystemPrompt fixes the writer role and forbids preambles before the subject line.
const SystemPrompt = `You are a professional cover letter writer.
Create compelling, personalized cover letters that precisely match candidate qualifications with job requirements.
Directly start writing letter from subject, no need to provide any additional labels like "Here is a professional cover letter based on the matched information:" or "Here is a professional cover letter:" and other.`

const userTemplate = `Create a professional cover letter based on the following matched information:

Technical Skills:
%s

Soft Skills:
%s

Relevant Experience:
%s

Education:
%s

Job Requirements:
%s

Job Responsibilities:
%s

HR Email: %s

Requirements:
1. Start with a compelling introduction showing understanding of the role
2. Match specific skills and experiences to job requirements
3. Use concrete examples from the experience section
4. Maintain professional tone while showing enthusiasm
5. Format as proper email with subject line
6. Include strong call to action
7. Keep length between 250-300 words
8. End with professional closing
9. Use proper grammar and punctuation
10. Avoid cliches and generic statements
11. Avoid repeating information from resume
12. Avoid negative language or criticism
13. Make sure the email sounds natural and human, not machine generated`

// BuildUserPrompt renders the bundle into the user message. Every topic must be present.
func BuildUserPrompt(bundle models.Bundle, hrEmail string) (string, error) {
	args := make([]any, 0, 7)
	for _, topic := range models.AllTopics() {
		text, ok := bundle[topic]
		if !ok {
			return "", fmt.Errorf("bundle is missing topic %s", topic)
		}
		args = append(args, text)
	}
	args = append(args, hrEmail)
	return fmt.Sprintf(userTemplate, args...), nil
}
