package llm

import (
	"fmt"
	"strings"
)

// DefaultLanguage is the target language for summaries and answers.
const DefaultLanguage = "Traditional Chinese"

// NotFoundAnswer is the sentence the model must use when the context lacks the answer.
const NotFoundAnswer = "I cannot find the answer in the provided news."

const summaryPromptTemplate = `Summarize the following news article in %s using bullet points.
Output ONLY the bullet points. Do NOT include any introductory text, headers, or phrases like "Here is the summary".

Article Content:
%s`

const answerPromptTemplate = `You are a helpful AI news assistant.
Answer the user's question based ONLY on the provided context.
If the answer is not in the context, say "%s"

Context:
%s

Question:
%s

Answer in %s.`

const briefingPromptTemplate = `You are a professional news editor.
Analyze the following news summaries and generate a "Daily Briefing" in %s.

Group the news into relevant categories (e.g., Politics, Technology, World, Economy, etc.).
For each news item, provide:
1. A title translated into %s.
2. A one-sentence key takeaway (very concise).

Output the result as a valid JSON object with the following structure:
{
    "categories": [
        {
            "name": "Category Name",
            "articles": [
                {
                    "original_title": "Original Title",
                    "zh_title": "Translated Title",
                    "takeaway": "One sentence summary."
                }
            ]
        }
    ]
}

Ensure the JSON is valid and strictly follows the format.

News Summaries:
%s`

func language(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return DefaultLanguage
	}
	return lang
}

// SummaryPrompt asks for a bullet-point summary of an article.
func SummaryPrompt(lang, text string) string {
	return fmt.Sprintf(summaryPromptTemplate, language(lang), text)
}

// AnswerPrompt asks for an answer grounded only in the given context.
func AnswerPrompt(lang, context, question string) string {
	return fmt.Sprintf(answerPromptTemplate, NotFoundAnswer, context, question, language(lang))
}

// BriefingPrompt asks for a categorized briefing as JSON.
func BriefingPrompt(lang, summaries string) string {
	l := language(lang)
	return fmt.Sprintf(briefingPromptTemplate, l, l, summaries)
}
