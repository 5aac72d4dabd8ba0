package ai

import "strings"

// Prompt templates for the AI features. Placeholders use {name} syntax and
// are filled with renderTemplate.

const summarizerTemplate = `You are a helpful assistant that summarizes forum discussions.

Given the following forum thread content, provide a concise summary that captures:
1. The main topic or question
2. Key points discussed
3. Any conclusions or resolutions

Thread Content:
{thread_content}

Summary:`

const qaTemplate = `You are a helpful assistant that answers questions based on forum discussions.

Use only the information provided in the context to answer the question.
If the answer cannot be found in the context, say "I couldn't find relevant information in the discussion."

Context:
{context}

Question: {question}

Answer:`

const moderationTemplate = `You are a content moderator for a forum.

Analyze the following content for violations of community guidelines.
Consider: spam, harassment, hate_speech, explicit, violence, misinformation, off_topic.

Content:
{content}

Respond with a JSON object only, no other text:
{"risk_score": 0.0-1.0, "reason_tags": ["category", ...], "explanation": "brief assessment"}

Analysis:`

const rewriteClarityTemplate = `You are an editor that improves forum posts.

Rewrite the following text to be clearer and easier to understand while
preserving its meaning and tone. Return only the rewritten text.

Text:
{text}

Rewritten:`

const rewriteShortenTemplate = `You are an editor that improves forum posts.

Rewrite the following text to be significantly shorter while keeping every
essential point. Return only the rewritten text.

Text:
{text}

Rewritten:`

const rewritePoliteTemplate = `You are an editor that improves forum posts.

Rewrite the following text to be polite and constructive while preserving
its meaning. Return only the rewritten text.

Text:
{text}

Rewritten:`

const rewriteTranslateTemplate = `You are a translator for a forum.

Translate the following text into {target_language}, preserving tone and
formatting. Return only the translated text.

Text:
{text}

Translation:`

// renderTemplate substitutes {name} placeholders with values.
func renderTemplate(template string, vars map[string]string) string {
	result := template
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result
}
