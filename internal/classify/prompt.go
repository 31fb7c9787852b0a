package classify

import (
	"fmt"
	"strings"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

// maxPromptContent bounds how much article body text goes into the prompt.
const maxPromptContent = 600

const systemPrompt = `You are an expert AI/ML analyst specializing in software development and platform engineering. You analyze AI news articles and provide structured analysis. Always respond with valid JSON only, no markdown.`

const analysisPromptTmpl = `Analyze this AI/tech article and return JSON:

Title: %s
Source: %s
Content: %s

Return this exact JSON structure:
{
  "summary": "2-3 sentence summary focused on what matters for software engineers and platform engineers",
  "category": "one of: Product/Tool | AI Model | Research Paper | Industry News | Tutorial/Guide | Platform/Infrastructure",
  "tags": ["tag1", "tag2", "tag3"],
  "relevance_score": <1-10 score for software dev / platform engineering relevance>,
  "is_product_or_tool": <true if this is about a product, tool, model, framework, or platform>,
  "product_name": "<name if is_product_or_tool, else empty string>",
  "competitors": [
    {
      "name": "Competitor Name",
      "description": "brief description",
      "comparison": "how this new thing differs or improves on this competitor"
    }
  ],
  "competitive_advantage": "<if is_product_or_tool: what makes it stand out vs competitors, else empty string>"
}

For competitors: only include if is_product_or_tool is true. List 2-3 most relevant competitors max.`

// AnalysisPrompt builds the system and user prompts for one article.
func AnalysisPrompt(article models.Article) (system string, user string) {
	content := article.Content
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}
	return systemPrompt, fmt.Sprintf(analysisPromptTmpl, article.Title, article.Source, content)
}

// extractJSON strips markdown code fences from a string that may contain
// JSON wrapped in ```json ... ``` or ``` ... ``` blocks. Models sometimes
// fence their output despite being told not to.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if after, found := strings.CutPrefix(s, "```json"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	if after, found := strings.CutPrefix(s, "```"); found {
		if idx := strings.LastIndex(after, "```"); idx >= 0 {
			after = after[:idx]
		}
		return strings.TrimSpace(after)
	}

	return s
}
