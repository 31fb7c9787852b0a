package models

import "time"

// Category labels assigned by the classifier. The set is closed: any label
// outside it is treated as a schema violation and replaced by DefaultCategory.
const (
	CategoryProductTool   = "Product/Tool"
	CategoryAIModel       = "AI Model"
	CategoryResearchPaper = "Research Paper"
	CategoryIndustryNews  = "Industry News"
	CategoryTutorialGuide = "Tutorial/Guide"
	CategoryPlatformInfra = "Platform/Infrastructure"

	DefaultCategory = CategoryIndustryNews

	// DefaultRelevance is assigned whenever classification is unavailable
	// or returns an out-of-range score.
	DefaultRelevance = 5
)

// Categories lists every valid category label.
func Categories() []string {
	return []string{
		CategoryProductTool,
		CategoryAIModel,
		CategoryResearchPaper,
		CategoryIndustryNews,
		CategoryTutorialGuide,
		CategoryPlatformInfra,
	}
}

// ValidCategory reports whether label is one of the fixed category labels.
func ValidCategory(label string) bool {
	for _, c := range Categories() {
		if c == label {
			return true
		}
	}
	return false
}

// Article is a normalized candidate item produced by a source adapter,
// before classification. ID is derived from the URL and is the dedup key.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content,omitempty"`
	Author      string    `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Score       int       `json:"score"`
}

// Competitor is one entry of the competitor analysis produced for
// product/tool articles.
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Comparison  string `json:"comparison"`
}

// AnalyzedArticle is the pipeline output: an Article plus the AI-derived
// fields. The AI fields are always populated; a failed classification
// fills them with deterministic defaults rather than leaving them empty.
type AnalyzedArticle struct {
	Article

	Summary              string       `json:"summary"`
	Category             string       `json:"category"`
	RelevanceScore       int          `json:"relevance_score"`
	IsProductOrTool      bool         `json:"is_product_or_tool"`
	ProductName          string       `json:"product_name,omitempty"`
	Competitors          []Competitor `json:"competitors,omitempty"`
	CompetitiveAdvantage string       `json:"competitive_advantage,omitempty"`
	FetchedAt            time.Time    `json:"fetched_at"`
}
