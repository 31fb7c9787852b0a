package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

// fallbackCount is how many top articles a digest falls back to when a
// subscriber's preferences filter everything out.
const fallbackCount = 5

const digestTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; color: #1a1a2e; max-width: 680px; margin: 0 auto; padding: 24px; }
  h1 { font-size: 22px; border-bottom: 2px solid #4a4ae8; padding-bottom: 8px; }
  h2 { font-size: 17px; color: #4a4ae8; margin-top: 28px; }
  .article { margin: 14px 0; padding: 12px 14px; background: #f7f7fb; border-radius: 8px; }
  .article a { color: #1a1a2e; font-weight: 600; text-decoration: none; font-size: 15px; }
  .meta { color: #6b6b80; font-size: 12px; margin: 4px 0; }
  .summary { font-size: 13px; margin: 6px 0 0; }
  .bar { display: inline-block; background: #4a4ae8; color: #fff; border-radius: 4px; padding: 1px 6px; font-size: 11px; }
  .product { background: #e8f5ee; border-left: 3px solid #2a9d5c; padding: 6px 10px; margin-top: 8px; font-size: 12px; }
  table { border-collapse: collapse; font-size: 12px; margin-top: 6px; }
  th, td { border: 1px solid #d8d8e8; padding: 4px 8px; text-align: left; }
  .footer { color: #9a9ab0; font-size: 11px; margin-top: 32px; }
</style>
</head>
<body>
<h1>AI News Digest &middot; {{.Date}}</h1>
{{if .Greeting}}<p>{{.Greeting}}</p>{{end}}
{{range .Sections}}
<h2>{{.Category}}</h2>
{{range .Articles}}
<div class="article">
  <a href="{{.URL}}">{{.Title}}</a>
  <div class="meta">{{.Source}}{{if .Author}} &middot; {{.Author}}{{end}} &middot; <span class="bar">relevance {{.RelevanceScore}}/10</span></div>
  {{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
  {{if .IsProductOrTool}}
  <div class="product">
    <strong>Product:</strong> {{if .ProductName}}{{.ProductName}}{{else}}{{.Title}}{{end}}
    {{if .CompetitiveAdvantage}}<br><strong>Edge:</strong> {{.CompetitiveAdvantage}}{{end}}
    {{if .Competitors}}
    <table>
      <tr><th>Competitor</th><th>Comparison</th></tr>
      {{range .Competitors}}<tr><td>{{.Name}}</td><td>{{.Comparison}}</td></tr>{{end}}
    </table>
    {{end}}
  </div>
  {{end}}
</div>
{{end}}
{{end}}
<p class="footer">You are receiving this because you subscribed to the AI news tracker.{{if .AppURL}} Manage your subscription at <a href="{{.AppURL}}">{{.AppURL}}</a>.{{end}}</p>
</body>
</html>`

var tmpl = template.Must(template.New("digest").Parse(digestTmpl))

type section struct {
	Category string
	Articles []models.AnalyzedArticle
}

type digestData struct {
	Date     string
	Greeting string
	AppURL   string
	Sections []section
}

// FilterForSubscriber applies a subscriber's category allow-list and
// minimum relevance to the candidate set. When the preferences leave
// nothing, the top articles by relevance are used instead so the digest
// is never empty while news exists.
func FilterForSubscriber(articles []models.AnalyzedArticle, sub *models.Subscriber) []models.AnalyzedArticle {
	allowed := make(map[string]bool, len(sub.Categories))
	for _, c := range sub.Categories {
		allowed[c] = true
	}

	var filtered []models.AnalyzedArticle
	for _, a := range articles {
		if len(allowed) > 0 && !allowed[a.Category] {
			continue
		}
		if a.RelevanceScore < sub.MinRelevance {
			continue
		}
		filtered = append(filtered, a)
	}

	if len(filtered) == 0 && len(articles) > 0 {
		top := make([]models.AnalyzedArticle, len(articles))
		copy(top, articles)
		sort.SliceStable(top, func(i, j int) bool {
			return top[i].RelevanceScore > top[j].RelevanceScore
		})
		if len(top) > fallbackCount {
			top = top[:fallbackCount]
		}
		return top
	}

	return filtered
}

// Render produces the HTML digest body for a subscriber. Articles are
// grouped by category; within a group the input order is preserved.
func Render(articles []models.AnalyzedArticle, sub *models.Subscriber, appURL string, now time.Time) (string, error) {
	byCategory := make(map[string][]models.AnalyzedArticle)
	var order []string
	for _, a := range articles {
		category := a.Category
		if category == "" {
			category = models.DefaultCategory
		}
		if _, ok := byCategory[category]; !ok {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], a)
	}

	data := digestData{
		Date:   now.Format("January 2, 2006"),
		AppURL: appURL,
	}
	if sub != nil && sub.Name != "" {
		data.Greeting = fmt.Sprintf("Hi %s, here is what happened in AI today.", sub.Name)
	}
	for _, category := range order {
		data.Sections = append(data.Sections, section{
			Category: category,
			Articles: byCategory[category],
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}
