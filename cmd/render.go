package cmd

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// renderReply prepares assistant text for terminal display. Some backends
// return HTML fragments (notably in error passthroughs and web-grounded
// answers); those are converted to markdown, which reads fine in a
// terminal. Plain text passes through untouched.
func renderReply(content string) string {
	if !looksLikeHTML(content) {
		return content
	}
	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(markdown)
}

// looksLikeHTML is a cheap heuristic: a closing tag for a common block or
// inline element. Markdown with occasional angle brackets stays untouched.
func looksLikeHTML(content string) bool {
	for _, tag := range []string{"</p>", "</div>", "</ul>", "</ol>", "</a>", "</b>", "</i>", "</code>", "</pre>", "<br>", "<br/>"} {
		if strings.Contains(content, tag) {
			return true
		}
	}
	return false
}
