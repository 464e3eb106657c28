package notify

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText flattens an HTML fragment to plain text for notification
// bodies. Tag structure is discarded; block-ish boundaries collapse to single
// spaces. Input that fails to tokenize is returned stripped of nothing.
func HTMLToText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			// Skip script and style bodies entirely.
			switch string(name) {
			case "script", "style":
				skipUntilClose(tokenizer, string(name))
			}
		}
	}
}

func skipUntilClose(tokenizer *html.Tokenizer, tag string) {
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == tag {
				return
			}
		}
	}
}
