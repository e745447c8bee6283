package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/nishad/ctrake/internal/text"
)

// BuildQuery turns a keyword expression into a Bleve query on field.
//
// Wildcards are stripped. "or" (or "|") separates alternatives; words
// inside an alternative must all match, whether joined by "and", "&" or
// plain whitespace. Each word is normalized with the same tokenizer the
// extractor uses, so stop words and bare numbers vanish. It returns nil
// when nothing searchable remains.
func BuildQuery(expr, field string) query.Query {
	groups := splitAlternatives(expr)

	var alternatives []query.Query
	for _, terms := range groups {
		var must []query.Query
		for _, term := range terms {
			mq := bleve.NewMatchQuery(term)
			mq.SetField(field)
			must = append(must, mq)
		}
		switch len(must) {
		case 0:
		case 1:
			alternatives = append(alternatives, must[0])
		default:
			alternatives = append(alternatives, bleve.NewConjunctionQuery(must...))
		}
	}

	switch len(alternatives) {
	case 0:
		return nil
	case 1:
		return alternatives[0]
	default:
		return bleve.NewDisjunctionQuery(alternatives...)
	}
}

// splitAlternatives returns the normalized terms of each alternative.
func splitAlternatives(expr string) [][]string {
	expr = strings.ReplaceAll(expr, "*", "")
	expr = strings.NewReplacer("|", " or ", "&", " and ").Replace(strings.ToLower(expr))

	groups := [][]string{nil}
	for _, word := range strings.Fields(expr) {
		switch word {
		case "or":
			groups = append(groups, nil)
		case "and":
		default:
			last := len(groups) - 1
			groups[last] = append(groups[last], text.Tokenize(word)...)
		}
	}
	return groups
}
