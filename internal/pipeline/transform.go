// Package pipeline converts registry XML documents into canonical study
// artifacts: one document in memory through Transform, or many files in
// parallel through Batch.
package pipeline

import (
	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/schema"
	"github.com/nishad/ctrake/internal/study"
	"github.com/nishad/ctrake/internal/text"
)

// Transform validates doc against s and builds its canonical record. The
// document is parsed once; the same element tree feeds both the schema
// decoder and the keyword extractor.
func Transform(s *schema.Schema, doc []byte) (*study.Study, error) {
	const op = errors.Op("pipeline.Transform")

	root, err := text.ParseTree(doc)
	if err != nil {
		return nil, errors.E(op, errors.KindParse, err, "malformed document")
	}

	node, err := s.DecodeElement(root)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	rec, err := study.Restructure(node, text.Extract(root).Join())
	if err != nil {
		return nil, errors.Wrap(op, err)
	}
	return rec, nil
}
