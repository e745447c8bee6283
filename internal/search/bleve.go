// Package search keeps a Bleve full-text index of loaded studies and
// answers keyword queries against it with lists of NCT identifiers.
package search

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/nishad/ctrake/internal/errors"
)

// Field names in the index.
const (
	FieldNCTID               = "nct_id"
	FieldBriefTitle          = "brief_title"
	FieldOfficialTitle       = "official_title"
	FieldDetailedDescription = "detailed_description"
	FieldText                = "text"
)

// blobAnalyzer splits the pre-tokenized text blob on whitespace only, so
// indexed terms are exactly the extractor's tokens.
const blobAnalyzer = "token_blob"

// StudyDoc is the indexed form of one study.
type StudyDoc struct {
	NCTID               string `json:"nct_id"`
	BriefTitle          string `json:"brief_title"`
	OfficialTitle       string `json:"official_title"`
	DetailedDescription string `json:"detailed_description"`
	Text                string `json:"text"`
}

// BleveIndex wraps the Bleve search index
type BleveIndex struct {
	index bleve.Index
	path  string
}

// InitBleveIndex initializes or opens a Bleve index
func InitBleveIndex(indexPath string) (*BleveIndex, error) {
	const op = errors.Op("search.InitBleveIndex")

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		indexMapping, merr := createStudyIndexMapping()
		if merr != nil {
			return nil, errors.E(op, errors.KindSearch, merr)
		}
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, errors.E(op, errors.KindSearch, err, "create index")
		}
	} else if err != nil {
		return nil, errors.E(op, errors.KindSearch, err, "open index")
	}

	return &BleveIndex{index: index, path: indexPath}, nil
}

// NewMemoryIndex returns an index that lives only in memory.
func NewMemoryIndex() (*BleveIndex, error) {
	const op = errors.Op("search.NewMemoryIndex")

	indexMapping, err := createStudyIndexMapping()
	if err != nil {
		return nil, errors.E(op, errors.KindSearch, err)
	}
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, errors.E(op, errors.KindSearch, err)
	}
	return &BleveIndex{index: index}, nil
}

func createStudyIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "standard"

	err := indexMapping.AddCustomAnalyzer(blobAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(FieldNCTID, createKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(FieldBriefTitle, createTextFieldMapping())
	docMapping.AddFieldMappingsAt(FieldOfficialTitle, createTextFieldMapping())
	docMapping.AddFieldMappingsAt(FieldDetailedDescription, createTextFieldMapping())

	blob := bleve.NewTextFieldMapping()
	blob.Analyzer = blobAnalyzer
	blob.Store = false
	blob.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldText, blob)

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

func createKeywordFieldMapping() *mapping.FieldMapping {
	fieldMapping := bleve.NewTextFieldMapping()
	fieldMapping.Analyzer = "keyword"
	fieldMapping.Store = true
	fieldMapping.IncludeInAll = false
	return fieldMapping
}

func createTextFieldMapping() *mapping.FieldMapping {
	fieldMapping := bleve.NewTextFieldMapping()
	fieldMapping.Analyzer = "standard"
	fieldMapping.Store = true
	fieldMapping.IncludeInAll = true
	return fieldMapping
}

// Path returns the directory the index was opened from, empty for memory
// indexes.
func (b *BleveIndex) Path() string {
	return b.path
}

// IndexStudy adds or replaces one study document.
func (b *BleveIndex) IndexStudy(doc StudyDoc) error {
	if err := b.index.Index(doc.NCTID, doc); err != nil {
		return errors.E(errors.Op("search.IndexStudy"), errors.KindSearch, err, doc.NCTID)
	}
	return nil
}

// BatchIndex indexes multiple documents in a batch
func (b *BleveIndex) BatchIndex(docs []StudyDoc) error {
	const op = errors.Op("search.BatchIndex")

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.NCTID, doc); err != nil {
			return errors.E(op, errors.KindSearch, err, doc.NCTID)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return errors.E(op, errors.KindSearch, err)
	}
	return nil
}

// Criteria selects studies by keyword. Text is matched against the token
// blob and DetailedDescription against the description field; when both
// are set a study must satisfy both.
type Criteria struct {
	Text                string
	DetailedDescription string
}

// Empty reports whether no keyword criterion is set.
func (c Criteria) Empty() bool {
	return c.Text == "" && c.DetailedDescription == ""
}

// Match returns the NCT IDs of every study satisfying c, best match first.
// A criterion whose query reduces to nothing matches no study.
func (b *BleveIndex) Match(ctx context.Context, c Criteria) ([]string, error) {
	const op = errors.Op("search.Match")

	var parts []query.Query
	for _, crit := range []struct{ value, field string }{
		{c.Text, FieldText},
		{c.DetailedDescription, FieldDetailedDescription},
	} {
		if crit.value == "" {
			continue
		}
		q := BuildQuery(crit.value, crit.field)
		if q == nil {
			return []string{}, nil
		}
		parts = append(parts, q)
	}
	if len(parts) == 0 {
		return []string{}, nil
	}

	var q query.Query = parts[0]
	if len(parts) > 1 {
		q = bleve.NewConjunctionQuery(parts...)
	}

	total, err := b.index.DocCount()
	if err != nil {
		return nil, errors.E(op, errors.KindSearch, err)
	}
	if total == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequest(q)
	req.Size = int(total)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.E(op, errors.KindSearch, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close closes the Bleve index
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// GetDocCount returns the number of documents in the index
func (b *BleveIndex) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

// Delete removes a document from the index
func (b *BleveIndex) Delete(id string) error {
	return b.index.Delete(id)
}
