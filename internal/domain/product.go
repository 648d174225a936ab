package domain

import "encoding/json"

// FieldKey is the canonical identifier of a product field
type FieldKey string

const (
	FieldID                FieldKey = "id"
	FieldName              FieldKey = "name"
	FieldPrice             FieldKey = "price"
	FieldCategory          FieldKey = "category"
	FieldMaker             FieldKey = "maker"
	FieldScore             FieldKey = "score"
	FieldReviewNumber      FieldKey = "review_number"
	FieldFileName          FieldKey = "file_name"
	FieldDescription       FieldKey = "description"
	FieldRecommendedPeople FieldKey = "recommended_people"
	FieldStockStatus       FieldKey = "stock_status"
)

// requiredFields is checked in this order; the first missing key is reported
var requiredFields = [...]FieldKey{FieldID, FieldName, FieldPrice}

// ProductRecord maps field keys to their parsed values.
// Unknown labels are kept under their lower-cased text.
type ProductRecord map[FieldKey]string

// Get returns the value for key and whether it was present
func (r ProductRecord) Get(key FieldKey) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// ValueOr returns the value for key, or fallback when it is absent or empty
func (r ProductRecord) ValueOr(key FieldKey, fallback string) string {
	if v, ok := r[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Validate checks that id, name and price are present and non-empty
func (r ProductRecord) Validate() error {
	for _, key := range requiredFields {
		if r[key] == "" {
			return NewMissingFieldError(key)
		}
	}
	return nil
}

// Clone returns an independent copy of the record
func (r ProductRecord) Clone() ProductRecord {
	out := make(ProductRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PayloadCarrier is anything that exposes the textual payload of a retrieval candidate
type PayloadCarrier interface {
	PageContent() string
}

// RawResponse is the ordered list of candidates returned for one query.
// Only the first candidate is read.
type RawResponse []PayloadCarrier

// Document is a retrieval candidate as returned by the retrieval backend
type Document struct {
	Content  string                 `json:"page_content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PageContent implements PayloadCarrier
func (d Document) PageContent() string {
	return d.Content
}

// NewRawResponse wraps documents as a RawResponse
func NewRawResponse(docs []Document) RawResponse {
	raw := make(RawResponse, len(docs))
	for i, d := range docs {
		raw[i] = d
	}
	return raw
}

// ParseOutcome is the result of parsing a RawResponse: a validated record or a failure
type ParseOutcome struct {
	record ProductRecord
	err    *ParseError
}

// Success wraps a validated record
func Success(record ProductRecord) ParseOutcome {
	return ParseOutcome{record: record.Clone()}
}

// Failure wraps a parse error
func Failure(err *ParseError) ParseOutcome {
	return ParseOutcome{err: err}
}

// OK reports whether parsing succeeded
func (o ParseOutcome) OK() bool {
	return o.err == nil
}

// Record returns a copy of the parsed record, or nil on failure
func (o ParseOutcome) Record() ProductRecord {
	if o.err != nil {
		return nil
	}
	return o.record.Clone()
}

// Err returns the failure as an error, or nil on success
func (o ParseOutcome) Err() error {
	if o.err == nil {
		return nil
	}
	return o.err
}

// Reason returns the human-readable failure reason, or "" on success
func (o ParseOutcome) Reason() string {
	if o.err == nil {
		return ""
	}
	return o.err.Error()
}

// DecodeDocuments decodes a retrieval backend body into documents.
// Anything other than a JSON array of objects is reported as ErrEmptyOrMalformedResponse,
// as is a null first element.
func DecodeDocuments(body []byte) ([]Document, error) {
	var raw []*Document
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ParseError{Cause: ErrEmptyOrMalformedResponse}
	}
	if len(raw) > 0 && raw[0] == nil {
		return nil, &ParseError{Cause: ErrEmptyOrMalformedResponse}
	}

	docs := make([]Document, len(raw))
	for i, d := range raw {
		if d != nil {
			docs[i] = *d
		}
	}
	return docs, nil
}
