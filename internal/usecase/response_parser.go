package usecase

import (
	"errors"
	"log"
	"strings"

	"github.com/productrecommend/backend/internal/domain"
)

// ResponseParser turns the free-text payload of a retrieval candidate into a ProductRecord
type ResponseParser struct {
	enableDebugLogging bool
}

// NewResponseParser creates a new response parser
func NewResponseParser(enableDebugLogging bool) *ResponseParser {
	return &ResponseParser{
		enableDebugLogging: enableDebugLogging,
	}
}

// Parse reads the first candidate of raw and builds a validated record.
// It never panics: every anomaly comes back as a failed ParseOutcome.
func (p *ResponseParser) Parse(raw domain.RawResponse) domain.ParseOutcome {
	if len(raw) == 0 {
		return domain.Failure(&domain.ParseError{Cause: domain.ErrNoCandidates})
	}

	page, ok := payloadOf(raw[0])
	if !ok {
		return domain.Failure(&domain.ParseError{Cause: domain.ErrEmptyOrMalformedResponse})
	}
	if page == "" {
		return domain.Failure(&domain.ParseError{Cause: domain.ErrMissingPayload})
	}

	record := make(domain.ProductRecord)
	var lastKey domain.FieldKey
	haveKey := false

	for _, line := range payloadLines(page) {
		label, value, found := splitLabel(line)
		if !found {
			// Continuation of the previous field, e.g. a multi-line description
			if haveKey {
				record[lastKey] += "\n" + line
			} else if p.enableDebugLogging {
				log.Printf("[PARSER] Dropping leading continuation line: %q", line)
			}
			continue
		}

		key := canonicalFieldKey(label)
		record[key] = value
		lastKey, haveKey = key, true
	}

	if err := record.Validate(); err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			return domain.Failure(parseErr)
		}
		return domain.Failure(&domain.ParseError{Cause: domain.ErrEmptyOrMalformedResponse})
	}

	if p.enableDebugLogging {
		log.Printf("[PARSER] Parsed product %s with %d fields", record[domain.FieldID], len(record))
	}

	return domain.Success(record)
}

// ParseJSON decodes a retrieval backend body and parses it
func (p *ResponseParser) ParseJSON(body []byte) domain.ParseOutcome {
	docs, err := domain.DecodeDocuments(body)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			return domain.Failure(parseErr)
		}
		return domain.Failure(&domain.ParseError{Cause: domain.ErrEmptyOrMalformedResponse})
	}
	return p.Parse(domain.NewRawResponse(docs))
}

// payloadOf extracts the text of a candidate. A nil candidate is reported as malformed.
// The recover exists only for typed nil pointers stored in the interface, whose
// PageContent dereferences nil; no other panic is expected here.
func payloadOf(c domain.PayloadCarrier) (page string, ok bool) {
	if c == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			page, ok = "", false
		}
	}()
	return c.PageContent(), true
}

// payloadLines splits text into trimmed lines, dropping blank ones
func payloadLines(page string) []string {
	parts := strings.FieldsFunc(page, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if line := strings.TrimSpace(part); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitLabel splits "label: value" on the first ": ", falling back to the first bare ":".
// Both halves are trimmed. found is false when the line has no colon at all.
func splitLabel(line string) (label, value string, found bool) {
	sep := ": "
	idx := strings.Index(line, sep)
	if idx < 0 {
		sep = ":"
		idx = strings.Index(line, sep)
	}
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(sep):]), true
}
