package dataset

import (
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/histpatch/backend/pkg/logger"

	"go.uber.org/zap"
)

const maxDerivedKeywords = 8

// Enricher derives search keywords for records that ship without any,
// using noun tokens from the record title.
type Enricher struct{}

func NewEnricher() *Enricher {
	return &Enricher{}
}

func (e *Enricher) Keywords(title string) []string {
	if strings.TrimSpace(title) == "" {
		return nil
	}

	doc, err := prose.NewDocument(title)
	if err != nil {
		logger.Debug("Keyword enrichment failed", zap.String("title", title), zap.Error(err))
		return nil
	}

	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		word := strings.ToLower(strings.Trim(tok.Text, ".,:;!?\"'"))
		if len(word) < 3 || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) >= maxDerivedKeywords {
			break
		}
	}

	return keywords
}
