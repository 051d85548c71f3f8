package models

import (
	"bytes"
	"time"
)

// FlexID tolerates curated datasets that mix numeric and string ids.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		*f = FlexID(data[1 : len(data)-1])
		return nil
	}
	*f = FlexID(data)
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

type LogRecord struct {
	ID          FlexID   `json:"id"`
	Version     string   `json:"version"`
	Date        string   `json:"date"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Region      string   `json:"region"`
	Tags        []string `json:"tags,omitempty"`
	Importance  string   `json:"importance,omitempty"`
	IsActive    bool     `json:"is_active"`
	Keywords    []string `json:"keywords,omitempty"`
	SubmittedBy string   `json:"submitted_by,omitempty"`
	WikiURL     string   `json:"wiki_url,omitempty"`
	GrokURL     string   `json:"grok_url,omitempty"`

	// Shard is the file this record was loaded from, tagged at load time.
	Shard string `json:"shard,omitempty"`
}

type YearEntry struct {
	Year int    `json:"year"`
	File string `json:"file"`
}

type EraEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

type Manifest struct {
	CurrentYear    int         `json:"current_year"`
	YearsAvailable []YearEntry `json:"years_available"`
	Eras           []EraEntry  `json:"eras"`
}

// CurrentYearFile resolves the shard file for the manifest's current_year.
func (m *Manifest) CurrentYearFile() string {
	for _, y := range m.YearsAvailable {
		if y.Year == m.CurrentYear {
			return y.File
		}
	}
	return ""
}

type Contributor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type DiagnosticRecord struct {
	ID        string
	UserID    string
	Prompt    string
	Response  string
	Provider  string
	Cached    bool
	LatencyMS int
	CreatedAt time.Time
}
