package api

import (
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// ImageStyle is a rendering style accepted by the image backend.
type ImageStyle string

const (
	StyleRealista ImageStyle = "realista"
	StyleAnime    ImageStyle = "anime"
	StyleOleo     ImageStyle = "oleo"
)

// ImageStyles lists the accepted styles in display order.
var ImageStyles = []ImageStyle{StyleRealista, StyleAnime, StyleOleo}

// ValidImageStyle reports whether s belongs to the closed style set.
func ValidImageStyle(s ImageStyle) bool {
	switch s {
	case StyleRealista, StyleAnime, StyleOleo:
		return true
	default:
		return false
	}
}

// GalleryItem is one entry of the recent-images gallery.
type GalleryItem struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// GenerateParams are the inputs of a content generation call.
type GenerateParams struct {
	Action    workflow.Action
	InputText string
	UserEmail string
	// ContentID targets an existing record; empty creates a new one.
	ContentID string
}

// GenerateResult is the backend's answer to a generation call. It does
// not include version history; callers reload the record for that.
type GenerateResult struct {
	ContentID string
	Text      string
	Status    workflow.Status
}

// Wire envelopes. Every backend response carries ok plus either payload
// fields or an error/detail pair; non-JSON bodies are handled in decode.

type whoamiEnvelope struct {
	OK     bool     `json:"ok"`
	Groups []string `json:"groups"`
}

type contentEnvelope struct {
	OK       bool               `json:"ok"`
	Versions []workflow.Version `json:"versions"`
	Latest   struct {
		Status string `json:"status"`
	} `json:"latest"`
	Error string `json:"error"`
}

type generateEnvelope struct {
	OK        bool   `json:"ok"`
	ContentID string `json:"contentId"`
	Text      string `json:"text"`
	Status    string `json:"status"`
	Error     string `json:"error"`
	Detail    string `json:"detail"`
}

type generateRequest struct {
	Action    string `json:"action"`
	InputText string `json:"inputText"`
	UserEmail string `json:"userEmail"`
	ContentID string `json:"contentId,omitempty"`
}

type statusEnvelope struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type byStatusEnvelope struct {
	OK    bool                 `json:"ok"`
	Items []workflow.BoardEntry `json:"items"`
	Error string               `json:"error"`
}

type imageGenerateEnvelope struct {
	OK      bool   `json:"ok"`
	URL     string `json:"url"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

type imageGenerateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

type recentImagesEnvelope struct {
	OK     bool          `json:"ok"`
	Images []GalleryItem `json:"images"`
}
