// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed prompts/scene-description.txt
var sceneDescriptionPrompt string

// ScenePrompt is the fixed instruction sent with every scene description
// request: detected items with their purpose, an overall description, and
// safety suggestions for a visually impaired user. It is constant for the
// process lifetime and not user-editable.
var ScenePrompt = strings.TrimSpace(sceneDescriptionPrompt)
