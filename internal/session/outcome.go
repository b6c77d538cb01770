package session

import (
	"image"

	"github.com/maauso/mediamanip/internal/task"
	"github.com/maauso/mediamanip/internal/video"
)

// Outcome is what Load and Dispatch hand back to a shell. Zero fields mean
// "leave as is".
type Outcome struct {
	// Status is a one-line message for the status bar.
	Status string
	// Preview replaces the preview pane when set.
	Preview *Preview
	// Dialog is informational output the shell shows until acknowledged.
	Dialog *Dialog
	// Task is a background job started by the tool.
	Task *task.Task
}

// Preview is the content of the preview pane. Exactly one field is set.
type Preview struct {
	Image     image.Image
	Text      string
	Histogram *video.Histogram
}

// Dialog is a titled block of text.
type Dialog struct {
	Title string
	Lines []string
}

func textPreview(s string) *Preview {
	return &Preview{Text: s}
}
