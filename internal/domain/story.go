package domain

// Panel is one unit of the generated comic.
//
// Title, VisualDescription and Caption come from the script call and are not
// changed afterwards. ImageURL starts empty and is set exactly once, after the
// image call for VisualDescription succeeds.
type Panel struct {
	Title             string `json:"title"             validate:"required"`
	VisualDescription string `json:"visualDescription" validate:"required"`
	Caption           string `json:"caption"           validate:"required"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

// HasImage reports whether the panel image has been generated.
func (p Panel) HasImage() bool {
	return p.ImageURL != ""
}

// WithImage returns a copy of the panel with its image set.
// It fails if the panel already carries an image.
func (p Panel) WithImage(url string) (Panel, error) {
	if p.HasImage() {
		return p, ErrImageAlreadySet
	}
	p.ImageURL = url
	return p, nil
}

// StoryResult is the full generated script plus its panels in reading order.
type StoryResult struct {
	FullScript string  `json:"fullScript" validate:"required"`
	Panels     []Panel `json:"panels"     validate:"required,dive"`
}

// Clone returns a deep copy of the story.
func (s *StoryResult) Clone() *StoryResult {
	if s == nil {
		return nil
	}
	out := &StoryResult{FullScript: s.FullScript}
	if s.Panels != nil {
		out.Panels = make([]Panel, len(s.Panels))
		copy(out.Panels, s.Panels)
	}
	return out
}

// ModerationStatus is the tag of a ModerationResult.
type ModerationStatus string

// Moderation outcomes.
const (
	ModerationValid    ModerationStatus = "valid"
	ModerationRejected ModerationStatus = "rejected"
)

// ModerationResult is the outcome of checking a Field Map against the denylist.
// Field names the entry that triggered a rejection and is empty otherwise.
type ModerationResult struct {
	Status ModerationStatus `json:"status"`
	Field  string           `json:"field,omitempty"`
}

// Valid returns the accepting moderation result.
func Valid() ModerationResult {
	return ModerationResult{Status: ModerationValid}
}

// Rejected returns a moderation result rejecting the given field.
func Rejected(field string) ModerationResult {
	return ModerationResult{Status: ModerationRejected, Field: field}
}

// IsValid reports whether the input passed moderation.
func (r ModerationResult) IsValid() bool {
	return r.Status == ModerationValid
}
