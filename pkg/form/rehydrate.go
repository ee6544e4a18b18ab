package form

import (
	"fmt"
)

// FillText pre-fills text inputs from the previous answer. Keyed inputs read
// their own entry of a map answer; everything else is filled by position.
func (s *State) FillText(controls []TextControl) bool {
	if !s.hasPrevious {
		return false
	}
	m, _ := s.previousRaw.(map[string]any)
	for i := range controls {
		if controls[i].Key != "" && m != nil {
			if v, ok := m[controls[i].Key]; ok && v != nil {
				controls[i].Value = fmt.Sprint(v)
				continue
			}
		}
		if i < len(s.previous) {
			controls[i].Value = s.previous[i]
		}
	}
	return true
}

// FillSingleChoice re-selects the previously chosen values, preserving their
// original click order.
func (s *State) FillSingleChoice(c *ChoiceControl) bool {
	if !s.hasPrevious || c == nil {
		return false
	}
	c.Clear()
	for _, v := range s.previous {
		if v == "" {
			continue
		}
		c.Toggle(v)
	}
	return true
}

// FillResourceSelect restores the selected resource ids.
func (s *State) FillResourceSelect(c *ResourceControl) bool {
	if !s.hasPrevious || c == nil {
		return false
	}
	c.Selected = nil
	for _, v := range s.previous {
		if v == "" {
			continue
		}
		c.Selected = append(c.Selected, v)
		if !c.Multi {
			break
		}
	}
	return true
}

// FillDesignChoice restores the selected design.
func (s *State) FillDesignChoice(c *DesignControl) bool {
	if !s.hasPrevious || c == nil {
		return false
	}
	if len(s.previous) > 0 {
		c.Selected = s.previous[0]
	}
	return true
}

// FillFileUpload restores the uploaded file URL.
func (s *State) FillFileUpload(c *FileControl) bool {
	if !s.hasPrevious || c == nil {
		return false
	}
	if len(s.previous) > 0 {
		c.URL = s.previous[0]
	}
	return true
}
