package form

import "fmt"

// StructuralError reports a malformed form item tree (orphaned ancestry,
// forward condition reference, invalid skip destination). It is fatal for
// the form designer and blocks publishing.
type StructuralError struct {
	ItemID string
	Msg    string
}

func (e *StructuralError) Error() string {
	if e.ItemID == "" {
		return "structural error: " + e.Msg
	}
	return fmt.Sprintf("structural error on item %s: %s", e.ItemID, e.Msg)
}

// Deletion block reasons
const (
	CANT_DELETE_IF_HAS_ANSWERS   = "cant_delete_if_has_answers"
	CANT_DELETE_IF_HAS_QUESTIONS = "cant_delete_if_has_questions"
)

// ReferentialIntegrityError blocks a deletion while dependent data still
// references the target. No partial deletion happens.
type ReferentialIntegrityError struct {
	Reason string
}

func (e *ReferentialIntegrityError) Error() string {
	return "deletion blocked: " + e.Reason
}
