package types

import "time"

// Response source kinds
const (
	SOURCE_WEB = "web"
	SOURCE_SMS = "sms"
	SOURCE_ODK = "odk"
)

// Response is one submission of a form. Answers live in their own
// collection keyed by ResponseID.
type Response struct {
	ID             string `bson:"_id" json:"id"`
	FormID         string `bson:"formId" json:"formId"`
	MissionID      string `bson:"missionId" json:"missionId"`
	SubmitterID    string `bson:"submitterId,omitempty" json:"submitterId,omitempty"`
	SubmitterName  string `bson:"submitterName,omitempty" json:"submitterName,omitempty"`
	SubmitterGroup string `bson:"submitterGroup,omitempty" json:"submitterGroup,omitempty"`
	Source         string `bson:"source" json:"source"`
	Reviewed       bool   `bson:"reviewed" json:"reviewed"`
	CreatedAt      int64  `bson:"createdAt" json:"createdAt"`
	SubmittedAt    int64  `bson:"submittedAt" json:"submittedAt"`
}

// Answer is one persisted scalar value for one questioning, or one level of
// a multilevel selection. Within a repeat group, InstNum identifies the
// repetition the answer belongs to; Rank is the 1-based option level for
// multilevel selects (1 otherwise).
type Answer struct {
	ID         string `bson:"_id,omitempty" json:"id,omitempty"`
	ResponseID string `bson:"responseId" json:"responseId"`
	QingID     string `bson:"qingId" json:"qingId"`
	InstNum    int    `bson:"instNum" json:"instNum"`
	Rank       int    `bson:"rank" json:"rank"`

	Value         string     `bson:"value,omitempty" json:"value,omitempty"`
	OptionNodeID  string     `bson:"optionNodeId,omitempty" json:"optionNodeId,omitempty"`
	OptionNodeIDs []string   `bson:"optionNodeIds,omitempty" json:"optionNodeIds,omitempty"`
	TimeValue     *time.Time `bson:"timeValue,omitempty" json:"timeValue,omitempty"`
	Latitude      *float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude     *float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	MediaObjectID string     `bson:"mediaObjectId,omitempty" json:"mediaObjectId,omitempty"`

	CreatedAt int64 `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt int64 `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`

	// NewRecord marks answers created blank during tree building that have
	// not been persisted yet.
	NewRecord bool `bson:"-" json:"isNew,omitempty"`
}
