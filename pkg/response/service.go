package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/aaarash/nemo/pkg/form"
	respTypes "github.com/aaarash/nemo/pkg/response/types"
)

// AnswerStore is the persistence boundary for responses. Implementations
// must write the response and all answer changes in one atomic transaction:
// a failure anywhere rolls back every pending write.
type AnswerStore interface {
	GetAnswersForResponse(instanceID string, missionID string, responseID string) ([]respTypes.Answer, error)
	SaveResponseWithAnswers(instanceID string, resp respTypes.Response, answers []respTypes.Answer, deletedAnswerIDs []string) error
}

// Service drives the render/validate/submit cycle for responses.
type Service struct {
	Store            AnswerStore
	PreferredLocales []string
}

// BuildForRender reconstructs a response's answer tree for display,
// including blank nodes so the UI can always render an input per visible
// questioning.
func (s Service) BuildForRender(instanceID string, tree *form.Tree, resp respTypes.Response) ([]*AnswerNode, error) {
	existing, err := s.Store.GetAnswersForResponse(instanceID, resp.MissionID, resp.ID)
	if err != nil {
		return nil, err
	}
	return NewBuilder(tree, existing, true).Build()
}

// SaveResponse builds and validates the answer tree for the submitted
// values and, when no validation failures occur, persists the whole tree
// transactionally. On failures nothing is written and all failures are
// returned together.
func (s Service) SaveResponse(instanceID string, tree *form.Tree, resp respTypes.Response, submitted []respTypes.Answer) ([]ValidationFailure, error) {
	builder := NewBuilder(tree, submitted, false)
	nodes, err := builder.Build()
	if err != nil {
		return nil, err
	}

	failures, err := Validate(tree, nodes, s.PreferredLocales)
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return failures, nil
	}

	toSave, toDelete := collectAnswers(nodes, resp.ID)
	if err := s.Store.SaveResponseWithAnswers(instanceID, resp, toSave, toDelete); err != nil {
		return nil, err
	}
	return nil, nil
}

// collectAnswers flattens the validated tree back into persistable answer
// records. New non-blank answers get ids; previously persisted answers that
// are now blank are scheduled for deletion.
func collectAnswers(nodes []*AnswerNode, responseID string) (toSave []respTypes.Answer, toDelete []string) {
	now := time.Now().Unix()
	var visit func(nodes []*AnswerNode)
	visit = func(nodes []*AnswerNode) {
		for _, node := range nodes {
			switch {
			case node.Set != nil:
				for _, ans := range node.Set.Answers {
					if ans.Blank() {
						if !ans.NewRecord && ans.Answer.ID != "" {
							toDelete = append(toDelete, ans.Answer.ID)
						}
						continue
					}
					record := ans.Answer
					record.ResponseID = responseID
					if record.ID == "" {
						record.ID = uuid.NewString()
						record.CreatedAt = now
					}
					record.UpdatedAt = now
					record.NewRecord = false
					toSave = append(toSave, record)
				}
			case node.Instances != nil:
				for _, inst := range node.Instances {
					visit(inst.Nodes)
				}
			default:
				visit(node.Children)
			}
		}
	}
	visit(nodes)
	return toSave, toDelete
}
