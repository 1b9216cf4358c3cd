package types

import "strconv"

// Option is one selectable value, shared between option sets via reference.
type Option struct {
	ID               string       `bson:"id" json:"id"`
	Canonical        string       `bson:"canonical" json:"canonical"` // canonical (default locale) name
	NameTranslations Translations `bson:"nameTranslations,omitempty" json:"nameTranslations,omitempty"`
}

// Name resolves the option's display name for the preferred locales, falling
// back to the canonical name.
func (o Option) Name(preferredLocales []string) string {
	if name := o.NameTranslations.Resolve(preferredLocales); name != "" {
		return name
	}
	return o.Canonical
}

// OptionNode places an option at one level of a (possibly multilevel) option
// set. Children are kept in rank order. The root node of a set carries no
// option.
type OptionNode struct {
	ID       string       `bson:"id" json:"id"`
	Rank     int          `bson:"rank" json:"rank"` // 1-based among siblings
	Option   *Option      `bson:"option,omitempty" json:"option,omitempty"`
	Children []OptionNode `bson:"children,omitempty" json:"children,omitempty"`
}

// ChildOptions returns the node's children in rank order.
func (n *OptionNode) ChildOptions() []OptionNode {
	return n.Children
}

// HasGrandchildren reports whether any child has children of its own. On the
// root node this detects a multilevel option set.
func (n *OptionNode) HasGrandchildren() bool {
	for _, c := range n.Children {
		if len(c.Children) > 0 {
			return true
		}
	}
	return false
}

// Depth returns the number of levels below this node (0 for a leaf).
func (n *OptionNode) Depth() int {
	max := 0
	for i := range n.Children {
		if d := n.Children[i].Depth() + 1; d > max {
			max = d
		}
	}
	return max
}

// FindNodeByID searches the subtree for a node with the given id.
func (n *OptionNode) FindNodeByID(id string) *OptionNode {
	if n.ID == id {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].FindNodeByID(id); found != nil {
			return found
		}
	}
	return nil
}

// SubtreeNodeIDs returns the ids of this node and all of its descendants.
func (n *OptionNode) SubtreeNodeIDs() []string {
	ids := []string{n.ID}
	for i := range n.Children {
		ids = append(ids, n.Children[i].SubtreeNodeIDs()...)
	}
	return ids
}

// OptionAtPath descends the subtree following one path segment per level.
// Each segment is either a 1-based rank ("2") or a canonical option name
// ("Animal"). Returns nil if any segment fails to match.
func (n *OptionNode) OptionAtPath(path []string) *OptionNode {
	current := n
	for _, segment := range path {
		var next *OptionNode
		if rank, err := strconv.Atoi(segment); err == nil {
			for i := range current.Children {
				if current.Children[i].Rank == rank {
					next = &current.Children[i]
					break
				}
			}
		} else {
			for i := range current.Children {
				opt := current.Children[i].Option
				if opt != nil && (opt.Canonical == segment || opt.NameTranslations.Matches(segment)) {
					next = &current.Children[i]
					break
				}
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// OptionSet is a named, reusable hierarchy of options. For multilevel sets
// LevelNames carries one translated name per level (e.g. Kingdom, Species).
type OptionSet struct {
	ID         string         `bson:"_id" json:"id"`
	MissionID  string         `bson:"missionId" json:"missionId"`
	Name       string         `bson:"name" json:"name"`
	LevelNames []Translations `bson:"levelNames,omitempty" json:"levelNames,omitempty"`
	Root       OptionNode     `bson:"root" json:"root"`
}

// Multilevel reports whether the set has more than one level.
func (os *OptionSet) Multilevel() bool {
	return os.Root.HasGrandchildren()
}

// LevelCount returns the number of selection levels (1 for a flat set).
func (os *OptionSet) LevelCount() int {
	if !os.Multilevel() {
		return 1
	}
	return os.Root.Depth()
}

// LevelName returns the translated name of the given 1-based level, or empty
// if the set does not define level names.
func (os *OptionSet) LevelName(level int, preferredLocales []string) string {
	if level < 1 || level > len(os.LevelNames) {
		return ""
	}
	return os.LevelNames[level-1].Resolve(preferredLocales)
}

// Options returns the first-level options.
func (os *OptionSet) Options() []OptionNode {
	return os.Root.Children
}

// RemoveNode removes the node with the given id, its whole subtree included,
// and densely renumbers the remaining siblings. The synthetic root cannot be
// removed. Reports whether a node was found.
func (os *OptionSet) RemoveNode(nodeID string) bool {
	if nodeID == os.Root.ID {
		return false
	}
	return removeChildNode(&os.Root, nodeID)
}

func removeChildNode(parent *OptionNode, nodeID string) bool {
	for i := range parent.Children {
		if parent.Children[i].ID == nodeID {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			for j := range parent.Children {
				parent.Children[j].Rank = j + 1
			}
			return true
		}
		if removeChildNode(&parent.Children[i], nodeID) {
			return true
		}
	}
	return false
}

// AllNodeIDs returns the ids of every option node in the set, the synthetic
// root excluded.
func (os *OptionSet) AllNodeIDs() []string {
	ids := []string{}
	var collect func(nodes []OptionNode)
	collect = func(nodes []OptionNode) {
		for _, n := range nodes {
			ids = append(ids, n.ID)
			collect(n.Children)
		}
	}
	collect(os.Root.Children)
	return ids
}
