// Package npc models persistent NPC documents: standing toward the player,
// mortality, and the relationship edges the reputation chain reaction walks.
package npc

import (
	"errors"
	"time"
)

// ErrNotFound indicates no NPC document exists under the requested name.
var ErrNotFound = errors.New("npc not found")

// RelationKind classifies a relationship edge from one NPC to another.
type RelationKind string

const (
	// RelationAlly marks friends, family, and sworn brothers of an NPC.
	RelationAlly RelationKind = "ally"
	// RelationEnemy marks rivals and sworn enemies of an NPC.
	RelationEnemy RelationKind = "enemy"
)

// Relation is one edge in the NPC relationship graph.
type Relation struct {
	Name string       `json:"name"`
	Kind RelationKind `json:"kind"`
}

// NPC is the persistent NPC document.
type NPC struct {
	Name     string
	Location string
	// Friendliness is the NPC's standing toward the player; negative is
	// hostile.
	Friendliness int
	Deceased     bool
	// KilledBy records who struck the killing blow, when known.
	KilledBy  string
	Relations []Relation
	UpdatedAt time.Time
}

// HostileToPlayer reports whether the NPC already bears the player ill will.
func (n *NPC) HostileToPlayer() bool {
	return n.Friendliness < 0
}

// RelationsOfKind returns the names of all related NPCs with the given kind.
func (n *NPC) RelationsOfKind(kind RelationKind) []string {
	var names []string
	for _, r := range n.Relations {
		if r.Kind == kind {
			names = append(names, r.Name)
		}
	}
	return names
}
