// File path: internal/orchestrator/context.go
package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/rowadtech/mostashar/internal/normalize"
)

// historyLimit bounds the conversation memory.
const historyLimit = 10

// HistoryEntry is one remembered exchange.
type HistoryEntry struct {
	Query     string `json:"query"`
	QueryType string `json:"query_type"`
	Answer    string `json:"answer,omitempty"`
	Success   bool   `json:"success"`
	Timestamp int64  `json:"timestamp"`
}

// ContextMemory is the persisted conversation state: a bounded FIFO history
// plus the last resolved entity used for pronoun resolution.
type ContextMemory struct {
	History    []HistoryEntry `json:"history"`
	LastEntity string         `json:"last_entity,omitempty"`
	LastIntent string         `json:"last_intent,omitempty"`
}

// remember appends an exchange, evicting the oldest entry past the limit,
// and tracks the most recent concrete entity for pronoun resolution.
func (c *ContextMemory) remember(entry HistoryEntry, intent string, entities normalize.Entities) {
	entry.Timestamp = time.Now().Unix()
	c.History = append(c.History, entry)
	if len(c.History) > historyLimit {
		c.History = c.History[len(c.History)-historyLimit:]
	}
	if entity := primaryEntity(entities); entity != "" {
		c.LastEntity = entity
	}
	if intent != "" {
		c.LastIntent = intent
	}
}

// primaryEntity picks the entity a follow-up pronoun most likely refers to.
func primaryEntity(entities normalize.Entities) string {
	if len(entities.Activities) > 0 {
		return entities.Activities[0]
	}
	if len(entities.Locations) > 0 {
		return entities.Locations[0]
	}
	if len(entities.Governorates) > 0 {
		return entities.Governorates[0]
	}
	return ""
}

func (c *ContextMemory) marshal() []byte {
	data, err := json.Marshal(c)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func (c *ContextMemory) restore(data []byte) {
	if len(data) == 0 {
		return
	}
	var loaded ContextMemory
	if err := json.Unmarshal(data, &loaded); err != nil {
		return
	}
	*c = loaded
	if len(c.History) > historyLimit {
		c.History = c.History[len(c.History)-historyLimit:]
	}
}
