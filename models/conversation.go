package models

import "time"

// Conversation is a private thread between exactly two users. The pair is
// stored ordered (ParticipantA < ParticipantB) so the composite unique index
// covers the unordered pair.
type Conversation struct {
	ID            string    `gorm:"primaryKey;size:8"`
	ParticipantA  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair;index"`
	ParticipantB  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair;index"`
	LastMessageAt time.Time `gorm:"index"`
	LastMessageID *uint
	CreatedAt     time.Time
	Messages      []ConversationMessage `gorm:"constraint:OnDelete:CASCADE"`
}

// OrderedPair returns the two ids with the smaller one first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(uid uint) bool {
	return c.ParticipantA == uid || c.ParticipantB == uid
}

// Other returns the participant that is not uid. The result is only
// meaningful when uid is a participant.
func (c *Conversation) Other(uid uint) uint {
	if c.ParticipantA == uid {
		return c.ParticipantB
	}
	return c.ParticipantA
}
