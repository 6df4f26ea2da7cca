package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"Strimoid/models"
)

// memUsers is an in-memory UserDirectory.
type memUsers struct {
	byName map[string]*models.User
	blocks map[[2]uint]bool
	err    error
}

func newMemUsers(names ...string) *memUsers {
	u := &memUsers{byName: map[string]*models.User{}, blocks: map[[2]uint]bool{}}
	for i, n := range names {
		u.byName[strings.ToLower(n)] = &models.User{Name: n, ShadowName: strings.ToLower(n)}
		u.byName[strings.ToLower(n)].ID = uint(i + 1)
	}
	return u
}

func (m *memUsers) id(name string) uint {
	return m.byName[strings.ToLower(name)].ID
}

func (m *memUsers) ResolveByName(_ context.Context, name string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *memUsers) IsBlocking(_ context.Context, blocker, blockee uint) (bool, error) {
	return m.blocks[[2]uint{blocker, blockee}], nil
}

// memState is the data shared by the in-memory stores.
type memState struct {
	convs         map[string]models.Conversation
	msgs          []models.ConversationMessage
	notifications []models.Notification
	nextID        uint
}

func (s *memState) clone() *memState {
	c := &memState{convs: map[string]models.Conversation{}, nextID: s.nextID}
	for k, v := range s.convs {
		c.convs[k] = v
	}
	c.msgs = append(c.msgs, s.msgs...)
	c.notifications = append(c.notifications, s.notifications...)
	return c
}

// memDB hands out stores over a committed state and a transactor that
// works on a copy, committing it only when fn succeeds.
type memDB struct {
	mu    sync.Mutex
	state *memState
	clock time.Time

	// hooks for failure injection
	upsertErr   error
	upsertErrs  []error // consumed one per call
	createErr   error
	findMisses  int
	beforeWrite func(ctx context.Context)
}

func newMemDB() *memDB {
	return &memDB{
		state: &memState{convs: map[string]models.Conversation{}},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (d *memDB) stores(st *memState) Stores {
	return Stores{
		Conversations: &memConversations{db: d, st: st},
		Notifications: &memNotifications{db: d, st: st},
	}
}

// Stores returns stores reading the committed state.
func (d *memDB) Stores() Stores {
	return d.stores(d.state)
}

func (d *memDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := d.state.clone()
	if err := fn(ctx, d.stores(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	*d.state = *work
	return nil
}

func (d *memDB) conversations() []models.Conversation {
	var out []models.Conversation
	for _, c := range d.state.convs {
		out = append(out, c)
	}
	return out
}

type memConversations struct {
	db *memDB
	st *memState
}

func (m *memConversations) FindByParticipants(_ context.Context, a, b uint) (*models.Conversation, error) {
	if m.db.findMisses > 0 {
		m.db.findMisses--
		return nil, ErrNotFound
	}
	lo, hi := models.OrderedPair(a, b)
	for _, c := range m.st.convs {
		if c.ParticipantA == lo && c.ParticipantB == hi {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memConversations) Create(_ context.Context, a, b uint) (*models.Conversation, error) {
	if m.db.createErr != nil {
		return nil, m.db.createErr
	}
	lo, hi := models.OrderedPair(a, b)
	for _, c := range m.st.convs {
		if c.ParticipantA == lo && c.ParticipantB == hi {
			return nil, ErrConflict
		}
	}
	c := models.Conversation{ID: fmt.Sprintf("c%07d", len(m.st.convs)+1), ParticipantA: lo, ParticipantB: hi}
	m.st.convs[c.ID] = c
	return &c, nil
}

func (m *memConversations) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	c, ok := m.st.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memConversations) AppendMessage(ctx context.Context, conv *models.Conversation, author uint, text string) (*models.ConversationMessage, error) {
	if !conv.HasParticipant(author) {
		return nil, invalid("author", "not a participant")
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if m.db.beforeWrite != nil {
		m.db.beforeWrite(ctx)
	}
	m.db.clock = m.db.clock.Add(time.Second)
	m.st.nextID++
	msg := models.ConversationMessage{ID: m.st.nextID, ConversationID: conv.ID, UserID: author, Text: text, CreatedAt: m.db.clock}
	m.st.msgs = append(m.st.msgs, msg)
	c := m.st.convs[conv.ID]
	c.LastMessageAt = msg.CreatedAt
	c.LastMessageID = &msg.ID
	m.st.convs[conv.ID] = c
	return &msg, nil
}

func (m *memConversations) ListForUser(_ context.Context, uid uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range m.st.convs {
		if c.HasParticipant(uid) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (m *memConversations) ListMessages(_ context.Context, conv *models.Conversation, pageSize, pageOffset int) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for i := len(m.st.msgs) - 1; i >= 0; i-- {
		if m.st.msgs[i].ConversationID == conv.ID {
			out = append(out, m.st.msgs[i])
		}
	}
	return page(out, pageSize, pageOffset), nil
}

func (m *memConversations) ListMessagesForUser(_ context.Context, uid uint, pageSize, pageOffset int) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for i := len(m.st.msgs) - 1; i >= 0; i-- {
		c := m.st.convs[m.st.msgs[i].ConversationID]
		if c.HasParticipant(uid) {
			out = append(out, m.st.msgs[i])
		}
	}
	return page(out, pageSize, pageOffset), nil
}

func page[T any](items []T, size, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type memNotifications struct {
	db *memDB
	st *memState
}

func (m *memNotifications) RemovePending(_ context.Context, typ, conversationID string, recipientID uint) error {
	kept := m.st.notifications[:0:0]
	for _, n := range m.st.notifications {
		if n.Type == typ && n.ConversationID != nil && *n.ConversationID == conversationID && n.UserID == recipientID {
			continue
		}
		kept = append(kept, n)
	}
	m.st.notifications = kept
	return nil
}

func (m *memNotifications) Upsert(ctx context.Context, typ, conversationID string, recipientID uint, title string) error {
	if m.db.upsertErr != nil {
		return m.db.upsertErr
	}
	if len(m.db.upsertErrs) > 0 {
		err := m.db.upsertErrs[0]
		m.db.upsertErrs = m.db.upsertErrs[1:]
		return err
	}
	if err := m.RemovePending(ctx, typ, conversationID, recipientID); err != nil {
		return err
	}
	id := conversationID
	m.st.notifications = append(m.st.notifications, models.Notification{Type: typ, ConversationID: &id, UserID: recipientID, Title: title})
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]Event
	err    error
}

func (p *recordingPublisher) Publish(userID uint, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = map[uint][]Event{}
	}
	p.events[userID] = append(p.events[userID], ev)
	return p.err
}

var errBoom = errors.New("boom")
