package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"stakemarket/internal/domain/entity"
	ws "stakemarket/internal/infrastructure/websocket"
	"stakemarket/pkg/errors"
)

// callLog records ordered side effects across fakes, so tests can assert
// ordering invariants like revoke-before-disconnect.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	byKey map[string]*entity.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{byKey: make(map[string]*entity.Conversation)}
}

func (r *fakeConversationRepo) FindOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byKey[conv.ChannelKey]; ok {
		return existing, false, nil
	}
	now := time.Now()
	conv.ID = conv.ChannelKey
	conv.CreatedAt = now
	conv.UpdatedAt = now
	r.byKey[conv.ChannelKey] = conv
	return conv, true, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.byKey[id]; ok {
		return conv, nil
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) GetByChannelKey(ctx context.Context, channelKey string, kind entity.ConversationKind) (*entity.Conversation, error) {
	conv, err := r.GetByID(ctx, channelKey)
	if err != nil {
		return nil, err
	}
	if conv.Kind != kind {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conv, nil
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, principalID string, kind entity.ConversationKind, limit, offset int) ([]*entity.Conversation, int64, error) {
	all, _ := r.ListAllByParticipant(ctx, principalID)
	var matched []*entity.Conversation
	for _, conv := range all {
		if conv.Kind == kind {
			matched = append(matched, conv)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeConversationRepo) ListAllByParticipant(ctx context.Context, principalID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Conversation
	for _, conv := range r.byKey {
		if conv.HasParticipant(principalID) {
			matched = append(matched, conv)
		}
	}
	return matched, nil
}

func (r *fakeConversationRepo) AddParticipant(ctx context.Context, conversationID string, p entity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byKey[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.AddParticipant(p)
	return nil
}

func (r *fakeConversationRepo) AppendMessageID(ctx context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byKey[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.MessageIDs = append(conv.MessageIDs, messageID)
	return nil
}

type fakeMessageRepo struct {
	mu    sync.Mutex
	byID  map[string]*entity.Message
	order []string
	seq   int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: make(map[string]*entity.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if message.ID == "" {
		message.ID = fmt.Sprintf("msg-%d", r.seq)
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	}
	message.ReceiverIDs = nil
	if message.Receiver != nil {
		message.ReceiverIDs = append(message.ReceiverIDs, message.Receiver.ID)
	}
	for _, rec := range message.Receivers {
		message.ReceiverIDs = append(message.ReceiverIDs, rec.ID)
	}
	r.byID[message.ID] = message
	r.order = append(r.order, message.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string, msgType entity.MessageType, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Message
	for i := len(r.order) - 1; i >= 0; i-- {
		m := r.byID[r.order[i]]
		if m.ConversationID == conversationID && m.Type == msgType {
			matched = append(matched, m)
		}
	}
	total := int64(len(matched))
	start := offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return matched[start:end], total, nil
}

func (r *fakeMessageRepo) ListBefore(ctx context.Context, conversationID, messageID string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var prior []*entity.Message
	for _, id := range r.order {
		if id == messageID {
			break
		}
		if m := r.byID[id]; m.ConversationID == conversationID {
			prior = append(prior, m)
		}
	}
	if limit > 0 && len(prior) > limit {
		prior = prior[len(prior)-limit:]
	}
	return prior, nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *fakeMessageRepo) Mutate(ctx context.Context, id string, fn func(*entity.Message) error) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID string, msgType entity.MessageType, reader entity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.ConversationID == conversationID && m.Type == msgType && m.AddressedTo(reader.ID) {
			m.MarkReadBy(reader)
		}
	}
	return nil
}

func (r *fakeMessageRepo) HasUnread(ctx context.Context, conversationID string, msgType entity.MessageType, readerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.ConversationID == conversationID && m.Type == msgType && m.AddressedTo(readerID) && !m.IsReadBy(readerID) {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items []*entity.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = fmt.Sprintf("notif-%d", len(r.items)+1)
	r.items = append(r.items, n)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Notification
	for _, n := range r.items {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}
	return matched, int64(len(matched)), nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) byRecipient(recipientID string) []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Notification
	for _, n := range r.items {
		if n.RecipientID == recipientID {
			matched = append(matched, n)
		}
	}
	return matched
}

func (r *fakeNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeReportRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.MessageReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{byID: make(map[string]*entity.MessageReport)}
}

func (r *fakeReportRepo) Create(ctx context.Context, report *entity.MessageReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.ID == "" {
		report.ID = fmt.Sprintf("report-%d", len(r.byID)+1)
	}
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	r.byID[report.ID] = report
	return nil
}

func (r *fakeReportRepo) GetByID(ctx context.Context, id string) (*entity.MessageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report, ok := r.byID[id]; ok {
		return report, nil
	}
	return nil, errors.NotFound("Report", nil)
}

func (r *fakeReportRepo) FindByMessageID(ctx context.Context, messageID string) (*entity.MessageReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.byID {
		if report.MessageID == messageID {
			return report, nil
		}
	}
	return nil, errors.NotFound("Report", nil)
}

func (r *fakeReportRepo) List(ctx context.Context, limit, offset int) ([]*entity.MessageReport, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.MessageReport
	for _, report := range r.byID {
		all = append(all, report)
	}
	return all, int64(len(all)), nil
}

func (r *fakeReportRepo) Update(ctx context.Context, report *entity.MessageReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report.UpdatedAt = time.Now()
	r.byID[report.ID] = report
	return nil
}

type fakeDirectoryRepo struct {
	mu          sync.Mutex
	users       map[string]*entity.User
	admins      map[string]*entity.Admin
	adminsByRol map[string][]string
}

func newFakeDirectoryRepo() *fakeDirectoryRepo {
	return &fakeDirectoryRepo{
		users:       make(map[string]*entity.User),
		admins:      make(map[string]*entity.Admin),
		adminsByRol: make(map[string][]string),
	}
}

func (r *fakeDirectoryRepo) addUser(id, name, userType string) {
	r.users[id] = &entity.User{ID: id, FullName: name, Email: id + "@example.com", Type: userType, Status: entity.StatusActive}
}

func (r *fakeDirectoryRepo) addAdmin(id, name string, roles ...string) {
	r.admins[id] = &entity.Admin{ID: id, FullName: name, Email: id + "@example.com", Status: entity.StatusActive}
	for _, role := range roles {
		r.adminsByRol[role] = append(r.adminsByRol[role], id)
	}
}

func (r *fakeDirectoryRepo) GetUser(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeDirectoryRepo) GetAdmin(ctx context.Context, id string) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if admin, ok := r.admins[id]; ok {
		return admin, nil
	}
	return nil, errors.NotFound("Admin", nil)
}

func (r *fakeDirectoryRepo) AdminIDsByRole(ctx context.Context, roleTypes []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, role := range roleTypes {
		ids = append(ids, r.adminsByRol[role]...)
	}
	return ids, nil
}

func (r *fakeDirectoryRepo) UpdateUserStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return errors.NotFound("User", nil)
	}
	user.Status = status
	return nil
}

func (r *fakeDirectoryRepo) UpdateAdminStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	admin, ok := r.admins[id]
	if !ok {
		return errors.NotFound("Admin", nil)
	}
	admin.Status = status
	return nil
}

type fakeSessionRepo struct {
	mu     sync.Mutex
	tokens map[string]string
	log    *callLog
}

func newFakeSessionRepo(log *callLog) *fakeSessionRepo {
	return &fakeSessionRepo{tokens: make(map[string]string), log: log}
}

func (r *fakeSessionRepo) set(principal entity.Principal, token string) {
	r.tokens[principal.ID] = token
}

func (r *fakeSessionRepo) Get(ctx context.Context, principal entity.Principal) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[principal.ID]
	if !ok {
		return "", errors.Unauthorized("Session not found", nil)
	}
	return token, nil
}

func (r *fakeSessionRepo) Revoke(ctx context.Context, principal entity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, principal.ID)
	if r.log != nil {
		r.log.add("revoke:" + principal.ID)
	}
	return nil
}

// loggingConn reports its close into the shared call log, for ordering
// assertions against session revocation.
type loggingConn struct {
	id  string
	log *callLog
}

func (c *loggingConn) ReadMessage() (int, []byte, error) { return 0, nil, fmt.Errorf("closed") }
func (c *loggingConn) WriteMessage(int, []byte) error    { return nil }

func (c *loggingConn) Close() error {
	if c.log != nil {
		c.log.add("disconnect:" + c.id)
	}
	return nil
}

func connect(hub *ws.Hub, socketID string, p entity.Principal, log *callLog) *ws.Client {
	client := ws.NewClient(socketID, p, &loggingConn{id: socketID, log: log})
	hub.AddClient(client)
	return client
}

func receivedEvents(c *ws.Client) []ws.Envelope {
	var events []ws.Envelope
	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				return events
			}
			var env ws.Envelope
			if err := json.Unmarshal(frame, &env); err == nil {
				events = append(events, env)
			}
		default:
			return events
		}
	}
}
