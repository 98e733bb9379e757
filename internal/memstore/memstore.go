// Package memstore keeps every record in process memory. It backs the server
// when no database is configured and doubles as the store in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"influencer-hub-backend/internal/models"
)

type Store struct {
	mu sync.RWMutex

	nextOrderNumber int64
	orders          map[uuid.UUID]*models.Order
	messages        map[string][]models.Message
	blocks          map[string]models.Block
	profiles        map[string]models.Profile
	usernames       map[string]string
	likes           map[string]models.Like
}

// New returns an empty store whose first order number is firstOrderNumber.
func New(firstOrderNumber int64) *Store {
	return &Store{
		nextOrderNumber: firstOrderNumber,
		orders:          make(map[uuid.UUID]*models.Order),
		messages:        make(map[string][]models.Message),
		blocks:          make(map[string]models.Block),
		profiles:        make(map[string]models.Profile),
		usernames:       make(map[string]string),
		likes:           make(map[string]models.Like),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// Orders

func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nextOrderNumber
	s.nextOrderNumber++
	return n, nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := copyOrder(order)
	s.orders[order.ID] = &stored
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := copyOrder(order)
	return &out, nil
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if filter.BrandID != "" && o.BrandID != filter.BrandID {
			continue
		}
		if filter.InfluencerID != "" && o.InfluencerID != filter.InfluencerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		orders = append(orders, copyOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderNumber < orders[j].OrderNumber })
	return orders, nil
}

func (s *Store) TransitionOrder(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, startedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(orderID, from, to, startedAt)
}

func (s *Store) transitionLocked(orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, startedAt *time.Time) error {
	order, ok := s.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	if !containsStatus(from, order.Status) {
		return models.ErrInvalidTransition
	}
	order.Status = to
	if startedAt != nil {
		t := *startedAt
		order.StartedAt = &t
	}
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AddSubmission(ctx context.Context, file *models.SubmissionFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[file.OrderID]
	if !ok {
		return models.ErrNotFound
	}
	order.Submission = append(order.Submission, *file)
	return nil
}

func (s *Store) AddRevision(ctx context.Context, revision *models.Revision, from []models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(revision.OrderID, from, models.StatusRevise, nil); err != nil {
		return err
	}
	order := s.orders[revision.OrderID]
	order.Revisions = append(order.Revisions, *revision)
	return nil
}

func (s *Store) MarkSubmissionsSeen(ctx context.Context, orderID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return 0, models.ErrNotFound
	}
	n := 0
	for i := range order.Submission {
		if !order.Submission[i].SeenByBrand {
			order.Submission[i].SeenByBrand = true
			n++
		}
	}
	return n, nil
}

func (s *Store) MarkRevisionsSeen(ctx context.Context, orderID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return 0, models.ErrNotFound
	}
	n := 0
	for i := range order.Revisions {
		if !order.Revisions[i].SeenByInfluencer {
			order.Revisions[i].SeenByInfluencer = true
			n++
		}
	}
	return n, nil
}

func (s *Store) ListSubmissionsByInfluencer(ctx context.Context, influencerID string) ([]models.SubmissionFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := []models.SubmissionFile{}
	for _, o := range s.orders {
		for _, f := range o.Submission {
			if f.InfluencerID == influencerID {
				files = append(files, f)
			}
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].SubmittedAt.Before(files[j].SubmittedAt) })
	return files, nil
}

// Messages

func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := append([]models.Message{}, s.messages[conversationID]...)
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].SentAt.Before(messages[j].SentAt) })
	return messages, nil
}

func (s *Store) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	messages := s.messages[conversationID]
	for i := range messages {
		if messages[i].ReceiverID == readerID && !messages[i].Read {
			messages[i].Read = true
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteMessages(ctx context.Context, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages[conversationID])
	delete(s.messages, conversationID)
	return n, nil
}

func (s *Store) Inbox(ctx context.Context, userID string) ([]models.InboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := []models.InboxEntry{}
	for conversationID, messages := range s.messages {
		var entry *models.InboxEntry
		for _, m := range messages {
			if m.SenderID != userID && m.ReceiverID != userID {
				continue
			}
			if entry == nil {
				peer := m.ReceiverID
				if peer == userID {
					peer = m.SenderID
				}
				entry = &models.InboxEntry{ConversationID: conversationID, PeerID: peer}
			}
			if m.ReceiverID == userID && !m.Read {
				entry.Unread++
			}
			if m.SentAt.After(entry.LastMessageAt) {
				entry.LastMessageAt = m.SentAt
			}
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].LastMessageAt.After(entries[j].LastMessageAt) })
	return entries, nil
}

// Blocks

func (s *Store) GetBlock(ctx context.Context, key string) (*models.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &b, nil
}

func (s *Store) PutBlock(ctx context.Context, block models.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{block.BlockerID + "_" + block.BlockedID, block.BlockedID + "_" + block.BlockerID} {
		if _, exists := s.blocks[key]; !exists {
			s.blocks[key] = block
		}
	}
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, a+"_"+b)
	delete(s.blocks, b+"_"+a)
	return nil
}

// Profiles

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := copyProfile(p)
	return &out, nil
}

func (s *Store) GetProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := []models.Profile{}
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			profiles = append(profiles, copyProfile(p))
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })
	return profiles, nil
}

func (s *Store) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := []models.Profile{}
	for _, p := range s.profiles {
		if p.Role == role {
			profiles = append(profiles, copyProfile(p))
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })
	return profiles, nil
}

func (s *Store) ClaimUsername(ctx context.Context, username, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.usernames[username]; ok && owner != userID {
		return models.ErrUsernameTaken
	}
	for name, owner := range s.usernames {
		if owner == userID && name != username {
			delete(s.usernames, name)
		}
	}
	s.usernames[username] = userID
	return nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := copyProfile(*profile)
	if existing, ok := s.profiles[p.UserID]; ok && p.ImageURL == "" {
		p.ImageURL = existing.ImageURL
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) SetProfileImage(ctx context.Context, userID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.ErrNotFound
	}
	p.ImageURL = imageURL
	p.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = p
	return nil
}

// Likes

func likeKey(brandID, influencerID string) string {
	return brandID + "_" + influencerID
}

func (s *Store) SetLike(ctx context.Context, like models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes[likeKey(like.BrandID, like.InfluencerID)] = like
	return nil
}

func (s *Store) GetLike(ctx context.Context, brandID, influencerID string) (*models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	like, ok := s.likes[likeKey(brandID, influencerID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &like, nil
}

func (s *Store) ListLikes(ctx context.Context, userID string) ([]models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	likes := []models.Like{}
	for _, like := range s.likes {
		if like.State == models.Liked && (like.BrandID == userID || like.InfluencerID == userID) {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i].UpdatedAt.After(likes[j].UpdatedAt) })
	return likes, nil
}

func copyOrder(o *models.Order) models.Order {
	out := *o
	if o.StartedAt != nil {
		t := *o.StartedAt
		out.StartedAt = &t
	}
	out.Submission = append([]models.SubmissionFile{}, o.Submission...)
	out.Revisions = append([]models.Revision{}, o.Revisions...)
	return out
}

func copyProfile(p models.Profile) models.Profile {
	if p.Platforms != nil {
		platforms := make(map[string]models.PlatformStats, len(p.Platforms))
		for k, v := range p.Platforms {
			platforms[k] = v
		}
		p.Platforms = platforms
	}
	return p
}

func containsStatus(statuses []models.OrderStatus, s models.OrderStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
