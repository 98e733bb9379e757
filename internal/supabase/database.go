package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"influencer-hub-backend/internal/models"
)

// DatabaseClient talks to the Supabase Postgres instance directly.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Orders

const orderColumns = `id, order_number, brand_id, influencer_id, details, cost, deadline_days,
	status, started_at, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order     models.Order
		status    string
		startedAt sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.BrandID, &order.InfluencerID, &order.Details,
		&order.Cost, &order.DeadlineDays, &status, &startedAt, &order.ImageURL,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		order.StartedAt = &t
	}
	order.Submission = []models.SubmissionFile{}
	order.Revisions = []models.Revision{}
	return &order, nil
}

// NextOrderNumber draws from a database sequence, so concurrent creators
// never share a number.
func (d *DatabaseClient) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to allocate order number: %w", err)
	}
	return n, nil
}

func (d *DatabaseClient) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, brand_id, influencer_id, details, cost, deadline_days,
			status, started_at, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, order.ID, order.OrderNumber, order.BrandID, order.InfluencerID, order.Details, order.Cost,
		order.DeadlineDays, string(order.Status), order.StartedAt, order.ImageURL, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := scanOrder(d.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := d.attachLogs(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR brand_id = $1)
		  AND ($2 = '' OR influencer_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY order_number ASC
	`, filter.BrandID, filter.InfluencerID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var list []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := d.attachLogs(ctx, list); err != nil {
		return nil, err
	}
	orders := make([]models.Order, len(list))
	for i, o := range list {
		orders[i] = *o
	}
	return orders, nil
}

// attachLogs loads submissions and revisions for a batch of orders.
func (d *DatabaseClient) attachLogs(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	ids := make([]string, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		ids[i] = o.ID.String()
	}

	files, err := d.querySubmissions(ctx, `WHERE order_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return err
	}
	for _, f := range files {
		if o, ok := byID[f.OrderID]; ok {
			o.Submission = append(o.Submission, f)
		}
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, order_id, text, revised_at, seen_by_influencer
		FROM order_revisions
		WHERE order_id = ANY($1::uuid[])
		ORDER BY revised_at ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to get revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rev models.Revision
		if err := rows.Scan(&rev.ID, &rev.OrderID, &rev.Text, &rev.RevisedAt, &rev.SeenByInfluencer); err != nil {
			return fmt.Errorf("failed to scan revision: %w", err)
		}
		if o, ok := byID[rev.OrderID]; ok {
			o.Revisions = append(o.Revisions, rev)
		}
	}
	return rows.Err()
}

func (d *DatabaseClient) querySubmissions(ctx context.Context, where string, args ...interface{}) ([]models.SubmissionFile, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, order_id, influencer_id, brand_id, file_url, file_type, storage_path, submitted_at, seen_by_brand
		FROM order_submissions
		`+where+`
		ORDER BY submitted_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	defer rows.Close()

	var files []models.SubmissionFile
	for rows.Next() {
		var f models.SubmissionFile
		err := rows.Scan(&f.ID, &f.OrderID, &f.InfluencerID, &f.BrandID, &f.FileURL, &f.FileType,
			&f.StoragePath, &f.SubmittedAt, &f.SeenByBrand)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func statusStrings(statuses []models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// transitionExec moves an order to `to` only if its current status is one of
// `from`. Zero affected rows is resolved to ErrNotFound or ErrInvalidTransition.
func transitionExec(ctx context.Context, db execer, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, startedAt *time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, started_at = COALESCE($2::timestamptz, started_at), updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`, string(to), startedAt, orderID, pq.Array(statusStrings(from)))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return models.ErrNotFound
	}
	return models.ErrInvalidTransition
}

func (d *DatabaseClient) TransitionOrder(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, startedAt *time.Time) error {
	return transitionExec(ctx, d.db, orderID, from, to, startedAt)
}

func (d *DatabaseClient) AddSubmission(ctx context.Context, file *models.SubmissionFile) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO order_submissions (id, order_id, influencer_id, brand_id, file_url, file_type, storage_path, submitted_at, seen_by_brand)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, file.ID, file.OrderID, file.InfluencerID, file.BrandID, file.FileURL, file.FileType,
		file.StoragePath, file.SubmittedAt, file.SeenByBrand)
	if err != nil {
		return fmt.Errorf("failed to add submission: %w", err)
	}
	return nil
}

func (d *DatabaseClient) AddRevision(ctx context.Context, revision *models.Revision, from []models.OrderStatus) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := transitionExec(ctx, tx, revision.OrderID, from, models.StatusRevise, nil); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_revisions (id, order_id, text, revised_at, seen_by_influencer)
		VALUES ($1, $2, $3, $4, $5)
	`, revision.ID, revision.OrderID, revision.Text, revision.RevisedAt, revision.SeenByInfluencer)
	if err != nil {
		return fmt.Errorf("failed to add revision: %w", err)
	}
	return tx.Commit()
}

func (d *DatabaseClient) MarkSubmissionsSeen(ctx context.Context, orderID uuid.UUID) (int, error) {
	return d.execCount(ctx, `
		UPDATE order_submissions SET seen_by_brand = TRUE
		WHERE order_id = $1 AND NOT seen_by_brand
	`, orderID)
}

func (d *DatabaseClient) MarkRevisionsSeen(ctx context.Context, orderID uuid.UUID) (int, error) {
	return d.execCount(ctx, `
		UPDATE order_revisions SET seen_by_influencer = TRUE
		WHERE order_id = $1 AND NOT seen_by_influencer
	`, orderID)
}

func (d *DatabaseClient) ListSubmissionsByInfluencer(ctx context.Context, influencerID string) ([]models.SubmissionFile, error) {
	return d.querySubmissions(ctx, `WHERE influencer_id = $1`, influencerID)
}

// Messages

func (d *DatabaseClient) AppendMessage(ctx context.Context, msg *models.Message) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, body, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Body, msg.SentAt, msg.Read)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, body, sent_at, read
		FROM messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC, seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Body, &m.SentAt, &m.Read); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (d *DatabaseClient) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	return d.execCount(ctx, `
		UPDATE messages SET read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND NOT read
	`, conversationID, readerID)
}

func (d *DatabaseClient) DeleteMessages(ctx context.Context, conversationID string) (int, error) {
	return d.execCount(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
}

func (d *DatabaseClient) Inbox(ctx context.Context, userID string) ([]models.InboxEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT conversation_id,
		       CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer_id,
		       COUNT(*) FILTER (WHERE receiver_id = $1 AND NOT read) AS unread,
		       MAX(sent_at) AS last_message_at
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		GROUP BY conversation_id, peer_id
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	defer rows.Close()

	entries := []models.InboxEntry{}
	for rows.Next() {
		var e models.InboxEntry
		if err := rows.Scan(&e.ConversationID, &e.PeerID, &e.Unread, &e.LastMessageAt); err != nil {
			return nil, fmt.Errorf("failed to scan inbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Blocks

func (d *DatabaseClient) GetBlock(ctx context.Context, key string) (*models.Block, error) {
	var b models.Block
	err := d.db.QueryRowContext(ctx, `
		SELECT blocker_id, blocked_id, created_at FROM blocks WHERE block_key = $1
	`, key).Scan(&b.BlockerID, &b.BlockedID, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return &b, nil
}

func (d *DatabaseClient) PutBlock(ctx context.Context, block models.Block) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO blocks (block_key, blocker_id, blocked_id, created_at)
		VALUES ($1, $3, $4, $5), ($2, $3, $4, $5)
		ON CONFLICT (block_key) DO NOTHING
	`, block.BlockerID+"_"+block.BlockedID, block.BlockedID+"_"+block.BlockerID,
		block.BlockerID, block.BlockedID, block.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store block: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeleteBlock(ctx context.Context, a, b string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM blocks WHERE block_key IN ($1, $2)`, a+"_"+b, b+"_"+a)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	return nil
}

// Profiles

const profileColumns = `user_id, username, role, name, category, bio, location, image_url, platforms, created_at, updated_at`

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p         models.Profile
		role      string
		platforms []byte
	)
	err := row.Scan(&p.UserID, &p.Username, &role, &p.Name, &p.Category, &p.Bio, &p.Location,
		&p.ImageURL, &platforms, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	if len(platforms) > 0 {
		if err := json.Unmarshal(platforms, &p.Platforms); err != nil {
			return nil, fmt.Errorf("failed to decode platforms: %w", err)
		}
	}
	return &p, nil
}

func (d *DatabaseClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := scanProfile(d.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE user_id = $1
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (d *DatabaseClient) GetProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE user_id = ANY($1) ORDER BY username
	`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (d *DatabaseClient) ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY username
	`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// ClaimUsername reserves username for userID and releases any username the
// user held before. It fails with ErrUsernameTaken if someone else owns it.
func (d *DatabaseClient) ClaimUsername(ctx context.Context, username, userID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO usernames (username, user_id) VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING
	`, username, userID); err != nil {
		return fmt.Errorf("failed to claim username: %w", err)
	}

	var owner string
	if err := tx.QueryRowContext(ctx, `SELECT user_id FROM usernames WHERE username = $1`, username).Scan(&owner); err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if owner != userID {
		return models.ErrUsernameTaken
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM usernames WHERE user_id = $1 AND username <> $2
	`, userID, username); err != nil {
		return fmt.Errorf("failed to release username: %w", err)
	}
	return tx.Commit()
}

func (d *DatabaseClient) UpsertProfile(ctx context.Context, p *models.Profile) error {
	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return fmt.Errorf("failed to encode platforms: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, username, role, name, category, bio, location, image_url, platforms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			role = EXCLUDED.role,
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			image_url = CASE WHEN EXCLUDED.image_url = '' THEN profiles.image_url ELSE EXCLUDED.image_url END,
			platforms = EXCLUDED.platforms,
			updated_at = EXCLUDED.updated_at
	`, p.UserID, p.Username, string(p.Role), p.Name, p.Category, p.Bio, p.Location, p.ImageURL,
		platforms, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (d *DatabaseClient) SetProfileImage(ctx context.Context, userID, imageURL string) error {
	n, err := d.execCount(ctx, `
		UPDATE profiles SET image_url = $1, updated_at = NOW() WHERE user_id = $2
	`, imageURL, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Likes

func (d *DatabaseClient) SetLike(ctx context.Context, like models.Like) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO likes (brand_id, influencer_id, state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (brand_id, influencer_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`, like.BrandID, like.InfluencerID, string(like.State), like.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save like: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetLike(ctx context.Context, brandID, influencerID string) (*models.Like, error) {
	var (
		like  models.Like
		state string
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT brand_id, influencer_id, state, updated_at FROM likes
		WHERE brand_id = $1 AND influencer_id = $2
	`, brandID, influencerID).Scan(&like.BrandID, &like.InfluencerID, &state, &like.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	like.State = models.LikeState(state)
	return &like, nil
}

// ListLikes returns liked relations where the user is either side.
func (d *DatabaseClient) ListLikes(ctx context.Context, userID string) ([]models.Like, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT brand_id, influencer_id, state, updated_at FROM likes
		WHERE (brand_id = $1 OR influencer_id = $1) AND state = 'liked'
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	likes := []models.Like{}
	for rows.Next() {
		var (
			like  models.Like
			state string
		)
		if err := rows.Scan(&like.BrandID, &like.InfluencerID, &state, &like.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		like.State = models.LikeState(state)
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

func (d *DatabaseClient) execCount(ctx context.Context, query string, args ...interface{}) (int, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
