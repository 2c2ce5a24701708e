package repositories

import (
	"context"
	"time"

	"github.com/freelance-marketplace/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

// CreateRoom inserts a room; the unique (chat_type, reference_id) index
// guarantees one room per reference. Callers handle the conflict by
// fetching the existing row.
func (r *ChatRepo) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_rooms (chat_type, reference_id, client_id, freelancer_id, status, original_bid_id, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, last_activity_at, created_at, updated_at
	`, room.ChatType, room.ReferenceID, room.ClientID, room.FreelancerID, room.Status, room.OriginalBidID,
	).Scan(&room.ID, &room.LastActivityAt, &room.CreatedAt, &room.UpdatedAt)
}

func (r *ChatRepo) GetRoomByID(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	return r.scanRoom(ctx, `WHERE id = $1`, id)
}

func (r *ChatRepo) GetRoomByReference(ctx context.Context, chatType string, referenceID uuid.UUID) (*models.ChatRoom, error) {
	return r.scanRoom(ctx, `WHERE chat_type = $1 AND reference_id = $2`, chatType, referenceID)
}

func (r *ChatRepo) scanRoom(ctx context.Context, where string, args ...any) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.pool.QueryRow(ctx, `
		SELECT id, chat_type, reference_id, client_id, freelancer_id, status,
		       original_bid_id, last_activity_at, created_at, updated_at
		FROM chat_rooms `+where, args...,
	).Scan(&room.ID, &room.ChatType, &room.ReferenceID, &room.ClientID, &room.FreelancerID,
		&room.Status, &room.OriginalBidID, &room.LastActivityAt, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ConvertToContract mutates a negotiation room in place: same row and
// message history, new chat type and reference, bid id preserved. The
// status guard makes conversion of an already-converted room a no-op.
func (r *ChatRepo) ConvertToContract(ctx context.Context, roomID, contractID, bidID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_rooms
		SET chat_type = $1, reference_id = $2, original_bid_id = $3, status = $4,
		    last_activity_at = now(), updated_at = now()
		WHERE id = $5 AND chat_type = $6
	`, models.ChatTypeContract, contractID, bidID, models.ChatStatusActive, roomID, models.ChatTypeBidNegotiation)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChatRepo) UpdateRoomStatus(ctx context.Context, roomID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_rooms SET status = $1, updated_at = now() WHERE id = $2
	`, status, roomID)
	return err
}

func (r *ChatRepo) ListRoomsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ChatRoomWithPreview, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT cr.id, cr.chat_type, cr.reference_id, cr.client_id, cr.freelancer_id, cr.status,
		       cr.original_bid_id, cr.last_activity_at, cr.created_at, cr.updated_at,
		       (SELECT content FROM chat_messages m WHERE m.chat_room_id = cr.id ORDER BY m.created_at DESC LIMIT 1),
		       (SELECT COUNT(*) FROM chat_messages m
		        WHERE m.chat_room_id = cr.id AND m.is_read = false
		          AND (m.sender_id IS NULL OR m.sender_id <> $1))
		FROM chat_rooms cr
		WHERE cr.client_id = $1 OR cr.freelancer_id = $1
		ORDER BY cr.last_activity_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roomsOut []models.ChatRoomWithPreview
	for rows.Next() {
		var room models.ChatRoomWithPreview
		if err := rows.Scan(&room.ID, &room.ChatType, &room.ReferenceID, &room.ClientID, &room.FreelancerID,
			&room.Status, &room.OriginalBidID, &room.LastActivityAt, &room.CreatedAt, &room.UpdatedAt,
			&room.LastMessage, &room.UnreadCount); err != nil {
			return nil, err
		}
		roomsOut = append(roomsOut, room)
	}
	return roomsOut, rows.Err()
}

// ListArchivableRooms returns contract rooms idle past the cutoff whose
// contract has finished. Used by the daily archival sweep.
func (r *ChatRepo) ListArchivableRooms(ctx context.Context, idleSince time.Time, limit int) ([]models.ChatRoom, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT cr.id, cr.chat_type, cr.reference_id, cr.client_id, cr.freelancer_id, cr.status,
		       cr.original_bid_id, cr.last_activity_at, cr.created_at, cr.updated_at
		FROM chat_rooms cr
		JOIN contracts c ON c.id = cr.reference_id
		WHERE cr.chat_type = $1 AND cr.status IN ($2, $3)
		  AND cr.last_activity_at < $4
		  AND c.status IN ($5, $6)
		LIMIT $7
	`, models.ChatTypeContract, models.ChatStatusActive, models.ChatStatusCompleted, idleSince,
		models.ContractStatusCompleted, models.ContractStatusCancelled, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatRoom
	for rows.Next() {
		var room models.ChatRoom
		if err := rows.Scan(&room.ID, &room.ChatType, &room.ReferenceID, &room.ClientID, &room.FreelancerID,
			&room.Status, &room.OriginalBidID, &room.LastActivityAt, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// --- Messages ---

// InsertMessage appends a message and bumps the room's activity timestamp.
func (r *ChatRepo) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (chat_room_id, sender_id, sender_type, message_type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, msg.ChatRoomID, msg.SenderID, msg.SenderType, msg.MessageType, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE chat_rooms SET last_activity_at = $1, updated_at = $1 WHERE id = $2
	`, msg.CreatedAt, msg.ChatRoomID)
	return err
}

func (r *ChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, chat_room_id, sender_id, sender_type, message_type, content, is_read, created_at
		FROM chat_messages
		WHERE chat_room_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatRoomID, &m.SenderID, &m.SenderType, &m.MessageType,
			&m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead marks everything not sent by the reader as read.
func (r *ChatRepo) MarkRead(ctx context.Context, roomID, readerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_messages SET is_read = true
		WHERE chat_room_id = $1 AND is_read = false
		  AND (sender_id IS NULL OR sender_id <> $2)
	`, roomID, readerID)
	return err
}

func (r *ChatRepo) UnreadCount(ctx context.Context, roomID, readerID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM chat_messages
		WHERE chat_room_id = $1 AND is_read = false
		  AND (sender_id IS NULL OR sender_id <> $2)
	`, roomID, readerID).Scan(&n)
	return n, err
}
