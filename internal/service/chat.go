package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/umairdev1/project-management-tool/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatService struct {
	db       *gorm.DB
	emit     Emitter
	activity *ActivityService
	notify   *NotificationService
	projects *ProjectService
	now      func() time.Time
}

func NewChatService(db *gorm.DB, emit Emitter, activity *ActivityService, notify *NotificationService, projects *ProjectService) *ChatService {
	return &ChatService{db: db, emit: orNop(emit), activity: activity, notify: notify, projects: projects, now: time.Now}
}

func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

type RoomInput struct {
	Name        string
	Description string
	Type        models.RoomType
	ProjectID   string
	MemberIDs   []string
	IsPrivate   bool
}

// CreateRoom opens a room with the caller as a member. A direct room holds
// exactly two users; asking for an existing pair returns the existing room.
func (s *ChatService) CreateRoom(ctx context.Context, actor Actor, in RoomInput) (*models.ChatRoom, error) {
	members := uniqueIDs(append([]string{actor.UserID}, in.MemberIDs...))
	room := models.ChatRoom{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		IsActive:    true,
		IsPrivate:   in.IsPrivate,
		CreatedByID: actor.UserID,
	}
	switch in.Type {
	case models.RoomDirect:
		if len(members) != 2 {
			return nil, ErrInvalidInput
		}
		if existing, err := s.findDirect(ctx, members[0], members[1]); err != nil || existing != nil {
			return existing, err
		}
		room.IsPrivate = true
		if room.Name == "" {
			room.Name = "direct"
		}
	case models.RoomGroup:
		if room.Name == "" {
			return nil, ErrInvalidInput
		}
	case models.RoomProject:
		if in.ProjectID == "" || room.Name == "" {
			return nil, ErrInvalidInput
		}
		if _, err := s.projects.Authorize(ctx, actor, in.ProjectID, AccessManage); err != nil {
			return nil, err
		}
		room.ProjectID = &in.ProjectID
	default:
		return nil, ErrInvalidInput
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ? AND status = ?", members, models.UserActive).Count(&count).Error; err != nil {
		return nil, err
	}
	if int(count) != len(members) {
		return nil, ErrInvalidInput
	}

	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		rows := make([]models.ChatRoomMember, 0, len(members))
		for _, id := range members {
			rows = append(rows, models.ChatRoomMember{RoomID: room.ID, UserID: id, JoinedAt: now})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	for _, id := range members {
		s.emit.EmitToUser(id, "room_created", room)
	}
	return &room, nil
}

func (s *ChatService) findDirect(ctx context.Context, a, b string) (*models.ChatRoom, error) {
	both := s.db.Model(&models.ChatRoomMember{}).Select("room_id").
		Where("user_id IN ?", []string{a, b}).
		Group("room_id").
		Having("COUNT(*) = 2")
	var room models.ChatRoom
	err := s.db.WithContext(ctx).
		Where("type = ? AND is_active = ? AND id IN (?)", models.RoomDirect, true, both).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns the active rooms the user belongs to.
func (s *ChatService) ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	mine := s.db.Model(&models.ChatRoomMember{}).Select("room_id").Where("user_id = ?", userID)
	var out []models.ChatRoom
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND id IN (?)", true, mine).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

func (s *ChatService) GetRoom(ctx context.Context, actor Actor, roomID string) (*models.ChatRoom, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok && !actor.IsAdmin() {
		return nil, ErrNotFound
	}
	return room, nil
}

func (s *ChatService) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ChatRoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&n).Error
	return n > 0, err
}

// Members lists the user ids of a room.
func (s *ChatService) Members(ctx context.Context, roomID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.ChatRoomMember{}).
		Where("room_id = ?", roomID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AddMember is for group rooms; project rooms follow project membership and
// direct rooms are fixed.
func (s *ChatService) AddMember(ctx context.Context, actor Actor, roomID, userID string) error {
	room, err := s.GetRoom(ctx, actor, roomID)
	if err != nil {
		return err
	}
	if room.Type != models.RoomGroup {
		return ErrInvalidInput
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ? AND status = ?", userID, models.UserActive).Error; err != nil {
		return notFound(err)
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ChatRoomMember{RoomID: roomID, UserID: userID, JoinedAt: s.now()}).Error
	if err != nil {
		return err
	}
	s.emit.EmitToUser(userID, "room_created", room)
	return nil
}

// RemoveMember lets room creators remove others and anyone leave.
func (s *ChatService) RemoveMember(ctx context.Context, actor Actor, roomID, userID string) error {
	room, err := s.GetRoom(ctx, actor, roomID)
	if err != nil {
		return err
	}
	if room.Type != models.RoomGroup {
		return ErrInvalidInput
	}
	if userID != actor.UserID && room.CreatedByID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.ChatRoomMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.emit.EvictFromRoom(roomID, userID)
	return nil
}

type MessageInput struct {
	Content   string
	Type      models.MessageType
	ReplyToID string
	TaskID    string
	FileURL   string
	FileName  string
	FileSize  int64
	MimeType  string
	Mentions  []string
}

// Send stores a message from a room member and fans it out to the room.
// A reply must target an existing message of the same room, so a message can
// never reply to itself: its id is only assigned on insert.
func (s *ChatService) Send(ctx context.Context, actor Actor, roomID string, in MessageInput) (*models.ChatMessage, error) {
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ok, err := s.IsMember(ctx, roomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	if room.IsArchived {
		return nil, ErrInvalidInput
	}
	msg := models.ChatMessage{
		Content:  strings.TrimSpace(in.Content),
		Type:     orDefault(in.Type, models.MessageText),
		Status:   models.MessageSent,
		RoomID:   roomID,
		AuthorID: actor.UserID,
		TaskID:   strPtr(in.TaskID),
		FileURL:  in.FileURL,
		FileName: in.FileName,
		FileSize: in.FileSize,
		MimeType: in.MimeType,
		Mentions: uniqueIDs(in.Mentions),
		ReadBy:   []string{actor.UserID},
	}
	if msg.Content == "" && !models.IsFileMessage(msg) {
		return nil, ErrInvalidInput
	}
	if in.ReplyToID != "" {
		var parent models.ChatMessage
		err := s.db.WithContext(ctx).Select("id").
			First(&parent, "id = ? AND room_id = ?", in.ReplyToID, roomID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidReply
			}
			return nil, err
		}
		msg.ReplyToID = &parent.ID
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(room).UpdateColumn("updated_at", msg.CreatedAt).Error; err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("touch room")
	}

	entry := activity(models.ActivityMessageSend, "sent message", actor.UserID)
	entry.ProjectID = room.ProjectID
	entry.TargetID, entry.TargetType = msg.ID, "chat_message"
	entry.IsVisible = false
	s.activity.Record(ctx, entry)

	s.emit.EmitToRoom(roomID, "new_message", msg)
	s.notifyMentions(ctx, actor, room, &msg)
	return &msg, nil
}

func (s *ChatService) notifyMentions(ctx context.Context, actor Actor, room *models.ChatRoom, msg *models.ChatMessage) {
	for _, uid := range msg.Mentions {
		if uid == actor.UserID {
			continue
		}
		if ok, err := s.IsMember(ctx, room.ID, uid); err != nil || !ok {
			continue
		}
		s.notify.Notify(ctx, models.Notification{
			Title:     "You were mentioned in " + room.Name,
			Message:   msg.Content,
			Type:      models.NotifyMention,
			UserID:    uid,
			ProjectID: room.ProjectID,
			SenderID:  strPtr(actor.UserID),
			Metadata:  map[string]any{"room_id": room.ID, "message_id": msg.ID},
		})
	}
}

// ListMessages pages backwards from before (a message id) and returns the
// page oldest first. Pages are ordered by (created_at, id) so messages that
// share a timestamp are neither skipped nor repeated.
func (s *ChatService) ListMessages(ctx context.Context, actor Actor, roomID string, limit int, before string) ([]models.ChatMessage, error) {
	if _, err := s.GetRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("room_id = ? AND is_deleted = ?", roomID, false)
	if before != "" {
		var anchor models.ChatMessage
		if err := s.db.WithContext(ctx).Select("id", "created_at").First(&anchor, "id = ? AND room_id = ?", before, roomID).Error; err != nil {
			return nil, notFound(err)
		}
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", anchor.CreatedAt, anchor.CreatedAt, anchor.ID)
	}
	var out []models.ChatMessage
	if err := q.Order("created_at desc").Order("id desc").Limit(clampLimit(limit, 50, 200)).Find(&out).Error; err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (s *ChatService) Edit(ctx context.Context, actor Actor, messageID, content string) (*models.ChatMessage, error) {
	msg, err := s.ownMessage(ctx, actor, messageID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(msg).Updates(map[string]any{
		"content":   content,
		"is_edited": true,
		"edited_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	msg.Content, msg.IsEdited, msg.EditedAt = content, true, &now

	entry := activity(models.ActivityMessageEdit, "edited message", actor.UserID)
	entry.TargetID, entry.TargetType = msg.ID, "chat_message"
	entry.IsVisible = false
	s.activity.Record(ctx, entry)
	s.emit.EmitToRoom(msg.RoomID, "message_edited", msg)
	return msg, nil
}

// Delete hides a message from listings; the row is kept for reply chains.
func (s *ChatService) Delete(ctx context.Context, actor Actor, messageID string) error {
	msg, err := s.ownMessage(ctx, actor, messageID)
	if err != nil {
		return err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(msg).Updates(map[string]any{
		"is_deleted": true,
		"deleted_at": now,
	}).Error
	if err != nil {
		return err
	}
	entry := activity(models.ActivityMessageDelete, "deleted message", actor.UserID)
	entry.TargetID, entry.TargetType = msg.ID, "chat_message"
	entry.IsVisible = false
	s.activity.Record(ctx, entry)
	s.emit.EmitToRoom(msg.RoomID, "message_deleted", payload{"id": msg.ID, "room_id": msg.RoomID})
	return nil
}

// MarkRead records the reader once in read_by.
func (s *ChatService) MarkRead(ctx context.Context, actor Actor, messageID string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := s.db.WithContext(ctx).First(&msg, "id = ? AND is_deleted = ?", messageID, false).Error; err != nil {
		return nil, notFound(err)
	}
	ok, err := s.IsMember(ctx, msg.RoomID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if slices.Contains(msg.ReadBy, actor.UserID) {
		return &msg, nil
	}
	msg.ReadBy = append(msg.ReadBy, actor.UserID)
	msg.Status = models.MessageRead
	if err := s.db.WithContext(ctx).Model(&msg).Select("read_by", "status").Updates(&msg).Error; err != nil {
		return nil, err
	}
	s.emit.EmitToRoom(msg.RoomID, "message_read", payload{"id": msg.ID, "room_id": msg.RoomID, "user_id": actor.UserID})
	return &msg, nil
}

func (s *ChatService) room(ctx context.Context, id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.db.WithContext(ctx).First(&room, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (s *ChatService) ownMessage(ctx context.Context, actor Actor, id string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := s.db.WithContext(ctx).First(&msg, "id = ? AND is_deleted = ?", id, false).Error; err != nil {
		return nil, notFound(err)
	}
	if msg.AuthorID != actor.UserID {
		return nil, ErrForbidden
	}
	return &msg, nil
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
