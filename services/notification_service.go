package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/gorm"
)

// Recipient menentukan pemilik notifikasi: satu staff, atau satu meja (opsional + guest).
type Recipient struct {
	UserID  string
	TableID string
	GuestID string
}

func (r Recipient) valid() bool {
	return r.UserID != "" || r.TableID != ""
}

// NotificationService adalah read model notifikasi yang tersimpan.
// Notifikasi dibuat oleh OrderService di transaksi yang sama dengan order.
type NotificationService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewNotificationService(db *gorm.DB, timeout time.Duration) *NotificationService {
	return &NotificationService{db: db, timeout: timeout}
}

func (s *NotificationService) scoped(db *gorm.DB, to Recipient) *gorm.DB {
	if to.UserID != "" {
		return db.Where("to_user_id = ?", to.UserID)
	}
	db = db.Where("to_table_id = ?", to.TableID)
	if to.GuestID != "" {
		// notifikasi tanpa guest (order lama) tetap terlihat oleh semua guest di meja itu
		db = db.Where("(to_guest_id = ? OR to_guest_id IS NULL)", to.GuestID)
	}
	return db
}

// List -> terbaru di atas. Untuk staff, meja asal ikut di-preload.
func (s *NotificationService) List(ctx context.Context, to Recipient, onlyUnread bool) ([]models.Notification, error) {
	if !to.valid() {
		return nil, invalid("recipient", "user or table is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := s.scoped(s.db.WithContext(ctx).Model(&models.Notification{}), to)
	if onlyUnread {
		q = q.Where("is_read = ?", false)
	}
	if to.UserID != "" {
		q = q.Preload("FromTable")
	}

	notifs := make([]models.Notification, 0)
	if err := q.Order("created_at desc").Find(&notifs).Error; err != nil {
		return nil, persistence("list notifications", err)
	}
	return notifs, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, to Recipient) (int64, error) {
	if !to.valid() {
		return 0, invalid("recipient", "user or table is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	q := s.scoped(s.db.WithContext(ctx).Model(&models.Notification{}), to)
	if err := q.Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, persistence("count unread notifications", err)
	}
	return count, nil
}

// MarkAsRead hanya berlaku untuk notifikasi milik recipient tersebut.
func (s *NotificationService) MarkAsRead(ctx context.Context, id string, to Recipient) error {
	if !to.valid() {
		return invalid("recipient", "user or table is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var notif models.Notification
	err := s.scoped(s.db.WithContext(ctx).Model(&models.Notification{}), to).
		Where("id = ?", id).
		First(&notif).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "notification", ID: id}
	}
	if err != nil {
		return persistence("find notification", err)
	}
	if notif.IsRead {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&notif).Update("is_read", true).Error; err != nil {
		return persistence("mark notification read", err)
	}
	return nil
}

// MarkAllAsRead -> kalau ids kosong, semua notifikasi milik recipient ditandai terbaca.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, to Recipient, ids []string) (int64, error) {
	if !to.valid() {
		return 0, invalid("recipient", "user or table is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := s.scoped(s.db.WithContext(ctx).Model(&models.Notification{}), to).Where("is_read = ?", false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("is_read", true)
	if res.Error != nil {
		return 0, persistence("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// NewOrderText -> judul dan isi notifikasi order baru, dipakai untuk baris tersimpan dan event live
func NewOrderText(order *models.Order, tableName string) (string, string) {
	return "New Order", fmt.Sprintf("New order #%s from %s, total %s", order.ShortCode(), tableName, utils.FormatPrice(order.TotalPrice))
}

// newOrderNotifications -> satu baris per staff untuk order baru
func newOrderNotifications(order *models.Order, table *models.Table, staff []models.User) []models.Notification {
	title, message := NewOrderText(order, table.Name)

	notifs := make([]models.Notification, 0, len(staff))
	for _, u := range staff {
		notifs = append(notifs, models.Notification{
			Title:       title,
			Message:     message,
			Type:        models.NotificationNewOrder,
			OrderID:     strPtr(order.ID),
			FromTableID: strPtr(table.ID),
			ToUserID:    strPtr(u.ID),
		})
	}
	return notifs
}

// statusNotification -> notifikasi untuk meja (dan guest) asal order
func statusNotification(order *models.Order, staffID string) models.Notification {
	notif := models.Notification{
		OrderID:    strPtr(order.ID),
		FromUserID: strPtr(staffID),
		ToTableID:  order.TableID,
		ToGuestID:  order.GuestID,
	}

	switch order.Status {
	case models.OrderStatusConfirmed:
		notif.Type = models.NotificationOrderConfirmed
		notif.Title = "Order Confirmed"
		notif.Message = fmt.Sprintf("Your order #%s has been confirmed.", order.ShortCode())
	default:
		notif.Type = models.NotificationOrderRejected
		notif.Title = "Order Rejected"
		notif.Message = fmt.Sprintf("Your order #%s has been rejected.", order.ShortCode())
	}
	return notif
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
