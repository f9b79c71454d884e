package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PresenceService menyimpan jejak koneksi di database: baris table_connections untuk
// customer dan kolom socket pada user untuk staff. Jejak ini hanya petunjuk; routing
// selalu memakai registry in-memory.
type PresenceService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPresenceService(db *gorm.DB, timeout time.Duration) *PresenceService {
	return &PresenceService{db: db, timeout: timeout}
}

func (s *PresenceService) TableExists(ctx context.Context, tableID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var table models.Table
	err := s.db.WithContext(ctx).Select("id").First(&table, "id = ?", tableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, persistence("find table", err)
	}
	return true, nil
}

// RegisterTableConnection mencatat koneksi customer. Registrasi ulang dengan connection
// yang sama menimpa meja/guest sebelumnya.
func (s *PresenceService) RegisterTableConnection(ctx context.Context, tableID, guestID, connID string) error {
	tableID = strings.TrimSpace(tableID)
	guestID = strings.TrimSpace(guestID)
	if tableID == "" {
		return invalid("tableId", "table is required")
	}
	if guestID == "" {
		return invalid("guestId", "guest is required")
	}
	if connID == "" {
		return invalid("connectionId", "connection is required")
	}

	exists, err := s.TableExists(ctx, tableID)
	if err != nil {
		return err
	}
	if !exists {
		return invalid("tableId", "unknown table")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	conn := models.TableConnection{
		TableID:      tableID,
		GuestID:      guestID,
		ConnectionID: connID,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "connection_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"table_id", "guest_id"}),
	}).Create(&conn).Error
	if err != nil {
		return persistence("register table connection", err)
	}
	return nil
}

// RemoveTableConnection hanya menghapus baris milik connection ini, koneksi lain di meja yang sama tetap ada.
func (s *PresenceService) RemoveTableConnection(ctx context.Context, connID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(ctx).Where("connection_id = ?", connID).Delete(&models.TableConnection{})
	if res.Error != nil {
		return 0, persistence("remove table connection", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *PresenceService) ListTableConnections(ctx context.Context, tableID string) ([]models.TableConnection, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	conns := make([]models.TableConnection, 0)
	if err := s.db.WithContext(ctx).Where("table_id = ?", tableID).Order("created_at asc").Find(&conns).Error; err != nil {
		return nil, persistence("list table connections", err)
	}
	return conns, nil
}

func (s *PresenceService) SetStaffHint(ctx context.Context, userID, connID string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("socket", connID).Error
	if err != nil {
		return persistence("set staff socket", err)
	}
	return nil
}

// ClearStaffHint hanya mengosongkan hint yang masih menunjuk ke connection ini.
// Kalau staff sudah reconnect, hint yang baru tidak ikut terhapus.
func (s *PresenceService) ClearStaffHint(ctx context.Context, connID string) (int64, error) {
	if connID == "" {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("socket = ?", connID).Update("socket", "")
	if res.Error != nil {
		return 0, persistence("clear staff socket", res.Error)
	}
	return res.RowsAffected, nil
}

// PruneStale menghapus jejak koneksi yang tidak lagi hidup (misal setelah crash),
// hanya untuk baris yang lebih tua dari olderThan.
func (s *PresenceService) PruneStale(ctx context.Context, isLive func(connID string) bool, olderThan time.Time) (int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var conns []models.TableConnection
	if err := s.db.WithContext(ctx).Where("created_at < ?", olderThan).Find(&conns).Error; err != nil {
		return 0, persistence("find stale connections", err)
	}

	var staleConns []string
	for _, c := range conns {
		if !isLive(c.ConnectionID) {
			staleConns = append(staleConns, c.ConnectionID)
		}
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Select("id", "socket").Where("socket <> ?", "").Find(&users).Error; err != nil {
		return 0, persistence("find staff sockets", err)
	}

	var staleHints []string
	for _, u := range users {
		if !isLive(u.Socket) {
			staleHints = append(staleHints, u.Socket)
		}
	}

	if len(staleConns) == 0 && len(staleHints) == 0 {
		return 0, nil
	}

	removed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(staleConns) > 0 {
			res := tx.Where("connection_id IN ?", staleConns).Delete(&models.TableConnection{})
			if res.Error != nil {
				return res.Error
			}
			removed += int(res.RowsAffected)
		}
		if len(staleHints) > 0 {
			res := tx.Model(&models.User{}).Where("socket IN ?", staleHints).Update("socket", "")
			if res.Error != nil {
				return res.Error
			}
			removed += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, persistence("prune stale connections", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"connections": len(staleConns),
		"staff_hints": len(staleHints),
	}).Info("Pruned stale presence records")
	return removed, nil
}
