package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/gorm"
)

// MaxItemQuantity -> batas quantity per baris keranjang
const MaxItemQuantity = 1000

// CartItem adalah satu baris keranjang seperti yang dikirim client.
// Price dari client hanya dipakai untuk sanity check; harga resmi diambil dari Catalog.
type CartItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type SubmitOrderInput struct {
	TableID    string     `json:"tableId"`
	GuestID    string     `json:"guestId"`
	CartItems  []CartItem `json:"cartItems"`
	TotalPrice float64    `json:"totalPrice"`
}

func (in *SubmitOrderInput) normalize() {
	in.TableID = strings.TrimSpace(in.TableID)
	in.GuestID = strings.TrimSpace(in.GuestID)
	for i := range in.CartItems {
		in.CartItems[i].ProductID = strings.TrimSpace(in.CartItems[i].ProductID)
	}
}

func (in SubmitOrderInput) validate() error {
	if in.TableID == "" {
		return invalid("tableId", "table is required")
	}
	if in.GuestID == "" {
		return invalid("guestId", "guest is required")
	}
	if len(in.CartItems) == 0 {
		return invalid("cartItems", "cart is empty")
	}
	for i, item := range in.CartItems {
		field := fmt.Sprintf("cartItems[%d]", i)
		if item.ProductID == "" {
			return invalid(field+".productId", "product is required")
		}
		if item.Quantity <= 0 {
			return invalid(field+".quantity", "quantity must be positive")
		}
		if item.Quantity > MaxItemQuantity {
			return invalid(field+".quantity", fmt.Sprintf("quantity must not exceed %d", MaxItemQuantity))
		}
		if item.Price < 0 {
			return invalid(field+".price", "price must not be negative")
		}
	}
	return nil
}

type SubmitResult struct {
	Order         *models.Order
	Notifications []models.Notification
}

type TransitionResult struct {
	Order        *models.Order
	Notification models.Notification
}

// OrderService berisi pipeline order: intake (none -> pending) dan transisi status
// (pending -> confirmed | rejected). Setiap mutasi order dan notifikasinya ada di satu transaksi.
type OrderService struct {
	db         *gorm.DB
	catalog    Catalog
	staffRoles []string
	timeout    time.Duration
}

func NewOrderService(db *gorm.DB, catalog Catalog, staffRoles []string, timeout time.Duration) *OrderService {
	return &OrderService{
		db:         db,
		catalog:    catalog,
		staffRoles: staffRoles,
		timeout:    timeout,
	}
}

func (s *OrderService) isStaffRole(role string) bool {
	for _, r := range s.staffRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// SubmitOrder memvalidasi, menghitung ulang total, lalu menyimpan order pending beserta
// satu notifikasi new_order per staff dalam satu transaksi.
func (s *OrderService) SubmitOrder(ctx context.Context, in SubmitOrderInput) (*SubmitResult, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var table models.Table
	err := s.db.WithContext(ctx).First(&table, "id = ?", in.TableID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("tableId", "unknown table")
	}
	if err != nil {
		return nil, persistence("find table", err)
	}

	products, err := s.catalog.ResolveProducts(ctx, productIDs(in.CartItems))
	if err != nil {
		return nil, classify("resolve products", err)
	}

	items, totalCents, err := priceLines(in.CartItems, products)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		TableID:    &table.ID,
		GuestID:    strPtr(in.GuestID),
		Status:     models.OrderStatusPending,
		TotalPrice: utils.FromCents(totalCents),
		CreatedBy:  models.OrderCreatedByGuest,
		OrderItems: items,
	}

	if in.TotalPrice > 0 && utils.ToCents(in.TotalPrice) != totalCents {
		utils.InfoLogger.WithFields(logrus.Fields{
			"table_id":     in.TableID,
			"guest_id":     in.GuestID,
			"client_total": in.TotalPrice,
			"server_total": order.TotalPrice,
		}).Warn("Client total differs from recomputed total, using server total")
	}

	var notifs []models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return persistence("create order", err)
		}

		var staff []models.User
		if err := tx.Where("role IN ?", s.staffRoles).Order("created_at asc").Find(&staff).Error; err != nil {
			return persistence("find staff", err)
		}

		notifs = newOrderNotifications(&order, &table, staff)
		if len(notifs) == 0 {
			// tidak ada staff: order tetap dibuat
			return nil
		}
		if err := tx.Create(&notifs).Error; err != nil {
			return persistence("create notifications", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify("submit order", err)
	}

	order.Table = &table

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"order_code":    order.OrderCode,
		"table_id":      table.ID,
		"guest_id":      in.GuestID,
		"total":         order.TotalPrice,
		"notifications": len(notifs),
	}).Info("Order created")

	return &SubmitResult{Order: &order, Notifications: notifs}, nil
}

// TransitionOrder mengubah status order pending menjadi confirmed atau rejected.
// Status dicek ulang di dalam transaksi lewat conditional update, jadi dua staff yang
// balapan hanya menghasilkan satu transisi.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID, staffID, newStatus string) (*TransitionResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, invalid("orderId", "order is required")
	}
	if newStatus != models.OrderStatusConfirmed && newStatus != models.OrderStatusRejected {
		return nil, invalid("status", "status must be confirmed or rejected")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.authorizeStaff(ctx, staffID, "change order "+orderID+" to "+newStatus); err != nil {
		return nil, err
	}

	var result TransitionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":     newStatus,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return persistence("update order status", res.Error)
		}

		if res.RowsAffected == 0 {
			var current models.Order
			err := tx.Select("id", "status").First(&current, "id = ?", orderID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			if err != nil {
				return persistence("find order", err)
			}
			if !current.IsTerminal() {
				return persistence("update order status", fmt.Errorf("order %s still %s after update", orderID, current.Status))
			}
			return &InvalidStateError{OrderID: orderID, Status: current.Status}
		}

		var order models.Order
		if err := tx.Preload("OrderItems").Preload("Table").First(&order, "id = ?", orderID).Error; err != nil {
			return persistence("reload order", err)
		}

		notif := statusNotification(&order, staffID)
		if err := tx.Create(&notif).Error; err != nil {
			return persistence("create notification", err)
		}

		result = TransitionResult{Order: &order, Notification: notif}
		return nil
	})
	if err != nil {
		return nil, classify("transition order", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"staff_id": staffID,
		"status":   newStatus,
	}).Info("Order status changed")

	return &result, nil
}

func (s *OrderService) authorizeStaff(ctx context.Context, staffID, action string) error {
	deny := func(reason string) error {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"staff_id": staffID,
			"action":   action,
			"reason":   reason,
		}).Warn("Permission denied")
		return &PermissionError{UserID: staffID, Action: action}
	}

	if staffID == "" {
		return deny("anonymous")
	}

	var user models.User
	err := s.db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", staffID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return deny("unknown user")
	}
	if err != nil {
		return persistence("find staff", err)
	}
	if !s.isStaffRole(user.Role) {
		return deny("role " + user.Role)
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("OrderItems.Product").
		Preload("Table").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "order", ID: id}
	}
	if err != nil {
		return nil, persistence("find order", err)
	}
	return &order, nil
}

type ListOrdersQuery struct {
	Search   string
	Page     int
	PageSize int
}

type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	TotalRecords    int64 `json:"totalRecords"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

type OrderPage struct {
	Data       []models.Order `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// ListOrders -> daftar order untuk admin, terbaru di atas, dengan pagination
func (s *OrderService) ListOrders(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 10
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	base := s.db.WithContext(ctx).Model(&models.Order{})
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		base = base.Where("(id LIKE ? OR order_code LIKE ?)", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, persistence("count orders", err)
	}

	orders := make([]models.Order, 0)
	err := base.Session(&gorm.Session{}).
		Preload("Table").
		Order("created_at desc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, persistence("list orders", err)
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &OrderPage{
		Data: orders,
		Pagination: Pagination{
			CurrentPage:     q.Page,
			TotalPages:      totalPages,
			ItemsPerPage:    q.PageSize,
			TotalRecords:    total,
			HasNextPage:     q.Page < totalPages,
			HasPreviousPage: q.Page > 1,
		},
	}, nil
}

// ListTableOrders -> "my orders" untuk customer di satu meja
func (s *OrderService) ListTableOrders(ctx context.Context, tableID, guestID string) ([]models.Order, error) {
	if tableID == "" {
		return nil, invalid("tableId", "table is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := s.db.WithContext(ctx).Where("table_id = ?", tableID)
	if guestID != "" {
		q = q.Where("guest_id = ?", guestID)
	}

	orders := make([]models.Order, 0)
	if err := q.Preload("OrderItems").Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, persistence("list table orders", err)
	}
	return orders, nil
}

func productIDs(items []CartItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	return ids
}

// priceLines memakai harga katalog sebagai harga satuan dan mengembalikan total dalam sen.
func priceLines(cart []CartItem, products map[string]models.Product) ([]models.OrderItem, int64, error) {
	items := make([]models.OrderItem, 0, len(cart))
	var total int64

	for i, line := range cart {
		field := fmt.Sprintf("cartItems[%d].productId", i)
		product, ok := products[line.ProductID]
		if !ok {
			return nil, 0, invalid(field, "unknown product "+line.ProductID)
		}
		if !product.IsAvailable {
			return nil, 0, invalid(field, product.Name+" is not available")
		}
		if line.Price > 0 && utils.ToCents(line.Price) != utils.ToCents(product.Price) {
			utils.InfoLogger.WithFields(logrus.Fields{
				"product_id":   product.ID,
				"client_price": line.Price,
				"price":        product.Price,
			}).Debug("Client price differs from catalog price")
		}

		lineTotal, ok := utils.CheckedLineTotal(product.Price, line.Quantity)
		if !ok {
			return nil, 0, invalid(fmt.Sprintf("cartItems[%d].quantity", i), "line total is too large")
		}
		if total, ok = utils.AddAmount(total, lineTotal); !ok {
			return nil, 0, invalid("cartItems", "order total is too large")
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}
	return items, total, nil
}

// classify membiarkan error domain lewat apa adanya, sisanya jadi PersistenceError.
func classify(op string, err error) error {
	if IsExpected(err) {
		return err
	}
	return persistence(op, err)
}
