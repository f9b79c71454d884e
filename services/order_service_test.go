package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/digital-menu/models"
)

func TestSubmitOrder_CreatesPendingOrderWithNotification(t *testing.T) {
	f := newFixture(t)

	res, err := f.orders.SubmitOrder(context.Background(), f.input("g1"))
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 13.0, order.TotalPrice)
	assert.Equal(t, models.OrderCreatedByGuest, order.CreatedBy)
	require.NotNil(t, order.TableID)
	assert.Equal(t, f.table.ID, *order.TableID)
	require.NotNil(t, order.GuestID)
	assert.Equal(t, "g1", *order.GuestID)
	assert.Len(t, order.OrderItems, 2)
	assert.NotEmpty(t, order.OrderCode)
	require.NotNil(t, order.Table)
	assert.Equal(t, "Table 1", order.Table.Name)

	// hanya waiter; chef bukan staff role
	require.Len(t, res.Notifications, 1)
	notif := res.Notifications[0]
	assert.Equal(t, models.NotificationNewOrder, notif.Type)
	require.NotNil(t, notif.ToUserID)
	assert.Equal(t, f.staff.ID, *notif.ToUserID)
	assert.Contains(t, notif.Message, "Table 1")
	assert.Contains(t, notif.Message, "13.00")

	assert.Equal(t, int64(1), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(2), count(t, f.db, &models.OrderItem{}))
	assert.Equal(t, int64(1), count(t, f.db, &models.Notification{}))
}

func TestSubmitOrder_UsesCatalogPrice(t *testing.T) {
	f := newFixture(t)

	in := f.input("g1")
	in.CartItems[0].Price = 0.01
	in.TotalPrice = 1

	res, err := f.orders.SubmitOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 13.0, res.Order.TotalPrice)

	var items []models.OrderItem
	require.NoError(t, f.db.Where("order_id = ?", res.Order.ID).Find(&items).Error)
	var sum int64
	for _, it := range items {
		sum += int64(it.Price*100) * int64(it.Quantity)
	}
	assert.Equal(t, int64(1300), sum)
}

func TestSubmitOrder_NoStaffStillCreatesOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Delete(&f.staff).Error)

	res, err := f.orders.SubmitOrder(context.Background(), f.input("g1"))
	require.NoError(t, err)
	assert.Empty(t, res.Notifications)
	assert.Equal(t, int64(1), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.Notification{}))
}

func TestSubmitOrder_ValidationLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	wagyu := models.Product{Name: "Wagyu Platter", Price: 90000000}
	require.NoError(t, f.db.Create(&wagyu).Error)

	cases := []struct {
		name  string
		edit  func(in *SubmitOrderInput)
		field string
	}{
		{"missing table", func(in *SubmitOrderInput) { in.TableID = " " }, "tableId"},
		{"missing guest", func(in *SubmitOrderInput) { in.GuestID = "" }, "guestId"},
		{"empty cart", func(in *SubmitOrderInput) { in.CartItems = nil }, "cartItems"},
		{"zero quantity", func(in *SubmitOrderInput) { in.CartItems[1].Quantity = 0 }, "cartItems[1].quantity"},
		{"quantity over limit", func(in *SubmitOrderInput) { in.CartItems[0].Quantity = MaxItemQuantity + 1 }, "cartItems[0].quantity"},
		{"quantity that would overflow", func(in *SubmitOrderInput) { in.CartItems[0].Quantity = math.MaxInt64 / 250 }, "cartItems[0].quantity"},
		{"total over column limit", func(in *SubmitOrderInput) {
			in.CartItems = []CartItem{{ProductID: wagyu.ID, Quantity: 1}, {ProductID: wagyu.ID, Quantity: 1}}
		}, "cartItems"},
		{"negative price", func(in *SubmitOrderInput) { in.CartItems[0].Price = -1 }, "cartItems[0].price"},
		{"unknown table", func(in *SubmitOrderInput) { in.TableID = "nope" }, "tableId"},
		{"unknown product", func(in *SubmitOrderInput) { in.CartItems[0].ProductID = "nope" }, "cartItems[0].productId"},
		{"unavailable product", func(in *SubmitOrderInput) { in.CartItems[1].ProductID = f.soldOut.ID }, "cartItems[1].productId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input("g1")
			tc.edit(&in)

			res, err := f.orders.SubmitOrder(context.Background(), in)
			assert.Nil(t, res)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	assert.Equal(t, int64(0), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderItem{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.Notification{}))
}

func TestSubmitOrder_PersistenceFailureIsGeneric(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&models.Notification{}))

	_, err := f.orders.SubmitOrder(context.Background(), f.input("g1"))
	require.Error(t, err)

	var pe *PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, MsgGenericFailure, PublicMessage(err))

	// rollback: order tidak boleh tertinggal tanpa notifikasinya
	assert.Equal(t, int64(0), count(t, f.db, &models.Order{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderItem{}))
}

func TestTransitionOrder_Confirm(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	res, err := f.orders.TransitionOrder(context.Background(), order.ID, f.staff.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, res.Order.Status)
	assert.Len(t, res.Order.OrderItems, 2)

	n := res.Notification
	assert.Equal(t, models.NotificationOrderConfirmed, n.Type)
	require.NotNil(t, n.ToTableID)
	assert.Equal(t, f.table.ID, *n.ToTableID)
	require.NotNil(t, n.ToGuestID)
	assert.Equal(t, "g1", *n.ToGuestID)
	require.NotNil(t, n.FromUserID)
	assert.Equal(t, f.staff.ID, *n.FromUserID)
	assert.Contains(t, n.Message, order.ShortCode())

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
}

func TestTransitionOrder_Reject(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	res, err := f.orders.TransitionOrder(context.Background(), order.ID, f.staff.ID, models.OrderStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRejected, res.Order.Status)
	assert.Equal(t, models.NotificationOrderRejected, res.Notification.Type)
}

func TestTransitionOrder_TerminalOrder(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	_, err := f.orders.TransitionOrder(context.Background(), order.ID, f.staff.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = f.orders.TransitionOrder(context.Background(), order.ID, f.staff.ID, models.OrderStatusRejected)
	var se *InvalidStateError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, models.OrderStatusConfirmed, se.Status)
	assert.Equal(t, "Order is already confirmed", PublicMessage(err))

	// hanya satu notifikasi status (plus satu new_order)
	assert.Equal(t, int64(2), count(t, f.db, &models.Notification{}))
}

func TestTransitionOrder_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	for _, staffID := range []string{"", "unknown-user", f.chef.ID} {
		_, err := f.orders.TransitionOrder(context.Background(), order.ID, staffID, models.OrderStatusConfirmed)
		var pe *PermissionError
		require.True(t, errors.As(err, &pe), "staff %q: got %v", staffID, err)
		assert.Equal(t, MsgNoPermission, PublicMessage(err))
	}

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, int64(1), count(t, f.db, &models.Notification{}))
}

func TestTransitionOrder_UnknownOrderAndStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.TransitionOrder(context.Background(), "missing", f.staff.ID, models.OrderStatusConfirmed)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)

	order := f.submit(t, "g1")
	_, err = f.orders.TransitionOrder(context.Background(), order.ID, f.staff.ID, models.OrderStatusPending)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve), "got %v", err)
}

func TestTransitionOrder_ConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	other := models.User{Name: "Waiter 2", Email: "s2@test.local", Password: "x", Role: "waiter"}
	require.NoError(t, f.db.Create(&other).Error)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		invalid int
	)
	statuses := []string{models.OrderStatusConfirmed, models.OrderStatusRejected}
	staff := []string{f.staff.ID, other.ID}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.orders.TransitionOrder(context.Background(), order.ID, staff[i], statuses[i])

			mu.Lock()
			defer mu.Unlock()
			var se *InvalidStateError
			switch {
			case err == nil:
				success++
			case errors.As(err, &se):
				invalid++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, invalid)

	var n int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("type <> ?", models.NotificationNewOrder).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestListOrders_Pagination(t *testing.T) {
	f := newFixture(t)
	var last *models.Order
	for i := 0; i < 3; i++ {
		last = f.submit(t, "g1")
		time.Sleep(2 * time.Millisecond)
	}

	page, err := f.orders.ListOrders(context.Background(), ListOrdersQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, last.ID, page.Data[0].ID)
	assert.Equal(t, Pagination{
		CurrentPage:     1,
		TotalPages:      2,
		ItemsPerPage:    2,
		TotalRecords:    3,
		HasNextPage:     true,
		HasPreviousPage: false,
	}, page.Pagination)

	page, err = f.orders.ListOrders(context.Background(), ListOrdersQuery{Search: last.OrderCode})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, last.ID, page.Data[0].ID)
	assert.Equal(t, 10, page.Pagination.ItemsPerPage)
}

func TestListTableOrders_ScopedToGuest(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "g1")
	f.submit(t, "g2")

	mine, err := f.orders.ListTableOrders(context.Background(), f.table.ID, "g1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "g1", *mine[0].GuestID)
	assert.Len(t, mine[0].OrderItems, 2)

	all, err := f.orders.ListTableOrders(context.Background(), f.table.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := f.orders.ListTableOrders(context.Background(), f.other.ID, "g1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	order := f.submit(t, "g1")

	got, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderCode, got.OrderCode)
	require.Len(t, got.OrderItems, 2)
	assert.NotNil(t, got.OrderItems[0].Product)

	_, err = f.orders.GetOrder(context.Background(), "missing")
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}
