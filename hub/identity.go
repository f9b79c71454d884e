package hub

// Kind membedakan koneksi staff dan customer
type Kind string

const (
	KindStaff    Kind = "staff"
	KindCustomer Kind = "customer"
)

// Identity adalah identitas logis di balik satu koneksi transport.
type Identity struct {
	Kind    Kind
	UserID  string
	Role    string
	TableID string
	GuestID string
}

func StaffIdentity(userID, role string) Identity {
	return Identity{Kind: KindStaff, UserID: userID, Role: role}
}

// CustomerIdentity -> guestID boleh kosong kalau koneksi baru tahu mejanya saja
func CustomerIdentity(tableID, guestID string) Identity {
	return Identity{Kind: KindCustomer, TableID: tableID, GuestID: guestID}
}

func (i Identity) IsStaff() bool {
	return i.Kind == KindStaff && i.UserID != ""
}

type scope int

const (
	scopeAllStaff scope = iota + 1
	scopeStaff
	scopeTable
	scopeGuest
)

// Selector adalah target broadcast logis yang di-resolve ke koneksi hidup saat emit.
type Selector struct {
	scope   scope
	userID  string
	tableID string
	guestID string
}

func AllStaff() Selector {
	return Selector{scope: scopeAllStaff}
}

func Staff(userID string) Selector {
	return Selector{scope: scopeStaff, userID: userID}
}

// Table -> semua guest di satu meja
func Table(tableID string) Selector {
	return Selector{scope: scopeTable, tableID: tableID}
}

// Guest -> semua tab milik satu guest di satu meja
func Guest(tableID, guestID string) Selector {
	return Selector{scope: scopeGuest, tableID: tableID, guestID: guestID}
}

func (s Selector) matches(id Identity) bool {
	switch s.scope {
	case scopeAllStaff:
		return id.Kind == KindStaff
	case scopeStaff:
		return id.Kind == KindStaff && s.userID != "" && id.UserID == s.userID
	case scopeTable:
		return id.Kind == KindCustomer && s.tableID != "" && id.TableID == s.tableID
	case scopeGuest:
		return id.Kind == KindCustomer && s.tableID != "" && s.guestID != "" &&
			id.TableID == s.tableID && id.GuestID == s.guestID
	}
	return false
}

func (s Selector) String() string {
	switch s.scope {
	case scopeAllStaff:
		return "staff:*"
	case scopeStaff:
		return "staff:" + s.userID
	case scopeTable:
		return "table:" + s.tableID
	case scopeGuest:
		return "table:" + s.tableID + "/guest:" + s.guestID
	}
	return "none"
}
