package integration

// ---------------------------------------------------------------------------
// LocalOrderStatus
// ---------------------------------------------------------------------------

// LocalOrderStatus is the local commerce system's order status vocabulary.
type LocalOrderStatus string

const (
	LocalStatusPending    LocalOrderStatus = "pending"
	LocalStatusConfirmed  LocalOrderStatus = "confirmed"
	LocalStatusPreparing  LocalOrderStatus = "preparing"
	LocalStatusShipped    LocalOrderStatus = "shipped"
	LocalStatusDelivered  LocalOrderStatus = "delivered"
	LocalStatusCancelled  LocalOrderStatus = "cancelled"
	LocalStatusReturned   LocalOrderStatus = "returned"
)

// IsValid returns true if the status is part of the local vocabulary.
func (s LocalOrderStatus) IsValid() bool {
	switch s {
	case LocalStatusPending, LocalStatusConfirmed, LocalStatusPreparing,
		LocalStatusShipped, LocalStatusDelivered, LocalStatusCancelled, LocalStatusReturned:
		return true
	default:
		return false
	}
}

// String returns the string representation of LocalOrderStatus.
func (s LocalOrderStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Status Translation Tables
// ---------------------------------------------------------------------------

// Marketplaces evolve their status vocabularies without notice, so the
// tables below are intentionally lossy in the remote→local direction:
// RemoteToLocal maps unknown statuses to LocalStatusPending and reports
// ok=false so the caller can log the fallback. The local→remote direction
// is total over the local vocabulary for every supported marketplace.

var trendyolToLocal = map[string]LocalOrderStatus{
	"Created":     LocalStatusPending,
	"Picking":     LocalStatusPreparing,
	"Invoiced":    LocalStatusConfirmed,
	"Shipped":     LocalStatusShipped,
	"Delivered":   LocalStatusDelivered,
	"Cancelled":   LocalStatusCancelled,
	"UnDelivered": LocalStatusShipped,
	"Returned":    LocalStatusReturned,
}

var localToTrendyol = map[LocalOrderStatus]string{
	LocalStatusPending:   "Created",
	LocalStatusConfirmed: "Invoiced",
	LocalStatusPreparing: "Picking",
	LocalStatusShipped:   "Shipped",
	LocalStatusDelivered: "Delivered",
	LocalStatusCancelled: "Cancelled",
	LocalStatusReturned:  "Returned",
}

var n11ToLocal = map[string]LocalOrderStatus{
	"New":                LocalStatusPending,
	"Approved":           LocalStatusConfirmed,
	"Preparing":          LocalStatusPreparing,
	"Shipped":            LocalStatusShipped,
	"Delivered":          LocalStatusDelivered,
	"Rejected":           LocalStatusCancelled,
	"Cancelled":          LocalStatusCancelled,
	"Returned":           LocalStatusReturned,
	"ClaimCreated":       LocalStatusReturned,
	"LateShipmentClaim":  LocalStatusShipped,
}

var localToN11 = map[LocalOrderStatus]string{
	LocalStatusPending:   "New",
	LocalStatusConfirmed: "Approved",
	LocalStatusPreparing: "Preparing",
	LocalStatusShipped:   "Shipped",
	LocalStatusDelivered: "Delivered",
	LocalStatusCancelled: "Cancelled",
	LocalStatusReturned:  "Returned",
}

var hepsiburadaToLocal = map[string]LocalOrderStatus{
	"Open":        LocalStatusPending,
	"Packaged":    LocalStatusPreparing,
	"ReadyToShip": LocalStatusConfirmed,
	"InTransit":   LocalStatusShipped,
	"Delivered":   LocalStatusDelivered,
	"CancelledByMerchant": LocalStatusCancelled,
	"CancelledByCustomer": LocalStatusCancelled,
	"Returned":            LocalStatusReturned,
}

var localToHepsiburada = map[LocalOrderStatus]string{
	LocalStatusPending:   "Open",
	LocalStatusConfirmed: "ReadyToShip",
	LocalStatusPreparing: "Packaged",
	LocalStatusShipped:   "InTransit",
	LocalStatusDelivered: "Delivered",
	LocalStatusCancelled: "CancelledByMerchant",
	LocalStatusReturned:  "Returned",
}

func remoteTable(code MarketplaceCode) map[string]LocalOrderStatus {
	switch code {
	case MarketplaceTrendyol:
		return trendyolToLocal
	case MarketplaceN11:
		return n11ToLocal
	case MarketplaceHepsiburada:
		return hepsiburadaToLocal
	default:
		return nil
	}
}

func localTable(code MarketplaceCode) map[LocalOrderStatus]string {
	switch code {
	case MarketplaceTrendyol:
		return localToTrendyol
	case MarketplaceN11:
		return localToN11
	case MarketplaceHepsiburada:
		return localToHepsiburada
	default:
		return nil
	}
}

// RemoteToLocal translates a marketplace status into the local vocabulary.
// Unknown remote statuses map to LocalStatusPending with ok=false; callers
// must log the fallback rather than fail, since marketplaces introduce new
// statuses without notice.
func RemoteToLocal(code MarketplaceCode, remoteStatus string) (status LocalOrderStatus, ok bool) {
	table := remoteTable(code)
	if table == nil {
		return LocalStatusPending, false
	}
	if local, found := table[remoteStatus]; found {
		return local, true
	}
	return LocalStatusPending, false
}

// LocalToRemote translates a local status into the marketplace's vocabulary.
// Returns ok=false for an unknown marketplace or a status outside the local
// vocabulary.
func LocalToRemote(code MarketplaceCode, localStatus LocalOrderStatus) (remoteStatus string, ok bool) {
	table := localTable(code)
	if table == nil {
		return "", false
	}
	remote, found := table[localStatus]
	return remote, found
}
