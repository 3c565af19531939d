package models

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Order is a delivery offer. Identity is OrderID; the client never edits the
// fields, only the order's membership in a collection.
type Order struct {
	OrderID string   `json:"orderId"`
	Rider   string   `json:"rider"`
	Start   GeoPoint `json:"start"`
	End     GeoPoint `json:"end"`
	Price   int      `json:"price"`
}
