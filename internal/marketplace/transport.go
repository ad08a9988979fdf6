package marketplace

import "encoding/json"

// Wire shapes returned by the core marketplace API. These are normalized into
// catalog/partsflow domain types on ingestion; nothing downstream handles the
// raw JSON.

// RateGroupPayload is one named bucket of purchasable rates.
type RateGroupPayload struct {
	Title string        `json:"title"`
	Rates []RatePayload `json:"rates"`
}

// RatePayload is a single catalog line.
// UnitPrice is the authoritative price to charge; the remaining price fields
// are legacy display values some categories still return.
type RatePayload struct {
	ID            string   `json:"id"`
	Description   string   `json:"description"`
	UnitPrice     float64  `json:"unitPrice"`
	Price         *float64 `json:"price,omitempty"`
	LabourCharge  *float64 `json:"labourCharge,omitempty"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
}

// BrandPayload is a part brand.
type BrandPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ServiceItemPayload is one line of the booking being serviced.
type ServiceItemPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// PersistedPartPayload is a previously submitted part attached to a booking,
// e.g. from a rejected or partially approved submission. Brand may be an
// embedded {id,name} object or a bare id string depending on API version, so
// it is kept raw here and resolved by the reconciler.
type PersistedPartPayload struct {
	ID            string          `json:"id"`
	RateID        string          `json:"rateId,omitempty"`
	Description   string          `json:"description"`
	UnitPrice     float64         `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	ServiceItemID string          `json:"serviceItemId"`
	GroupTitle    string          `json:"groupTitle,omitempty"`
	Brand         json.RawMessage `json:"brand,omitempty"`
}

// BookingDetailPayload is the booking detail the workflow is entered with.
type BookingDetailPayload struct {
	ID            string                 `json:"id"`
	CategoryID    string                 `json:"categoryId"`
	SubCategoryID string                 `json:"subCategoryId"`
	PayableAmount float64                `json:"payableAmount"`
	ServiceItems  []ServiceItemPayload   `json:"serviceItems"`
	ExistingParts []PersistedPartPayload `json:"existingParts"`
}

// SubmissionLine is one flattened part line in the submission payload.
type SubmissionLine struct {
	ServiceItemID string  `json:"serviceItemId"`
	RateID        string  `json:"rateId"`
	Description   string  `json:"description"`
	UnitPrice     float64 `json:"unitPrice"`
	Quantity      int     `json:"quantity"`
	TotalPrice    float64 `json:"totalPrice"`
	GroupTitle    string  `json:"groupTitle"`
	BrandID       string  `json:"brandId,omitempty"`
}

// SubmissionPayload is the full parts submission for a booking.
type SubmissionPayload struct {
	BookingID             string           `json:"bookingId"`
	Parts                 []SubmissionLine `json:"parts"`
	OriginalAmount        float64          `json:"originalAmount"`
	AdditionalPartsAmount float64          `json:"additionalPartsAmount"`
	TotalAmount           float64          `json:"totalAmount"`
}

// SubmissionResult is the marketplace's answer to a parts submission.
type SubmissionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Notice is a fire-and-forget push notification request routed through the
// marketplace's notification service.
type Notice struct {
	RecipientID string `json:"recipientId"`
	BookingID   string `json:"bookingId"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

type rateGroupsResponse struct {
	RateGroups []RateGroupPayload `json:"rateGroups"`
}

type brandsResponse struct {
	Brands []BrandPayload `json:"brands"`
}

type bookingDetailResponse struct {
	Booking BookingDetailPayload `json:"booking"`
}
