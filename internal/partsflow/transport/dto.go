// Package transport defines request and response shapes for the parts
// workflow HTTP API.
package transport

import (
	"sort"

	"fieldparts_backend/internal/catalog"
	"fieldparts_backend/internal/partsflow/domain"
	"fieldparts_backend/internal/partsflow/service"
	"fieldparts_backend/internal/partsflow/session"
)

// EnterRequest opens a parts workflow on a booking.
type EnterRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
}

// SearchRequest sets the catalog filter for one service item. An empty query
// clears the filter.
type SearchRequest struct {
	ServiceItemID string `json:"serviceItemId" validate:"required"`
	Query         string `json:"query" validate:"max=120"`
}

// SelectRequest attaches a catalog rate to a service item.
type SelectRequest struct {
	ServiceItemID string `json:"serviceItemId" validate:"required"`
	RateID        string `json:"rateId" validate:"required"`
}

// ConfirmBrandRequest resolves the open brand prompt.
type ConfirmBrandRequest struct {
	BrandID string `json:"brandId" validate:"required"`
}

// QuantityRequest updates a selected part's quantity. Zero removes the part
// and must be confirmed.
type QuantityRequest struct {
	Quantity      int  `json:"quantity" validate:"min=0,max=999"`
	ConfirmRemove bool `json:"confirmRemove"`
}

// AssignBrandRequest changes the brand on a selected part.
type AssignBrandRequest struct {
	BrandID string `json:"brandId" validate:"required"`
}

// BrandView is a brand option.
type BrandView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RateView is one purchasable part in the catalog, annotated with its current
// selection state for the requesting service item.
type RateView struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
	Selected    bool    `json:"selected"`
	Quantity    int     `json:"quantity,omitempty"`
}

// RateGroupView is a catalog group after filtering.
type RateGroupView struct {
	Title string     `json:"title"`
	Rates []RateView `json:"rates"`
}

// ServiceItemView is one booking line with its filtered catalog and parts
// subtotal.
type ServiceItemView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     float64         `json:"unitPrice"`
	Total         float64         `json:"total"`
	PartsSubtotal float64         `json:"partsSubtotal"`
	SearchQuery   string          `json:"searchQuery,omitempty"`
	Catalog       []RateGroupView `json:"catalog"`
}

// SelectedPartView is one ledger entry.
type SelectedPartView struct {
	SelectionKey    string     `json:"selectionKey"`
	RateID          string     `json:"rateId"`
	Description     string     `json:"description"`
	UnitPrice       float64    `json:"unitPrice"`
	Quantity        int        `json:"quantity"`
	LineTotal       float64    `json:"lineTotal"`
	ServiceItemID   string     `json:"serviceItemId"`
	ServiceItemName string     `json:"serviceItemName"`
	GroupTitle      string     `json:"groupTitle,omitempty"`
	Brand           *BrandView `json:"brand,omitempty"`
	IsExisting      bool       `json:"isExisting"`
}

// BrandPromptView is the state of the brand-gating dialog.
type BrandPromptView struct {
	Open          bool   `json:"open"`
	RateID        string `json:"rateId,omitempty"`
	ServiceItemID string `json:"serviceItemId,omitempty"`
}

// WorkflowResponse is the full client-facing state of a workflow session.
type WorkflowResponse struct {
	ID               string             `json:"id"`
	BookingID        string             `json:"bookingId"`
	CatalogAvailable bool               `json:"catalogAvailable"`
	BrandRequired    bool               `json:"brandRequired"`
	Brands           []BrandView        `json:"brands"`
	ServiceItems     []ServiceItemView  `json:"serviceItems"`
	SelectedParts    []SelectedPartView `json:"selectedParts"`
	BrandPrompt      BrandPromptView    `json:"brandPrompt"`
	Totals           domain.Totals      `json:"totals"`
}

// SelectResponse wraps a selection attempt's outcome with the refreshed
// workflow state.
type SelectResponse struct {
	Status   service.SelectStatus `json:"status"`
	Workflow WorkflowResponse     `json:"workflow"`
}

// WorkflowFromSession projects a session into its response shape.
func WorkflowFromSession(sess *session.Session) WorkflowResponse {
	resp := WorkflowResponse{
		ID:               sess.ID,
		BookingID:        sess.BookingID,
		CatalogAvailable: sess.CatalogAvailable,
		BrandRequired:    sess.Catalog.BrandRequired(),
		Brands:           brandViews(sess.Catalog.Brands),
		ServiceItems:     serviceItemViews(sess),
		SelectedParts:    selectedPartViews(sess),
		Totals:           sess.Totals(),
	}
	if sess.BrandPrompt.IsOpen() {
		resp.BrandPrompt = BrandPromptView{
			Open:          true,
			RateID:        sess.BrandPrompt.RateID,
			ServiceItemID: sess.BrandPrompt.ServiceItemID,
		}
	}
	return resp
}

func brandViews(brands []catalog.Brand) []BrandView {
	views := make([]BrandView, 0, len(brands))
	for _, b := range brands {
		views = append(views, BrandView{ID: b.ID, Name: b.Name})
	}
	return views
}

func serviceItemViews(sess *session.Session) []ServiceItemView {
	views := make([]ServiceItemView, 0, len(sess.ServiceItems))
	for _, item := range sess.ServiceItems {
		view := ServiceItemView{
			ID:            item.ID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Total:         item.Total,
			PartsSubtotal: domain.ServiceItemSubtotal(sess.Ledger, item.ID),
			SearchQuery:   sess.SearchQuery(item.ID),
		}
		for _, group := range service.FilteredCatalog(sess, item.ID) {
			groupView := RateGroupView{Title: group.Title, Rates: make([]RateView, 0, len(group.Rates))}
			for _, rate := range group.Rates {
				key := domain.SelectionKeyFor(rate.ID, item.ID)
				groupView.Rates = append(groupView.Rates, RateView{
					ID:          rate.ID,
					Description: rate.Description,
					UnitPrice:   rate.UnitPrice,
					Selected:    sess.Ledger.Has(key),
					Quantity:    sess.Ledger.Quantity(key),
				})
			}
			view.Catalog = append(view.Catalog, groupView)
		}
		views = append(views, view)
	}
	return views
}

func selectedPartViews(sess *session.Session) []SelectedPartView {
	views := make([]SelectedPartView, 0, sess.Ledger.Len())
	for key, part := range sess.Ledger.Parts {
		quantity := sess.Ledger.Quantities[key]
		view := SelectedPartView{
			SelectionKey:    key,
			RateID:          part.RateID,
			Description:     part.Description,
			UnitPrice:       part.UnitPrice,
			Quantity:        quantity,
			LineTotal:       domain.LineTotal(part, quantity),
			ServiceItemID:   part.ServiceItemID,
			ServiceItemName: part.ServiceItemName,
			GroupTitle:      part.GroupTitle,
			IsExisting:      part.IsExisting,
		}
		if part.HasBrand() {
			view.Brand = &BrandView{ID: part.BrandID, Name: part.BrandName}
		}
		views = append(views, view)
	}
	// Map iteration order is random; keep the list stable for clients.
	sort.Slice(views, func(i, j int) bool {
		if views[i].ServiceItemID != views[j].ServiceItemID {
			return views[i].ServiceItemID < views[j].ServiceItemID
		}
		return views[i].Description < views[j].Description
	})
	return views
}
