// internal/domain/review/entity.go
package review

import (
	"net/url"
	"slices"
	"strconv"
	"time"
)

// MaxEdits is how many times a customer may edit a review
const MaxEdits = 3

// Author is the reviewer
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Reply is the store owner's one answer to a review
type Reply struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Review represents a product review
type Review struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	StoreID     string    `json:"storeId,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	Images      []string  `json:"images,omitempty"`
	EditCount   int       `json:"editCount"`
	Reply       *Reply    `json:"reply,omitempty"`
	Author      Author    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key implements store.Entity
func (r Review) Key() string { return r.ID }

// CanEdit reports whether the edit control is offered
func (r Review) CanEdit() bool {
	return r.EditCount < MaxEdits
}

// EditsLeft returns the remaining edits
func (r Review) EditsLeft() int {
	if r.EditCount >= MaxEdits {
		return 0
	}
	return MaxEdits - r.EditCount
}

// CanReply reports whether the store owner may still reply
func (r Review) CanReply() bool {
	return r.Reply == nil
}

// EditRequest is the body of PATCH /reviews/:id
type EditRequest struct {
	Rating  int      `json:"rating"`
	Comment string   `json:"comment"`
	Images  []string `json:"images"`
}

// applyTo returns r with the edit written and one more edit counted
func (e EditRequest) applyTo(r Review) Review {
	r.Rating = e.Rating
	r.Comment = e.Comment
	r.Images = slices.Clone(e.Images)
	r.EditCount++
	return r
}

// wrote reports whether r still holds exactly what applyTo wrote over prev
func (e EditRequest) wrote(prev, r Review) bool {
	return r.EditCount == prev.EditCount+1 &&
		r.Rating == e.Rating &&
		r.Comment == e.Comment &&
		slices.Equal(r.Images, e.Images)
}

// ReplyRequest is the body of POST /reviews/:id/reply
type ReplyRequest struct {
	Reply string `json:"reply"`
}

// Filter narrows GET /reviews. Mine lists the signed-in customer's reviews;
// StoreID lists reviews of a store's products for its owner.
type Filter struct {
	ProductID string
	StoreID   string
	Mine      bool
	Rating    int
	Page      int
	Limit     int
}

// Values encodes f as URL query parameters
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.ProductID != "" {
		v.Set("productId", f.ProductID)
	}
	if f.StoreID != "" {
		v.Set("storeId", f.StoreID)
	}
	if f.Mine {
		v.Set("mine", "true")
	}
	if f.Rating > 0 {
		v.Set("rating", strconv.Itoa(f.Rating))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

func (f Filter) sameScope(o Filter) bool {
	return f.ProductID == o.ProductID && f.StoreID == o.StoreID && f.Mine == o.Mine && f.Rating == o.Rating
}

// ListResult is one page of reviews
type ListResult struct {
	Reviews    []Review
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Summary aggregates ratings over the cached reviews
type Summary struct {
	Count          int
	Average        float64
	Distribution   [5]int // index 0 holds one-star reviews
	WithReply      int
	EditsExhausted int
}

// Summarize computes the rating summary of reviews
func Summarize(reviews []Review) Summary {
	var s Summary
	total := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		s.Count++
		total += r.Rating
		s.Distribution[r.Rating-1]++
		if r.Reply != nil {
			s.WithReply++
		}
		if !r.CanEdit() {
			s.EditsExhausted++
		}
	}
	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}
	return s
}
