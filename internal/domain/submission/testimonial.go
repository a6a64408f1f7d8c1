package submission

type Testimonial struct {
	ID        int    `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	Rating    Rating `json:"rating"`
	CreatedAt string `json:"createdAt"`
}

// createdAt is supplied by the client and kept verbatim
type CreateTestimonialRequest struct {
	User      string `json:"user" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Rating    Rating `json:"rating" binding:"required"`
	CreatedAt string `json:"createdAt" binding:"required"`
}

// NextTestimonialID returns one past the highest id in existing. For an
// append-only list it equals len(existing)+1, and it never hands out an id
// twice even if the list were ever pruned.
func NextTestimonialID(existing []Testimonial) int {
	max := 0
	for _, t := range existing {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func NewTestimonial(req CreateTestimonialRequest, id int) Testimonial {
	return Testimonial{
		ID:        id,
		User:      req.User,
		Content:   req.Content,
		Rating:    req.Rating,
		CreatedAt: req.CreatedAt,
	}
}
