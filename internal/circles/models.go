package circles

import "time"

// Post is a message published into a reading circle's feed.
type Post struct {
	ID        string    `bson:"_id" json:"id"`
	CircleID  string    `bson:"circleId" json:"circleId"`
	AuthorUID string    `bson:"authorUid" json:"authorUid"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Page is one slice of a circle's feed, newest first. HasMore tells the
// client whether another request with Before=NextBefore would return more.
type Page struct {
	Items      []*Post    `json:"items"`
	HasMore    bool       `json:"hasMore"`
	NextBefore *time.Time `json:"nextBefore,omitempty"`
}
