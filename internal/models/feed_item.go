package models

// FeedItem represents one source content unit to be turned into an article
type FeedItem struct {
	Guid     string `json:"guid"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Image    string `json:"image"`
	Url      string `json:"url"`
	Category string `json:"category"`
}
