package models

import "time"

// Story is a submitted link. Username names the owning user.
type Story struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Author   string    `json:"author"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}
