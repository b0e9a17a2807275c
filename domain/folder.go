package domain

import "time"

// Folder is a node in a user's folder tree. A folder with an empty ParentID
// sits at the root. The parent relation over one user's folders always forms
// a forest; the store rejects moves that would introduce a cycle.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
