package domain

import (
	"fmt"
	"slices"
)

// Category tags an update with the kind of content that changed.
type Category string

const (
	CategoryDashboard Category = "dashboard"
	CategoryBlog      Category = "blog"
	CategoryUser      Category = "user"
	CategoryLike      Category = "like"
	CategoryComment   Category = "comment"
)

// Dashboard update types. The dashboard reuses the action slot as "type".
const (
	DashboardStats           = "stats"
	DashboardTotals          = "totals"
	DashboardPostsOverTime   = "posts_over_time"
	DashboardUsersOverTime   = "users_over_time"
	DashboardPostsByCategory = "posts_by_category"
	DashboardTopTags         = "top_tags"
	DashboardMostLiked       = "most_liked"
)

// Content actions shared by several categories.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionRegistered = "registered"
	ActionAdded      = "added"
	ActionRemoved    = "removed"
)

var vocabularies = map[Category][]string{
	CategoryDashboard: {
		DashboardStats,
		DashboardTotals,
		DashboardPostsOverTime,
		DashboardUsersOverTime,
		DashboardPostsByCategory,
		DashboardTopTags,
		DashboardMostLiked,
	},
	CategoryBlog:    {ActionCreated, ActionUpdated, ActionDeleted},
	CategoryUser:    {ActionRegistered, ActionUpdated, ActionDeleted},
	CategoryLike:    {ActionAdded, ActionRemoved},
	CategoryComment: {ActionCreated, ActionUpdated, ActionDeleted},
}

// Categories returns every category in wire order.
func Categories() []Category {
	return []Category{CategoryDashboard, CategoryBlog, CategoryUser, CategoryLike, CategoryComment}
}

// ParseCategory converts a string into a known Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := vocabularies[c]
	return ok
}

// EventName is the wire event carrying updates of this category.
func (c Category) EventName() string {
	return string(c) + "_update"
}

// ActionKey is the payload field holding the action: "type" for the
// dashboard, "action" for everything else.
func (c Category) ActionKey() string {
	if c == CategoryDashboard {
		return "type"
	}
	return "action"
}

// Actions returns a copy of the recognized action vocabulary.
func (c Category) Actions() []string {
	return slices.Clone(vocabularies[c])
}

// ValidateAction checks action against the category vocabulary.
func (c Category) ValidateAction(action string) error {
	actions, ok := vocabularies[c]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}
	if !slices.Contains(actions, action) {
		return fmt.Errorf("%w: %q is not a %s action", ErrInvalidAction, action, c)
	}
	return nil
}

func (c Category) String() string {
	return string(c)
}
