package feed

import "github.com/inkflow/inkwell/internal/model"

// findComment walks the tree and returns the node with the given id,
// or nil. IDs are unique across the whole tree, so the first hit is
// the only hit.
func findComment(roots []*model.Comment, id string) *model.Comment {
	for _, c := range roots {
		if c.ID == id {
			return c
		}
		if found := findComment(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// countComments returns the size of a comment's subtree: the node
// itself plus every nested reply.
func countComments(c *model.Comment) int {
	total := 1
	for _, r := range c.Replies {
		total += countComments(r)
	}
	return total
}

// removeComment removes the node with the given id from anywhere in
// the tree, returning the updated root slice and the removed node
// (nil when absent).
func removeComment(roots []*model.Comment, id string) ([]*model.Comment, *model.Comment) {
	for i, c := range roots {
		if c.ID == id {
			return append(roots[:i:i], roots[i+1:]...), c
		}
		if replies, removed := removeComment(c.Replies, id); removed != nil {
			c.Replies = replies
			return roots, removed
		}
	}
	return roots, nil
}
