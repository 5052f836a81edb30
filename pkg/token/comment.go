package token

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// CommentKindOf returns the comment kind for a trivia token type.
func CommentKindOf(t TokenType) (CommentKind, bool) {
	switch t {
	case LINE_COMMENT:
		return LineComment, true
	case BLOCK_COMMENT:
		return BlockComment, true
	default:
		return 0, false
	}
}

// NodeKind returns the syntax node kind used for comments of this kind.
// Block comments are called marginalia in the tree.
func (k CommentKind) NodeKind() string {
	if k == BlockComment {
		return "marginalia"
	}
	return "comment"
}
