package chat

// ConversationID keys the conversation between two users. It depends only on
// the unordered pair: the ordinally smaller id comes first.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// BlockKey is the directed key of a block record as seen from a towards b.
func BlockKey(a, b string) string {
	return a + "_" + b
}
