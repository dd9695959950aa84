package conversation

// Conversation is an ordered transcript, index 0 is the first message sent.
type Conversation []Message

func (c Conversation) Equal(other Conversation) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (c Conversation) IsEmpty() bool {
	return len(c) == 0
}

// AttachmentIDs lists every attachment id referenced by the conversation.
func (c Conversation) AttachmentIDs() []string {
	var ret []string
	for _, m := range c {
		for _, a := range m.Attachments {
			ret = append(ret, a.ID)
		}
	}
	return ret
}

// Index returns the position of the first conversation in list that is
// content-equal to c, or -1.
func (c Conversation) Index(list []Conversation) int {
	for i, other := range list {
		if c.Equal(other) {
			return i
		}
	}
	return -1
}
