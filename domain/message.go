package domain

// MessageType tags a chat message variant on the wire.
type MessageType string

const (
	TypeSystem  MessageType = "sys"
	TypeText    MessageType = "msg"
	TypeSticker MessageType = "sticker"
	TypeFile    MessageType = "file"
)

// Message is one entry in a room history. Build values through the variant
// constructors; each variant populates exactly the fields its type requires
// and messages are never mutated after creation.
type Message struct {
	Type     MessageType `json:"type"`
	Username string      `json:"username,omitempty"`
	Text     string      `json:"text,omitempty"`
	Filename string      `json:"filename,omitempty"`
	Base64   string      `json:"base64,omitempty"`
}

func System(text string) Message {
	return Message{Type: TypeSystem, Text: text}
}

func Text(username, text string) Message {
	return Message{Type: TypeText, Username: username, Text: text}
}

func Sticker(username, base64 string) Message {
	return Message{Type: TypeSticker, Username: username, Base64: base64}
}

func File(username, filename, base64 string) Message {
	return Message{Type: TypeFile, Username: username, Filename: filename, Base64: base64}
}
