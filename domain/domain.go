package domain

import "errors"

var (
	// ErrMalformedMessage marks an inbound payload missing a field its
	// classified variant requires. Handlers drop the payload, they do not
	// close the connection.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrEmptyUpload is returned by the upload path when the request
	// carries no file part.
	ErrEmptyUpload = errors.New("empty upload")
)

// Connection is one client session. A connection may be a member of several
// rooms at once; Send and Close are best-effort and must not block.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry owns all room state: history, membership, fan-out.
type Registry interface {
	// Join adds conn to the room, replays the room history to conn alone
	// and announces the arrival to every member.
	Join(conn Connection, room, username string)
	// Post appends msg to the room history and broadcasts it to every
	// current member.
	Post(room string, msg Message)
	// Teardown clears the room history, notifies members and evicts them.
	Teardown(room string)
	// Unregister removes conn from every room it joined.
	Unregister(conn Connection)
	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}
