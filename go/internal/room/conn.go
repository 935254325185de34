package room

import "github.com/mcdev12/jokenpo/go/internal/models"

// Conn is the manager's view of one live connection. Send must not block;
// a message that cannot be delivered is dropped.
type Conn interface {
	ID() string
	Identity() models.Identity
	Send(msg Outbound)
	RoomCode() string
	SetRoomCode(code string)
}
