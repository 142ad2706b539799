package ws

// IHub pushes alert payloads to connected users. Two implementations:
// the in-memory hub for a single server and the Redis hub for a fleet.
type IHub interface {
	Run()
	RegisterClient(client *UserClient)
	UnregisterClient(client *UserClient)
	SendToUser(userId string, payload []byte)
	ConnectedCount() int
}
