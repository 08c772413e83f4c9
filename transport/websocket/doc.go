// Package websocket is the client transport.
//
// Each connection gets a Client that implements players.Sender: outbound
// messages are JSON encoded and queued on a buffered channel drained by the
// connection's write pump, so a slow peer never blocks a room broadcast. A
// client whose buffer fills up is disconnected. The read pump hands every
// inbound frame to the Dispatcher and reports the disconnect when the socket
// closes.
//
// Usage:
//
//	hub := websocket.NewHub(dispatcher, logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
package websocket
