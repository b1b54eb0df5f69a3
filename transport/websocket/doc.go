// Package websocket pushes snake sessions to browsers and takes steering
// input back.
//
// A single Hub goroutine owns every connection. Clients join a session
// with /ws?session=<id>. After each step they receive
//
//	{"session_id":"ab12","event":"step","game_state":{...},"data":{...}}
//
// and when a game ends a "game_over" event carries the outcome and final
// score. Clients steer a live session by sending {"action":"left"},
// {"action":"right"} or {"action":"straight"}; the action lands in the
// session's input slot and is used on the next tick.
//
// Hub implements service.StepListener, so passing it to
// service.WithStepListener is all the wiring needed. Broadcasting never
// blocks the game: when the queue is full the message is dropped.
//
// Usage:
//
//	hub := websocket.NewHub(nil)
//	svc := service.NewGameService(sessions, configs, service.WithStepListener(hub))
//	hub.SetActionSink(svc)
//	go hub.Run(ctx)
package websocket
