// Package peer keeps the companion's copy of the dinner list up to date.
//
// # Overview
//
// The phone pushes its whole list after every save. There is no merge and
// no acknowledgement: whatever the companion receives replaces its list.
//
//	phone Model ──ListSaved──▶ Pusher ──▶ Channel.Push
//	                                          │
//	                    reachable? ──yes──▶ SendMessage ──▶ companion
//	                        │ no / failed
//	                        ▼
//	                  UpdateContext (one slot, last write wins)
//	                        │ delivered when the companion connects
//	                        ▼
//	                    companion Receiver.Apply ──▶ Model.Replace + Flush
//
// # Transport
//
// Server is the phone end and implements Link over WebSocket:
//
//   - /ws accepts companions; the pending context is sent first
//   - /health reports the client count and pairing state
//   - a companion "requestDishes" frame triggers ServerConfig.OnRequest
//
// Client is the companion end. It dials the phone, asks for the list,
// applies "message" and "context" frames, and reconnects after a pause.
//
// # Wire Format
//
// Each frame is an Envelope:
//
//	{"type": "message", "timestamp": "...", "data": {
//	    "dishesData": "<base64 of the JSON dish array>",
//	    "daysInsteadOfNumbers": true}}
//
// # Error Handling
//
// Every transport failure is logged and swallowed. Push only returns an
// error for an encode failure, and that error wraps ErrEncode. A payload
// the companion cannot decode is dropped and its list stays as it was.
package peer
