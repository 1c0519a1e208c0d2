// Package notify tells other surfaces that the dinner list changed.
//
// Notifier.Observe is called by the list model after every mutation. It
// compares the new head dish with the one seen before (all fields, so a
// rename or a new emoji counts) and only on a change it:
//
//  1. runs the write-through hook so the store already holds the new head,
//  2. publishes a HeadChanged event on the Hub.
//
// Widgets subscribe to HeadChanged. The peer pusher subscribes to ListSaved,
// which the model publishes after each write of the active list.
package notify
