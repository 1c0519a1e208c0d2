// Package dishes is the dinner list model of one device.
//
// A Model holds the ordered active list and the archive of completed
// dishes. Every mutation:
//
//  1. changes the in-memory list,
//  2. schedules a debounced write of the active list (Config.SaveDelay),
//  3. asks the notifier whether the head dish changed.
//
// When the head changed the notifier calls back into Flush, so surfaces
// reading the store see the new head immediately. Deleting or restoring
// writes the archive right away.
//
// Basic usage:
//
//	shared := store.NewShared(backend, store.DefaultGroup, nil)
//	hub := notify.NewHub(nil)
//	n, _ := notify.New(hub)
//	m, _ := dishes.New(shared, n)
//	m.Load(ctx)
//	defer m.Close()
//
//	m.Add("Spaghetti carbonara")
//	m.Move([]int{1}, 0)
//	m.Delete(0) // archived with today's date
//
// Failures to read the store come back as an empty list and failures to
// write are logged; neither is returned to the caller. Only bad input
// (blank names, unknown ids, positions outside the list) is an error.
package dishes
