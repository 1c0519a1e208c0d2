// Package dish defines the dish record shared by every surface of the app.
//
// # Overview
//
// A dish is a small identified record. The phone app, the home-screen widget
// and the companion app all read and write the same JSON shape, so this
// package owns the encoding:
//
//	[
//	  {
//	    "id": "6F9619FF-8B86-D011-B42D-00C04FC964FF",
//	    "name": "Spaghetti carbonara",
//	    "emoji": "🍝 🥓",
//	    "completedDate": "2026-01-10T19:36:29Z"
//	  }
//	]
//
// completedDate is absent while a dish is on the active list and set to the
// moment it was archived.
//
// # Lists
//
// Lists are plain []Dish values. Position is meaningful: the first element is
// the head dish shown on widgets, and the index maps to a day of the week when
// day labels are enabled (see DayLabel).
//
// # Emoji
//
// DetectEmoji resolves a dish name against a static keyword table. Up to three
// matching glyphs are joined with a space; a plate is used when nothing
// matches.
//
// # Usage Examples
//
// Encoding a list for the shared store:
//
//	data, err := dish.EncodeList(list)
//
// Decoding a list, treating bad bytes as empty:
//
//	list, err := dish.DecodeList(data)
//	if err != nil {
//	    list = nil
//	}
//
// Reading an exported file:
//
//	list, err := dish.ReadListFile("MijnGerechtenlijst.json")
package dish
