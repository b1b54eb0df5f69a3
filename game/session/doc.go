// Package session keeps snake game sessions in memory and persists them.
//
// Manager owns the sessions. Each one carries its own engine, the config it
// was created from and an action slot used by live play. IDs are short
// random hex strings and are matched case-insensitively.
//
// Two SessionPersistence backends exist:
//
//   - FilePersistence writes one zstd-compressed JSON file per session
//     (<id>.json.zst) into a directory.
//   - SQLitePersistence keeps every session as a row of a single SQLite
//     database.
//
// Both store the config ID and a copy of the config next to the game state.
// On load the named config is looked up again; the stored copy is used when
// the name no longer resolves. The engine's random source is saved too, so
// a reloaded game places food exactly where the original would have.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions", configs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store)
//	_ = manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", configs.GetDefault())
package session
