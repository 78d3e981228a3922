// Package storage writes export artifacts.
//
// Every artifact is written to a temporary file in the output directory and
// renamed into place on Commit, so a reader never sees a half-written list or
// archive. An aborted artifact leaves nothing behind.
//
//	manager, err := storage.NewManager("./exports")
//	name := storage.ArtifactName("instagram-images", time.Now(), "txt")
//	path, err := manager.Save(name, strings.NewReader(list))
package storage
