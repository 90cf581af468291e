// Package sources exposes task lists from different backends behind one
// Source interface.
//
// GTasksSource talks to Google Tasks through a tasks.Client and obtains its
// access token lazily from a google.TokenProvider. MockSource keeps two
// sample lists in memory and is used for offline runs and tests. A Manager
// holds the registered sources and syncs them concurrently, recording one
// span and one sync metric per source.
package sources
