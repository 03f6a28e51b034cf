// Package transition choreographs route changes on the studio site.
//
// An Orchestrator owns a Scene of animation targets and runs, for every route
// change after the first, an exit/overlay/enter sequence. A newer route
// change cancels the running sequence and resets the scene before starting
// its own. Targets are abstract, so sequences can be played against
// HeadlessTarget recorders in tests and from the CLI.
package transition
