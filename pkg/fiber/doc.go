// Package fiber implements the incremental reconciliation engine.
//
// A Session owns two trees of work units: the committed tree, last applied
// to the host, and the work-in-progress tree being built for the next
// generation. Rendering is split into units of work, one per tree node,
// performed depth-first by Resume. Resume stops at unit boundaries whenever
// its Deadline asks it to yield; all progress lives in the session, so the
// next Resume continues exactly where the previous one stopped. Once every
// unit is performed the session commits: it removes deleted host nodes,
// applies placements and attribute updates, and promotes the
// work-in-progress tree to committed.
//
// Units in one tree are linked by ordinary pointers. The link from a unit to
// its counterpart in the previous generation is a UnitRef resolved against
// the committed tree, so it never keeps a retired generation alive.
//
// Every state change dispatched through hooks re-renders the whole tree from
// the root; a dispatch that arrives while a render is in flight discards the
// in-flight generation and starts over.
package fiber
