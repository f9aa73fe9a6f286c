// Package docgraph owns the URI-to-document map and the bidirectional
// include-edge maps between documents, plus the reachability-based garbage
// collection spec.md §3's Lifecycle section describes. It is grounded on
// the teacher's in-memory link graph (internal/cache/graph.go): the same
// forward/backlinks map pair, the same create-before-load placeholder
// discipline, and the same "orphan once backlinks empty" collection rule,
// adapted from wiki notes to include-linked AWK documents.
package docgraph

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/position"
)

// EditorRoot is the synthetic document URI that includes every buffer the
// editor has open, so the reachability GC needs no special case for
// editor-owned liveness (spec.md §9's "should survive the rewrite as a
// named constant").
const EditorRoot = "awk-language-server://editor-root"

// Event is emitted on every include-edge or document lifecycle change, fed
// to internal/graphview's WebSocket push channel. It carries no payload the
// core needs for correctness; the query and analysis layers never subscribe.
type Event struct {
	Type EventType
	URI  string
	Peer string // the other endpoint of an edge event, empty for lifecycle events
}

// EventType enumerates the kinds of graph mutation graphview cares about.
type EventType int

const (
	DocumentCreated EventType = iota
	DocumentRemoved
	EdgeAdded
	EdgeRemoved
)

// Graph owns every live document and the include edges between them.
type Graph struct {
	mu        deadlock.RWMutex
	documents map[string]*document.Document
	// placeholders marks a document created for an include target whose
	// file read has not completed yet (spec.md §4.1's cycle-breaking rule:
	// the entry exists before the content does).
	placeholders map[string]bool

	subscribers map[int]chan Event
	nextSubID   int
}

// New returns a graph seeded with the synthetic editor root document.
func New() *Graph {
	g := &Graph{
		documents:    make(map[string]*document.Document),
		placeholders: make(map[string]bool),
		subscribers:  make(map[int]chan Event),
	}
	g.documents[EditorRoot] = document.New(EditorRoot)
	return g
}

// Get returns the document at uri, if any.
func (g *Graph) Get(uri string) (*document.Document, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.documents[uri]
	return d, ok
}

// GetOrCreatePlaceholder returns the existing document at uri, or creates
// and registers an empty one, reporting whether it was newly created. This
// is the operation that breaks include cycles (spec.md §4.1): the second
// include of the same URI observes the first's placeholder instead of
// recursing into another read.
func (g *Graph) GetOrCreatePlaceholder(uri string) (doc *document.Document, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if d, ok := g.documents[uri]; ok {
		return d, false
	}
	d := document.New(uri)
	g.documents[uri] = d
	g.placeholders[uri] = true
	g.emit(Event{Type: DocumentCreated, URI: uri})
	return d, true
}

// ResolvePlaceholder marks uri's document as no longer awaiting its initial
// read, once the filesystem read completes.
func (g *Graph) ResolvePlaceholder(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.placeholders, uri)
}

// IsPlaceholder reports whether uri's document is still awaiting its first
// successful read.
func (g *Graph) IsPlaceholder(uri string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.placeholders[uri]
}

// AddInclude records that includer names included at site, creating
// included's document (as a placeholder) if it does not exist. It updates
// both sides of the edge, maintaining spec.md §3's `includedBy(B) contains A
// iff includes(A) contains B` invariant.
func (g *Graph) AddInclude(includer, included string, site position.Range) (target *document.Document, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	target, ok := g.documents[included]
	if !ok {
		target = document.New(included)
		g.documents[included] = target
		g.placeholders[included] = true
		created = true
	}
	from, ok := g.documents[includer]
	if !ok {
		from = document.New(includer)
		g.documents[includer] = from
	}
	from.Includes[included] = append(from.Includes[included], site)
	target.IncludedBy[includer] = append(target.IncludedBy[includer], site)

	if created {
		g.emit(Event{Type: DocumentCreated, URI: included})
	}
	g.emit(Event{Type: EdgeAdded, URI: includer, Peer: included})
	return target, created
}

// RemoveInclude drops every site includer recorded for included (used when
// a reparse of includer no longer names included), removing both sides of
// the edge.
func (g *Graph) RemoveInclude(includer, included string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if from, ok := g.documents[includer]; ok {
		delete(from.Includes, included)
	}
	if to, ok := g.documents[included]; ok {
		delete(to.IncludedBy, includer)
	}
	g.emit(Event{Type: EdgeRemoved, URI: includer, Peer: included})
}

// SyncIncludes reconciles includer's previously recorded Includes set
// against newIncludes (the set discovered by the latest parse), removing
// edges to targets no longer named and returning the newly created
// documents so the queue can schedule their reads.
func (g *Graph) SyncIncludes(includer string, newIncludes map[string][]position.Range) (created []*document.Document) {
	g.mu.RLock()
	from, ok := g.documents[includer]
	var stale []string
	if ok {
		for target := range from.Includes {
			if _, still := newIncludes[target]; !still {
				stale = append(stale, target)
			}
		}
	}
	g.mu.RUnlock()

	for _, target := range stale {
		g.RemoveInclude(includer, target)
	}
	for target, sites := range newIncludes {
		for _, site := range sites {
			doc, isNew := g.AddInclude(includer, target, site)
			if isNew {
				created = append(created, doc)
			}
		}
	}
	return created
}

// OpenInEditor registers doc under uri (replacing any document already
// there) and adds an edge from the synthetic editor root to it.
func (g *Graph) OpenInEditor(uri string, doc *document.Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.documents[uri] = doc
	root := g.documents[EditorRoot]
	root.Includes[uri] = append(root.Includes[uri], position.Range{})
	doc.IncludedBy[EditorRoot] = append(doc.IncludedBy[EditorRoot], position.Range{})
	g.emit(Event{Type: EdgeAdded, URI: EditorRoot, Peer: uri})
}

// CloseInEditor removes uri's edge from the editor root. The document
// itself is only removed by CollectOrphans, once nothing else references
// it.
func (g *Graph) CloseInEditor(uri string) {
	g.RemoveInclude(EditorRoot, uri)
}

// CollectOrphans removes every document (other than EditorRoot itself)
// whose IncludedBy set is empty, transitively: removing an orphan can empty
// out its own include targets' backlink sets in turn (spec.md §3's
// Lifecycle: "transitively re-checks emptiness"). It returns the URIs
// removed.
func (g *Graph) CollectOrphans() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var removed []string
	for {
		var dead string
		for uri, doc := range g.documents {
			if uri == EditorRoot {
				continue
			}
			if len(doc.IncludedBy) == 0 {
				dead = uri
				break
			}
		}
		if dead == "" {
			break
		}
		doc := g.documents[dead]
		for target := range doc.Includes {
			if t, ok := g.documents[target]; ok {
				delete(t.IncludedBy, dead)
			}
		}
		delete(g.documents, dead)
		delete(g.placeholders, dead)
		removed = append(removed, dead)
	}
	for _, uri := range removed {
		g.emit(Event{Type: DocumentRemoved, URI: uri})
	}
	return removed
}

// All returns every live document, for wrap-up-time diagnostic publishing
// and workspace-wide query aggregation.
func (g *Graph) All() []*document.Document {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*document.Document, 0, len(g.documents))
	for uri, d := range g.documents {
		if uri == EditorRoot {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ReachableIncluders returns the transitive closure of documents that
// include uri, directly or indirectly, along IncludedBy edges (spec.md
// §4.5's "every document that, directly or transitively, includes A").
func (g *Graph) ReachableIncluders(uri string) map[string]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[string]bool{}
	var walk func(string)
	walk = func(u string) {
		doc, ok := g.documents[u]
		if !ok {
			return
		}
		for includer := range doc.IncludedBy {
			if seen[includer] {
				continue
			}
			seen[includer] = true
			walk(includer)
		}
	}
	walk(uri)
	return seen
}

// Subscribe returns a channel of graph events for internal/graphview. The
// caller is responsible for draining it; events are dropped, not blocked
// on, if the channel is full, matching the teacher's non-blocking emit.
func (g *Graph) Subscribe() (ch <-chan Event, cancel func()) {
	g.mu.Lock()
	c := make(chan Event, 32)
	id := g.nextSubID
	g.nextSubID++
	g.subscribers[id] = c
	g.mu.Unlock()

	return c, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if sub, ok := g.subscribers[id]; ok {
			delete(g.subscribers, id)
			close(sub)
		}
	}
}

// emit fans evt out to every subscriber. Every call site already holds g.mu,
// matching internal/cache/graph.go's emit convention.
func (g *Graph) emit(evt Event) {
	for _, ch := range g.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
