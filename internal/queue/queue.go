// Package queue implements the single-threaded processing queue spec.md
// §4.4 describes: a queue of (document, text, openInEditor) items advanced
// only while no filesystem read is outstanding, driving each item through
// internal/adapter and, on drain, running internal/analysis and publishing
// diagnostics. It is grounded on internal/scheduler/scheduler.go's
// mutex-guarded queue/wait-group shape and internal/manager/manager.go's
// per-URI state map, adapted from a goroutine-driven task queue to the
// synchronous advance-while-idle discipline spec.md §5 requires.
package queue

import (
	"log"
	"path"
	"strings"

	"github.com/sasha-s/go-deadlock"
	"github.com/segmentio/ksuid"

	"github.com/NorthIsUp/awk-language-server/internal/adapter"
	"github.com/NorthIsUp/awk-language-server/internal/analysis"
	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
	"github.com/NorthIsUp/awk-language-server/internal/config"
	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/filesystem"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// Item is one entry of the processing queue.
type Item struct {
	URI          string
	Text         string
	OpenInEditor bool
}

// Publisher receives the diagnostics computed for one document at wrap-up.
// internal/server implements this by translating to protocol.Diagnostic
// and calling the client's textDocument/publishDiagnostics notification.
type Publisher interface {
	PublishDiagnostics(uri string, diagnostics []symbol.Diagnostic)
}

// Queue owns the pending work list and drives it against a graph, a parser,
// and a filesystem reader.
type Queue struct {
	mu    deadlock.Mutex
	items []Item

	graph     *docgraph.Graph
	reader    filesystem.Reader
	parser    awkparser.Parser
	publisher Publisher
	cfg       config.Config

	sets *analysis.AlteredSets
	// signatures is the last-observed function-signature snapshot per
	// document, used to detect whether a parse changed the signature set
	// (spec.md §4.5's documentsWithAlteredDefinitions trigger). Kept here
	// rather than on document.Document because ResetForReparse clears the
	// document's own tables before the comparison can happen.
	signatures map[string]map[string]document.FuncSignature

	// parseLevel is the re-entrancy assertion spec.md §4.4 describes: the
	// queue discipline should keep it at most 1.
	parseLevel int
}

// New returns a queue ready to accept items. cfg should already reflect the
// server's effective configuration.
func New(graph *docgraph.Graph, reader filesystem.Reader, parser awkparser.Parser, publisher Publisher, cfg config.Config) *Queue {
	return &Queue{
		graph:      graph,
		reader:     reader,
		parser:     parser,
		publisher:  publisher,
		cfg:        cfg,
		sets:       analysis.NewAlteredSets(),
		signatures: make(map[string]map[string]document.FuncSignature),
	}
}

// SetConfig replaces the effective configuration. If any recognized option
// changed, every open document is re-enqueued for revalidation, per
// spec.md §6's last sentence.
func (q *Queue) SetConfig(cfg config.Config) {
	q.mu.Lock()
	changed := !q.cfg.Equal(cfg)
	q.cfg = cfg
	var reopen []Item
	if changed {
		if root, ok := q.graph.Get(docgraph.EditorRoot); ok {
			for uri := range root.Includes {
				if doc, ok := q.graph.Get(uri); ok {
					reopen = append(reopen, Item{URI: uri, Text: doc.Text, OpenInEditor: true})
				}
			}
		}
	}
	q.items = append(q.items, reopen...)
	q.mu.Unlock()
	if changed {
		q.Advance()
	}
}

// Open enqueues an editor-opened buffer.
func (q *Queue) Open(uri, text string) {
	doc, existed := q.graph.Get(uri)
	if !existed {
		doc = document.New(uri)
	}
	q.graph.OpenInEditor(uri, doc)
	q.enqueue(Item{URI: uri, Text: text, OpenInEditor: true})
	q.Advance()
}

// Change enqueues a full-document text replacement for an already-open
// buffer (spec.md §6's full text-document sync).
func (q *Queue) Change(uri, text string) {
	q.enqueue(Item{URI: uri, Text: text, OpenInEditor: true})
	q.Advance()
}

// Close removes uri's editor-root edge. The document itself is only
// removed at the next wrap-up's orphan collection, if nothing else
// references it.
func (q *Queue) Close(uri string) {
	q.graph.CloseInEditor(uri)
	q.Advance()
}

func (q *Queue) enqueue(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Advance drives the queue forward: while items are pending and no read is
// outstanding, it dequeues and validates one at a time; when the queue
// drains with no outstanding reads, it runs wrap-up exactly once.
func (q *Queue) Advance() {
	for {
		if q.reader.OpenReads() > 0 {
			return
		}
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			q.wrapUp()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		q.validate(item)
	}
}

// validate runs one item through the parser adapter, tracking the
// parseLevel re-entrancy assertion (spec.md §4.4).
func (q *Queue) validate(item Item) {
	q.mu.Lock()
	q.parseLevel++
	level := q.parseLevel
	q.mu.Unlock()
	if level > 1 {
		log.Printf("queue: parseLevel reached %d during %s, proceeding anyway", level, item.URI)
	}
	defer func() {
		q.mu.Lock()
		q.parseLevel--
		q.mu.Unlock()
	}()

	doc, ok := q.graph.Get(item.URI)
	if !ok {
		doc = document.New(item.URI)
	}
	prevSignatures := q.signatures[item.URI]
	oldIncludes := make(map[string]bool, len(doc.Includes))
	for target := range doc.Includes {
		oldIncludes[target] = true
	}

	opts := adapter.Options{
		Mode: q.cfg.ParserMode(),
		StylisticWarnings: adapter.StylisticWarnings{
			MissingSemicolon: q.cfg.StylisticWarnings.MissingSemicolon,
			Compatibility:    q.cfg.StylisticWarnings.Compatibility,
		},
	}
	handler := &includeHandler{q: q, includerURI: item.URI}
	adapter.Run(doc, item.Text, baseName(item.URI), opts, q.parser, handler)

	newSignatures := doc.FuncSignatures()
	if !signaturesEqual(prevSignatures, newSignatures) {
		q.sets.DocumentsWithAlteredDefinitions[item.URI] = true
	}
	q.signatures[item.URI] = newSignatures
	q.sets.AlteredDocuments[item.URI] = true

	for target := range oldIncludes {
		if _, still := doc.Includes[target]; !still {
			q.graph.RemoveInclude(item.URI, target)
		}
	}
}

func signaturesEqual(a, b map[string]document.FuncSignature) bool {
	if len(a) != len(b) {
		return false
	}
	for name, sigA := range a {
		sigB, ok := b[name]
		if !ok || sigA.FirstOptional != sigB.FirstOptional || len(sigA.ParameterNames) != len(sigB.ParameterNames) {
			return false
		}
		for i := range sigA.ParameterNames {
			if sigA.ParameterNames[i] != sigB.ParameterNames[i] {
				return false
			}
		}
	}
	return true
}

// wrapUp runs exactly once per drained batch (spec.md §4.4): it collects
// orphaned documents, runs semantic analysis on the altered set, and
// publishes diagnostics for every live document. It always collects orphans
// and publishes, even when nothing was reparsed this batch (e.g. a bare
// editor Close), since removing the last reference to a document is itself
// a lifecycle event with no corresponding altered-set entry.
func (q *Queue) wrapUp() {
	batchID := ksuid.New().String()
	log.Printf("queue: wrap-up %s starting", batchID)

	q.graph.CollectOrphans()
	analysis.Run(q.graph, q.cfg, q.sets)

	max := q.cfg.MaxNumberOfProblems
	for _, doc := range q.graph.All() {
		q.publisher.PublishDiagnostics(doc.URI, doc.AllDiagnostics(max))
	}
	log.Printf("queue: wrap-up %s done", batchID)
}

// includeHandler adapts one parse's OnInclude events into graph mutations
// and, for newly discovered targets, a scheduled filesystem read
// (spec.md §4.1's addInclude operation).
type includeHandler struct {
	q           *Queue
	includerURI string
}

func (h *includeHandler) HandleInclude(filename string, relative bool, site position.Range) {
	q := h.q
	candidate, ok := resolveInclude(q.reader, h.includerURI, filename, relative, q.cfg.Path)
	if !ok {
		if doc, ok := q.graph.Get(h.includerURI); ok {
			doc.ParseDiagnostics = append(doc.ParseDiagnostics, symbol.Diagnostic{
				Range:    site,
				Severity: symbol.SeverityError,
				Message:  "cannot find include file: " + filename,
			})
		}
		return
	}

	_, created := q.graph.AddInclude(h.includerURI, candidate, site)
	if !created {
		return
	}
	q.reader.ReadFile(candidate, func(data []byte, err error) {
		q.graph.ResolvePlaceholder(candidate)
		if err != nil {
			q.Advance()
			return
		}
		q.enqueue(Item{URI: candidate, Text: string(data), OpenInEditor: false})
		q.Advance()
	})
}

// resolveInclude finds the first existing candidate for filename, either
// relative to includerURI's directory or against every entry of
// includePath, per spec.md §4.1.
func resolveInclude(reader filesystem.Reader, includerURI, filename string, relative bool, includePath []string) (string, bool) {
	if relative {
		candidate := path.Join(path.Dir(filePathFromURI(includerURI)), filename)
		if reader.FileExists(candidate) {
			return toFileURI(candidate), true
		}
		return "", false
	}
	for _, dir := range includePath {
		candidate := path.Join(dir, filename)
		if reader.FileExists(candidate) {
			return toFileURI(candidate), true
		}
	}
	return "", false
}

const fileURIScheme = "file://"

func toFileURI(p string) string {
	if strings.HasPrefix(p, fileURIScheme) {
		return p
	}
	return fileURIScheme + p
}

func filePathFromURI(uri string) string {
	return strings.TrimPrefix(uri, fileURIScheme)
}

func baseName(uri string) string {
	return path.Base(filePathFromURI(uri))
}
